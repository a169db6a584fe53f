package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port        int               `json:"port"`
	LogConfig   logger.LogConfig  `json:"log_config"`
	CORSOrigins []string          `json:"cors_origins"`
	AI          AIConfig          `json:"ai"`
	Embedding   EmbeddingConfig   `json:"embedding"`
	VectorStore VectorStoreConfig `json:"vector_store"`
	LedgerDir   string            `json:"ledger_dir"`
	Sources     []SourceConfig    `json:"sources"`
	Schedule    ScheduleConfig    `json:"schedule"`
	Watch       WatchConfig       `json:"watch"`
}

type AIConfig struct {
	Provider    string      `json:"provider"`
	Data        interface{} `json:"data"`
	EmbedModel  string      `json:"embed_model"`
	ChatModel   string      `json:"chat_model"`
	TimeoutSecs int         `json:"timeout_secs"`
}

type EmbeddingConfig struct {
	Dim           int `json:"dim"`
	CacheSize     int `json:"cache_size"`
	CacheTTLHours int `json:"cache_ttl_hours"`
}

type VectorStoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type SourceConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type ScheduleConfig struct {
	IngestSpec string `json:"ingest_spec"`
}

type WatchConfig struct {
	Enable       bool     `json:"enable"`
	Dirs         []string `json:"dirs"`
	DebounceSecs int      `json:"debounce_secs"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Port == 0 {
		cfg.Port = 8089
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.AI.Provider == "" {
		return nil, fmt.Errorf("ai.provider is required")
	}
	if cfg.AI.EmbedModel == "" {
		return nil, fmt.Errorf("ai.embed_model is required")
	}
	if cfg.AI.ChatModel == "" {
		cfg.AI.ChatModel = cfg.AI.EmbedModel
	}
	if cfg.AI.TimeoutSecs == 0 {
		cfg.AI.TimeoutSecs = 60
	}
	if cfg.Embedding.Dim <= 0 {
		return nil, fmt.Errorf("embedding.dim is required")
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Embedding.CacheTTLHours == 0 {
		cfg.Embedding.CacheTTLHours = 24
	}
	if cfg.VectorStore.Type == "" {
		return nil, fmt.Errorf("vector_store.type is required")
	}
	if cfg.LedgerDir == "" {
		return nil, fmt.Errorf("ledger_dir is required")
	}
	if len(cfg.Sources) == 0 {
		return nil, fmt.Errorf("at least one source is required")
	}
	for i, src := range cfg.Sources {
		if src.Type == "" {
			return nil, fmt.Errorf("sources[%d].type is required", i)
		}
	}
	if cfg.Watch.Enable && len(cfg.Watch.Dirs) == 0 {
		return nil, fmt.Errorf("watch.dirs is required when watch is enabled")
	}
	return &cfg, nil
}
