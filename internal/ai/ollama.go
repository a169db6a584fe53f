package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const defaultOllamaBaseURL = "http://localhost:11434"

// Models like nomic-embed-text distinguish storage-time from query-time
// embeddings with an instruction prefix on the input text.
const (
	defaultDocumentPrefix = "search_document: "
	defaultQueryPrefix    = "search_query: "
)

type ollamaConfig struct {
	BaseURL        string `json:"base_url"`
	DocumentPrefix string `json:"document_prefix"`
	QueryPrefix    string `json:"query_prefix"`
}

type ollamaProvider struct {
	baseURL        string
	documentPrefix string
	queryPrefix    string
}

type ollamaGenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
}

type ollamaEmbedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbedResponse struct {
	Embedding []float32 `json:"embedding"`
}

func (p *ollamaProvider) Name() string {
	return "ollama"
}

func (p *ollamaProvider) Generate(ctx context.Context, model string, prompt string) (string, error) {
	reqBody := ollamaGenerateRequest{
		Model:  model,
		Prompt: prompt,
		Stream: false,
	}
	var out ollamaGenerateResponse
	if err := p.postJSON(ctx, "/api/generate", reqBody, &out); err != nil {
		return "", err
	}
	return strings.TrimSpace(out.Response), nil
}

func (p *ollamaProvider) Embed(ctx context.Context, model string, text string, taskType string) ([]float32, error) {
	reqBody := ollamaEmbedRequest{
		Model:  model,
		Prompt: p.applyTaskPrefix(taskType, text),
	}
	var out ollamaEmbedResponse
	if err := p.postJSON(ctx, "/api/embeddings", reqBody, &out); err != nil {
		return nil, err
	}
	if len(out.Embedding) == 0 {
		return nil, fmt.Errorf("ollama response has no embedding")
	}
	return out.Embedding, nil
}

func (p *ollamaProvider) applyTaskPrefix(taskType, text string) string {
	switch taskType {
	case TaskRetrievalDocument:
		return p.documentPrefix + text
	case TaskRetrievalQuery:
		return p.queryPrefix + text
	default:
		return text
	}
}

func (p *ollamaProvider) postJSON(ctx context.Context, path string, body interface{}, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	endpoint := strings.TrimRight(p.baseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		payload, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("ollama request failed: %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func createOllamaFactory(args interface{}) (IProvider, error) {
	cfg := &ollamaConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultOllamaBaseURL
	}
	documentPrefix := cfg.DocumentPrefix
	if documentPrefix == "" {
		documentPrefix = defaultDocumentPrefix
	}
	queryPrefix := cfg.QueryPrefix
	if queryPrefix == "" {
		queryPrefix = defaultQueryPrefix
	}
	return &ollamaProvider{
		baseURL:        baseURL,
		documentPrefix: documentPrefix,
		queryPrefix:    queryPrefix,
	}, nil
}

func init() {
	Register("ollama", createOllamaFactory)
}
