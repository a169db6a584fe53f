// Package vectorstore defines the minimal vector-database contract the
// ingestion and retrieval pipeline needs, with pluggable backends selected by
// configuration.
package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// UpsertBatchSize bounds the number of points per store request so payloads
// stay small and a failed batch can be retried in isolation.
const UpsertBatchSize = 100

// Payload is the chunk data stored alongside each vector.
type Payload struct {
	Text     string `json:"text"`
	Source   string `json:"source"`
	Type     string `json:"type"`
	PageInfo string `json:"page_info,omitempty"`
}

// Point is one stored vector. IDs are orchestrator-assigned sequential
// integers, never reused across runs.
type Point struct {
	ID      uint64
	Vector  []float32
	Payload Payload
}

// ScoredPoint is a nearest-neighbour match; higher score means more similar.
type ScoredPoint struct {
	Score   float32
	Payload Payload
}

type Store interface {
	// EnsureCollection creates the collection when missing. The vector size
	// must match the embedding provider's dimension.
	EnsureCollection(ctx context.Context, vectorSize int) error
	Upsert(ctx context.Context, points []Point) error
	Query(ctx context.Context, vector []float32, limit int) ([]ScoredPoint, error)
	DeleteBySource(ctx context.Context, source string) error
}

type StoreFactory func(args interface{}) (Store, error)

var registry = map[string]StoreFactory{}

func Register(name string, factory StoreFactory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	registry[key] = factory
}

func New(name string, args interface{}) (Store, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, fmt.Errorf("vector_store.type is required")
	}
	factory := registry[key]
	if factory == nil {
		return nil, fmt.Errorf("unsupported vector store: %s", name)
	}
	return factory(args)
}

func decodeConfig(args interface{}, dst interface{}) error {
	if args == nil {
		return fmt.Errorf("vector store config is required")
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode vector store config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode vector store config: %w", err)
	}
	return nil
}
