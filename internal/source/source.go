// Package source abstracts where documents come from. A source lists file
// names and materialises each one as a local path for the extractors.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

type Source interface {
	// Label identifies the source in logs and status output.
	Label() string
	// List returns the relative names of all files currently in the source.
	List(ctx context.Context) ([]string, error)
	// Fetch makes the named file available on the local filesystem. The
	// cleanup func releases any temporary copy and is never nil.
	Fetch(ctx context.Context, name string) (string, func(), error)
}

type SourceFactory func(args interface{}) (Source, error)

var registry = map[string]SourceFactory{}

func Register(name string, factory SourceFactory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	registry[key] = factory
}

func New(name string, args interface{}) (Source, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, fmt.Errorf("source type is required")
	}
	factory := registry[key]
	if factory == nil {
		return nil, fmt.Errorf("unsupported source: %s", name)
	}
	return factory(args)
}

func decodeConfig(args interface{}, dst interface{}) error {
	if args == nil {
		return fmt.Errorf("source config is required")
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode source config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode source config: %w", err)
	}
	return nil
}

func noopCleanup() {}
