package extract

import (
	"context"
	"fmt"
	"os"

	"github.com/stefjnl/localai-knowledge/internal/model"
)

type textExtractor struct{}

func (textExtractor) Extract(_ context.Context, path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}
	return &Result{Text: Normalize(string(data))}, nil
}

func init() {
	register(model.DocTypeTranscript, textExtractor{})
}
