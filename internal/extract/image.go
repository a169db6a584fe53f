package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/stefjnl/localai-knowledge/internal/model"
)

// imageExtractor OCRs images by shelling out to tesseract. Writing to stdout
// ("-" output base) avoids temp files.
type imageExtractor struct {
	runner CommandRunner
}

func NewImageExtractor(runner CommandRunner) Extractor {
	if runner == nil {
		runner = execRunner{}
	}
	return imageExtractor{runner: runner}
}

func (e imageExtractor) Extract(ctx context.Context, path string) (*Result, error) {
	out, err := e.runner.Run(ctx, "tesseract", path, "-")
	if err != nil {
		return nil, fmt.Errorf("ocr %s: %w", path, err)
	}
	text := Normalize(string(out))
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("ocr produced no text: %s", path)
	}
	return &Result{Text: text}, nil
}

func init() {
	register(model.DocTypeImage, NewImageExtractor(nil))
}
