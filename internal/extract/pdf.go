package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/stefjnl/localai-knowledge/internal/chunker"
	"github.com/stefjnl/localai-knowledge/internal/model"
)

type pdfExtractor struct{}

// Extract pulls per-page plain text and records the offset at which each page
// starts inside the combined text, so chunks can be attributed back to pages.
func (pdfExtractor) Extract(_ context.Context, path string) (*Result, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	var sb strings.Builder
	var breaks []chunker.PageBreak
	total := r.NumPage()
	for i := 1; i <= total; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("extract pdf page %d: %w", i, err)
		}
		pageText = Normalize(pageText)
		if pageText == "" {
			continue
		}
		breaks = append(breaks, chunker.PageBreak{Page: i, Offset: sb.Len()})
		sb.WriteString(pageText)
		sb.WriteString("\n")
	}
	if sb.Len() == 0 {
		return nil, fmt.Errorf("pdf contains no extractable text: %s", path)
	}
	return &Result{Text: strings.TrimSpace(sb.String()), PageBreaks: breaks}, nil
}

func init() {
	register(model.DocTypePDF, pdfExtractor{})
}
