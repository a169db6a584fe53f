// Package extract turns files of heterogeneous formats into plain text.
// Third-party libraries do the actual parsing; this package invokes them
// uniformly and normalises their output.
package extract

import (
	"context"
	"fmt"

	"github.com/stefjnl/localai-knowledge/internal/chunker"
	"github.com/stefjnl/localai-knowledge/internal/model"
)

// Result is extracted plain text plus, for paginated formats, the character
// offsets at which each source page begins.
type Result struct {
	Text       string
	PageBreaks []chunker.PageBreak
}

// Extractor converts one file into plain text. A failed extraction returns a
// format-specific error the batch orchestrator records without aborting.
type Extractor interface {
	Extract(ctx context.Context, path string) (*Result, error)
}

var extractors = map[model.DocumentType]Extractor{}

func register(t model.DocumentType, e Extractor) {
	extractors[t] = e
}

// ForType returns the extractor for a document type.
func ForType(t model.DocumentType) (Extractor, error) {
	e, ok := extractors[t]
	if !ok {
		return nil, fmt.Errorf("no extractor for document type %q", t)
	}
	return e, nil
}

// Extensions lists the file extensions (lower case, with dot) ingested for a
// document type.
func Extensions(t model.DocumentType) []string {
	switch t {
	case model.DocTypeTranscript:
		return []string{".txt"}
	case model.DocTypePDF:
		return []string{".pdf"}
	case model.DocTypeMarkdown:
		return []string{".md", ".markdown"}
	case model.DocTypeImage:
		return []string{".png", ".jpg", ".jpeg", ".tif", ".tiff"}
	case model.DocTypeEmail:
		return []string{".eml"}
	case model.DocTypeWebpage:
		return []string{".html", ".htm"}
	case model.DocTypeEPUB:
		return []string{".epub"}
	default:
		return nil
	}
}
