package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/taylorskalyo/goreader/epub"

	"github.com/stefjnl/localai-knowledge/internal/model"
)

type epubExtractor struct{}

// Extract walks the book spine in reading order and strips each XHTML
// chapter down to its text.
func (epubExtractor) Extract(_ context.Context, path string) (*Result, error) {
	rc, err := epub.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open epub: %w", err)
	}
	defer rc.Close()

	if len(rc.Rootfiles) == 0 {
		return nil, fmt.Errorf("epub has no rootfile: %s", path)
	}
	book := rc.Rootfiles[0]

	var chapters []string
	for _, itemref := range book.Spine.Itemrefs {
		r, err := itemref.Open()
		if err != nil {
			return nil, fmt.Errorf("open epub chapter %s: %w", itemref.HREF, err)
		}
		text, serr := stripHTML(r)
		r.Close()
		if serr != nil {
			return nil, fmt.Errorf("parse epub chapter %s: %w", itemref.HREF, serr)
		}
		if text = strings.TrimSpace(text); text != "" {
			chapters = append(chapters, text)
		}
	}
	if len(chapters) == 0 {
		return nil, fmt.Errorf("epub contains no text: %s", path)
	}
	return &Result{Text: Normalize(strings.Join(chapters, "\n\n"))}, nil
}

func init() {
	register(model.DocTypeEPUB, epubExtractor{})
}
