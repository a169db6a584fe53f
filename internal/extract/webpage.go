package extract

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/stefjnl/localai-knowledge/internal/model"
)

type webpageExtractor struct{}

func (webpageExtractor) Extract(_ context.Context, path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open webpage: %w", err)
	}
	defer f.Close()

	text, err := stripHTML(f)
	if err != nil {
		return nil, fmt.Errorf("parse webpage %s: %w", path, err)
	}
	return &Result{Text: Normalize(text)}, nil
}

// stripHTML returns the visible text of an HTML document with script, style
// and head noise removed.
func stripHTML(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", err
	}
	doc.Find("script, style, noscript, iframe").Remove()

	title := strings.TrimSpace(doc.Find("title").First().Text())
	body := doc.Find("body")
	text := body.Text()
	if body.Length() == 0 {
		text = doc.Text()
	}
	if title != "" {
		text = title + "\n" + text
	}
	return text, nil
}

func init() {
	register(model.DocTypeWebpage, webpageExtractor{})
}
