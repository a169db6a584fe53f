package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/stefjnl/localai-knowledge/internal/ai"
	"github.com/stefjnl/localai-knowledge/internal/model"
	"github.com/stefjnl/localai-knowledge/internal/pkg/errs"
	"github.com/stefjnl/localai-knowledge/internal/vectorstore"
)

const DefaultSearchLimit = 5

// SearchService is the retrieval façade: it embeds the query, runs a
// nearest-neighbour search against the vector store and decorates the matches
// for display. A store error is surfaced as a failed search, never as an
// empty result set.
type SearchService struct {
	embedder ai.IEmbedder
	store    vectorstore.Store
}

func NewSearchService(embedder ai.IEmbedder, store vectorstore.Store) *SearchService {
	return &SearchService{embedder: embedder, store: store}
}

func (s *SearchService) Search(ctx context.Context, query string, limit int) ([]model.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("search query is required: %w", errs.ErrInvalid)
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	logger := logutil.GetLogger(ctx).With(zap.String("query", query), zap.Int("limit", limit))

	embedding, err := s.embedder.Embed(ctx, query, ai.TaskRetrievalQuery)
	if err != nil {
		logger.Error("failed to embed query", zap.Error(err))
		return nil, fmt.Errorf("embed query: %w", err)
	}
	matches, err := s.store.Query(ctx, embedding, limit)
	if err != nil {
		logger.Error("vector search failed", zap.Error(err))
		return nil, fmt.Errorf("vector search: %w", err)
	}

	results := make([]model.SearchResult, 0, len(matches))
	for _, m := range matches {
		docType := model.DocumentType(m.Payload.Type)
		results = append(results, model.SearchResult{
			Content:  m.Payload.Text,
			Source:   DisplaySource(m.Payload.Source, docType, m.Payload.PageInfo),
			Score:    m.Score,
			Type:     docType,
			PageInfo: m.Payload.PageInfo,
		})
	}
	logger.Debug("search completed", zap.Int("results", len(results)))
	return results, nil
}

// DisplaySource renders the human-readable origin label of a chunk, e.g.
// "Foo Transcript" or "Foo.pdf (Page 3)".
func DisplaySource(source string, docType model.DocumentType, pageInfo string) string {
	switch docType {
	case model.DocTypeTranscript:
		return source + " Transcript"
	case model.DocTypePDF:
		label := source + ".pdf"
		if pageInfo != "" {
			label += " (" + pageInfo + ")"
		}
		return label
	case model.DocTypeMarkdown:
		return source + ".md"
	case model.DocTypeImage:
		return source + " (OCR)"
	case model.DocTypeEmail:
		return source + " (Email)"
	case model.DocTypeWebpage:
		return source + " (Webpage)"
	case model.DocTypeEPUB:
		return source + " (EPUB)"
	default:
		return source
	}
}
