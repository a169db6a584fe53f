package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/stefjnl/localai-knowledge/internal/ai"
	"github.com/stefjnl/localai-knowledge/internal/model"
	"github.com/stefjnl/localai-knowledge/internal/pkg/errs"
)

// Answer is a generated response plus the retrieved chunks that grounded it.
type Answer struct {
	Text    string               `json:"text"`
	Sources []model.SearchResult `json:"sources"`
}

// ChatService answers questions grounded in retrieved chunks. Answers are
// cached briefly so repeated identical questions do not re-trigger generation.
type ChatService struct {
	search    *SearchService
	generator ai.IGenerator
	cache     *expirable.LRU[string, Answer]
	limit     int
}

func NewChatService(search *SearchService, generator ai.IGenerator) *ChatService {
	return &ChatService{
		search:    search,
		generator: generator,
		cache:     expirable.NewLRU[string, Answer](1000, nil, 30*time.Minute),
		limit:     DefaultSearchLimit,
	}
}

func (s *ChatService) Ask(ctx context.Context, question string) (*Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("question is required: %w", errs.ErrInvalid)
	}
	logger := logutil.GetLogger(ctx).With(zap.String("question", question))

	key := answerCacheKey(question)
	if cached, ok := s.cache.Get(key); ok {
		logger.Debug("answer cache hit")
		return &cached, nil
	}

	results, err := s.search.Search(ctx, question, s.limit)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return &Answer{Text: "I could not find anything relevant in the knowledge base."}, nil
	}

	text, err := s.generator.Generate(ctx, buildGroundedPrompt(question, results))
	if err != nil {
		logger.Error("answer generation failed", zap.Error(err))
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	answer := Answer{Text: strings.TrimSpace(text), Sources: results}
	s.cache.Add(key, answer)
	return &answer, nil
}

func buildGroundedPrompt(question string, results []model.SearchResult) string {
	var sb strings.Builder
	sb.WriteString("You are a knowledge assistant. Answer the question using only the context below.\n")
	sb.WriteString("If the context does not contain the answer, say so. Cite sources by name.\n\n")
	for i, r := range results {
		fmt.Fprintf(&sb, "[%d] %s\n%s\n\n", i+1, r.Source, r.Content)
	}
	sb.WriteString("Question: ")
	sb.WriteString(question)
	sb.WriteString("\nAnswer:")
	return sb.String()
}

func answerCacheKey(question string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(question)))
	return "answer:" + hex.EncodeToString(sum[:])
}
