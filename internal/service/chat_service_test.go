package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stefjnl/localai-knowledge/internal/pkg/errs"
	"github.com/stefjnl/localai-knowledge/internal/service"
	"github.com/stefjnl/localai-knowledge/internal/vectorstore"
)

type stubGenerator struct {
	reply string
	err   error
	calls int
}

func (s *stubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	_ = prompt
	return s.reply, nil
}

func chatFixture(gen *stubGenerator) *service.ChatService {
	store := &memStore{queryResult: []vectorstore.ScoredPoint{
		{Score: 0.9, Payload: vectorstore.Payload{Text: "The deadline is Friday.", Source: "planning", Type: "transcript"}},
	}}
	search := service.NewSearchService(&stubEmbedder{}, store)
	return service.NewChatService(search, gen)
}

func TestAskGroundsAnswerInSources(t *testing.T) {
	gen := &stubGenerator{reply: "The deadline is Friday."}
	svc := chatFixture(gen)

	answer, err := svc.Ask(context.Background(), "When is the deadline?")
	require.NoError(t, err)
	assert.Equal(t, "The deadline is Friday.", answer.Text)
	require.Len(t, answer.Sources, 1)
	assert.Equal(t, "planning Transcript", answer.Sources[0].Source)
}

func TestAskCachesRepeatedQuestions(t *testing.T) {
	gen := &stubGenerator{reply: "Cached answer."}
	svc := chatFixture(gen)

	_, err := svc.Ask(context.Background(), "Same question?")
	require.NoError(t, err)
	_, err = svc.Ask(context.Background(), "Same question?")
	require.NoError(t, err)
	assert.Equal(t, 1, gen.calls)
}

func TestAskEmptyKnowledgeBase(t *testing.T) {
	search := service.NewSearchService(&stubEmbedder{}, &memStore{})
	gen := &stubGenerator{reply: "unused"}
	svc := service.NewChatService(search, gen)

	answer, err := svc.Ask(context.Background(), "Anything at all?")
	require.NoError(t, err)
	assert.Empty(t, answer.Sources)
	assert.Equal(t, 0, gen.calls)
	assert.NotEmpty(t, answer.Text)
}

func TestAskGeneratorFailure(t *testing.T) {
	svc := chatFixture(&stubGenerator{err: errors.New("model offline")})
	_, err := svc.Ask(context.Background(), "Will this fail?")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model offline")
}

func TestAskRejectsEmptyQuestion(t *testing.T) {
	svc := chatFixture(&stubGenerator{})
	_, err := svc.Ask(context.Background(), "  ")
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrInvalid)
}
