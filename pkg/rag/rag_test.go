package rag_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/reviews/internal/models"
	"github.com/xhad/reviews/pkg/history"
	"github.com/xhad/reviews/pkg/rag"
)

type fakeIndex struct {
	docs      []models.Document
	err       error
	lastQuery string
	lastK     int
	calls     int
}

func (f *fakeIndex) Add(ctx context.Context, docs []models.Document) error {
	return nil
}

func (f *fakeIndex) Search(ctx context.Context, query string, k int) ([]models.Document, error) {
	f.calls++
	f.lastQuery = query
	f.lastK = k
	if f.err != nil {
		return nil, f.err
	}
	return f.docs, nil
}

type fakeCompleter struct {
	responses []string
	err       error
	calls     [][]models.Turn
}

func (f *fakeCompleter) Complete(ctx context.Context, turns []models.Turn) (string, error) {
	f.calls = append(f.calls, turns)
	if f.err != nil {
		return "", f.err
	}
	if len(f.responses) == 0 {
		return "", nil
	}
	response := f.responses[0]
	f.responses = f.responses[1:]
	return response, nil
}

func newOrchestrator(index *fakeIndex, completer *fakeCompleter, hist *history.Store) *rag.Orchestrator {
	return rag.NewWithConfig(rag.OrchestratorConfig{}, index, completer, hist)
}

func TestAnswerValidation(t *testing.T) {
	tests := []struct {
		name     string
		question string
		wantErr  error
	}{
		{name: "empty", question: "", wantErr: rag.ErrEmptyInput},
		{name: "whitespace only", question: "   \t ", wantErr: rag.ErrEmptyInput},
		{name: "over limit", question: strings.Repeat("a", 1001), wantErr: rag.ErrInputTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			index := &fakeIndex{}
			completer := &fakeCompleter{}
			orch := newOrchestrator(index, completer, history.New(0))

			_, err := orch.Answer(context.Background(), "s1", tt.question)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Zero(t, index.calls, "validation failures must not reach retrieval")
			assert.Empty(t, completer.calls, "validation failures must not reach the provider")
		})
	}
}

func TestAnswerAcceptsMaxLengthQuestion(t *testing.T) {
	index := &fakeIndex{}
	completer := &fakeCompleter{responses: []string{"fine"}}
	orch := newOrchestrator(index, completer, history.New(0))

	answer, err := orch.Answer(context.Background(), "s1", strings.Repeat("a", 1000))
	require.NoError(t, err)
	assert.Equal(t, "fine", answer)
}

func TestAnswerNoHistorySkipsRewrite(t *testing.T) {
	index := &fakeIndex{docs: []models.Document{
		{Text: "Great battery", Metadata: map[string]string{"product_name": "Phone A"}},
	}}
	completer := &fakeCompleter{responses: []string{"The battery is great."}}
	orch := newOrchestrator(index, completer, history.New(0))

	answer, err := orch.Answer(context.Background(), "s1", "How is the battery?")
	require.NoError(t, err)
	assert.Equal(t, "The battery is great.", answer)

	require.Len(t, completer.calls, 1, "empty history must skip the rewrite call")
	assert.Equal(t, "How is the battery?", index.lastQuery)
	assert.Equal(t, 3, index.lastK)
}

func TestAnswerRewriteUsesHistory(t *testing.T) {
	hist := history.New(0)
	hist.Append("s1",
		models.Turn{Role: models.RoleUser, Content: "Tell me about Phone A"},
		models.Turn{Role: models.RoleAssistant, Content: "Phone A has good reviews."},
	)

	index := &fakeIndex{}
	completer := &fakeCompleter{responses: []string{
		"What is the battery life of Phone A?",
		"Reviewers report two days of battery life.",
	}}
	orch := newOrchestrator(index, completer, hist)

	answer, err := orch.Answer(context.Background(), "s1", "What about its battery?")
	require.NoError(t, err)
	assert.Equal(t, "Reviewers report two days of battery life.", answer)

	require.Len(t, completer.calls, 2)

	rewriteTurns := completer.calls[0]
	require.GreaterOrEqual(t, len(rewriteTurns), 4)
	assert.Equal(t, models.RoleSystem, rewriteTurns[0].Role)
	assert.Equal(t, "Tell me about Phone A", rewriteTurns[1].Content)
	assert.Equal(t, "What about its battery?", rewriteTurns[len(rewriteTurns)-1].Content)

	assert.Equal(t, "What is the battery life of Phone A?", index.lastQuery,
		"retrieval must run on the rewritten question")
}

func TestAnswerEmptyRetrievalStillAnswers(t *testing.T) {
	index := &fakeIndex{docs: nil}
	completer := &fakeCompleter{responses: []string{"I have no reviews on that."}}
	orch := newOrchestrator(index, completer, history.New(0))

	answer, err := orch.Answer(context.Background(), "s1", "Is the stand sturdy?")
	require.NoError(t, err)
	assert.Equal(t, "I have no reviews on that.", answer)
}

func TestAnswerFallbackOnBlankAnswer(t *testing.T) {
	index := &fakeIndex{}
	completer := &fakeCompleter{responses: []string{"   "}}
	hist := history.New(0)
	orch := newOrchestrator(index, completer, hist)

	answer, err := orch.Answer(context.Background(), "s1", "Anything?")
	require.NoError(t, err)
	assert.Equal(t, rag.FallbackAnswer, answer)

	turns := hist.Get("s1")
	require.Len(t, turns, 2, "fallback answers are still recorded")
	assert.Equal(t, rag.FallbackAnswer, turns[1].Content)
}

func TestAnswerRetrievalFailure(t *testing.T) {
	index := &fakeIndex{err: errors.New("connection refused")}
	completer := &fakeCompleter{}
	hist := history.New(0)
	orch := newOrchestrator(index, completer, hist)

	_, err := orch.Answer(context.Background(), "s1", "How is it?")
	var provErr *rag.ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, "retrieval", provErr.Stage)
	assert.Empty(t, hist.Get("s1"), "failed requests must not touch history")
}

func TestAnswerGenerationFailure(t *testing.T) {
	index := &fakeIndex{}
	completer := &fakeCompleter{err: errors.New("rate limited")}
	hist := history.New(0)
	orch := newOrchestrator(index, completer, hist)

	_, err := orch.Answer(context.Background(), "s1", "How is it?")
	var provErr *rag.ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Empty(t, hist.Get("s1"))
}

func TestAnswerHistoryGrowth(t *testing.T) {
	index := &fakeIndex{}
	completer := &fakeCompleter{responses: []string{
		"answer one",
		"rewrite two", "answer two",
		"rewrite three", "answer three",
	}}
	hist := history.New(0)
	orch := newOrchestrator(index, completer, hist)

	questions := []string{"first?", "second?", "third?"}
	for _, q := range questions {
		_, err := orch.Answer(context.Background(), "s1", q)
		require.NoError(t, err)
	}

	turns := hist.Get("s1")
	require.Len(t, turns, 6, "N successful calls leave exactly 2N turns")

	for i, q := range questions {
		assert.Equal(t, models.RoleUser, turns[2*i].Role)
		assert.Equal(t, q, turns[2*i].Content, "history records the original question, not the rewrite")
		assert.Equal(t, models.RoleAssistant, turns[2*i+1].Role)
	}
}

func TestAnswerConfigurableTopK(t *testing.T) {
	index := &fakeIndex{}
	completer := &fakeCompleter{responses: []string{"ok"}}
	orch := rag.NewWithConfig(rag.OrchestratorConfig{TopK: 7}, index, completer, history.New(0))

	_, err := orch.Answer(context.Background(), "s1", "hello?")
	require.NoError(t, err)
	assert.Equal(t, 7, index.lastK)
}
