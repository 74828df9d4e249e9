package rag

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/xhad/reviews/internal/models"
	"github.com/xhad/reviews/internal/types"
)

// FallbackAnswer is returned when the provider yields no usable answer.
const FallbackAnswer = "I'm sorry, I couldn't generate a response."

const rewriteInstruction = "Given the chat history and user question, " +
	"rewrite the user question to be more specific and contextually " +
	"relevant. Return only the rewritten question."

const answerInstruction = "You are an e-commerce bot answering product " +
	"related queries using reviews and titles from the product reviews " +
	"database. Stick to the context and provide contextually relevant " +
	"information in your response. Be concise and to the point.\n\n" +
	"CONTEXT:\n%s"

// OrchestratorConfig represents the tunables of the answer pipeline.
type OrchestratorConfig struct {
	TopK            int
	MaxQuestionLen  int
	ProviderTimeout time.Duration
}

// Orchestrator runs the conversational answer pipeline: rewrite the
// question against session history, retrieve supporting reviews, generate
// a grounded answer and record the turn pair. It is stateless across
// requests except through the injected HistoryStore.
type Orchestrator struct {
	config    OrchestratorConfig
	index     types.VectorIndex
	completer types.Completer
	history   types.HistoryStore
	logger    *log.Logger
}

// NewWithConfig creates an Orchestrator with the given configuration and
// collaborators.
func NewWithConfig(config OrchestratorConfig, index types.VectorIndex, completer types.Completer, history types.HistoryStore) *Orchestrator {
	if config.TopK == 0 {
		config.TopK = 3
	}
	if config.MaxQuestionLen == 0 {
		config.MaxQuestionLen = 1000
	}
	if config.ProviderTimeout == 0 {
		config.ProviderTimeout = 30 * time.Second
	}

	return &Orchestrator{
		config:    config,
		index:     index,
		completer: completer,
		history:   history,
		logger:    log.New(log.Writer(), "[RAG] ", log.LstdFlags),
	}
}

// Answer resolves a user question for a session. Validation failures
// return ErrEmptyInput or ErrInputTooLong; dependency failures return a
// *ProviderError. On success the session history gains exactly one
// user/assistant turn pair.
func (o *Orchestrator) Answer(ctx context.Context, sessionID, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", ErrEmptyInput
	}
	if utf8.RuneCountInString(question) > o.config.MaxQuestionLen {
		return "", ErrInputTooLong
	}

	past := o.history.Get(sessionID)

	rewritten, err := o.rewrite(ctx, past, question)
	if err != nil {
		return "", err
	}

	docs, err := o.retrieve(ctx, rewritten)
	if err != nil {
		return "", err
	}

	answer, err := o.generate(ctx, past, docs, rewritten)
	if err != nil {
		return "", err
	}

	o.history.Append(sessionID,
		models.Turn{Role: models.RoleUser, Content: question},
		models.Turn{Role: models.RoleAssistant, Content: answer},
	)

	return answer, nil
}

// rewrite resolves pronouns and ellipsis in follow-up questions against
// prior turns, so similarity search sees a self-contained question. With
// no history the original question passes through untouched.
func (o *Orchestrator) rewrite(ctx context.Context, past []models.Turn, question string) (string, error) {
	if len(past) == 0 {
		return question, nil
	}

	turns := make([]models.Turn, 0, len(past)+2)
	turns = append(turns, models.Turn{Role: models.RoleSystem, Content: rewriteInstruction})
	turns = append(turns, past...)
	turns = append(turns, models.Turn{Role: models.RoleUser, Content: question})

	callCtx, cancel := context.WithTimeout(ctx, o.config.ProviderTimeout)
	defer cancel()

	rewritten, err := o.completer.Complete(callCtx, turns)
	if err != nil {
		return "", &ProviderError{Stage: "rewrite", Err: err}
	}

	rewritten = strings.TrimSpace(rewritten)
	if rewritten == "" {
		return question, nil
	}
	return rewritten, nil
}

func (o *Orchestrator) retrieve(ctx context.Context, query string) ([]models.Document, error) {
	callCtx, cancel := context.WithTimeout(ctx, o.config.ProviderTimeout)
	defer cancel()

	docs, err := o.index.Search(callCtx, query, o.config.TopK)
	if err != nil {
		return nil, &ProviderError{Stage: "retrieval", Err: err}
	}
	return docs, nil
}

func (o *Orchestrator) generate(ctx context.Context, past []models.Turn, docs []models.Document, question string) (string, error) {
	turns := make([]models.Turn, 0, len(past)+2)
	turns = append(turns, models.Turn{
		Role:    models.RoleSystem,
		Content: fmt.Sprintf(answerInstruction, contextText(docs)),
	})
	turns = append(turns, past...)
	turns = append(turns, models.Turn{Role: models.RoleUser, Content: question})

	callCtx, cancel := context.WithTimeout(ctx, o.config.ProviderTimeout)
	defer cancel()

	answer, err := o.completer.Complete(callCtx, turns)
	if err != nil {
		return "", &ProviderError{Stage: "generation", Err: err}
	}

	answer = strings.TrimSpace(answer)
	if answer == "" {
		o.logger.Printf("provider returned no usable answer, using fallback")
		return FallbackAnswer, nil
	}
	return answer, nil
}

func contextText(docs []models.Document) string {
	if len(docs) == 0 {
		return "(no matching reviews)"
	}

	var b strings.Builder
	for _, doc := range docs {
		fmt.Fprintf(&b, "Product: %s\nReview: %s\n\n", doc.ProductName(), doc.Text)
	}
	return strings.TrimSpace(b.String())
}
