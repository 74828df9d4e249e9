package types

import (
	"context"

	"github.com/xhad/reviews/internal/models"
)

// Embedder converts text into vector representations for similarity search.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Completer generates a chat completion from an ordered message sequence.
type Completer interface {
	Complete(ctx context.Context, turns []models.Turn) (string, error)
}

// VectorIndex stores documents and retrieves them ranked by semantic
// similarity to a query.
type VectorIndex interface {
	Add(ctx context.Context, docs []models.Document) error
	Search(ctx context.Context, query string, k int) ([]models.Document, error)
}

// HistoryStore tracks per-session conversation turns. Get lazily creates
// an empty history for an unseen session id.
type HistoryStore interface {
	Get(sessionID string) []models.Turn
	Append(sessionID string, turns ...models.Turn)
}
