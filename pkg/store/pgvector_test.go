package store_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/reviews/internal/models"
	"github.com/xhad/reviews/pkg/store"
)

// hashEmbedder produces small deterministic vectors so integration tests
// need no embedding provider.
type hashEmbedder struct {
	dim int
}

func (h *hashEmbedder) embed(text string) []float32 {
	vec := make([]float32, h.dim)
	for i, r := range text {
		vec[i%h.dim] += float32(r)
	}
	return vec
}

func (h *hashEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = h.embed(text)
	}
	return vectors, nil
}

func (h *hashEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return h.embed(text), nil
}

type failingEmbedder struct{}

func (failingEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, errors.New("embedding provider unavailable")
}

func (failingEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return nil, errors.New("embedding provider unavailable")
}

// testStore connects to the database named by TEST_DATABASE_URL, or skips.
// Each test gets its own table so runs do not interfere.
func testStore(t *testing.T) *store.VectorStore {
	t.Helper()

	connString := os.Getenv("TEST_DATABASE_URL")
	if connString == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	vs, err := store.LoadOrCreate(context.Background(), store.VectorStoreConfig{
		ConnString: connString,
		TableName:  fmt.Sprintf("reviews_test_%d", os.Getpid()),
		VectorDim:  8,
		BatchSize:  2,
	}, &hashEmbedder{dim: 8})
	require.NoError(t, err)
	t.Cleanup(vs.Close)
	return vs
}

func TestAddAndSearch(t *testing.T) {
	vs := testStore(t)
	ctx := context.Background()

	docs := []models.Document{
		{Text: "Great battery life", Metadata: map[string]string{"product_name": "Phone A"}},
		{Text: "Screen cracked after a week", Metadata: map[string]string{"product_name": "Phone B"}},
		{Text: "Great battery but heavy", Metadata: map[string]string{"product_name": "Phone C"}},
	}
	require.NoError(t, vs.Add(ctx, docs))

	results, err := vs.Search(ctx, "Great battery life", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	// Cosine order puts the identical text first.
	assert.Equal(t, "Great battery life", results[0].Text)
	assert.Equal(t, "Phone A", results[0].Metadata["product_name"])
}

func TestSearchMoreThanStored(t *testing.T) {
	vs := testStore(t)
	ctx := context.Background()

	require.NoError(t, vs.Add(ctx, []models.Document{
		{Text: "only review", Metadata: map[string]string{"product_name": "Widget"}},
	}))

	results, err := vs.Search(ctx, "anything", 10)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestSearchWrapsEmbedderFailure(t *testing.T) {
	connString := os.Getenv("TEST_DATABASE_URL")
	if connString == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	vs, err := store.LoadOrCreate(context.Background(), store.VectorStoreConfig{
		ConnString: connString,
		TableName:  fmt.Sprintf("reviews_test_fail_%d", os.Getpid()),
		VectorDim:  8,
	}, failingEmbedder{})
	require.NoError(t, err)
	defer vs.Close()

	_, err = vs.Search(context.Background(), "query", 3)
	var retrievalErr *store.RetrievalError
	require.ErrorAs(t, err, &retrievalErr)
}

func TestAddEmptyBatch(t *testing.T) {
	vs := testStore(t)
	assert.NoError(t, vs.Add(context.Background(), nil))
}
