package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"github.com/xhad/reviews/internal/models"
	"github.com/xhad/reviews/internal/types"
)

// RetrievalError wraps a provider or database failure during search.
// It marks a transient, retry-eligible condition.
type RetrievalError struct {
	Err error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieval failed: %v", e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }

type VectorStoreConfig struct {
	ConnString string
	TableName  string
	VectorDim  int
	BatchSize  int
}

// VectorStore is a pgvector-backed document index. Embedding is delegated
// to the injected Embedder; nearest-neighbor search to PostgreSQL.
type VectorStore struct {
	config   VectorStoreConfig
	pool     *pgxpool.Pool
	embedder types.Embedder
}

// LoadOrCreate connects to the database and ensures the extension, table
// and index exist. It returns a usable store whether or not prior data
// is present.
func LoadOrCreate(ctx context.Context, config VectorStoreConfig, embedder types.Embedder) (*VectorStore, error) {
	if config.TableName == "" {
		config.TableName = "product_reviews"
	}
	if config.VectorDim == 0 {
		config.VectorDim = 1536
	}
	if config.BatchSize == 0 {
		config.BatchSize = 100
	}

	pool, err := pgxpool.New(ctx, config.ConnString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %v", err)
	}

	vs := &VectorStore{
		config:   config,
		pool:     pool,
		embedder: embedder,
	}

	if err := vs.initialize(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return vs, nil
}

func (vs *VectorStore) initialize(ctx context.Context) error {
	_, err := vs.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector")
	if err != nil {
		return fmt.Errorf("failed to create vector extension: %v", err)
	}

	createTable := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			content TEXT NOT NULL,
			product_name TEXT NOT NULL,
			metadata JSONB,
			embedding vector(%d)
		)`, vs.config.TableName, vs.config.VectorDim)

	_, err = vs.pool.Exec(ctx, createTable)
	if err != nil {
		return fmt.Errorf("failed to create table: %v", err)
	}

	createIndex := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS %s_embedding_idx
		ON %s
		USING ivfflat (embedding vector_cosine_ops)
		WITH (lists = 100)`,
		vs.config.TableName, vs.config.TableName)

	_, err = vs.pool.Exec(ctx, createIndex)
	if err != nil {
		return fmt.Errorf("failed to create index: %v", err)
	}

	return nil
}

// Add embeds the documents and inserts them. Calling Add again with
// overlapping documents inserts duplicates; deduplication is out of scope.
func (vs *VectorStore) Add(ctx context.Context, docs []models.Document) error {
	stmt := fmt.Sprintf(`
		INSERT INTO %s (id, content, product_name, metadata, embedding)
		VALUES ($1, $2, $3, $4, $5)`,
		vs.config.TableName)

	for start := 0; start < len(docs); start += vs.config.BatchSize {
		end := start + vs.config.BatchSize
		if end > len(docs) {
			end = len(docs)
		}
		batch := docs[start:end]

		texts := make([]string, len(batch))
		for i, doc := range batch {
			texts[i] = doc.Text
		}

		vectors, err := vs.embedder.EmbedDocuments(ctx, texts)
		if err != nil {
			return fmt.Errorf("failed to create embeddings: %w", err)
		}
		if len(vectors) != len(batch) {
			return fmt.Errorf("embedding count mismatch: got %d for %d documents", len(vectors), len(batch))
		}

		tx, err := vs.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %v", err)
		}

		for i, doc := range batch {
			meta, err := json.Marshal(doc.Metadata)
			if err != nil {
				_ = tx.Rollback(ctx)
				return fmt.Errorf("failed to encode metadata: %v", err)
			}

			_, err = tx.Exec(ctx, stmt,
				uuid.NewString(),
				doc.Text,
				doc.ProductName(),
				meta,
				pgvector.NewVector(vectors[i]),
			)
			if err != nil {
				_ = tx.Rollback(ctx)
				return fmt.Errorf("failed to insert document: %v", err)
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("failed to commit transaction: %v", err)
		}
	}

	return nil
}

// Search embeds the query and returns the k most similar documents by
// cosine distance, best match first. An empty result set is valid.
func (vs *VectorStore) Search(ctx context.Context, query string, k int) ([]models.Document, error) {
	vector, err := vs.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, &RetrievalError{Err: err}
	}

	stmt := fmt.Sprintf(`
		SELECT content, metadata
		FROM %s
		ORDER BY embedding <=> $1
		LIMIT $2`,
		vs.config.TableName)

	rows, err := vs.pool.Query(ctx, stmt, pgvector.NewVector(vector), k)
	if err != nil {
		return nil, &RetrievalError{Err: err}
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		var content string
		var meta []byte
		if err := rows.Scan(&content, &meta); err != nil {
			return nil, &RetrievalError{Err: err}
		}

		metadata := map[string]string{}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &metadata); err != nil {
				return nil, &RetrievalError{Err: err}
			}
		}

		docs = append(docs, models.Document{Text: content, Metadata: metadata})
	}
	if err := rows.Err(); err != nil {
		return nil, &RetrievalError{Err: err}
	}

	return docs, nil
}

func (vs *VectorStore) Close() {
	if vs.pool != nil {
		vs.pool.Close()
	}
}
