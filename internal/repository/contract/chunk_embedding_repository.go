package contract

import (
	"context"

	"chat-with-pdf-be/internal/entity"
)

// ScoredChunkEmbedding wraps ChunkEmbedding with its similarity score
type ScoredChunkEmbedding struct {
	Embedding  *entity.ChunkEmbedding
	Similarity float64 // 1.0 = identical
}

type ChunkEmbeddingRepository interface {
	// EnsureSchema creates the vector extension and the table when missing.
	EnsureSchema(ctx context.Context) error
	CreateBulk(ctx context.Context, embeddings []*entity.ChunkEmbedding) error
	// DeleteAll removes every row of the table, whoever wrote it.
	DeleteAll(ctx context.Context) (int64, error)
	Count(ctx context.Context) (int64, error)
	SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int) ([]*ScoredChunkEmbedding, error)
}
