package implementation

import (
	"context"

	"chat-with-pdf-be/internal/entity"
	"chat-with-pdf-be/internal/mapper"
	"chat-with-pdf-be/internal/model"
	"chat-with-pdf-be/internal/repository/contract"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

const createBatchSize = 100

type ChunkEmbeddingRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ChunkEmbeddingMapper
}

func NewChunkEmbeddingRepository(db *gorm.DB) contract.ChunkEmbeddingRepository {
	return &ChunkEmbeddingRepositoryImpl{
		db:     db,
		mapper: mapper.NewChunkEmbeddingMapper(),
	}
}

func (r *ChunkEmbeddingRepositoryImpl) EnsureSchema(ctx context.Context) error {
	db := r.db.WithContext(ctx)
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		return err
	}
	return db.AutoMigrate(&model.ChunkEmbedding{})
}

func (r *ChunkEmbeddingRepositoryImpl) CreateBulk(ctx context.Context, embeddings []*entity.ChunkEmbedding) error {
	if len(embeddings) == 0 {
		return nil
	}
	models, err := r.mapper.ToModels(embeddings)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).CreateInBatches(models, createBatchSize).Error; err != nil {
		return err
	}
	for i, m := range models {
		embeddings[i].CreatedAt = m.CreatedAt
	}
	return nil
}

func (r *ChunkEmbeddingRepositoryImpl) DeleteAll(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&model.ChunkEmbedding{})
	return res.RowsAffected, res.Error
}

func (r *ChunkEmbeddingRepositoryImpl) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.ChunkEmbedding{}).Count(&count).Error
	return count, err
}

// SearchSimilarWithScore orders rows by cosine distance to embedding.
// Similarity is 1 - distance.
func (r *ChunkEmbeddingRepositoryImpl) SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int) ([]*contract.ScoredChunkEmbedding, error) {
	if limit <= 0 {
		limit = 6
	}

	type result struct {
		model.ChunkEmbedding
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(embedding)

	err := r.db.WithContext(ctx).
		Table(model.ChunkEmbedding{}.TableName()).
		Select("*, 1 - (embedding <=> ?) as similarity", queryVector).
		Order("similarity DESC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredChunkEmbedding, len(results))
	for i := range results {
		scored[i] = &contract.ScoredChunkEmbedding{
			Embedding:  r.mapper.ToEntity(&results[i].ChunkEmbedding),
			Similarity: results[i].Similarity,
		}
	}
	return scored, nil
}
