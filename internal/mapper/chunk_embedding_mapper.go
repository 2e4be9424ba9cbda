package mapper

import (
	"encoding/json"

	"chat-with-pdf-be/internal/entity"
	"chat-with-pdf-be/internal/model"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type ChunkEmbeddingMapper struct{}

func NewChunkEmbeddingMapper() *ChunkEmbeddingMapper {
	return &ChunkEmbeddingMapper{}
}

func (m *ChunkEmbeddingMapper) ToEntity(e *model.ChunkEmbedding) *entity.ChunkEmbedding {
	if e == nil {
		return nil
	}

	var metadata map[string]interface{}
	if len(e.Metadata) > 0 {
		_ = json.Unmarshal(e.Metadata, &metadata)
	}

	return &entity.ChunkEmbedding{
		Id:         e.Id,
		Content:    e.Content,
		Metadata:   metadata,
		Embedding:  e.Embedding.Slice(),
		ChunkIndex: e.ChunkIndex,
		CreatedAt:  e.CreatedAt,
	}
}

func (m *ChunkEmbeddingMapper) ToModel(e *entity.ChunkEmbedding) (*model.ChunkEmbedding, error) {
	if e == nil {
		return nil, nil
	}

	var metadata datatypes.JSON
	if e.Metadata != nil {
		raw, err := json.Marshal(e.Metadata)
		if err != nil {
			return nil, err
		}
		metadata = datatypes.JSON(raw)
	}

	return &model.ChunkEmbedding{
		Id:         e.Id,
		Content:    e.Content,
		Metadata:   metadata,
		Embedding:  pgvector.NewVector(e.Embedding),
		ChunkIndex: e.ChunkIndex,
		CreatedAt:  e.CreatedAt,
	}, nil
}

func (m *ChunkEmbeddingMapper) ToModels(embeddings []*entity.ChunkEmbedding) ([]*model.ChunkEmbedding, error) {
	models := make([]*model.ChunkEmbedding, len(embeddings))
	for i, e := range embeddings {
		mdl, err := m.ToModel(e)
		if err != nil {
			return nil, err
		}
		models[i] = mdl
	}
	return models, nil
}
