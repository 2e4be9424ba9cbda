package model

import (
	"time"

	"chat-with-pdf-be/internal/constant"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

// ChunkEmbedding rows live in one shared table that is emptied before every
// remote upload. The vector column has no fixed dimension so any gateway
// embedding model fits.
type ChunkEmbedding struct {
	Id         uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Content    string          `gorm:"type:text"`
	Metadata   datatypes.JSON  `gorm:"type:jsonb"`
	Embedding  pgvector.Vector `gorm:"type:vector"`
	ChunkIndex int             `gorm:"default:0"`
	CreatedAt  time.Time       `gorm:"autoCreateTime"`
}

func (ChunkEmbedding) TableName() string {
	return constant.RemoteTableName
}
