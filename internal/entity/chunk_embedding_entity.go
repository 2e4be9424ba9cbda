package entity

import (
	"time"

	"github.com/google/uuid"
)

// ChunkEmbedding is one indexed chunk of the uploaded document in the remote store.
type ChunkEmbedding struct {
	Id         uuid.UUID
	Content    string
	Metadata   map[string]interface{}
	Embedding  []float32
	ChunkIndex int
	CreatedAt  time.Time
}
