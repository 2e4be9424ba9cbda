package entity

import (
	"time"

	"chat-with-pdf-be/pkg/store"

	"github.com/google/uuid"
)

type ChatMessage struct {
	Id        uuid.UUID
	Role      string
	Content   string
	Sources   []store.Document
	CreatedAt time.Time
}
