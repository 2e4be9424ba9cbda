package dto

import (
	"io"
	"time"

	"github.com/google/uuid"
)

const (
	ProcessOutcomeProcessed = "processed"
	ProcessOutcomeSkipped   = "skipped"
)

// ProcessDocumentRequest carries one upload. Reader is nil when no file was chosen.
type ProcessDocumentRequest struct {
	FileName    string
	ContentType string
	Size        int64
	Reader      io.ReaderAt
	Backend     string `json:"backend" form:"backend" validate:"omitempty,max=16"`
	Submitted   bool
}

type ProcessDocumentResponse struct {
	Outcome    string                `json:"outcome"`
	ChunkCount int                   `json:"chunk_count"`
	PageCount  int                   `json:"page_count"`
	DurationMs int64                 `json:"duration_ms"`
	Session    SessionStatusResponse `json:"session"`
}

type SendChatRequest struct {
	Question string `json:"question" form:"question" validate:"required,max=4000"`
}

type SourceDocumentDTO struct {
	Id       string                 `json:"id"`
	Content  string                 `json:"content"`
	Score    float32                `json:"score"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

type ChatMessageDTO struct {
	Id        uuid.UUID           `json:"id"`
	Role      string              `json:"role"`
	Content   string              `json:"content"`
	Sources   []SourceDocumentDTO `json:"sources,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
}

type SendChatResponse struct {
	Question          *ChatMessageDTO `json:"question"`
	Answer            *ChatMessageDTO `json:"answer"`
	GeneratedQuestion string          `json:"generated_question"`
}

type NoticeDTO struct {
	Level string `json:"level"`
	Text  string `json:"text"`
}

type SessionStatusResponse struct {
	SessionId    string     `json:"session_id"`
	State        string     `json:"state"`
	Processed    bool       `json:"processed"`
	Backend      string     `json:"backend"`
	BackendLabel string     `json:"backend_label"`
	FileName     string     `json:"file_name,omitempty"`
	MessageCount int        `json:"message_count"`
	Notice       *NoticeDTO `json:"notice,omitempty"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// EventMessage is the envelope of pipeline events on the in-process bus.
type EventMessage struct {
	Type       string                 `json:"type"`
	Data       map[string]interface{} `json:"data"`
	OccurredAt time.Time              `json:"occurred_at"`
}

// ChatSocketRequest and ChatSocketResponse are the websocket frames of a chat turn.
type ChatSocketRequest struct {
	Question string `json:"question" validate:"required,max=4000"`
}

type ChatSocketResponse struct {
	Type    string            `json:"type"` // "answer" | "error"
	Message string            `json:"message,omitempty"`
	Turn    *SendChatResponse `json:"turn,omitempty"`
}
