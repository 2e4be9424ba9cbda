package entity

import (
	"context"
	"io"
	"sync"
	"time"

	"chat-with-pdf-be/internal/constant"
	"chat-with-pdf-be/pkg/rag"

	"github.com/google/uuid"
)

type SessionState string

const (
	SessionStateIdle       SessionState = "idle"
	SessionStateProcessing SessionState = "processing"
	SessionStateReady      SessionState = "ready"
)

type NoticeLevel string

const (
	NoticeSuccess NoticeLevel = "success"
	NoticeError   NoticeLevel = "error"
	NoticeInfo    NoticeLevel = "info"
)

type Notice struct {
	Level NoticeLevel
	Text  string
}

// ConversationEngine answers one question against the indexed document.
type ConversationEngine interface {
	Invoke(ctx context.Context, question string) (*rag.Result, error)
}

// ChatSession is the state of one browser (or terminal) session.
// Work that changes it (processing, a chat turn, a reset) runs under the
// session's work lock, acquired with TryLock so a second request fails fast
// instead of queueing. Reads go through Snapshot.
type ChatSession struct {
	Id        string
	CreatedAt time.Time

	work sync.Mutex

	mu        sync.RWMutex
	state     SessionState
	engine    ConversationEngine
	index     io.Closer
	backend   string
	fileName  string
	messages  []ChatMessage
	notice    *Notice
	updatedAt time.Time
}

// SessionSnapshot is a point-in-time copy of a ChatSession.
type SessionSnapshot struct {
	Id        string
	State     SessionState
	Processed bool
	Backend   string
	FileName  string
	Messages  []ChatMessage
	Notice    *Notice
	UpdatedAt time.Time
}

// NewChatSession returns an idle session whose transcript holds the welcome message.
func NewChatSession(id string) *ChatSession {
	now := time.Now()
	s := &ChatSession{
		Id:        id,
		CreatedAt: now,
		updatedAt: now,
		backend:   constant.DefaultBackend,
	}
	s.resetLocked()
	return s
}

func (s *ChatSession) TryLock() bool { return s.work.TryLock() }

func (s *ChatSession) Unlock() { s.work.Unlock() }

func (s *ChatSession) Snapshot() SessionSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	messages := make([]ChatMessage, len(s.messages))
	copy(messages, s.messages)

	var notice *Notice
	if s.notice != nil {
		n := *s.notice
		notice = &n
	}

	return SessionSnapshot{
		Id:        s.Id,
		State:     s.state,
		Processed: s.state == SessionStateReady,
		Backend:   s.backend,
		FileName:  s.fileName,
		Messages:  messages,
		Notice:    notice,
		UpdatedAt: s.updatedAt,
	}
}

func (s *ChatSession) Processed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state == SessionStateReady
}

func (s *ChatSession) Engine() ConversationEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// BeginProcessing moves an idle session to processing and returns the
// state it left, so a failed run can restore it.
func (s *ChatSession) BeginProcessing() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.state
	s.state = SessionStateProcessing
	s.notice = nil
	s.touch()
	return prev
}

// MarkReady stores the built engine and index. The session owns index from here on.
func (s *ChatSession) MarkReady(engine ConversationEngine, index io.Closer, backend, fileName string, notice Notice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = SessionStateReady
	s.engine = engine
	s.index = index
	s.backend = backend
	s.fileName = fileName
	s.notice = &notice
	s.touch()
}

// AbortProcessing returns to prev without touching engine, index or transcript.
func (s *ChatSession) AbortProcessing(prev SessionState, notice Notice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = prev
	s.notice = &notice
	s.touch()
}

func (s *ChatSession) SetNotice(notice *Notice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notice = notice
	s.touch()
}

// AppendMessage appends msg, filling in id and timestamp when missing.
func (s *ChatSession) AppendMessage(msg ChatMessage) ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	if msg.Id == uuid.Nil {
		msg.Id = uuid.New()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	s.messages = append(s.messages, msg)
	s.touch()
	return msg
}

// LastMessage returns the newest transcript entry.
func (s *ChatSession) LastMessage() ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.messages[len(s.messages)-1]
}

// RemoveMessage drops the newest message if it has the given id.
func (s *ChatSession) RemoveMessage(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.messages)
	if n <= 1 || s.messages[n-1].Id != id {
		return false
	}
	s.messages = s.messages[:n-1]
	s.touch()
	return true
}

// Reset closes the index and returns the session to a fresh idle state.
func (s *ChatSession) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.closeIndexLocked()
	s.resetLocked()
	s.touch()
	return err
}

// Close releases the index; used when the session is evicted or deleted.
func (s *ChatSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeIndexLocked()
}

// closeIndexLocked drops the index and the engine built on it. A ready
// session goes back to idle so it never reports processed without an engine.
func (s *ChatSession) closeIndexLocked() error {
	var err error
	if s.index != nil {
		err = s.index.Close()
		s.index = nil
	}
	s.engine = nil
	if s.state == SessionStateReady {
		s.state = SessionStateIdle
	}
	return err
}

func (s *ChatSession) resetLocked() {
	s.state = SessionStateIdle
	s.engine = nil
	s.index = nil
	s.fileName = ""
	s.notice = nil
	s.messages = []ChatMessage{{
		Id:        uuid.New(),
		Role:      constant.ChatMessageRoleAssistant,
		Content:   constant.WelcomeMessage,
		CreatedAt: time.Now(),
	}}
}

func (s *ChatSession) touch() {
	s.updatedAt = time.Now()
}
