package history

import (
	"sync"

	"chat-with-pdf-be/pkg/llm"
)

// Turn is one question and the answer given to it.
type Turn struct {
	Question string
	Answer   string
}

// Buffer keeps the most recent turns of a conversation in a fixed-size ring.
// Once full, adding a turn drops the oldest one.
type Buffer struct {
	mu    sync.Mutex
	turns []Turn
	next  int
	count int
}

func NewBuffer(maxTurns int) *Buffer {
	if maxTurns < 1 {
		maxTurns = 1
	}
	return &Buffer{turns: make([]Turn, maxTurns)}
}

func (b *Buffer) Add(question, answer string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.turns[b.next] = Turn{Question: question, Answer: answer}
	b.next = (b.next + 1) % len(b.turns)
	if b.count < len(b.turns) {
		b.count++
	}
}

// Turns returns the kept turns, oldest first.
func (b *Buffer) Turns() []Turn {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Turn, 0, b.count)
	start := (b.next - b.count + len(b.turns)) % len(b.turns)
	for i := 0; i < b.count; i++ {
		out = append(out, b.turns[(start+i)%len(b.turns)])
	}
	return out
}

// Messages flattens the kept turns into alternating user/assistant messages.
func (b *Buffer) Messages() []llm.Message {
	turns := b.Turns()
	out := make([]llm.Message, 0, len(turns)*2)
	for _, t := range turns {
		out = append(out,
			llm.Message{Role: llm.RoleUser, Content: t.Question},
			llm.Message{Role: llm.RoleAssistant, Content: t.Answer},
		)
	}
	return out
}

func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

func (b *Buffer) Cap() int {
	return len(b.turns)
}

func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.turns {
		b.turns[i] = Turn{}
	}
	b.next = 0
	b.count = 0
}
