package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"chat-with-pdf-be/pkg/llm"
	"chat-with-pdf-be/pkg/rag/history"
	"chat-with-pdf-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedLLM struct {
	prompts []string
	replies []string
	err     error
}

func (s *scriptedLLM) Chat(ctx context.Context, history []llm.Message, _ ...llm.Option) (string, error) {
	return s.Generate(ctx, history[len(history)-1].Content)
}

func (s *scriptedLLM) Generate(_ context.Context, prompt string, _ ...llm.Option) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if s.err != nil {
		return "", s.err
	}
	reply := s.replies[0]
	s.replies = s.replies[1:]
	return reply, nil
}

type staticRetriever struct {
	queries []string
	docs    []store.Document
	err     error
}

func (r *staticRetriever) Retrieve(_ context.Context, query string) ([]store.Document, error) {
	r.queries = append(r.queries, query)
	return r.docs, r.err
}

func TestEngine_FirstTurnSkipsCondense(t *testing.T) {
	model := &scriptedLLM{replies: []string{" Ten million. "}}
	retriever := &staticRetriever{docs: []store.Document{{Content: "Revenue was ten million."}}}
	e := NewEngine(model, retriever, history.NewBuffer(10))

	res, err := e.Invoke(context.Background(), "What was revenue?")
	require.NoError(t, err)

	assert.Equal(t, "Ten million.", res.Answer)
	assert.Equal(t, "What was revenue?", res.GeneratedQuestion)
	assert.Equal(t, retriever.docs, res.SourceDocuments)
	require.Len(t, model.prompts, 1)
	assert.Contains(t, model.prompts[0], "Revenue was ten million.")
	assert.Equal(t, []history.Turn{{Question: "What was revenue?", Answer: "Ten million."}}, e.Memory().Turns())
}

func TestEngine_FollowUpIsCondensed(t *testing.T) {
	model := &scriptedLLM{replies: []string{"Ten million.", "What was revenue in 2023?", "Twelve million."}}
	retriever := &staticRetriever{}
	e := NewEngine(model, retriever, history.NewBuffer(10))

	_, err := e.Invoke(context.Background(), "What was revenue?")
	require.NoError(t, err)
	res, err := e.Invoke(context.Background(), "And in 2023?")
	require.NoError(t, err)

	assert.Equal(t, "What was revenue in 2023?", res.GeneratedQuestion)
	assert.Equal(t, []string{"What was revenue?", "What was revenue in 2023?"}, retriever.queries)
	assert.True(t, strings.HasSuffix(model.prompts[2], "Question: What was revenue in 2023?\nHelpful Answer:"))
	// memory keeps what the user actually asked
	assert.Equal(t, "And in 2023?", e.Memory().Turns()[1].Question)
}

func TestEngine_Failures(t *testing.T) {
	boom := errors.New("boom")

	t.Run("empty question", func(t *testing.T) {
		e := NewEngine(&scriptedLLM{}, &staticRetriever{}, history.NewBuffer(1))
		_, err := e.Invoke(context.Background(), "   ")
		assert.ErrorIs(t, err, ErrEmptyQuestion)
	})

	t.Run("retriever error", func(t *testing.T) {
		e := NewEngine(&scriptedLLM{}, &staticRetriever{err: boom}, history.NewBuffer(1))
		_, err := e.Invoke(context.Background(), "q")
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 0, e.Memory().Len())
	})

	t.Run("model error", func(t *testing.T) {
		e := NewEngine(&scriptedLLM{err: boom}, &staticRetriever{}, history.NewBuffer(1))
		_, err := e.Invoke(context.Background(), "q")
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 0, e.Memory().Len())
	})
}
