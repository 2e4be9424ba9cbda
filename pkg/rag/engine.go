package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"chat-with-pdf-be/pkg/llm"
	"chat-with-pdf-be/pkg/rag/history"
	"chat-with-pdf-be/pkg/rag/prompt"
	"chat-with-pdf-be/pkg/store"
)

var ErrEmptyQuestion = errors.New("question is empty")

// Retriever returns the documents most relevant to a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]store.Document, error)
}

// Result is the outcome of one engine invocation.
type Result struct {
	Question          string
	GeneratedQuestion string
	Answer            string
	SourceDocuments   []store.Document
}

// Engine answers questions about an indexed document. With an empty memory
// the question is used as is; otherwise it is first rewritten into a
// standalone question so retrieval does not depend on earlier turns.
type Engine struct {
	model     llm.LLMProvider
	retriever Retriever
	memory    *history.Buffer
}

func NewEngine(model llm.LLMProvider, retriever Retriever, memory *history.Buffer) *Engine {
	return &Engine{
		model:     model,
		retriever: retriever,
		memory:    memory,
	}
}

func (e *Engine) Invoke(ctx context.Context, question string) (*Result, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	standalone, err := e.condense(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("condense question: %w", err)
	}

	docs, err := e.retriever.Retrieve(ctx, standalone)
	if err != nil {
		return nil, fmt.Errorf("retrieve context: %w", err)
	}

	answer, err := e.model.Generate(ctx, prompt.NewQABuilder(docs, standalone).Build())
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}
	answer = strings.TrimSpace(answer)

	e.memory.Add(question, answer)

	return &Result{
		Question:          question,
		GeneratedQuestion: standalone,
		Answer:            answer,
		SourceDocuments:   docs,
	}, nil
}

func (e *Engine) condense(ctx context.Context, question string) (string, error) {
	turns := e.memory.Turns()
	if len(turns) == 0 {
		return question, nil
	}

	rewritten, err := e.model.Generate(ctx, prompt.NewCondenseBuilder(turns, question).Build())
	if err != nil {
		return "", err
	}
	if rewritten = strings.TrimSpace(rewritten); rewritten == "" {
		return question, nil
	}
	return rewritten, nil
}

func (e *Engine) Memory() *history.Buffer {
	return e.memory
}
