package prompt

import (
	"strings"

	"chat-with-pdf-be/pkg/rag/history"
	"chat-with-pdf-be/pkg/store"
)

// QABuilder renders the answer prompt: retrieved context, then the question.
type QABuilder struct {
	docs     []store.Document
	question string
}

func NewQABuilder(docs []store.Document, question string) *QABuilder {
	return &QABuilder{docs: docs, question: question}
}

func (b *QABuilder) Build() string {
	var prompt strings.Builder

	b.writeInstructions(&prompt)
	b.writeContext(&prompt)
	b.writeQuestion(&prompt)

	return prompt.String()
}

func (b *QABuilder) writeInstructions(prompt *strings.Builder) {
	prompt.WriteString("Use the following pieces of context to answer the question at the end.\n")
	prompt.WriteString("If you don't know the answer, just say that you don't know, don't try to make up an answer.\n")
	prompt.WriteString("Keep the answer as concise as possible but with all needed information.\n")
}

func (b *QABuilder) writeContext(prompt *strings.Builder) {
	for i, doc := range b.docs {
		if i > 0 {
			prompt.WriteString("\n\n")
		}
		prompt.WriteString(doc.Content)
	}
	prompt.WriteString("\n")
}

func (b *QABuilder) writeQuestion(prompt *strings.Builder) {
	prompt.WriteString("Question: ")
	prompt.WriteString(b.question)
	prompt.WriteString("\nHelpful Answer:")
}

// CondenseBuilder renders the prompt that rewrites a follow-up question into
// a standalone one using the conversation so far.
type CondenseBuilder struct {
	turns    []history.Turn
	question string
}

func NewCondenseBuilder(turns []history.Turn, question string) *CondenseBuilder {
	return &CondenseBuilder{turns: turns, question: question}
}

func (b *CondenseBuilder) Build() string {
	var prompt strings.Builder

	prompt.WriteString("Given the following conversation and a follow up question, rephrase the follow up question to be a standalone question, in its original language.\n\n")
	prompt.WriteString("Chat History:\n")
	for _, t := range b.turns {
		prompt.WriteString("Human: ")
		prompt.WriteString(t.Question)
		prompt.WriteString("\nAssistant: ")
		prompt.WriteString(t.Answer)
		prompt.WriteString("\n")
	}
	prompt.WriteString("Follow Up Input: ")
	prompt.WriteString(b.question)
	prompt.WriteString("\nStandalone question:")

	return prompt.String()
}
