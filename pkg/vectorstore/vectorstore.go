package vectorstore

import (
	"context"
	"errors"

	"chat-with-pdf-be/pkg/store"
)

var ErrClosed = errors.New("vector store is closed")

// VectorStore is a searchable index of embedded documents.
type VectorStore interface {
	AddDocuments(ctx context.Context, docs []store.Document) error
	// SimilaritySearch returns at most k documents, most similar first.
	SimilaritySearch(ctx context.Context, query string, k int) ([]store.Document, error)
	// Delete removes every document from the index.
	Delete(ctx context.Context) error
	Close() error
}

// Retriever fetches the K most relevant documents for a query.
type Retriever struct {
	Store VectorStore
	K     int
}

func AsRetriever(vs VectorStore, k int) *Retriever {
	return &Retriever{Store: vs, K: k}
}

func (r *Retriever) Retrieve(ctx context.Context, query string) ([]store.Document, error) {
	return r.Store.SimilaritySearch(ctx, query, r.K)
}

func contents(docs []store.Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.Content
	}
	return out
}

// CloserFunc adapts a function to io.Closer.
type CloserFunc func() error

func (f CloserFunc) Close() error { return f() }
