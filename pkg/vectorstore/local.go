package vectorstore

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"

	"chat-with-pdf-be/pkg/embedding"
	"chat-with-pdf-be/pkg/store"

	"github.com/google/uuid"
	"github.com/philippgille/chromem-go"
)

// LocalStore keeps the index in process memory. Every instance owns its own
// database so builds never see each other's documents.
type LocalStore struct {
	mu         sync.RWMutex
	db         *chromem.DB
	collection *chromem.Collection
	embedder   embedding.EmbeddingProvider
	closed     bool
}

func NewLocalStore(embedder embedding.EmbeddingProvider) (*LocalStore, error) {
	s := &LocalStore{
		db:       chromem.NewDB(),
		embedder: embedder,
	}
	if err := s.resetCollection(); err != nil {
		return nil, err
	}
	return s, nil
}

// NewLocalStoreFromDocuments builds a fresh index holding docs.
func NewLocalStoreFromDocuments(ctx context.Context, embedder embedding.EmbeddingProvider, docs []store.Document) (*LocalStore, error) {
	s, err := NewLocalStore(embedder)
	if err != nil {
		return nil, err
	}
	if err := s.AddDocuments(ctx, docs); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *LocalStore) resetCollection() error {
	embed := func(ctx context.Context, text string) ([]float32, error) {
		return s.embedder.Generate(ctx, text)
	}
	collection, err := s.db.CreateCollection(uuid.NewString(), nil, embed)
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	s.collection = collection
	return nil
}

func (s *LocalStore) AddDocuments(ctx context.Context, docs []store.Document) error {
	if len(docs) == 0 {
		return nil
	}

	vectors, err := s.embedder.GenerateBatch(ctx, contents(docs))
	if err != nil {
		return fmt.Errorf("embed documents: %w", err)
	}

	chromemDocs := make([]chromem.Document, len(docs))
	for i, doc := range docs {
		id := doc.ID
		if id == "" {
			id = uuid.NewString()
		}
		chromemDocs[i] = chromem.Document{
			ID:        id,
			Content:   doc.Content,
			Metadata:  toStringMap(doc.Metadata),
			Embedding: vectors[i],
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return s.collection.AddDocuments(ctx, chromemDocs, runtime.NumCPU())
}

func (s *LocalStore) SimilaritySearch(ctx context.Context, query string, k int) ([]store.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	// chromem rejects k larger than the collection
	if n := s.collection.Count(); k > n {
		k = n
	}
	if k <= 0 {
		return nil, nil
	}

	results, err := s.collection.Query(ctx, query, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query collection: %w", err)
	}

	docs := make([]store.Document, len(results))
	for i, r := range results {
		meta := make(map[string]interface{}, len(r.Metadata))
		for key, v := range r.Metadata {
			meta[key] = v
		}
		docs[i] = store.Document{
			ID:       r.ID,
			Content:  r.Content,
			Score:    r.Similarity,
			Metadata: meta,
		}
	}
	return docs, nil
}

func (s *LocalStore) Delete(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if err := s.db.DeleteCollection(s.collection.Name); err != nil {
		return err
	}
	return s.resetCollection()
}

func (s *LocalStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.DeleteCollection(s.collection.Name)
}

// chromem metadata is string-valued
func toStringMap(in map[string]interface{}) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		switch val := v.(type) {
		case string:
			out[k] = val
		case int:
			out[k] = strconv.Itoa(val)
		default:
			out[k] = fmt.Sprint(val)
		}
	}
	return out
}
