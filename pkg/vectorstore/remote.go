package vectorstore

import (
	"context"
	"fmt"
	"io"
	"sync"

	"chat-with-pdf-be/internal/entity"
	"chat-with-pdf-be/internal/repository/contract"
	"chat-with-pdf-be/pkg/embedding"
	"chat-with-pdf-be/pkg/store"

	"github.com/google/uuid"
)

// RemoteStore indexes documents in the shared table behind repo. The table
// is not partitioned per session: Delete wipes rows written by anyone.
type RemoteStore struct {
	mu       sync.Mutex
	repo     contract.ChunkEmbeddingRepository
	embedder embedding.EmbeddingProvider
	conn     io.Closer
	closed   bool
}

// NewRemoteStore makes sure the table exists. conn is closed by Close and may be nil.
func NewRemoteStore(ctx context.Context, repo contract.ChunkEmbeddingRepository, embedder embedding.EmbeddingProvider, conn io.Closer) (*RemoteStore, error) {
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &RemoteStore{repo: repo, embedder: embedder, conn: conn}, nil
}

func (s *RemoteStore) AddDocuments(ctx context.Context, docs []store.Document) error {
	if len(docs) == 0 {
		return nil
	}

	vectors, err := s.embedder.GenerateBatch(ctx, contents(docs))
	if err != nil {
		return fmt.Errorf("embed documents: %w", err)
	}

	rows := make([]*entity.ChunkEmbedding, len(docs))
	for i, doc := range docs {
		id, err := uuid.Parse(doc.ID)
		if err != nil {
			id = uuid.New()
		}
		chunkIndex, _ := doc.Metadata[store.MetaChunkIndex].(int)
		rows[i] = &entity.ChunkEmbedding{
			Id:         id,
			Content:    doc.Content,
			Metadata:   doc.Metadata,
			Embedding:  vectors[i],
			ChunkIndex: chunkIndex,
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return s.repo.CreateBulk(ctx, rows)
}

func (s *RemoteStore) SimilaritySearch(ctx context.Context, query string, k int) ([]store.Document, error) {
	vec, err := s.embedder.Generate(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	scored, err := s.repo.SearchSimilarWithScore(ctx, vec, k)
	if err != nil {
		return nil, err
	}

	docs := make([]store.Document, len(scored))
	for i, sc := range scored {
		docs[i] = store.Document{
			ID:       sc.Embedding.Id.String(),
			Content:  sc.Embedding.Content,
			Score:    float32(sc.Similarity),
			Metadata: sc.Embedding.Metadata,
		}
	}
	return docs, nil
}

// Delete empties the shared table.
func (s *RemoteStore) Delete(ctx context.Context) error {
	_, err := s.DeleteAll(ctx)
	return err
}

// DeleteAll is Delete that also reports how many rows were removed.
func (s *RemoteStore) DeleteAll(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}
	return s.repo.DeleteAll(ctx)
}

func (s *RemoteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}
