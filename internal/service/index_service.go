package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"chat-with-pdf-be/internal/config"
	"chat-with-pdf-be/internal/constant"
	"chat-with-pdf-be/internal/pkg/logger"
	"chat-with-pdf-be/internal/repository/contract"
	"chat-with-pdf-be/internal/repository/implementation"
	"chat-with-pdf-be/pkg/database"
	"chat-with-pdf-be/pkg/embedding"
	"chat-with-pdf-be/pkg/llm"
	"chat-with-pdf-be/pkg/store"
	"chat-with-pdf-be/pkg/vectorstore"
)

// ModelGateway hands out the models of the configured AI gateway.
type ModelGateway interface {
	Embeddings() embedding.EmbeddingProvider
	ChatModel() (llm.LLMProvider, error)
}

// RemoteConnector opens a fresh connection to the remote vector store. The
// returned closer releases it.
type RemoteConnector func(ctx context.Context) (contract.ChunkEmbeddingRepository, io.Closer, error)

type IIndexService interface {
	Build(ctx context.Context, docs []store.Document, backend string) (vectorstore.VectorStore, error)
}

type indexService struct {
	gateway       ModelGateway
	connectRemote RemoteConnector
	logger        logger.ILogger
}

func NewIndexService(gateway ModelGateway, connectRemote RemoteConnector, log logger.ILogger) IIndexService {
	return &indexService{
		gateway:       gateway,
		connectRemote: connectRemote,
		logger:        log,
	}
}

// NewPostgresConnector connects to the remote store described by cfg on
// every call. Missing settings fail before any network access.
func NewPostgresConnector(cfg config.RemoteDBConfig) RemoteConnector {
	return func(ctx context.Context) (contract.ChunkEmbeddingRepository, io.Closer, error) {
		if err := cfg.Validate(); err != nil {
			return nil, nil, err
		}
		db, err := database.NewRemoteVectorDB(ctx, database.GormConfig{
			Host:     cfg.Address,
			Port:     cfg.Port,
			User:     cfg.User,
			Password: cfg.Password,
			DBName:   cfg.DBName,
			SSLMode:  cfg.SSLMode,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("connect remote vector store: %w", err)
		}
		closer := vectorstore.CloserFunc(func() error { return database.Close(db) })
		return implementation.NewChunkEmbeddingRepository(db), closer, nil
	}
}

func (s *indexService) Build(ctx context.Context, docs []store.Document, backend string) (vectorstore.VectorStore, error) {
	embedder := s.gateway.Embeddings()
	start := time.Now()

	var (
		vs  vectorstore.VectorStore
		err error
	)
	switch backend {
	case constant.BackendLocal:
		vs, err = vectorstore.NewLocalStoreFromDocuments(ctx, embedder, docs)
	case constant.BackendRemote:
		vs, err = s.buildRemote(ctx, embedder, docs)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidBackend, backend)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("INDEX", "Vector index built", map[string]interface{}{
		"backend":     backend,
		"chunks":      len(docs),
		"model":       embedder.Model(),
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return vs, nil
}

func (s *indexService) buildRemote(ctx context.Context, embedder embedding.EmbeddingProvider, docs []store.Document) (vectorstore.VectorStore, error) {
	if s.connectRemote == nil {
		return nil, fmt.Errorf("remote backend is not available")
	}
	repo, conn, err := s.connectRemote(ctx)
	if err != nil {
		return nil, err
	}

	vs, err := vectorstore.NewRemoteStore(ctx, repo, embedder, conn)
	if err != nil {
		if conn != nil {
			_ = conn.Close()
		}
		return nil, err
	}

	// The table is shared by every session; this drops their rows too.
	removed, err := vs.DeleteAll(ctx)
	if err != nil {
		_ = vs.Close()
		return nil, fmt.Errorf("clear remote table: %w", err)
	}
	s.logger.Warn("INDEX", "Remote table cleared before upload", map[string]interface{}{
		"table":        constant.RemoteTableName,
		"rows_removed": removed,
	})

	if err := vs.AddDocuments(ctx, docs); err != nil {
		_ = vs.Close()
		return nil, fmt.Errorf("upload chunks: %w", err)
	}
	return vs, nil
}
