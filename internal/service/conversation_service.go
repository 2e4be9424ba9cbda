package service

import (
	"fmt"

	"chat-with-pdf-be/internal/config"
	"chat-with-pdf-be/internal/entity"
	"chat-with-pdf-be/pkg/rag"
	"chat-with-pdf-be/pkg/rag/history"
	"chat-with-pdf-be/pkg/vectorstore"
)

type IConversationService interface {
	NewEngine(vs vectorstore.VectorStore) (entity.ConversationEngine, error)
}

type conversationService struct {
	gateway ModelGateway
	cfg     config.RagConfig
}

func NewConversationService(gateway ModelGateway, cfg config.RagConfig) IConversationService {
	return &conversationService{gateway: gateway, cfg: cfg}
}

// NewEngine wires the chat model, a top-k retriever over vs and a fresh
// bounded memory.
func (s *conversationService) NewEngine(vs vectorstore.VectorStore) (entity.ConversationEngine, error) {
	model, err := s.gateway.ChatModel()
	if err != nil {
		return nil, fmt.Errorf("init chat model: %w", err)
	}
	return rag.NewEngine(
		model,
		vectorstore.AsRetriever(vs, s.cfg.TopK),
		history.NewBuffer(s.cfg.HistoryMaxTurns),
	), nil
}
