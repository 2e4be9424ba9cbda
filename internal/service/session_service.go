package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"chat-with-pdf-be/internal/config"
	"chat-with-pdf-be/internal/constant"
	"chat-with-pdf-be/internal/dto"
	"chat-with-pdf-be/internal/entity"
	"chat-with-pdf-be/internal/mapper"
	"chat-with-pdf-be/internal/pkg/logger"
	"chat-with-pdf-be/internal/repository/memory"
	"chat-with-pdf-be/pkg/events"
	"chat-with-pdf-be/pkg/pdf"
	"chat-with-pdf-be/pkg/rag"
	"chat-with-pdf-be/pkg/store"
	"chat-with-pdf-be/pkg/textsplitter"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type ISessionService interface {
	Init(ctx context.Context) string
	GetOrInit(ctx context.Context, sessionID string) (string, bool)
	Status(ctx context.Context, sessionID string) (*dto.SessionStatusResponse, error)
	Messages(ctx context.Context, sessionID string) ([]*dto.ChatMessageDTO, error)
	Process(ctx context.Context, sessionID string, request *dto.ProcessDocumentRequest) (*dto.ProcessDocumentResponse, error)
	Chat(ctx context.Context, sessionID string, request *dto.SendChatRequest) (*dto.SendChatResponse, error)
	Reset(ctx context.Context, sessionID string) (*dto.SessionStatusResponse, error)
}

type sessionService struct {
	sessionRepo   *memory.SessionRepository
	indexer       IIndexService
	conversations IConversationService
	publisher     IPublisherService
	splitter      *textsplitter.RecursiveCharacter
	mapper        *mapper.ChatMapper
	cfg           config.RagConfig
	logger        logger.ILogger
}

func NewSessionService(
	sessionRepo *memory.SessionRepository,
	indexer IIndexService,
	conversations IConversationService,
	publisher IPublisherService,
	cfg config.RagConfig,
	log logger.ILogger,
) ISessionService {
	return &sessionService{
		sessionRepo:   sessionRepo,
		indexer:       indexer,
		conversations: conversations,
		publisher:     publisher,
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(cfg.ChunkSize),
			textsplitter.WithChunkOverlap(cfg.ChunkOverlap),
		),
		mapper: mapper.NewChatMapper(),
		cfg:    cfg,
		logger: log,
	}
}

var tracer = otel.Tracer("chat-with-pdf-be/service")

// Init starts a fresh session and returns its id.
func (s *sessionService) Init(ctx context.Context) string {
	session := entity.NewChatSession(uuid.NewString())
	s.sessionRepo.Save(session)
	s.logger.Info("SESSION", "Session started", map[string]interface{}{"session_id": session.Id})
	return session.Id
}

// GetOrInit returns sessionID when it is still alive, or starts a new
// session. The bool reports whether a new one was created.
func (s *sessionService) GetOrInit(ctx context.Context, sessionID string) (string, bool) {
	if sessionID != "" {
		if session, ok := s.sessionRepo.Get(sessionID); ok {
			s.sessionRepo.Save(session)
			return session.Id, false
		}
	}
	return s.Init(ctx), true
}

func (s *sessionService) Status(ctx context.Context, sessionID string) (*dto.SessionStatusResponse, error) {
	session, err := s.get(sessionID)
	if err != nil {
		return nil, err
	}
	status := s.mapper.SnapshotToStatus(session.Snapshot())
	return &status, nil
}

func (s *sessionService) Messages(ctx context.Context, sessionID string) ([]*dto.ChatMessageDTO, error) {
	session, err := s.get(sessionID)
	if err != nil {
		return nil, err
	}
	return s.mapper.MessagesToDTO(session.Snapshot().Messages), nil
}

// Process runs the document pipeline once per session. Nothing happens
// unless a file is present, the submit signal is set and the session has
// not processed a document yet. A failed run leaves the session as it was.
func (s *sessionService) Process(ctx context.Context, sessionID string, request *dto.ProcessDocumentRequest) (*dto.ProcessDocumentResponse, error) {
	session, err := s.get(sessionID)
	if err != nil {
		return nil, err
	}
	if !session.TryLock() {
		return nil, ErrSessionBusy
	}
	defer session.Unlock()

	// Ready ignores any resubmit, whatever it carries.
	if request.Reader == nil || session.Processed() {
		return s.processResponse(session, dto.ProcessOutcomeSkipped, 0, 0, 0), nil
	}

	backend := request.Backend
	if backend == "" {
		backend = s.cfg.DefaultBackend
	}
	if backend != constant.BackendLocal && backend != constant.BackendRemote {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBackend, backend)
	}
	if request.ContentType != constant.PDFMimeType {
		session.SetNotice(&entity.Notice{Level: entity.NoticeError, Text: constant.NoticeInvalidFile})
		return nil, ErrInvalidFile
	}
	if !request.Submitted {
		session.SetNotice(&entity.Notice{Level: entity.NoticeInfo, Text: constant.NoticeUploadOK})
		return s.processResponse(session, dto.ProcessOutcomeSkipped, 0, 0, 0), nil
	}

	ctx, span := tracer.Start(ctx, "SessionService.Process")
	defer span.End()
	span.SetAttributes(
		attribute.String("session.id", session.Id),
		attribute.String("document.backend", backend),
		attribute.Int64("document.size", request.Size),
	)

	start := time.Now()
	label := constant.BackendLabel(backend)
	prev := session.BeginProcessing()

	fail := func(stage Stage, notice string, cause error) (*dto.ProcessDocumentResponse, error) {
		err := stageError(stage, backend, cause)
		session.AbortProcessing(prev, entity.Notice{Level: entity.NoticeError, Text: notice})
		span.RecordError(err)
		span.SetStatus(codes.Error, string(stage))
		s.logger.Error("DOCUMENT", "Document processing failed", map[string]interface{}{
			"session_id": session.Id,
			"file":       request.FileName,
			"backend":    backend,
			"stage":      string(stage),
			"error":      cause.Error(),
		})
		publishEvent(ctx, s.publisher, s.logger, events.New(events.TypeDocumentFailed, map[string]interface{}{
			"session_id": session.Id,
			"file":       request.FileName,
			"backend":    backend,
			"stage":      string(stage),
		}))
		return nil, err
	}

	s.logger.Info("DOCUMENT", "Processing document", map[string]interface{}{
		"session_id": session.Id,
		"file":       request.FileName,
		"size":       request.Size,
		"backend":    backend,
	})

	doc, err := pdf.Load(request.Reader, request.Size, request.FileName)
	if err != nil {
		return fail(StageExtraction, constant.NoticeExtractionFailed, err)
	}
	pageCount, _ := doc.Metadata[store.MetaPageCount].(int)

	chunks, err := s.splitter.SplitDocuments([]store.Document{doc})
	if err != nil {
		return fail(StageChunking, fmt.Sprintf(constant.NoticeProcessFailedFmt, label), err)
	}
	if len(chunks) == 0 {
		return fail(StageChunking, fmt.Sprintf(constant.NoticeProcessFailedFmt, label), pdf.ErrNoText)
	}
	s.logger.Debug("DOCUMENT", "Document split", map[string]interface{}{
		"session_id": session.Id,
		"pages":      pageCount,
		"chunks":     len(chunks),
	})

	index, err := s.indexer.Build(ctx, chunks, backend)
	if err != nil {
		return fail(StageIndexing, fmt.Sprintf(constant.NoticeIndexingFailed, label), err)
	}

	engine, err := s.conversations.NewEngine(index)
	if err != nil {
		_ = index.Close()
		return fail(StageGeneration, fmt.Sprintf(constant.NoticeProcessFailedFmt, label), err)
	}

	session.MarkReady(engine, index, backend, request.FileName, entity.Notice{
		Level: entity.NoticeSuccess,
		Text:  fmt.Sprintf(constant.NoticeProcessedFmt, label),
	})
	s.sessionRepo.Save(session)

	elapsed := time.Since(start)
	s.logger.Info("DOCUMENT", "Document processed", map[string]interface{}{
		"session_id":  session.Id,
		"file":        request.FileName,
		"backend":     backend,
		"chunks":      len(chunks),
		"duration_ms": elapsed.Milliseconds(),
	})
	publishEvent(ctx, s.publisher, s.logger, events.New(events.TypeDocumentProcessed, map[string]interface{}{
		"session_id": session.Id,
		"file":       request.FileName,
		"backend":    backend,
		"pages":      pageCount,
		"chunks":     len(chunks),
	}))

	return s.processResponse(session, dto.ProcessOutcomeProcessed, len(chunks), pageCount, elapsed.Milliseconds()), nil
}

// Chat runs one turn: the question is appended, answered by the engine and
// the answer appended. When the engine fails the question is taken back out.
func (s *sessionService) Chat(ctx context.Context, sessionID string, request *dto.SendChatRequest) (*dto.SendChatResponse, error) {
	session, err := s.get(sessionID)
	if err != nil {
		return nil, err
	}
	if !session.TryLock() {
		return nil, ErrSessionBusy
	}
	defer session.Unlock()

	engine := session.Engine()
	if !session.Processed() || engine == nil {
		return nil, ErrNotReady
	}

	question := strings.TrimSpace(request.Question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	ctx, span := tracer.Start(ctx, "SessionService.Chat")
	defer span.End()
	span.SetAttributes(attribute.String("session.id", session.Id))

	userMsg := session.AppendMessage(entity.ChatMessage{
		Role:    constant.ChatMessageRoleUser,
		Content: question,
	})

	last := session.LastMessage()
	if last.Role != constant.ChatMessageRoleUser {
		return nil, ErrNotReady
	}

	result, err := engine.Invoke(ctx, last.Content)
	if err != nil {
		session.RemoveMessage(userMsg.Id)
		session.SetNotice(&entity.Notice{Level: entity.NoticeError, Text: constant.NoticeGenerationFailed})
		span.RecordError(err)
		span.SetStatus(codes.Error, string(StageGeneration))
		s.logger.Error("CHAT", "Chat turn failed", map[string]interface{}{
			"session_id": session.Id,
			"error":      err.Error(),
		})
		publishEvent(ctx, s.publisher, s.logger, events.New(events.TypeChatFailed, map[string]interface{}{
			"session_id": session.Id,
		}))
		if errors.Is(err, rag.ErrEmptyQuestion) {
			return nil, ErrEmptyQuestion
		}
		return nil, stageError(StageGeneration, session.Snapshot().Backend, err)
	}

	answerMsg := session.AppendMessage(entity.ChatMessage{
		Role:    constant.ChatMessageRoleAssistant,
		Content: result.Answer,
		Sources: result.SourceDocuments,
	})
	s.sessionRepo.Save(session)

	s.logger.Info("CHAT", "Chat turn answered", map[string]interface{}{
		"session_id": session.Id,
		"sources":    len(result.SourceDocuments),
		"condensed":  result.GeneratedQuestion != result.Question,
	})
	publishEvent(ctx, s.publisher, s.logger, events.New(events.TypeChatAnswered, map[string]interface{}{
		"session_id": session.Id,
		"sources":    len(result.SourceDocuments),
	}))

	return &dto.SendChatResponse{
		Question:          s.mapper.MessageToDTO(userMsg),
		Answer:            s.mapper.MessageToDTO(answerMsg),
		GeneratedQuestion: result.GeneratedQuestion,
	}, nil
}

// Reset closes the session's index and returns it to a fresh idle state.
func (s *sessionService) Reset(ctx context.Context, sessionID string) (*dto.SessionStatusResponse, error) {
	session, err := s.get(sessionID)
	if err != nil {
		return nil, err
	}
	if !session.TryLock() {
		return nil, ErrSessionBusy
	}
	defer session.Unlock()

	if err := session.Reset(); err != nil {
		s.logger.Warn("SESSION", "Failed to close index on reset", map[string]interface{}{
			"session_id": session.Id,
			"error":      err.Error(),
		})
	}
	s.sessionRepo.Save(session)

	s.logger.Info("SESSION", "Session reset", map[string]interface{}{"session_id": session.Id})
	publishEvent(ctx, s.publisher, s.logger, events.New(events.TypeSessionReset, map[string]interface{}{
		"session_id": session.Id,
	}))

	status := s.mapper.SnapshotToStatus(session.Snapshot())
	return &status, nil
}

func (s *sessionService) get(sessionID string) (*entity.ChatSession, error) {
	session, ok := s.sessionRepo.Get(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func (s *sessionService) processResponse(session *entity.ChatSession, outcome string, chunks, pages int, durationMs int64) *dto.ProcessDocumentResponse {
	return &dto.ProcessDocumentResponse{
		Outcome:    outcome,
		ChunkCount: chunks,
		PageCount:  pages,
		DurationMs: durationMs,
		Session:    s.mapper.SnapshotToStatus(session.Snapshot()),
	}
}
