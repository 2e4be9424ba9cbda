package service

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"chat-with-pdf-be/internal/constant"
	"chat-with-pdf-be/internal/dto"
	"chat-with-pdf-be/internal/entity"
	"chat-with-pdf-be/pkg/pdf"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var samplePDF = buildPDF("Quarterly revenue grew by twelve percent", "Costs were flat")

func TestSessionService_InitAndStatus(t *testing.T) {
	f := newSessionFixture()
	ctx := context.Background()

	id := f.svc.Init(ctx)
	status, err := f.svc.Status(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, id, status.SessionId)
	assert.Equal(t, string(entity.SessionStateIdle), status.State)
	assert.False(t, status.Processed)
	assert.Equal(t, constant.BackendLabelLocal, status.BackendLabel)
	assert.Equal(t, 1, status.MessageCount)

	messages, err := f.svc.Messages(ctx, id)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, constant.WelcomeMessage, messages[0].Content)

	_, err = f.svc.Status(ctx, "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionService_GetOrInit(t *testing.T) {
	f := newSessionFixture()
	ctx := context.Background()

	id, created := f.svc.GetOrInit(ctx, "")
	assert.True(t, created)

	same, created := f.svc.GetOrInit(ctx, id)
	assert.False(t, created)
	assert.Equal(t, id, same)

	other, created := f.svc.GetOrInit(ctx, "expired")
	assert.True(t, created)
	assert.NotEqual(t, "expired", other)
}

func TestSessionService_ProcessGuards(t *testing.T) {
	tests := []struct {
		name       string
		request    func() *dto.ProcessDocumentRequest
		wantErr    error
		wantNotice string
	}{
		{
			name: "no file",
			request: func() *dto.ProcessDocumentRequest {
				return &dto.ProcessDocumentRequest{Submitted: true}
			},
		},
		{
			name: "file without submit",
			request: func() *dto.ProcessDocumentRequest {
				r := pdfUpload("a.pdf", samplePDF)
				r.Submitted = false
				return r
			},
			wantNotice: constant.NoticeUploadOK,
		},
		{
			name: "wrong mime type",
			request: func() *dto.ProcessDocumentRequest {
				r := pdfUpload("a.txt", []byte("plain"))
				r.ContentType = "text/plain"
				return r
			},
			wantErr:    ErrInvalidFile,
			wantNotice: constant.NoticeInvalidFile,
		},
		{
			name: "unknown backend",
			request: func() *dto.ProcessDocumentRequest {
				r := pdfUpload("a.pdf", samplePDF)
				r.Backend = "cloud"
				return r
			},
			wantErr: ErrInvalidBackend,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSessionFixture()
			ctx := context.Background()
			id := f.svc.Init(ctx)

			resp, err := f.svc.Process(ctx, id, tt.request())
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, dto.ProcessOutcomeSkipped, resp.Outcome)
			}

			assert.Zero(t, f.indexer.builds)
			status, err := f.svc.Status(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, string(entity.SessionStateIdle), status.State)
			assert.False(t, status.Processed)
			if tt.wantNotice != "" {
				require.NotNil(t, status.Notice)
				assert.Equal(t, tt.wantNotice, status.Notice.Text)
			}
		})
	}
}

func TestSessionService_ProcessSucceedsOnce(t *testing.T) {
	f := newSessionFixture()
	ctx := context.Background()
	id := f.svc.Init(ctx)

	resp, err := f.svc.Process(ctx, id, pdfUpload("report.pdf", samplePDF))
	require.NoError(t, err)

	assert.Equal(t, dto.ProcessOutcomeProcessed, resp.Outcome)
	assert.Equal(t, 1, resp.ChunkCount)
	assert.Equal(t, 2, resp.PageCount)
	assert.True(t, resp.Session.Processed)
	assert.Equal(t, string(entity.SessionStateReady), resp.Session.State)
	assert.Equal(t, "report.pdf", resp.Session.FileName)
	require.NotNil(t, resp.Session.Notice)
	assert.Equal(t, fmt.Sprintf(constant.NoticeProcessedFmt, constant.BackendLabelLocal), resp.Session.Notice.Text)

	require.Len(t, f.indexer.chunks, 1)
	assert.Contains(t, f.indexer.chunks[0].Content, "Quarterly revenue")
	assert.Equal(t, []string{constant.BackendLocal}, f.indexer.backends)

	// Ready is terminal: a second submit does nothing.
	resp, err = f.svc.Process(ctx, id, pdfUpload("other.pdf", samplePDF))
	require.NoError(t, err)
	assert.Equal(t, dto.ProcessOutcomeSkipped, resp.Outcome)
	assert.Equal(t, "report.pdf", resp.Session.FileName)
	assert.Equal(t, 1, f.indexer.builds)

	// Even a resubmit with an unknown backend is ignored once ready.
	resubmit := pdfUpload("other.pdf", samplePDF)
	resubmit.Backend = "cloud"
	resp, err = f.svc.Process(ctx, id, resubmit)
	require.NoError(t, err)
	assert.Equal(t, dto.ProcessOutcomeSkipped, resp.Outcome)
	assert.Equal(t, constant.BackendLocal, resp.Session.Backend)
	assert.Equal(t, 1, f.indexer.builds)
}

func TestSessionService_ProcessFailureLeavesSessionUnchanged(t *testing.T) {
	tests := []struct {
		name       string
		data       []byte
		indexErr   error
		engineErr  error
		wantStage  Stage
		wantNotice string
	}{
		{
			name:       "unreadable pdf",
			data:       []byte("%PDF-1.4 garbage"),
			wantStage:  StageExtraction,
			wantNotice: constant.NoticeExtractionFailed,
		},
		{
			name:       "indexing fails",
			data:       samplePDF,
			indexErr:   errBoom,
			wantStage:  StageIndexing,
			wantNotice: fmt.Sprintf(constant.NoticeIndexingFailed, constant.BackendLabelLocal),
		},
		{
			name:       "chat model unavailable",
			data:       samplePDF,
			engineErr:  errBoom,
			wantStage:  StageGeneration,
			wantNotice: fmt.Sprintf(constant.NoticeProcessFailedFmt, constant.BackendLabelLocal),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSessionFixture()
			f.indexer.err = tt.indexErr
			f.convs.err = tt.engineErr
			ctx := context.Background()
			id := f.svc.Init(ctx)

			_, err := f.svc.Process(ctx, id, pdfUpload("broken.pdf", tt.data))
			require.Error(t, err)

			stage, ok := StageOf(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantStage, stage)
			if tt.wantStage == StageExtraction {
				assert.ErrorIs(t, err, pdf.ErrExtraction)
			} else {
				assert.ErrorIs(t, err, errBoom)
			}

			session, ok := f.repo.Get(id)
			require.True(t, ok)
			snap := session.Snapshot()
			assert.Equal(t, entity.SessionStateIdle, snap.State)
			assert.False(t, snap.Processed)
			assert.Nil(t, session.Engine())
			assert.Len(t, snap.Messages, 1)
			require.NotNil(t, snap.Notice)
			assert.Equal(t, entity.NoticeError, snap.Notice.Level)
			assert.Equal(t, tt.wantNotice, snap.Notice.Text)

			if tt.engineErr != nil {
				assert.Equal(t, 1, f.indexer.index.count(), "index built before the failure must be closed")
			}

			_, err = f.svc.Chat(ctx, id, &dto.SendChatRequest{Question: "anything?"})
			assert.ErrorIs(t, err, ErrNotReady)
		})
	}
}

func TestSessionService_ChatAppendsOneUserAndOneAssistantMessage(t *testing.T) {
	f := newSessionFixture()
	f.engine.answers = []string{"It grew by twelve percent.", "They were flat."}
	ctx := context.Background()
	id := f.svc.Init(ctx)

	_, err := f.svc.Chat(ctx, id, &dto.SendChatRequest{Question: "How did revenue do?"})
	require.ErrorIs(t, err, ErrNotReady)

	_, err = f.svc.Process(ctx, id, pdfUpload("report.pdf", samplePDF))
	require.NoError(t, err)

	resp, err := f.svc.Chat(ctx, id, &dto.SendChatRequest{Question: "  How did revenue do?  "})
	require.NoError(t, err)
	assert.Equal(t, "How did revenue do?", resp.Question.Content)
	assert.Equal(t, constant.ChatMessageRoleUser, resp.Question.Role)
	assert.Equal(t, "It grew by twelve percent.", resp.Answer.Content)
	assert.Equal(t, constant.ChatMessageRoleAssistant, resp.Answer.Role)
	require.Len(t, resp.Answer.Sources, 1)

	_, err = f.svc.Chat(ctx, id, &dto.SendChatRequest{Question: "And costs?"})
	require.NoError(t, err)

	messages, err := f.svc.Messages(ctx, id)
	require.NoError(t, err)
	require.Len(t, messages, 5)
	assert.Equal(t, constant.WelcomeMessage, messages[0].Content)

	roles := make([]string, len(messages))
	for i, m := range messages {
		roles[i] = m.Role
	}
	assert.Equal(t, []string{
		constant.ChatMessageRoleAssistant,
		constant.ChatMessageRoleUser,
		constant.ChatMessageRoleAssistant,
		constant.ChatMessageRoleUser,
		constant.ChatMessageRoleAssistant,
	}, roles)
	assert.Equal(t, []string{"How did revenue do?", "And costs?"}, f.engine.questions)
}

func TestSessionService_ChatFailureRollsBackQuestion(t *testing.T) {
	f := newSessionFixture()
	ctx := context.Background()
	id := f.svc.Init(ctx)
	_, err := f.svc.Process(ctx, id, pdfUpload("report.pdf", samplePDF))
	require.NoError(t, err)

	f.engine.err = errBoom
	_, err = f.svc.Chat(ctx, id, &dto.SendChatRequest{Question: "Will this work?"})
	require.Error(t, err)

	stage, ok := StageOf(err)
	require.True(t, ok)
	assert.Equal(t, StageGeneration, stage)
	assert.ErrorIs(t, err, errBoom)

	status, err := f.svc.Status(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, status.MessageCount)
	assert.True(t, status.Processed)
	require.NotNil(t, status.Notice)
	assert.Equal(t, constant.NoticeGenerationFailed, status.Notice.Text)
}

func TestSessionService_ChatRejectsEmptyQuestion(t *testing.T) {
	f := newSessionFixture()
	ctx := context.Background()
	id := f.svc.Init(ctx)
	_, err := f.svc.Process(ctx, id, pdfUpload("report.pdf", samplePDF))
	require.NoError(t, err)

	_, err = f.svc.Chat(ctx, id, &dto.SendChatRequest{Question: "   "})
	assert.ErrorIs(t, err, ErrEmptyQuestion)
	assert.Empty(t, f.engine.questions)
}

func TestSessionService_ConcurrentRequestIsRejected(t *testing.T) {
	f := newSessionFixture()
	f.indexer.block = make(chan struct{})
	f.indexer.entered = make(chan struct{})
	ctx := context.Background()
	id := f.svc.Init(ctx)

	done := make(chan error, 1)
	go func() {
		_, err := f.svc.Process(ctx, id, pdfUpload("report.pdf", samplePDF))
		done <- err
	}()
	<-f.indexer.entered

	status, err := f.svc.Status(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, string(entity.SessionStateProcessing), status.State)

	_, err = f.svc.Process(ctx, id, pdfUpload("report.pdf", samplePDF))
	assert.ErrorIs(t, err, ErrSessionBusy)
	_, err = f.svc.Chat(ctx, id, &dto.SendChatRequest{Question: "hello?"})
	assert.ErrorIs(t, err, ErrSessionBusy)
	_, err = f.svc.Reset(ctx, id)
	assert.ErrorIs(t, err, ErrSessionBusy)

	close(f.indexer.block)
	require.NoError(t, <-done)
	assert.Equal(t, 1, f.indexer.builds)
}

func TestSessionService_ResetReturnsToIdle(t *testing.T) {
	f := newSessionFixture()
	f.engine.answers = []string{"ok"}
	ctx := context.Background()
	id := f.svc.Init(ctx)

	_, err := f.svc.Process(ctx, id, pdfUpload("report.pdf", samplePDF))
	require.NoError(t, err)
	_, err = f.svc.Chat(ctx, id, &dto.SendChatRequest{Question: "hi"})
	require.NoError(t, err)

	status, err := f.svc.Reset(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, string(entity.SessionStateIdle), status.State)
	assert.False(t, status.Processed)
	assert.Equal(t, 1, status.MessageCount)
	assert.Empty(t, status.FileName)
	assert.Equal(t, 1, f.indexer.index.count())

	// A new document can be processed after a reset.
	resp, err := f.svc.Process(ctx, id, &dto.ProcessDocumentRequest{
		FileName:    "second.pdf",
		ContentType: constant.PDFMimeType,
		Size:        int64(len(samplePDF)),
		Reader:      bytes.NewReader(samplePDF),
		Submitted:   true,
	})
	require.NoError(t, err)
	assert.Equal(t, dto.ProcessOutcomeProcessed, resp.Outcome)
	assert.Equal(t, constant.DefaultBackend, resp.Session.Backend)
}
