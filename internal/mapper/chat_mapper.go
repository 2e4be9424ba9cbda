package mapper

import (
	"chat-with-pdf-be/internal/constant"
	"chat-with-pdf-be/internal/dto"
	"chat-with-pdf-be/internal/entity"
	"chat-with-pdf-be/pkg/store"
)

type ChatMapper struct{}

func NewChatMapper() *ChatMapper {
	return &ChatMapper{}
}

func (m *ChatMapper) SourcesToDTO(docs []store.Document) []dto.SourceDocumentDTO {
	if len(docs) == 0 {
		return nil
	}
	out := make([]dto.SourceDocumentDTO, len(docs))
	for i, d := range docs {
		out[i] = dto.SourceDocumentDTO{
			Id:       d.ID,
			Content:  d.Content,
			Score:    d.Score,
			Metadata: d.Metadata,
		}
	}
	return out
}

func (m *ChatMapper) MessageToDTO(msg entity.ChatMessage) *dto.ChatMessageDTO {
	return &dto.ChatMessageDTO{
		Id:        msg.Id,
		Role:      msg.Role,
		Content:   msg.Content,
		Sources:   m.SourcesToDTO(msg.Sources),
		CreatedAt: msg.CreatedAt,
	}
}

func (m *ChatMapper) MessagesToDTO(msgs []entity.ChatMessage) []*dto.ChatMessageDTO {
	out := make([]*dto.ChatMessageDTO, len(msgs))
	for i, msg := range msgs {
		out[i] = m.MessageToDTO(msg)
	}
	return out
}

func (m *ChatMapper) SnapshotToStatus(s entity.SessionSnapshot) dto.SessionStatusResponse {
	var notice *dto.NoticeDTO
	if s.Notice != nil {
		notice = &dto.NoticeDTO{Level: string(s.Notice.Level), Text: s.Notice.Text}
	}
	return dto.SessionStatusResponse{
		SessionId:    s.Id,
		State:        string(s.State),
		Processed:    s.Processed,
		Backend:      s.Backend,
		BackendLabel: constant.BackendLabel(s.Backend),
		FileName:     s.FileName,
		MessageCount: len(s.Messages),
		Notice:       notice,
		UpdatedAt:    s.UpdatedAt,
	}
}
