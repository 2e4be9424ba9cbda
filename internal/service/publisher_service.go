package service

import (
	"context"
	"encoding/json"

	"chat-with-pdf-be/internal/dto"
	"chat-with-pdf-be/internal/pkg/logger"
	"chat-with-pdf-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IPublisherService interface {
	Publish(ctx context.Context, payload []byte) error
}

type publisherService struct {
	topicName string
	pubSub    *gochannel.GoChannel
}

func NewPublisherService(topicName string, pubSub *gochannel.GoChannel) IPublisherService {
	return &publisherService{
		topicName: topicName,
		pubSub:    pubSub,
	}
}

func (p *publisherService) Publish(ctx context.Context, payload []byte) error {
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	return p.pubSub.Publish(p.topicName, msg)
}

// publishEvent is fire and forget: a lost event never fails the request.
func publishEvent(ctx context.Context, pub IPublisherService, log logger.ILogger, evt events.Event) {
	if pub == nil {
		return
	}
	payload, err := json.Marshal(dto.EventMessage{
		Type:       evt.EventType(),
		Data:       evt.Payload(),
		OccurredAt: evt.Timestamp(),
	})
	if err != nil {
		log.Warn("EVENTS", "Failed to encode event", map[string]interface{}{"type": evt.EventType(), "error": err.Error()})
		return
	}
	if err := pub.Publish(ctx, payload); err != nil {
		log.Warn("EVENTS", "Failed to publish event", map[string]interface{}{"type": evt.EventType(), "error": err.Error()})
	}
}
