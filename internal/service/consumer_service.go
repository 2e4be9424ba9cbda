package service

import (
	"context"
	"encoding/json"

	"chat-with-pdf-be/internal/dto"
	"chat-with-pdf-be/internal/pkg/logger"
	"chat-with-pdf-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// EventForwarder ships events to an external bus such as NATS.
type EventForwarder interface {
	Publish(ctx context.Context, event events.Event) error
}

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	pubSub     *gochannel.GoChannel
	topicName  string
	forwarders []EventForwarder
	logger     logger.ILogger
}

// NewConsumerService logs every pipeline event and hands it to each forwarder.
func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	log logger.ILogger,
	forwarders ...EventForwarder,
) IConsumerService {
	return &consumerService{
		pubSub:     pubSub,
		topicName:  topicName,
		forwarders: forwarders,
		logger:     log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.EventMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("EVENTS", "Failed to unmarshal event", map[string]interface{}{"error": err.Error()})
		// nothing to retry on a bad payload
		msg.Ack()
		return
	}

	cs.logger.Info("EVENTS", payload.Type, payload.Data)

	evt := events.BaseEvent{Type: payload.Type, Data: payload.Data, OccurredAt: payload.OccurredAt}
	for _, fwd := range cs.forwarders {
		if err := fwd.Publish(ctx, evt); err != nil {
			cs.logger.Warn("EVENTS", "Failed to forward event", map[string]interface{}{
				"type":  payload.Type,
				"error": err.Error(),
			})
		}
	}

	msg.Ack()
}
