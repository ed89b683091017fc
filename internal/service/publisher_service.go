// FILE: internal/service/publisher_service.go
package service

import (
	"context"

	"doc-review-be/internal/pkg/logger"
	"doc-review-be/pkg/events"
	pktNats "doc-review-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

type IPublisherService interface {
	Publish(ctx context.Context, event events.Event) error
	// PublishAll logs failures instead of returning them.
	PublishAll(ctx context.Context, evts []events.Event)
}

type publisherService struct {
	topicName string
	publisher message.Publisher
	forwarder *pktNats.Publisher
	logger    logger.ILogger
}

// NewPublisherService publishes review events to topicName on the in-process
// bus. A non-nil forwarder also receives every event.
func NewPublisherService(topicName string, publisher message.Publisher, forwarder *pktNats.Publisher, log logger.ILogger) IPublisherService {
	return &publisherService{
		topicName: topicName,
		publisher: publisher,
		forwarder: forwarder,
		logger:    log,
	}
}

func (ps *publisherService) Publish(ctx context.Context, event events.Event) error {
	payload, err := events.Encode(event)
	if err != nil {
		return err
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	if err := ps.publisher.Publish(ps.topicName, msg); err != nil {
		return err
	}

	if ps.forwarder != nil {
		if err := ps.forwarder.Publish(ctx, event); err != nil {
			ps.logger.Warn("Events", "Failed to forward event to NATS", map[string]interface{}{
				"type":  event.EventType(),
				"error": err.Error(),
			})
		}
	}
	return nil
}

func (ps *publisherService) PublishAll(ctx context.Context, evts []events.Event) {
	for _, evt := range evts {
		if err := ps.Publish(ctx, evt); err != nil {
			ps.logger.Warn("Events", "Failed to publish event", map[string]interface{}{
				"type":  evt.EventType(),
				"error": err.Error(),
			})
		}
	}
}
