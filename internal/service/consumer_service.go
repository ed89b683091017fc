// FILE: internal/service/consumer_service.go
package service

import (
	"context"
	"sync/atomic"

	"doc-review-be/internal/pkg/logger"
	"doc-review-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
	Handled() int64
}

// consumerService writes every review event to the audit log.
type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	audit      logger.ILogger
	logger     logger.ILogger
	handled    atomic.Int64
}

func NewConsumerService(subscriber message.Subscriber, topicName string, audit logger.ILogger, log logger.ILogger) IConsumerService {
	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		audit:      audit,
		logger:     log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(msg)
		}
	}()

	return nil
}

func (cs *consumerService) Handled() int64 {
	return cs.handled.Load()
}

func (cs *consumerService) processMessage(msg *message.Message) {
	// undecodable messages are acked so they are not redelivered forever
	defer msg.Ack()

	evt, err := events.Decode(msg.Payload)
	if err != nil {
		cs.logger.Error("Events", "Failed to decode review event", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err.Error(),
		})
		return
	}

	details := map[string]interface{}{
		"type":        evt.EventType(),
		"occurred_at": evt.Timestamp(),
	}
	for k, v := range evt.Payload() {
		details[k] = v
	}
	cs.audit.Info("ReviewEvent", evt.EventType(), details)
	cs.handled.Add(1)
}
