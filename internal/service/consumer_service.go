package service

import (
	"context"
	"encoding/json"

	"ai-oneshot-console/internal/pkg/logger"
	"ai-oneshot-console/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
)

// SessionBroadcaster delivers a rendered message to every viewer of a session.
type SessionBroadcaster interface {
	Send(sessionID string, payload []byte)
	CloseSession(sessionID string)
}

// AuditPublisher receives every event except view updates.
type AuditPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	subscriber  message.Subscriber
	topicName   string
	broadcaster SessionBroadcaster
	audit       AuditPublisher
	logger      logger.ILogger

	// Last view version sent per session. Only the consume loop touches it.
	versions map[string]uint64
}

// NewConsumerService wires the session event bus to its sinks. audit may be nil.
func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	broadcaster SessionBroadcaster,
	audit AuditPublisher,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber:  subscriber,
		topicName:   topicName,
		broadcaster: broadcaster,
		audit:       audit,
		logger:      log,
		versions:    make(map[string]uint64),
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
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
	var envelope EventEnvelope
	if err := json.Unmarshal(msg.Payload, &envelope); err != nil {
		cs.logger.Error("Consumer", "Failed to unmarshal event", map[string]interface{}{"error": err.Error()})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	if envelope.Type == events.TypeSessionUpdated {
		cs.deliverView(envelope)
		msg.Ack()
		return
	}

	if envelope.Type == events.TypeSessionDeleted {
		delete(cs.versions, envelope.SessionId)
		if cs.broadcaster != nil {
			cs.broadcaster.CloseSession(envelope.SessionId)
		}
	}

	if cs.audit != nil {
		data := make(map[string]interface{}, len(envelope.Data))
		for k, v := range envelope.Data {
			data[k] = v
		}
		evt := events.BaseEvent{
			ID:         envelope.Id,
			Type:       envelope.Type,
			SessionID:  envelope.SessionId,
			Data:       data,
			OccurredAt: envelope.OccurredAt,
		}
		if err := cs.audit.Publish(ctx, evt); err != nil {
			cs.logger.Warn("Consumer", "Failed to forward event to audit stream", map[string]interface{}{
				"event_type": envelope.Type,
				"error":      err.Error(),
			})
		}
	}
	msg.Ack()
}

func (cs *consumerService) deliverView(envelope EventEnvelope) {
	view, ok := envelope.Data["view"]
	if !ok || cs.broadcaster == nil {
		return
	}

	var header struct {
		Version uint64 `json:"version"`
	}
	if err := json.Unmarshal(view, &header); err == nil && header.Version > 0 {
		if header.Version <= cs.versions[envelope.SessionId] {
			cs.logger.Debug("Consumer", "Dropping outdated session view", map[string]interface{}{
				"session_id": envelope.SessionId,
				"version":    header.Version,
			})
			return
		}
		cs.versions[envelope.SessionId] = header.Version
	}
	data, err := json.Marshal(map[string]interface{}{
		"type": "session",
		"data": view,
	})
	if err != nil {
		cs.logger.Error("Consumer", "Failed to encode session view", map[string]interface{}{"error": err.Error()})
		return
	}
	cs.broadcaster.Send(envelope.SessionId, data)
}
