package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ai-oneshot-console/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
)

// EventEnvelope is the bus representation of an events.Event.
type EventEnvelope struct {
	Id         string                     `json:"id"`
	Type       string                     `json:"type"`
	SessionId  string                     `json:"session_id"`
	OccurredAt time.Time                  `json:"occurred_at"`
	Data       map[string]json.RawMessage `json:"data"`
}

type IPublisherService interface {
	Publish(ctx context.Context, event events.Event) error
}

type publisherService struct {
	topicName string
	publisher message.Publisher
}

func NewPublisherService(topicName string, publisher message.Publisher) IPublisherService {
	return &publisherService{
		topicName: topicName,
		publisher: publisher,
	}
}

func (p *publisherService) Publish(ctx context.Context, event events.Event) error {
	data := make(map[string]json.RawMessage, len(event.Payload()))
	for k, v := range event.Payload() {
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshal event field %q: %w", k, err)
		}
		data[k] = raw
	}

	sessionID := ""
	if base, ok := event.(events.BaseEvent); ok {
		sessionID = base.SessionID
	}

	payload, err := json.Marshal(EventEnvelope{
		Id:         event.EventID(),
		Type:       event.EventType(),
		SessionId:  sessionID,
		OccurredAt: event.Timestamp(),
		Data:       data,
	})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := message.NewMessage(event.EventID(), payload)
	return p.publisher.Publish(p.topicName, msg)
}
