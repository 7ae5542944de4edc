package events

import (
	"time"

	"github.com/google/uuid"
)

// Event defines the contract for all system events.
type Event interface {
	// EventID is unique per event; used as the bus message id.
	EventID() string

	// EventType returns the unique code for this event (e.g., "SESSION_UPDATED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

const (
	TypeSessionCreated  = "SESSION_CREATED"
	TypeSessionUpdated  = "SESSION_UPDATED"
	TypeSessionDeleted  = "SESSION_DELETED"
	TypeQuestionAsked   = "QUESTION_ASKED"
	TypeAnswerReceived  = "ANSWER_RECEIVED"
	TypeAnswerFailed    = "ANSWER_FAILED"
	TypeStaleAnswerDrop = "STALE_ANSWER_DROPPED"
)

// BaseEvent is the only Event implementation; events differ by Type and Data.
type BaseEvent struct {
	ID         string
	Type       string
	SessionID  string
	Data       map[string]interface{}
	OccurredAt time.Time
}

// New stamps an event with a fresh id and the current time.
func New(eventType, sessionID string, data map[string]interface{}) BaseEvent {
	if data == nil {
		data = make(map[string]interface{})
	}
	data["session_id"] = sessionID
	return BaseEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		SessionID:  sessionID,
		Data:       data,
		OccurredAt: time.Now(),
	}
}

func (e BaseEvent) EventID() string {
	return e.ID
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}
