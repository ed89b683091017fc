package events

import (
	"encoding/json"
	"time"
)

const (
	TypeIssueStatusChanged    = "issue.status_changed"
	TypeSessionReadyToCleanup = "session.ready_for_cleanup"
	TypeSessionCompleted      = "session.completed"
)

// Event defines the contract for all review events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "session.completed").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
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

func IssueStatusChanged(sessionId, issueId, previous, next, reason string, at time.Time) Event {
	return BaseEvent{
		Type: TypeIssueStatusChanged,
		Data: map[string]interface{}{
			"session_id":      sessionId,
			"issue_id":        issueId,
			"previous_status": previous,
			"new_status":      next,
			"reason":          reason,
		},
		OccurredAt: at,
	}
}

func SessionReadyForCleanup(sessionId string, issueCount int, at time.Time) Event {
	return BaseEvent{
		Type: TypeSessionReadyToCleanup,
		Data: map[string]interface{}{
			"session_id":  sessionId,
			"issue_count": issueCount,
		},
		OccurredAt: at,
	}
}

func SessionCompleted(sessionId string, artifacts map[string]string, unresolved []string, at time.Time) Event {
	return BaseEvent{
		Type: TypeSessionCompleted,
		Data: map[string]interface{}{
			"session_id":           sessionId,
			"artifact_paths":       artifacts,
			"unresolved_issue_ids": unresolved,
		},
		OccurredAt: at,
	}
}

// Envelope is the wire form used on the in-process bus.
type Envelope struct {
	Type       string                 `json:"type"`
	Payload    map[string]interface{} `json:"payload"`
	OccurredAt time.Time              `json:"occurred_at"`
}

func Encode(e Event) ([]byte, error) {
	return json.Marshal(Envelope{
		Type:       e.EventType(),
		Payload:    e.Payload(),
		OccurredAt: e.Timestamp(),
	})
}

func Decode(data []byte) (Event, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	return BaseEvent{Type: env.Type, Data: env.Payload, OccurredAt: env.OccurredAt}, nil
}
