package events

import "context"

// Stream carrying live simulation activity for dashboard feeds.
const StreamActivity = "events:activity"

// Event types
const (
	EventClickRecorded     = "click_recorded"
	EventClickChallenged   = "click_challenged"
	EventTrainingCompleted = "training_completed"
	EventTargetsCreated    = "targets_created"
)

type Event struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

type Publisher interface {
	Publish(ctx context.Context, stream string, event Event) error
}

// Subscriber delivers stream events until its context is cancelled.
// Implementations own their delivery goroutine and reconnect policy.
type Subscriber interface {
	Subscribe(ctx context.Context, stream string, handler func(Event))
}
