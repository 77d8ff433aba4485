package interfaces

import "context"

// EventType represents different event types in the system
type EventType string

const (
	// EventInsightLoading is published when a fetch starts. Payload: models.InsightEvent
	EventInsightLoading EventType = "insight_loading"
	// EventInsightReady is published when a fetch result has been cached. Payload: models.InsightEvent
	EventInsightReady EventType = "insight_ready"
	// EventInsightFailed is published when a fetch fails. Payload: models.InsightEvent
	EventInsightFailed EventType = "insight_failed"
	// EventSelectionChanged is published after every selection state change. Payload: models.SelectionState
	EventSelectionChanged EventType = "selection_changed"
)

// Event represents a system event
type Event struct {
	Type    EventType
	Payload interface{}
}

// EventHandler is a function that handles events
type EventHandler func(ctx context.Context, event Event) error

// EventService manages pub/sub event bus
type EventService interface {
	// Subscribe to an event type
	Subscribe(eventType EventType, handler EventHandler) error

	// Publish an event to all subscribers
	Publish(ctx context.Context, event Event) error

	// PublishSync publishes event and waits for all handlers to complete
	PublishSync(ctx context.Context, event Event) error

	// Close shuts down the event service
	Close() error
}
