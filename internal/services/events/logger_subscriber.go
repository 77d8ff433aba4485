package events

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketpulse/internal/interfaces"
	"github.com/ternarybob/marketpulse/internal/models"
)

// NewLoggerSubscriber creates an event handler that logs insight lifecycle events
func NewLoggerSubscriber(logger arbor.ILogger) interfaces.EventHandler {
	return func(ctx context.Context, event interfaces.Event) error {
		logEvent := logger.Debug().
			Str("event_type", string(event.Type))

		switch payload := event.Payload.(type) {
		case models.InsightEvent:
			logEvent = logEvent.
				Str("fetch_id", payload.FetchID).
				Str("key", payload.Key)
			if payload.Error != "" {
				logEvent = logEvent.Str("error", payload.Error)
			}
		case models.SelectionState:
			logEvent = logEvent.
				Str("vertical", payload.Vertical).
				Str("mode", string(payload.Mode))
		}

		logEvent.Msg("Event published")
		return nil
	}
}

// SubscribeLoggerToAllEvents subscribes the logger to all known event types
func SubscribeLoggerToAllEvents(eventService interfaces.EventService, logger arbor.ILogger) error {
	subscriber := NewLoggerSubscriber(logger)

	eventTypes := []interfaces.EventType{
		interfaces.EventInsightLoading,
		interfaces.EventInsightReady,
		interfaces.EventInsightFailed,
		interfaces.EventSelectionChanged,
	}

	for _, eventType := range eventTypes {
		if err := eventService.Subscribe(eventType, subscriber); err != nil {
			return fmt.Errorf("failed to subscribe logger to event type %s: %w", eventType, err)
		}
	}

	logger.Debug().
		Int("event_type_count", len(eventTypes)).
		Msg("Logger subscribed to all event types")

	return nil
}
