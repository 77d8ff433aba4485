package events

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketpulse/internal/interfaces"
	"github.com/ternarybob/marketpulse/internal/models"
)

func TestSubscribe_NilHandler(t *testing.T) {
	service := NewService(arbor.NewLogger())
	assert.Error(t, service.Subscribe(interfaces.EventInsightReady, nil))
}

func TestPublishSync_DeliversToMatchingSubscribers(t *testing.T) {
	service := NewService(arbor.NewLogger())
	ctx := context.Background()

	var ready, failed atomic.Int32
	require.NoError(t, service.Subscribe(interfaces.EventInsightReady, func(ctx context.Context, event interfaces.Event) error {
		ready.Add(1)
		return nil
	}))
	require.NoError(t, service.Subscribe(interfaces.EventInsightFailed, func(ctx context.Context, event interfaces.Event) error {
		failed.Add(1)
		return nil
	}))

	err := service.PublishSync(ctx, interfaces.Event{
		Type:    interfaces.EventInsightReady,
		Payload: models.InsightEvent{Key: "Fashion-EN"},
	})
	require.NoError(t, err)

	assert.Equal(t, int32(1), ready.Load())
	assert.Equal(t, int32(0), failed.Load())
}

func TestPublishSync_CollectsHandlerErrors(t *testing.T) {
	service := NewService(arbor.NewLogger())
	boom := errors.New("boom")

	require.NoError(t, service.Subscribe(interfaces.EventInsightFailed, func(ctx context.Context, event interfaces.Event) error {
		return boom
	}))
	require.NoError(t, service.Subscribe(interfaces.EventInsightFailed, func(ctx context.Context, event interfaces.Event) error {
		return nil
	}))

	err := service.PublishSync(context.Background(), interfaces.Event{Type: interfaces.EventInsightFailed})
	assert.ErrorIs(t, err, boom)
}

func TestPublish_Async(t *testing.T) {
	service := NewService(arbor.NewLogger())
	received := make(chan interfaces.Event, 1)

	require.NoError(t, service.Subscribe(interfaces.EventInsightLoading, func(ctx context.Context, event interfaces.Event) error {
		received <- event
		return nil
	}))

	require.NoError(t, service.Publish(context.Background(), interfaces.Event{
		Type:    interfaces.EventInsightLoading,
		Payload: models.InsightEvent{FetchID: "f1"},
	}))

	select {
	case event := <-received:
		payload, ok := event.Payload.(models.InsightEvent)
		require.True(t, ok)
		assert.Equal(t, "f1", payload.FetchID)
	case <-time.After(2 * time.Second):
		t.Fatal("event was not delivered")
	}
}

func TestPublish_NoSubscribers(t *testing.T) {
	service := NewService(arbor.NewLogger())
	assert.NoError(t, service.Publish(context.Background(), interfaces.Event{Type: interfaces.EventSelectionChanged}))
}

func TestClose_DropsSubscribers(t *testing.T) {
	service := NewService(arbor.NewLogger())
	var calls atomic.Int32

	require.NoError(t, service.Subscribe(interfaces.EventInsightReady, func(ctx context.Context, event interfaces.Event) error {
		calls.Add(1)
		return nil
	}))
	require.NoError(t, service.Close())

	require.NoError(t, service.PublishSync(context.Background(), interfaces.Event{Type: interfaces.EventInsightReady}))
	assert.Equal(t, int32(0), calls.Load())
	assert.Error(t, service.Subscribe(interfaces.EventInsightReady, func(ctx context.Context, event interfaces.Event) error { return nil }))
}
