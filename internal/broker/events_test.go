package broker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanphung2005/fluxify-sub001/internal/models"
)

func message(t *testing.T, event interface{}) kafka.Message {
	t.Helper()
	value, err := json.Marshal(event)
	require.NoError(t, err)
	return kafka.Message{Value: value}
}

func TestHandleMessageRoutesOrderPlaced(t *testing.T) {
	handler := NewEventHandler()

	var received *models.OrderPlacedEvent
	handler.OnOrderPlaced(func(_ context.Context, e *models.OrderPlacedEvent) error {
		received = e
		return nil
	})

	event := &models.OrderPlacedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   "evt-1",
			EventType: models.EventTypeOrderPlaced,
			Timestamp: time.Now(),
		},
		OrderID:     42,
		UserID:      7,
		TotalAmount: 200,
		Items: []models.OrderItemData{
			{ProductID: 1, Quantity: 2, UnitPrice: 100, SelectedVariant: "Color:Red,Size:M"},
		},
	}

	err := handler.HandleMessage(context.Background(), message(t, event))
	require.NoError(t, err)
	require.NotNil(t, received)
	assert.Equal(t, int64(42), received.OrderID)
	assert.Equal(t, "Color:Red,Size:M", received.Items[0].SelectedVariant)
}

func TestHandleMessageRoutesOrderCancelled(t *testing.T) {
	handler := NewEventHandler()

	var received *models.OrderCancelledEvent
	handler.OnOrderCancelled(func(_ context.Context, e *models.OrderCancelledEvent) error {
		received = e
		return nil
	})

	event := &models.OrderCancelledEvent{
		BaseEvent: models.BaseEvent{
			EventID:   "evt-2",
			EventType: models.EventTypeOrderCancelled,
			Timestamp: time.Now(),
		},
		OrderID: 42,
	}

	err := handler.HandleMessage(context.Background(), message(t, event))
	require.NoError(t, err)
	require.NotNil(t, received)
	assert.Equal(t, int64(42), received.OrderID)
}

func TestHandleMessageIgnoresUnknownTypes(t *testing.T) {
	handler := NewEventHandler()
	handler.OnOrderPlaced(func(context.Context, *models.OrderPlacedEvent) error {
		t.Fatal("should not be called")
		return nil
	})

	msg := message(t, models.BaseEvent{EventID: "evt-3", EventType: "SOMETHING_ELSE"})
	assert.NoError(t, handler.HandleMessage(context.Background(), msg))
}

func TestHandleMessageRejectsMalformedPayload(t *testing.T) {
	handler := NewEventHandler()
	err := handler.HandleMessage(context.Background(), kafka.Message{Value: []byte("{not json")})
	assert.Error(t, err)
}
