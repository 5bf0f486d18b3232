package models

import "time"

// Event types
const (
	EventTypeOrderPlaced    = "ORDER_PLACED"
	EventTypeOrderCancelled = "ORDER_CANCELLED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderItemData represents item data in events
type OrderItemData struct {
	ProductID       int64  `json:"product_id"`
	Quantity        int    `json:"quantity"`
	UnitPrice       int64  `json:"unit_price"`
	SelectedVariant string `json:"selected_variant,omitempty"`
}

// OrderPlacedEvent is published after a placement transaction commits.
type OrderPlacedEvent struct {
	BaseEvent
	OrderID        int64           `json:"order_id"`
	UserID         int64           `json:"user_id"`
	TotalAmount    int64           `json:"total_amount"`
	DiscountAmount int64           `json:"discount_amount"`
	Items          []OrderItemData `json:"items"`
}

// OrderCancelledEvent is published after a cancellation transaction
// commits; Items carry the exact quantities that were restored.
type OrderCancelledEvent struct {
	BaseEvent
	OrderID int64           `json:"order_id"`
	UserID  int64           `json:"user_id"`
	Items   []OrderItemData `json:"items"`
}
