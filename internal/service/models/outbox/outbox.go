package outbox

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	RoutingKeyOrderCreated       = "order.created"
	RoutingKeyOrderStatusChanged = "order.status_changed"

	DefaultMaxAttempts = 5
)

// Event is an order event recorded in the same transaction as the change it
// describes and relayed to the broker afterwards.
type Event struct {
	ID          int64
	OrderID     int64
	Exchange    string
	RoutingKey  string
	Payload     []byte
	Attempts    int
	MaxAttempts int
	LastError   string
	CreatedAt   time.Time
	AvailableAt time.Time
	PublishedAt *time.Time
}

// NewOrderEvent encodes payload as JSON and returns an event that is due immediately.
func NewOrderEvent(exchange, routingKey string, orderID int64, payload any, now time.Time) (Event, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("failed to marshal %s event: %w", routingKey, err)
	}

	return Event{
		OrderID:     orderID,
		Exchange:    exchange,
		RoutingKey:  routingKey,
		Payload:     body,
		MaxAttempts: DefaultMaxAttempts,
		CreatedAt:   now,
		AvailableAt: now,
	}, nil
}

// Failed records a failed delivery and schedules the next attempt.
func (e *Event) Failed(cause error, next time.Time) {
	e.Attempts++
	e.LastError = cause.Error()
	e.AvailableAt = next
}

// Exhausted reports whether the relay has given up on the event.
func (e Event) Exhausted() bool {
	return e.Attempts >= e.MaxAttempts
}

// Published reports whether the broker has confirmed the event.
func (e Event) Published() bool {
	return e.PublishedAt != nil
}

// OrderCreatedEvent is published after a successful checkout.
type OrderCreatedEvent struct {
	OrderID         int64     `json:"orderId"`
	UserEmail       string    `json:"user"`
	TotalPriceMinor int64     `json:"totalPrice"`
	Items           int       `json:"items"`
	CreatedAt       time.Time `json:"timestamp"`
}

// OrderStatusChangedEvent is published after an admin status update.
type OrderStatusChangedEvent struct {
	OrderID   int64     `json:"orderId"`
	OldStatus string    `json:"oldStatus"`
	NewStatus string    `json:"newStatus"`
	ChangedBy string    `json:"changedBy"`
	ChangedAt time.Time `json:"changedAt"`
}
