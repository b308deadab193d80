package events

import (
	"context"
	"time"

	"github.com/amisra31/localpick-market-demo-sub001/internal/domain"
)

// OrderEvent is published to the event stream after every successful order
// status transition, for downstream consumers (analytics, notifications).
type OrderEvent struct {
	OrderID        string             `json:"order_id"`
	ShopID         string             `json:"shop_id"`
	CustomerID     string             `json:"customer_id"`
	PreviousStatus domain.OrderStatus `json:"previous_status"`
	NewStatus      domain.OrderStatus `json:"new_status"`
	ActorID        string             `json:"actor_id"`
	ActorRole      domain.Role        `json:"actor_role"`
	Timestamp      time.Time          `json:"timestamp"`
}

// Producer publishes order events. Publication is best-effort and never
// blocks or fails the status update itself.
type Producer interface {
	PublishOrderEvent(ctx context.Context, event *OrderEvent) error
	Close() error
}

// Noop is used when no Kafka brokers are configured.
type Noop struct{}

func (Noop) PublishOrderEvent(context.Context, *OrderEvent) error { return nil }
func (Noop) Close() error                                         { return nil }
