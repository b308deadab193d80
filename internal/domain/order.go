package domain

import "time"

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusReserved   OrderStatus = "reserved"
	OrderStatusInProgress OrderStatus = "in_progress"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusReserved, OrderStatusInProgress,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// orderTransitions is the authoritative adjacency table. delivered and
// cancelled are terminal.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusReserved, OrderStatusInProgress, OrderStatusCancelled},
	OrderStatusReserved:   {OrderStatusInProgress, OrderStatusDelivered, OrderStatusCancelled},
	OrderStatusInProgress: {OrderStatusDelivered, OrderStatusCancelled},
	OrderStatusDelivered:  {},
	OrderStatusCancelled:  {},
}

// CanTransitionTo reports whether the status may move to next. The check is a
// pure function of the two statuses, independent of the acting party.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Cancellable reports whether an order in this status may still be cancelled.
func (s OrderStatus) Cancellable() bool {
	switch s {
	case OrderStatusPending, OrderStatusReserved, OrderStatusInProgress:
		return true
	}
	return false
}

// Order is the slice of the externally persisted order this service reads and
// writes. Order state is never cached beyond a single status-update call.
type Order struct {
	ID         string      `json:"id"`
	ShopID     string      `json:"shop_id"`
	CustomerID string      `json:"customer_id"`
	Status     OrderStatus `json:"status"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// OrderStatusChange is an immutable audit record appended once per
// successful transition.
type OrderStatusChange struct {
	ID             string      `json:"id"`
	OrderID        string      `json:"order_id"`
	PreviousStatus OrderStatus `json:"previous_status"`
	NewStatus      OrderStatus `json:"new_status"`
	ActorID        string      `json:"actor_id"`
	ActorRole      Role        `json:"actor_role"`
	Notes          string      `json:"notes,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
}

// Shop is the slice of shop data needed to resolve order stakeholders.
type Shop struct {
	ID      string `json:"id"`
	OwnerID string `json:"owner_id"`
	Name    string `json:"name"`
}
