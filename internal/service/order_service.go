package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/amisra31/localpick-market-demo-sub001/internal/audit"
	"github.com/amisra31/localpick-market-demo-sub001/internal/domain"
	"github.com/amisra31/localpick-market-demo-sub001/internal/events"
	"github.com/amisra31/localpick-market-demo-sub001/internal/repository"
	"github.com/amisra31/localpick-market-demo-sub001/pkg/log"
)

var (
	ErrInvalidStatus     = errors.New("invalid order status")
	ErrIllegalTransition = errors.New("illegal status transition")
	ErrNotCancellable    = errors.New("order can no longer be cancelled")
)

type orderService struct {
	orders   repository.OrderRepository
	shops    repository.ShopRepository
	notifier Notifier
	producer events.Producer
}

// NewOrderService wires the state machine to its store, the broadcast
// router and the event stream. Caller-side permission checks happen before
// any of these methods run; the state machine enforces status legality only.
func NewOrderService(orders repository.OrderRepository, shops repository.ShopRepository, notifier Notifier, producer events.Producer) OrderService {
	return &orderService{
		orders:   orders,
		shops:    shops,
		notifier: notifier,
		producer: producer,
	}
}

// UpdateStatus validates and applies one status transition, appends the
// audit record, and notifies every stakeholder. The persisted status change
// is the primary contract; audit and event publication are best-effort.
func (s *orderService) UpdateStatus(ctx context.Context, orderID string, newStatus domain.OrderStatus, actorID string, actorRole domain.Role, notes string) (*domain.Order, error) {
	if !newStatus.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, newStatus)
	}

	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	previous := order.Status
	if !previous.CanTransitionTo(newStatus) {
		audit.LogWithDetail(ctx, audit.ActionOrderRejected, actorID,
			fmt.Sprintf("%s -> %s", previous, newStatus), "order transition rejected")
		return nil, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, previous, newStatus)
	}

	if err := s.orders.UpdateOrderStatus(ctx, orderID, newStatus); err != nil {
		return nil, err
	}
	order.Status = newStatus
	order.UpdatedAt = time.Now()

	change := &domain.OrderStatusChange{
		OrderID:        orderID,
		PreviousStatus: previous,
		NewStatus:      newStatus,
		ActorID:        actorID,
		ActorRole:      actorRole,
		Notes:          notes,
		CreatedAt:      order.UpdatedAt,
	}
	if err := s.orders.AppendStatusChange(ctx, change); err != nil {
		// The status update already committed; the trail is secondary.
		l := log.Ctx(ctx)
		l.Error().Err(err).Str(log.FieldOrderID, orderID).Msg("failed to append status change record")
	}

	audit.LogWithDetail(ctx, audit.ActionOrderStatus, actorID,
		fmt.Sprintf("%s -> %s", previous, newStatus), "order status updated")

	s.broadcastStatusUpdate(ctx, order, change)
	s.publishEvent(ctx, order, change)

	return order, nil
}

// CancelOrder is a thin wrapper over UpdateStatus restricted to orders that
// have not reached a terminal state.
func (s *orderService) CancelOrder(ctx context.Context, orderID, actorID string, actorRole domain.Role) (*domain.Order, error) {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !order.Status.Cancellable() {
		return nil, fmt.Errorf("%w: status %s", ErrNotCancellable, order.Status)
	}

	audit.Log(ctx, audit.ActionOrderCancel, actorID, "order cancellation requested")
	return s.UpdateStatus(ctx, orderID, domain.OrderStatusCancelled, actorID, actorRole, "")
}

func (s *orderService) StatusHistory(ctx context.Context, orderID string) ([]domain.OrderStatusChange, error) {
	if _, err := s.orders.GetOrder(ctx, orderID); err != nil {
		return nil, err
	}
	return s.orders.ListStatusChanges(ctx, orderID)
}

// broadcastStatusUpdate notifies the customer, the owning merchant, every
// connection tagged with the shop, and all admin dashboards.
func (s *orderService) broadcastStatusUpdate(ctx context.Context, order *domain.Order, change *domain.OrderStatusChange) {
	msg := &domain.OrderStatusUpdatedMessage{
		Type:           domain.MsgTypeOrderStatusUpdated,
		OrderID:        order.ID,
		ShopID:         order.ShopID,
		CustomerID:     order.CustomerID,
		PreviousStatus: change.PreviousStatus,
		NewStatus:      change.NewStatus,
		ActorID:        change.ActorID,
		ActorRole:      change.ActorRole,
		Notes:          change.Notes,
		UpdatedAt:      order.UpdatedAt,
	}

	s.notifier.BroadcastToUser(order.CustomerID, domain.RoleCustomer, msg)

	shop, err := s.shops.GetShop(ctx, order.ShopID)
	if err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Str(log.FieldShopID, order.ShopID).Msg("failed to resolve shop owner for broadcast")
	} else {
		s.notifier.BroadcastToUser(shop.OwnerID, domain.RoleMerchant, msg)
	}

	s.notifier.BroadcastToShop(order.ShopID, msg)
	s.notifier.BroadcastToRole(domain.RoleAdmin, msg)
}

func (s *orderService) publishEvent(ctx context.Context, order *domain.Order, change *domain.OrderStatusChange) {
	event := &events.OrderEvent{
		OrderID:        order.ID,
		ShopID:         order.ShopID,
		CustomerID:     order.CustomerID,
		PreviousStatus: change.PreviousStatus,
		NewStatus:      change.NewStatus,
		ActorID:        change.ActorID,
		ActorRole:      change.ActorRole,
		Timestamp:      change.CreatedAt,
	}
	if err := s.producer.PublishOrderEvent(ctx, event); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Str(log.FieldOrderID, order.ID).Msg("failed to publish order event")
	}
}
