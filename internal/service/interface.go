package service

import (
	"context"

	"github.com/amisra31/localpick-market-demo-sub001/internal/domain"
	"github.com/amisra31/localpick-market-demo-sub001/internal/hub"
)

// Notifier is the broadcast surface the order state machine pushes through.
// *hub.Hub implements it; tests substitute a recorder.
type Notifier interface {
	BroadcastToUser(userID string, role domain.Role, message interface{})
	BroadcastToShop(shopID string, message interface{})
	BroadcastToRole(role domain.Role, message interface{})
}

// OrderService is the sole authority for mutating order status.
type OrderService interface {
	UpdateStatus(ctx context.Context, orderID string, newStatus domain.OrderStatus, actorID string, actorRole domain.Role, notes string) (*domain.Order, error)
	CancelOrder(ctx context.Context, orderID, actorID string, actorRole domain.Role) (*domain.Order, error)
	StatusHistory(ctx context.Context, orderID string) ([]domain.OrderStatusChange, error)
}

// ChatService handles the realtime chat flows on behalf of the websocket
// handler, and exposes the broadcast entry points the REST layer uses.
type ChatService interface {
	HandleAuth(ctx context.Context, c *hub.Client, msg *domain.AuthMessage) error
	HandleJoinChat(ctx context.Context, c *hub.Client, ref domain.ChatSessionRef) error
	HandleLeaveChat(ctx context.Context, c *hub.Client, ref domain.ChatSessionRef) error
	HandleNewMessage(ctx context.Context, c *hub.Client, messageID string) error
	HandleMessageRead(ctx context.Context, c *hub.Client, ref domain.ChatSessionRef, messageID string) error
	HandleDisconnect(ctx context.Context, c *hub.Client)

	BroadcastMessage(msg *domain.ChatMessage)
}
