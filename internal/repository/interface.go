package repository

import (
	"context"
	"errors"

	"github.com/amisra31/localpick-market-demo-sub001/internal/domain"
)

var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrMessageNotFound = errors.New("message not found")
	ErrShopNotFound    = errors.New("shop not found")
)

// OrderRepository is the external store surface for orders and their audit
// trail. The realtime core never caches order state beyond one call.
type OrderRepository interface {
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus) error
	AppendStatusChange(ctx context.Context, change *domain.OrderStatusChange) error
	ListStatusChanges(ctx context.Context, orderID string) ([]domain.OrderStatusChange, error)
}

// MessageRepository persists chat messages. The REST layer authors them;
// the websocket layer reads them back by id for re-broadcast.
type MessageRepository interface {
	CreateMessage(ctx context.Context, msg *domain.ChatMessage) error
	GetMessage(ctx context.Context, id string) (*domain.ChatMessage, error)
	MarkMessageRead(ctx context.Context, id string) error
	ListConversationMessages(ctx context.Context, key domain.ConversationKey, limit int) ([]domain.ChatMessage, error)
}

// ShopRepository resolves shop stakeholders for order broadcasts.
type ShopRepository interface {
	GetShop(ctx context.Context, id string) (*domain.Shop, error)
}
