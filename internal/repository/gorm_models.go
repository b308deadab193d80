package repository

import (
	"time"

	"github.com/amisra31/localpick-market-demo-sub001/internal/domain"
)

// OrderModel is the GORM mapping for orders.
type OrderModel struct {
	ID         string    `gorm:"primaryKey"`
	ShopID     string    `gorm:"index;not null"`
	CustomerID string    `gorm:"index;not null"`
	Status     string    `gorm:"not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (OrderModel) TableName() string { return "orders" }

func (m *OrderModel) ToDomain() *domain.Order {
	return &domain.Order{
		ID:         m.ID,
		ShopID:     m.ShopID,
		CustomerID: m.CustomerID,
		Status:     domain.OrderStatus(m.Status),
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

// OrderStatusChangeModel is the GORM mapping for the order audit trail.
// Rows are append-only.
type OrderStatusChangeModel struct {
	ID             string `gorm:"primaryKey"`
	OrderID        string `gorm:"index;not null"`
	PreviousStatus string `gorm:"not null"`
	NewStatus      string `gorm:"not null"`
	ActorID        string `gorm:"not null"`
	ActorRole      string `gorm:"not null"`
	Notes          string
	CreatedAt      time.Time
}

func (OrderStatusChangeModel) TableName() string { return "order_status_changes" }

func (m *OrderStatusChangeModel) ToDomain() domain.OrderStatusChange {
	return domain.OrderStatusChange{
		ID:             m.ID,
		OrderID:        m.OrderID,
		PreviousStatus: domain.OrderStatus(m.PreviousStatus),
		NewStatus:      domain.OrderStatus(m.NewStatus),
		ActorID:        m.ActorID,
		ActorRole:      domain.Role(m.ActorRole),
		Notes:          m.Notes,
		CreatedAt:      m.CreatedAt,
	}
}

// ChatMessageModel is the GORM mapping for chat messages.
type ChatMessageModel struct {
	ID         string  `gorm:"primaryKey"`
	CustomerID string  `gorm:"index:idx_conversation;not null"`
	ShopID     string  `gorm:"index:idx_conversation;not null"`
	ProductID  *string `gorm:"index:idx_conversation"`
	SenderID   string  `gorm:"not null"`
	SenderRole string  `gorm:"not null"`
	Content    string  `gorm:"not null"`
	Read       bool    `gorm:"not null;default:false"`
	CreatedAt  time.Time
}

func (ChatMessageModel) TableName() string { return "chat_messages" }

func (m *ChatMessageModel) ToDomain() *domain.ChatMessage {
	return &domain.ChatMessage{
		ID:         m.ID,
		CustomerID: m.CustomerID,
		ShopID:     m.ShopID,
		ProductID:  m.ProductID,
		SenderID:   m.SenderID,
		SenderRole: domain.Role(m.SenderRole),
		Content:    m.Content,
		Read:       m.Read,
		CreatedAt:  m.CreatedAt,
	}
}

func chatMessageToModel(msg *domain.ChatMessage) *ChatMessageModel {
	return &ChatMessageModel{
		ID:         msg.ID,
		CustomerID: msg.CustomerID,
		ShopID:     msg.ShopID,
		ProductID:  msg.ProductID,
		SenderID:   msg.SenderID,
		SenderRole: string(msg.SenderRole),
		Content:    msg.Content,
		Read:       msg.Read,
		CreatedAt:  msg.CreatedAt,
	}
}

// ShopModel is the GORM mapping for the shop lookup.
type ShopModel struct {
	ID      string `gorm:"primaryKey"`
	OwnerID string `gorm:"index;not null"`
	Name    string
}

func (ShopModel) TableName() string { return "shops" }

func (m *ShopModel) ToDomain() *domain.Shop {
	return &domain.Shop{
		ID:      m.ID,
		OwnerID: m.OwnerID,
		Name:    m.Name,
	}
}
