package domain

import "time"

// ChatMessage is a persisted chat message. The REST layer authors messages;
// the realtime layer re-broadcasts them by id.
type ChatMessage struct {
	ID         string    `json:"id"`
	CustomerID string    `json:"customer_id"`
	ShopID     string    `json:"shop_id"`
	ProductID  *string   `json:"product_id,omitempty"`
	SenderID   string    `json:"sender_id"`
	SenderRole Role      `json:"sender_role"`
	Content    string    `json:"content"`
	Read       bool      `json:"read"`
	CreatedAt  time.Time `json:"created_at"`
}

// Conversation returns the key of the conversation this message belongs to.
func (m *ChatMessage) Conversation() ConversationKey {
	return NewConversationKey(m.CustomerID, m.ShopID, m.ProductID)
}
