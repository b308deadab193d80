package domain

import "time"

// WebSocket message types from client.
const (
	MsgTypeAuth        = "auth"
	MsgTypeJoinChat    = "join_chat"
	MsgTypeLeaveChat   = "leave_chat"
	MsgTypeNewMessage  = "new_message"
	MsgTypeMessageRead = "message_read"
	MsgTypePing        = "ping"
)

// WebSocket message types to client.
const (
	MsgTypeConnectionEstablished = "connection_established"
	MsgTypeAuthSuccess           = "auth_success"
	MsgTypeChatJoined            = "chat_joined"
	MsgTypeUserJoined            = "user_joined"
	MsgTypeUserLeft              = "user_left"
	MsgTypeMessageReceived       = "message_received"
	MsgTypeMessageReadReceipt    = "message_read_receipt"
	MsgTypeOrderStatusUpdated    = "order_status_updated"
	MsgTypePong                  = "pong"
	MsgTypeError                 = "error"
)

// BaseMessage is the envelope every inbound frame is first decoded into.
type BaseMessage struct {
	Type string `json:"type"`
}

// ChatSessionRef identifies a conversation on the wire. The client contract
// uses camelCase field names.
type ChatSessionRef struct {
	CustomerID string  `json:"customerId"`
	ShopID     string  `json:"shopId"`
	ProductID  *string `json:"productId,omitempty"`
}

// Key converts the wire reference into a conversation key.
func (r ChatSessionRef) Key() ConversationKey {
	return NewConversationKey(r.CustomerID, r.ShopID, r.ProductID)
}

// RefForKey converts a conversation key back into its wire form.
func RefForKey(key ConversationKey) ChatSessionRef {
	return ChatSessionRef{
		CustomerID: key.CustomerID,
		ShopID:     key.ShopID,
		ProductID:  key.ProductID,
	}
}

// Client -> Server messages

type AuthMessage struct {
	Type   string  `json:"type"`
	UserID string  `json:"userId"`
	Role   Role    `json:"role"`
	ShopID *string `json:"shopId,omitempty"`
}

type JoinChatMessage struct {
	Type        string         `json:"type"`
	ChatSession ChatSessionRef `json:"chatSession"`
}

type LeaveChatMessage struct {
	Type        string         `json:"type"`
	ChatSession ChatSessionRef `json:"chatSession"`
}

// NewMessageMessage references a message already persisted via the REST
// messaging endpoint; the realtime layer re-broadcasts, it does not author.
type NewMessageMessage struct {
	Type    string `json:"type"`
	Payload struct {
		ID string `json:"id"`
	} `json:"payload"`
}

type MessageReadMessage struct {
	Type        string         `json:"type"`
	ChatSession ChatSessionRef `json:"chatSession"`
	MessageID   string         `json:"messageId"`
}

// Server -> Client messages

type ConnectionEstablishedMessage struct {
	Type         string `json:"type"`
	ConnectionID string `json:"connectionId"`
}

type AuthSuccessMessage struct {
	Type   string `json:"type"`
	UserID string `json:"userId"`
	Role   Role   `json:"role"`
}

type ChatJoinedMessage struct {
	Type        string         `json:"type"`
	ChatSession ChatSessionRef `json:"chatSession"`
	PeerCount   int            `json:"peerCount"`
}

type UserJoinedMessage struct {
	Type        string         `json:"type"`
	ChatSession ChatSessionRef `json:"chatSession"`
	UserID      string         `json:"userId"`
	Role        Role           `json:"role"`
}

type UserLeftMessage struct {
	Type        string         `json:"type"`
	ChatSession ChatSessionRef `json:"chatSession"`
	UserID      string         `json:"userId"`
	Role        Role           `json:"role"`
}

type MessageReceivedMessage struct {
	Type    string       `json:"type"`
	Payload *ChatMessage `json:"payload"`
}

type MessageReadReceiptMessage struct {
	Type        string         `json:"type"`
	ChatSession ChatSessionRef `json:"chatSession"`
	MessageID   string         `json:"messageId"`
	ReaderID    string         `json:"readerId"`
}

type OrderStatusUpdatedMessage struct {
	Type           string      `json:"type"`
	OrderID        string      `json:"orderId"`
	ShopID         string      `json:"shopId"`
	CustomerID     string      `json:"customerId"`
	PreviousStatus OrderStatus `json:"previousStatus"`
	NewStatus      OrderStatus `json:"newStatus"`
	ActorID        string      `json:"actorId"`
	ActorRole      Role        `json:"actorRole"`
	Notes          string      `json:"notes,omitempty"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

type PongMessage struct {
	Type string `json:"type"`
}

type ErrorMessage struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes surfaced over the wire.
const (
	ErrCodeMalformedMessage = "MALFORMED_MESSAGE"
	ErrCodeUnauthenticated  = "UNAUTHENTICATED"
	ErrCodeAccessDenied     = "ACCESS_DENIED"
	ErrCodeUnknownType      = "UNKNOWN_MESSAGE_TYPE"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeInternalError    = "INTERNAL_ERROR"
)

func NewErrorMessage(code, message string) *ErrorMessage {
	return &ErrorMessage{
		Type:    MsgTypeError,
		Code:    code,
		Message: message,
	}
}
