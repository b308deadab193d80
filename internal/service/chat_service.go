package service

import (
	"context"
	"errors"

	"github.com/amisra31/localpick-market-demo-sub001/internal/audit"
	"github.com/amisra31/localpick-market-demo-sub001/internal/domain"
	"github.com/amisra31/localpick-market-demo-sub001/internal/hub"
	"github.com/amisra31/localpick-market-demo-sub001/internal/presence"
	"github.com/amisra31/localpick-market-demo-sub001/internal/repository"
	"github.com/amisra31/localpick-market-demo-sub001/pkg/log"
)

type chatService struct {
	hub      *hub.Hub
	messages repository.MessageRepository
	presence presence.Store
}

func NewChatService(h *hub.Hub, messages repository.MessageRepository, pres presence.Store) ChatService {
	return &chatService{
		hub:      h,
		messages: messages,
		presence: pres,
	}
}

// HandleAuth binds the declared identity to the connection. Re-auth on an
// already bound connection is idempotent.
func (s *chatService) HandleAuth(ctx context.Context, c *hub.Client, msg *domain.AuthMessage) error {
	if msg.UserID == "" || !msg.Role.Valid() {
		return c.SendMessage(domain.NewErrorMessage(domain.ErrCodeMalformedMessage, "auth requires userId and a valid role"))
	}
	if msg.Role == domain.RoleMerchant && msg.ShopID == nil {
		return c.SendMessage(domain.NewErrorMessage(domain.ErrCodeMalformedMessage, "merchant auth requires shopId"))
	}

	s.hub.Authenticate(c.ID, msg.UserID, msg.Role, msg.ShopID)

	if err := s.presence.Connect(ctx, msg.UserID, msg.Role, msg.ShopID); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Str(log.FieldUserID, msg.UserID).Msg("failed to record presence")
	}

	audit.Log(ctx, audit.ActionAuth, msg.UserID, "connection authenticated")

	return c.SendMessage(&domain.AuthSuccessMessage{
		Type:   domain.MsgTypeAuthSuccess,
		UserID: msg.UserID,
		Role:   msg.Role,
	})
}

// HandleJoinChat validates access and registers session membership. Peers
// already in the conversation are told someone joined; the join response
// goes only to the joining connection.
func (s *chatService) HandleJoinChat(ctx context.Context, c *hub.Client, ref domain.ChatSessionRef) error {
	key := ref.Key()

	siblings, err := s.hub.JoinConversation(c, key)
	if err != nil {
		return s.sendAccessError(ctx, c, key, err)
	}

	id := c.Identity()
	audit.LogWithDetail(ctx, audit.ActionJoinChat, id.UserID, key.String(), "joined conversation")

	s.hub.BroadcastToConversation(key, &domain.UserJoinedMessage{
		Type:        domain.MsgTypeUserJoined,
		ChatSession: ref,
		UserID:      id.UserID,
		Role:        id.Role,
	}, c.ID)

	return c.SendMessage(&domain.ChatJoinedMessage{
		Type:        domain.MsgTypeChatJoined,
		ChatSession: ref,
		PeerCount:   len(siblings),
	})
}

// HandleLeaveChat removes session membership. Members only hear about
// departures of connections that actually belonged to the session.
func (s *chatService) HandleLeaveChat(ctx context.Context, c *hub.Client, ref domain.ChatSessionRef) error {
	key := ref.Key()
	if !s.hub.LeaveConversation(c, key) {
		return nil
	}

	id := c.Identity()
	audit.LogWithDetail(ctx, audit.ActionLeaveChat, id.UserID, key.String(), "left conversation")

	if id.Authenticated {
		s.hub.BroadcastToConversation(key, &domain.UserLeftMessage{
			Type:        domain.MsgTypeUserLeft,
			ChatSession: ref,
			UserID:      id.UserID,
			Role:        id.Role,
		}, c.ID)
	}
	return nil
}

// HandleNewMessage re-broadcasts a message that the REST layer already
// persisted; persistence always happens before any delivery.
func (s *chatService) HandleNewMessage(ctx context.Context, c *hub.Client, messageID string) error {
	if !c.IsAuthenticated() {
		return c.SendMessage(domain.NewErrorMessage(domain.ErrCodeUnauthenticated, "authenticate before sending messages"))
	}

	msg, err := s.messages.GetMessage(ctx, messageID)
	if err != nil {
		if errors.Is(err, repository.ErrMessageNotFound) {
			return c.SendMessage(domain.NewErrorMessage(domain.ErrCodeNotFound, "message not found"))
		}
		l := log.Ctx(ctx)
		l.Error().Err(err).Msg("failed to load message for broadcast")
		return c.SendMessage(domain.NewErrorMessage(domain.ErrCodeInternalError, "failed to load message"))
	}

	key := msg.Conversation()
	if err := hub.Authorize(c.Identity(), key); err != nil {
		return s.sendAccessError(ctx, c, key, err)
	}
	// Being a party to the conversation is not enough; the connection must
	// have joined the session before it may push into it.
	if !s.hub.IsMember(c.ID, key) {
		return s.sendAccessError(ctx, c, key, hub.ErrAccessDenied)
	}

	id := c.Identity()
	audit.LogWithDetail(ctx, audit.ActionSendMessage, id.UserID, msg.ID, "message broadcast")

	s.hub.BroadcastToConversation(key, &domain.MessageReceivedMessage{
		Type:    domain.MsgTypeMessageReceived,
		Payload: msg,
	}, c.ID)
	return nil
}

func (s *chatService) HandleMessageRead(ctx context.Context, c *hub.Client, ref domain.ChatSessionRef, messageID string) error {
	key := ref.Key()
	if err := hub.Authorize(c.Identity(), key); err != nil {
		return s.sendAccessError(ctx, c, key, err)
	}

	if err := s.messages.MarkMessageRead(ctx, messageID); err != nil {
		if errors.Is(err, repository.ErrMessageNotFound) {
			return c.SendMessage(domain.NewErrorMessage(domain.ErrCodeNotFound, "message not found"))
		}
		l := log.Ctx(ctx)
		l.Error().Err(err).Msg("failed to mark message read")
		return c.SendMessage(domain.NewErrorMessage(domain.ErrCodeInternalError, "failed to mark message read"))
	}

	id := c.Identity()
	audit.LogWithDetail(ctx, audit.ActionMessageRead, id.UserID, messageID, "message read")

	s.hub.BroadcastToConversation(key, &domain.MessageReadReceiptMessage{
		Type:        domain.MsgTypeMessageReadReceipt,
		ChatSession: ref,
		MessageID:   messageID,
		ReaderID:    id.UserID,
	}, c.ID)
	return nil
}

// HandleDisconnect runs after the read pump exits. Hub cleanup (registry and
// session membership) already happened on the unregister path; what is left
// is the presence view, and only when this was the user's last connection.
func (s *chatService) HandleDisconnect(ctx context.Context, c *hub.Client) {
	id := c.Identity()
	if !id.Authenticated {
		return
	}

	audit.Log(ctx, audit.ActionDisconnect, id.UserID, "connection closed")

	for _, other := range s.hub.Clients() {
		otherID := other.Identity()
		if otherID.Authenticated && otherID.UserID == id.UserID && otherID.Role == id.Role {
			return
		}
	}

	if err := s.presence.Disconnect(ctx, id.UserID, id.Role, id.ShopID); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Str(log.FieldUserID, id.UserID).Msg("failed to clear presence")
	}
}

// BroadcastMessage pushes a freshly persisted message to its conversation.
// Invoked by the REST messaging endpoint.
func (s *chatService) BroadcastMessage(msg *domain.ChatMessage) {
	s.hub.BroadcastToConversation(msg.Conversation(), &domain.MessageReceivedMessage{
		Type:    domain.MsgTypeMessageReceived,
		Payload: msg,
	}, "")
}

func (s *chatService) sendAccessError(ctx context.Context, c *hub.Client, key domain.ConversationKey, err error) error {
	id := c.Identity()
	audit.LogWithDetail(ctx, audit.ActionJoinDenied, id.UserID, key.String(), "conversation access denied")

	if errors.Is(err, hub.ErrUnauthenticated) {
		return c.SendMessage(domain.NewErrorMessage(domain.ErrCodeUnauthenticated, "authenticate first"))
	}
	return c.SendMessage(domain.NewErrorMessage(domain.ErrCodeAccessDenied, "not authorized for this conversation"))
}
