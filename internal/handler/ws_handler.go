package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/amisra31/localpick-market-demo-sub001/internal/config"
	"github.com/amisra31/localpick-market-demo-sub001/internal/domain"
	"github.com/amisra31/localpick-market-demo-sub001/internal/hub"
	"github.com/amisra31/localpick-market-demo-sub001/internal/service"
	"github.com/amisra31/localpick-market-demo-sub001/pkg/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WSHandler struct {
	hub     *hub.Hub
	service service.ChatService
	wsCfg   config.WebSocketConfig
}

func NewWSHandler(h *hub.Hub, svc service.ChatService, wsCfg config.WebSocketConfig) *WSHandler {
	return &WSHandler{
		hub:     h,
		service: svc,
		wsCfg:   wsCfg,
	}
}

func (h *WSHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/ws", h.HandleWebSocket)
}

func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		l := log.Ctx(c.Request.Context())
		l.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := hub.NewClient(hub.NewConnectionID(), h.hub, conn, h.wsCfg)
	h.hub.Register(client)

	client.SendMessage(&domain.ConnectionEstablishedMessage{
		Type:         domain.MsgTypeConnectionEstablished,
		ConnectionID: client.ID,
	})

	go client.WritePump()
	client.ReadPump(h.handleMessage)

	h.service.HandleDisconnect(c.Request.Context(), client)
}

// handleMessage decodes one inbound frame and dispatches it. Every frame is
// first decoded into the type envelope, then into its concrete shape; a
// decode failure answers an error frame and leaves the connection open.
func (h *WSHandler) handleMessage(client *hub.Client, message []byte) {
	var base domain.BaseMessage
	if err := json.Unmarshal(message, &base); err != nil {
		client.SendMessage(domain.NewErrorMessage(domain.ErrCodeMalformedMessage, "invalid message format"))
		return
	}

	ctx := log.WithLogger(context.Background(), log.L().With().Str(log.FieldConnID, client.ID).Logger())

	switch base.Type {
	case domain.MsgTypeAuth:
		var msg domain.AuthMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			client.SendMessage(domain.NewErrorMessage(domain.ErrCodeMalformedMessage, "invalid auth message"))
			return
		}
		if err := h.service.HandleAuth(ctx, client, &msg); err != nil {
			logDispatchError(client, "auth", err)
		}

	case domain.MsgTypeJoinChat:
		var msg domain.JoinChatMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			client.SendMessage(domain.NewErrorMessage(domain.ErrCodeMalformedMessage, "invalid join_chat message"))
			return
		}
		if err := h.service.HandleJoinChat(ctx, client, msg.ChatSession); err != nil {
			logDispatchError(client, "join_chat", err)
		}

	case domain.MsgTypeLeaveChat:
		var msg domain.LeaveChatMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			client.SendMessage(domain.NewErrorMessage(domain.ErrCodeMalformedMessage, "invalid leave_chat message"))
			return
		}
		if err := h.service.HandleLeaveChat(ctx, client, msg.ChatSession); err != nil {
			logDispatchError(client, "leave_chat", err)
		}

	case domain.MsgTypeNewMessage:
		var msg domain.NewMessageMessage
		if err := json.Unmarshal(message, &msg); err != nil || msg.Payload.ID == "" {
			client.SendMessage(domain.NewErrorMessage(domain.ErrCodeMalformedMessage, "invalid new_message payload"))
			return
		}
		if err := h.service.HandleNewMessage(ctx, client, msg.Payload.ID); err != nil {
			logDispatchError(client, "new_message", err)
		}

	case domain.MsgTypeMessageRead:
		var msg domain.MessageReadMessage
		if err := json.Unmarshal(message, &msg); err != nil || msg.MessageID == "" {
			client.SendMessage(domain.NewErrorMessage(domain.ErrCodeMalformedMessage, "invalid message_read message"))
			return
		}
		if err := h.service.HandleMessageRead(ctx, client, msg.ChatSession, msg.MessageID); err != nil {
			logDispatchError(client, "message_read", err)
		}

	case domain.MsgTypePing:
		// Application-level ping also counts as liveness.
		client.MarkAlive()
		client.SendMessage(&domain.PongMessage{Type: domain.MsgTypePong})

	default:
		client.SendMessage(domain.NewErrorMessage(domain.ErrCodeUnknownType, "unknown message type"))
	}
}

func logDispatchError(client *hub.Client, msgType string, err error) {
	l := log.L()
	l.Debug().Err(err).Str(log.FieldConnID, client.ID).Str("message_type", msgType).Msg("message handling failed")
}
