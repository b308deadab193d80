package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/amisra31/localpick-market-demo-sub001/internal/domain"
	"github.com/amisra31/localpick-market-demo-sub001/internal/presence"
	"github.com/amisra31/localpick-market-demo-sub001/internal/repository"
	"github.com/amisra31/localpick-market-demo-sub001/internal/service"
	"github.com/amisra31/localpick-market-demo-sub001/pkg/middleware"
	"github.com/amisra31/localpick-market-demo-sub001/pkg/response"
)

const (
	defaultMessageLimit = 50
	maxMessageLimit     = 200
)

// HTTPHandler exposes the REST surface: message authoring, chat history,
// order status updates and presence reads. Permission checks live here, on
// the caller side of the order state machine.
type HTTPHandler struct {
	orders      service.OrderService
	chat        service.ChatService
	orderRepo   repository.OrderRepository
	messageRepo repository.MessageRepository
	presence    presence.Store
}

func NewHTTPHandler(
	orders service.OrderService,
	chat service.ChatService,
	orderRepo repository.OrderRepository,
	messageRepo repository.MessageRepository,
	pres presence.Store,
) *HTTPHandler {
	return &HTTPHandler{
		orders:      orders,
		chat:        chat,
		orderRepo:   orderRepo,
		messageRepo: messageRepo,
		presence:    pres,
	}
}

func (h *HTTPHandler) RegisterRoutes(r *gin.Engine, auth gin.HandlerFunc) {
	api := r.Group("/api", auth)
	{
		api.POST("/messages", h.CreateMessage)
		api.GET("/chats/:customer_id/:shop_id/messages", h.ListMessages)
		api.PUT("/orders/:id/status", h.UpdateOrderStatus)
		api.POST("/orders/:id/cancel", h.CancelOrder)
		api.GET("/orders/:id/history", h.OrderHistory)
		api.GET("/shops/:id/online", h.ShopPresence)
	}

	r.GET("/health", h.HealthCheck)
}

// actor pulls the authenticated identity set by the auth middleware.
func actor(c *gin.Context) (userID string, role domain.Role, shopID string) {
	userID = c.GetString(middleware.UserIDKey)
	role = domain.Role(c.GetString(middleware.RoleKey))
	shopID = c.GetString(middleware.ShopIDKey)
	return
}

type createMessageRequest struct {
	CustomerID string  `json:"customerId" binding:"required"`
	ShopID     string  `json:"shopId" binding:"required"`
	ProductID  *string `json:"productId"`
	Content    string  `json:"content" binding:"required"`
}

// CreateMessage persists a chat message and then pushes it to the live
// conversation. Persistence always precedes the broadcast.
func (h *HTTPHandler) CreateMessage(c *gin.Context) {
	var req createMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	userID, role, shopID := actor(c)
	key := domain.NewConversationKey(req.CustomerID, req.ShopID, req.ProductID)
	if !conversationParty(userID, role, shopID, key) {
		response.Forbidden(c, "not a party to this conversation")
		return
	}

	msg := &domain.ChatMessage{
		CustomerID: req.CustomerID,
		ShopID:     req.ShopID,
		ProductID:  req.ProductID,
		SenderID:   userID,
		SenderRole: role,
		Content:    req.Content,
	}
	if err := h.messageRepo.CreateMessage(c.Request.Context(), msg); err != nil {
		response.InternalError(c, "failed to persist message")
		return
	}

	h.chat.BroadcastMessage(msg)
	response.Created(c, msg)
}

func (h *HTTPHandler) ListMessages(c *gin.Context) {
	customerID := c.Param("customer_id")
	shopID := c.Param("shop_id")

	var productID *string
	if p := c.Query("productId"); p != "" {
		productID = &p
	}

	limit := defaultMessageLimit
	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			response.BadRequest(c, "limit must be a positive integer")
			return
		}
		limit = parsed
		if limit > maxMessageLimit {
			limit = maxMessageLimit
		}
	}

	userID, role, actorShop := actor(c)
	key := domain.NewConversationKey(customerID, shopID, productID)
	if role != domain.RoleAdmin && !conversationParty(userID, role, actorShop, key) {
		response.Forbidden(c, "not a party to this conversation")
		return
	}

	messages, err := h.messageRepo.ListConversationMessages(c.Request.Context(), key, limit)
	if err != nil {
		response.InternalError(c, "failed to list messages")
		return
	}
	response.Success(c, messages)
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Notes  string `json:"notes"`
}

// UpdateOrderStatus authorizes the caller against the order's shop, then
// hands legality to the state machine.
func (h *HTTPHandler) UpdateOrderStatus(c *gin.Context) {
	orderID := c.Param("id")

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	order, err := h.orderRepo.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		h.renderOrderError(c, err)
		return
	}

	userID, role, shopID := actor(c)
	switch role {
	case domain.RoleAdmin:
	case domain.RoleMerchant:
		if shopID != order.ShopID {
			response.Forbidden(c, "order belongs to another shop")
			return
		}
	default:
		response.Forbidden(c, "only merchants and admins may update order status")
		return
	}

	updated, err := h.orders.UpdateStatus(c.Request.Context(), orderID, domain.OrderStatus(req.Status), userID, role, req.Notes)
	if err != nil {
		h.renderOrderError(c, err)
		return
	}
	response.Success(c, updated)
}

func (h *HTTPHandler) CancelOrder(c *gin.Context) {
	orderID := c.Param("id")

	order, err := h.orderRepo.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		h.renderOrderError(c, err)
		return
	}

	userID, role, shopID := actor(c)
	if !mayActOnOrder(userID, role, shopID, order) {
		response.Forbidden(c, "not allowed to cancel this order")
		return
	}

	updated, err := h.orders.CancelOrder(c.Request.Context(), orderID, userID, role)
	if err != nil {
		h.renderOrderError(c, err)
		return
	}
	response.Success(c, updated)
}

func (h *HTTPHandler) OrderHistory(c *gin.Context) {
	orderID := c.Param("id")

	order, err := h.orderRepo.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		h.renderOrderError(c, err)
		return
	}

	userID, role, shopID := actor(c)
	if !mayActOnOrder(userID, role, shopID, order) {
		response.Forbidden(c, "not allowed to view this order")
		return
	}

	changes, err := h.orders.StatusHistory(c.Request.Context(), orderID)
	if err != nil {
		h.renderOrderError(c, err)
		return
	}
	response.Success(c, changes)
}

func (h *HTTPHandler) ShopPresence(c *gin.Context) {
	shopID := c.Param("id")

	_, role, actorShop := actor(c)
	if role != domain.RoleAdmin && !(role == domain.RoleMerchant && actorShop == shopID) {
		response.Forbidden(c, "not allowed to view shop presence")
		return
	}

	users, err := h.presence.OnlineForShop(c.Request.Context(), shopID)
	if err != nil {
		response.InternalError(c, "failed to read presence")
		return
	}
	response.Success(c, gin.H{"shop_id": shopID, "online": users})
}

func (h *HTTPHandler) HealthCheck(c *gin.Context) {
	c.JSON(200, gin.H{"status": "ok"})
}

// conversationParty reports whether the actor is one of the two sides of
// the conversation.
func conversationParty(userID string, role domain.Role, shopID string, key domain.ConversationKey) bool {
	switch role {
	case domain.RoleCustomer:
		return userID == key.CustomerID
	case domain.RoleMerchant:
		return shopID == key.ShopID
	}
	return false
}

// mayActOnOrder is the REST-side permission check for cancel/history: the
// order's customer, the shop's merchants, or an admin.
func mayActOnOrder(userID string, role domain.Role, shopID string, order *domain.Order) bool {
	switch role {
	case domain.RoleAdmin:
		return true
	case domain.RoleMerchant:
		return shopID == order.ShopID
	case domain.RoleCustomer:
		return userID == order.CustomerID
	}
	return false
}

func (h *HTTPHandler) renderOrderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrOrderNotFound):
		response.NotFound(c, "order not found")
	case errors.Is(err, service.ErrInvalidStatus):
		response.BadRequest(c, err.Error())
	case errors.Is(err, service.ErrIllegalTransition):
		response.Conflict(c, err.Error())
	case errors.Is(err, service.ErrNotCancellable):
		response.Conflict(c, err.Error())
	default:
		response.InternalError(c, "order operation failed")
	}
}
