package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amisra31/localpick-market-demo-sub001/internal/domain"
	"github.com/amisra31/localpick-market-demo-sub001/internal/events"
	"github.com/amisra31/localpick-market-demo-sub001/internal/hub"
	"github.com/amisra31/localpick-market-demo-sub001/internal/presence"
	"github.com/amisra31/localpick-market-demo-sub001/internal/repository"
	"github.com/amisra31/localpick-market-demo-sub001/internal/service"
	"github.com/amisra31/localpick-market-demo-sub001/pkg/middleware"
	"github.com/amisra31/localpick-market-demo-sub001/pkg/response"
)

// identityAs injects an authenticated actor the way the JWT middleware would.
func identityAs(userID, role, shopID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserIDKey, userID)
		c.Set(middleware.RoleKey, role)
		c.Set(middleware.ShopIDKey, shopID)
		c.Next()
	}
}

type httpFixture struct {
	store *repository.MemoryStore
}

func (f *httpFixture) router(auth gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)

	h := hub.NewHub()
	chatSvc := service.NewChatService(h, f.store, presence.Noop{})
	orderSvc := service.NewOrderService(f.store, f.store, h, events.Noop{})

	r := gin.New()
	handler := NewHTTPHandler(orderSvc, chatSvc, f.store, f.store, presence.Noop{})
	handler.RegisterRoutes(r, auth)
	return r
}

func newHTTPFixture() *httpFixture {
	store := repository.NewMemoryStore()
	store.PutOrder(&domain.Order{
		ID:         "order-1",
		ShopID:     "shop-1",
		CustomerID: "cust-1",
		Status:     domain.OrderStatusPending,
	})
	store.PutShop(&domain.Shop{ID: "shop-1", OwnerID: "merch-1", Name: "Corner Store"})
	return &httpFixture{store: store}
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var env response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestUpdateOrderStatusAsMerchant(t *testing.T) {
	f := newHTTPFixture()
	r := f.router(identityAs("merch-1", "merchant", "shop-1"))

	w := doJSON(t, r, http.MethodPut, "/api/orders/order-1/status",
		gin.H{"status": "reserved", "notes": "stock confirmed"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	env := decodeEnvelope(t, w)
	assert.True(t, env.Success)

	stored, err := f.store.GetOrder(context.Background(), "order-1")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusReserved, stored.Status)
}

func TestUpdateOrderStatusWrongShop(t *testing.T) {
	f := newHTTPFixture()
	r := f.router(identityAs("merch-9", "merchant", "shop-9"))

	w := doJSON(t, r, http.MethodPut, "/api/orders/order-1/status", gin.H{"status": "reserved"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUpdateOrderStatusAsCustomer(t *testing.T) {
	f := newHTTPFixture()
	r := f.router(identityAs("cust-1", "customer", ""))

	w := doJSON(t, r, http.MethodPut, "/api/orders/order-1/status", gin.H{"status": "reserved"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUpdateOrderStatusErrors(t *testing.T) {
	tests := []struct {
		name     string
		orderID  string
		status   string
		wantCode int
	}{
		{name: "unknown order", orderID: "order-404", status: "reserved", wantCode: http.StatusNotFound},
		{name: "invalid status", orderID: "order-1", status: "shipped", wantCode: http.StatusBadRequest},
		{name: "illegal transition", orderID: "order-1", status: "delivered", wantCode: http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newHTTPFixture()
			r := f.router(identityAs("admin-1", "admin", ""))

			w := doJSON(t, r, http.MethodPut, "/api/orders/"+tt.orderID+"/status", gin.H{"status": tt.status})
			assert.Equal(t, tt.wantCode, w.Code, w.Body.String())
		})
	}
}

func TestCancelOrder(t *testing.T) {
	f := newHTTPFixture()
	r := f.router(identityAs("cust-1", "customer", ""))

	w := doJSON(t, r, http.MethodPost, "/api/orders/order-1/cancel", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	stored, err := f.store.GetOrder(context.Background(), "order-1")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, stored.Status)
}

func TestCancelOrderForbiddenForStranger(t *testing.T) {
	f := newHTTPFixture()
	r := f.router(identityAs("cust-2", "customer", ""))

	w := doJSON(t, r, http.MethodPost, "/api/orders/order-1/cancel", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCancelOrderTerminal(t *testing.T) {
	f := newHTTPFixture()
	f.store.PutOrder(&domain.Order{ID: "order-done", ShopID: "shop-1", CustomerID: "cust-1", Status: domain.OrderStatusDelivered})
	r := f.router(identityAs("cust-1", "customer", ""))

	w := doJSON(t, r, http.MethodPost, "/api/orders/order-done/cancel", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestOrderHistory(t *testing.T) {
	f := newHTTPFixture()
	asMerchant := f.router(identityAs("merch-1", "merchant", "shop-1"))

	w := doJSON(t, asMerchant, http.MethodPut, "/api/orders/order-1/status", gin.H{"status": "in_progress"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, asMerchant, http.MethodGet, "/api/orders/order-1/history", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var env struct {
		Success bool                       `json:"success"`
		Data    []domain.OrderStatusChange `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.Len(t, env.Data, 1)
	assert.Equal(t, domain.OrderStatusPending, env.Data[0].PreviousStatus)
	assert.Equal(t, domain.OrderStatusInProgress, env.Data[0].NewStatus)

	asStranger := f.router(identityAs("cust-2", "customer", ""))
	w = doJSON(t, asStranger, http.MethodGet, "/api/orders/order-1/history", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCreateMessage(t *testing.T) {
	f := newHTTPFixture()
	r := f.router(identityAs("cust-1", "customer", ""))

	w := doJSON(t, r, http.MethodPost, "/api/messages",
		gin.H{"customerId": "cust-1", "shopId": "shop-1", "content": "hello"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var env struct {
		Success bool               `json:"success"`
		Data    domain.ChatMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.NotEmpty(t, env.Data.ID)
	assert.Equal(t, "cust-1", env.Data.SenderID)
	assert.Equal(t, domain.RoleCustomer, env.Data.SenderRole)

	stored, err := f.store.GetMessage(context.Background(), env.Data.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello", stored.Content)
}

func TestCreateMessageForbidden(t *testing.T) {
	f := newHTTPFixture()

	// A customer cannot write into another customer's conversation.
	r := f.router(identityAs("cust-2", "customer", ""))
	w := doJSON(t, r, http.MethodPost, "/api/messages",
		gin.H{"customerId": "cust-1", "shopId": "shop-1", "content": "hi"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Nor can a merchant of a different shop.
	r = f.router(identityAs("merch-9", "merchant", "shop-9"))
	w = doJSON(t, r, http.MethodPost, "/api/messages",
		gin.H{"customerId": "cust-1", "shopId": "shop-1", "content": "hi"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCreateMessageValidation(t *testing.T) {
	f := newHTTPFixture()
	r := f.router(identityAs("cust-1", "customer", ""))

	w := doJSON(t, r, http.MethodPost, "/api/messages", gin.H{"customerId": "cust-1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListMessages(t *testing.T) {
	f := newHTTPFixture()
	r := f.router(identityAs("cust-1", "customer", ""))

	for _, content := range []string{"first", "second"} {
		w := doJSON(t, r, http.MethodPost, "/api/messages",
			gin.H{"customerId": "cust-1", "shopId": "shop-1", "content": content})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := doJSON(t, r, http.MethodGet, "/api/chats/cust-1/shop-1/messages", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var env struct {
		Success bool                 `json:"success"`
		Data    []domain.ChatMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Len(t, env.Data, 2)
}

func TestListMessagesProductScope(t *testing.T) {
	f := newHTTPFixture()
	r := f.router(identityAs("cust-1", "customer", ""))

	w := doJSON(t, r, http.MethodPost, "/api/messages",
		gin.H{"customerId": "cust-1", "shopId": "shop-1", "content": "shop level"})
	require.Equal(t, http.StatusCreated, w.Code)
	w = doJSON(t, r, http.MethodPost, "/api/messages",
		gin.H{"customerId": "cust-1", "shopId": "shop-1", "productId": "prod-9", "content": "product level"})
	require.Equal(t, http.StatusCreated, w.Code)

	var env struct {
		Data []domain.ChatMessage `json:"data"`
	}

	w = doJSON(t, r, http.MethodGet, "/api/chats/cust-1/shop-1/messages", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.Len(t, env.Data, 1)
	assert.Equal(t, "shop level", env.Data[0].Content)

	w = doJSON(t, r, http.MethodGet, "/api/chats/cust-1/shop-1/messages?productId=prod-9", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.Len(t, env.Data, 1)
	assert.Equal(t, "product level", env.Data[0].Content)
}

func TestListMessagesForbidden(t *testing.T) {
	f := newHTTPFixture()
	r := f.router(identityAs("cust-2", "customer", ""))

	w := doJSON(t, r, http.MethodGet, "/api/chats/cust-1/shop-1/messages", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestShopPresenceAuthorization(t *testing.T) {
	f := newHTTPFixture()

	r := f.router(identityAs("merch-1", "merchant", "shop-1"))
	w := doJSON(t, r, http.MethodGet, "/api/shops/shop-1/online", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	r = f.router(identityAs("merch-1", "merchant", "shop-1"))
	w = doJSON(t, r, http.MethodGet, "/api/shops/shop-2/online", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	r = f.router(identityAs("cust-1", "customer", ""))
	w = doJSON(t, r, http.MethodGet, "/api/shops/shop-1/online", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestHealthCheck(t *testing.T) {
	f := newHTTPFixture()
	r := f.router(identityAs("", "", ""))

	w := doJSON(t, r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
