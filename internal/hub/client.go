package hub

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/amisra31/localpick-market-demo-sub001/internal/config"
	"github.com/amisra31/localpick-market-demo-sub001/internal/domain"
	"github.com/amisra31/localpick-market-demo-sub001/pkg/log"
)

// Conn is the transport surface the hub needs from a websocket connection.
// *websocket.Conn satisfies it; tests use a fake.
type Conn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	Close() error
}

// Identity is the authenticated principal bound to a connection. Zero value
// means the connection has not completed the auth handshake yet.
type Identity struct {
	UserID        string
	Role          domain.Role
	ShopID        *string
	Authenticated bool
}

// Client wraps one websocket connection with its identity, liveness flag and
// outbound queue.
type Client struct {
	ID   string
	Hub  *Hub
	Conn Conn
	Send chan []byte

	cfg  config.WebSocketConfig
	done chan struct{}

	mu       sync.RWMutex
	identity Identity
	alive    bool
	closed   bool
}

// NewConnectionID generates a process-unique connection id: millisecond
// timestamp plus a random suffix so concurrent accepts cannot collide.
func NewConnectionID() string {
	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}

func NewClient(id string, hub *Hub, conn Conn, cfg config.WebSocketConfig) *Client {
	return &Client{
		ID:    id,
		Hub:   hub,
		Conn:  conn,
		Send:  make(chan []byte, 256),
		cfg:   cfg,
		done:  make(chan struct{}),
		alive: true,
	}
}

// Bind attaches an identity to the connection. Re-binding is idempotent.
func (c *Client) Bind(userID string, role domain.Role, shopID *string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.identity = Identity{
		UserID:        userID,
		Role:          role,
		ShopID:        shopID,
		Authenticated: true,
	}
}

// Identity returns a copy of the bound identity.
func (c *Client) Identity() Identity {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.identity
}

// IsAuthenticated reports whether the auth handshake completed.
func (c *Client) IsAuthenticated() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.identity.Authenticated
}

// MarkAlive is called on pong receipt.
func (c *Client) MarkAlive() {
	c.mu.Lock()
	c.alive = true
	c.mu.Unlock()
}

// aliveAndClear returns the current liveness flag and clears it, arming the
// next heartbeat check.
func (c *Client) aliveAndClear() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev := c.alive
	c.alive = false
	return prev
}

// Open reports whether the connection is still accepting outbound messages.
func (c *Client) Open() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.closed
}

// markClosed flips the closed flag and releases the write pump; returns
// false if already closed.
func (c *Client) markClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.closed = true
	close(c.done)
	return true
}

// Ping sends a websocket ping control frame.
func (c *Client) Ping() error {
	return c.Conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.cfg.WriteWait))
}

// SendMessage marshals and queues a message. Delivery is best-effort: a
// closed connection or a full queue drops the message rather than blocking
// the caller.
func (c *Client) SendMessage(message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}
	c.sendRaw(data)
	return nil
}

func (c *Client) sendRaw(data []byte) {
	if !c.Open() {
		return
	}
	select {
	case c.Send <- data:
	default:
		l := log.L()
		l.Warn().Str(log.FieldConnID, c.ID).Msg("send queue full, dropping message")
	}
}

// ReadPump reads inbound frames and hands them to handler. It owns the
// disconnect cleanup: on any read error the client is unregistered from the
// hub and the transport closed.
func (c *Client) ReadPump(handler func(*Client, []byte)) {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.cfg.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.MarkAlive()
		c.Conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				l := log.L()
				l.Debug().Err(err).Str(log.FieldConnID, c.ID).Msg("websocket read error")
			}
			break
		}

		handler(c, message)
	}
}

// WritePump drains the send queue onto the transport. Heartbeat pings are
// driven by the hub's monitor, not here.
func (c *Client) WritePump() {
	defer c.Conn.Close()

	for {
		select {
		case message := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-c.done:
			c.Conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}
