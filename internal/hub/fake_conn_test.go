package hub

import (
	"errors"
	"sync"
	"time"

	"github.com/amisra31/localpick-market-demo-sub001/internal/config"
	"github.com/amisra31/localpick-market-demo-sub001/internal/domain"
)

// fakeConn satisfies Conn without a network. Writes are recorded; reads block
// until the connection is closed.
type fakeConn struct {
	mu       sync.Mutex
	closed   bool
	pings    int
	pingErr  error
	written  [][]byte
	readDone chan struct{}
	once     sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{readDone: make(chan struct{})}
}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	<-f.readDone
	return 0, nil, errors.New("connection closed")
}

func (f *fakeConn) WriteMessage(messageType int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return errors.New("connection closed")
	}
	f.written = append(f.written, data)
	return nil
}

func (f *fakeConn) WriteControl(messageType int, data []byte, deadline time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pingErr != nil {
		return f.pingErr
	}
	f.pings++
	return nil
}

func (f *fakeConn) SetReadLimit(int64)                {}
func (f *fakeConn) SetReadDeadline(time.Time) error   { return nil }
func (f *fakeConn) SetWriteDeadline(time.Time) error  { return nil }
func (f *fakeConn) SetPongHandler(func(string) error) {}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	f.once.Do(func() { close(f.readDone) })
	return nil
}

func (f *fakeConn) pingCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pings
}

func (f *fakeConn) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func testWSConfig() config.WebSocketConfig {
	return config.WebSocketConfig{
		PingInterval:   30 * time.Second,
		PongWait:       75 * time.Second,
		WriteWait:      time.Second,
		MaxMessageSize: 4096,
	}
}

// newTestClient registers a fresh client on the hub, optionally binding an
// identity.
func newTestClient(h *Hub, id string, userID string, role domain.Role, shopID *string) (*Client, *fakeConn) {
	conn := newFakeConn()
	c := NewClient(id, h, conn, testWSConfig())
	h.Register(c)
	if userID != "" {
		h.Authenticate(id, userID, role, shopID)
	}
	return c, conn
}

// drainSend empties the client's outbound queue and returns the payloads.
func drainSend(c *Client) [][]byte {
	var out [][]byte
	for {
		select {
		case msg := <-c.Send:
			out = append(out, msg)
		default:
			return out
		}
	}
}
