package hub

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amisra31/localpick-market-demo-sub001/internal/domain"
)

func TestSweepPingsLiveConnections(t *testing.T) {
	h := NewHub()
	m := NewHeartbeatMonitor(h, time.Minute)

	c, conn := newTestClient(h, "conn-1", "cust-1", domain.RoleCustomer, nil)

	// First sweep: the flag set at accept time is consumed, a ping goes out.
	m.Sweep()
	assert.Equal(t, 1, h.ClientCount())
	assert.Equal(t, 1, conn.pingCount())

	// Pong arrives before the next sweep; connection stays.
	c.MarkAlive()
	m.Sweep()
	assert.Equal(t, 1, h.ClientCount())
	assert.Equal(t, 2, conn.pingCount())
}

func TestSweepEvictsAfterTwoMissedPings(t *testing.T) {
	h := NewHub()
	m := NewHeartbeatMonitor(h, time.Minute)
	key := domain.NewConversationKey("cust-1", "shop-1", nil)

	c, conn := newTestClient(h, "conn-1", "cust-1", domain.RoleCustomer, nil)
	_, err := h.JoinConversation(c, key)
	require.NoError(t, err)

	// First sweep clears the flag; no pong follows.
	m.Sweep()
	assert.Equal(t, 1, h.ClientCount())

	// Second sweep finds the flag still cleared and reclaims the connection,
	// including its session memberships.
	m.Sweep()
	assert.Equal(t, 0, h.ClientCount())
	assert.False(t, h.IsMember("conn-1", key))
	assert.False(t, c.Open())
	assert.True(t, conn.isClosed())
}

func TestSweepEvictsOnPingError(t *testing.T) {
	h := NewHub()
	m := NewHeartbeatMonitor(h, time.Minute)

	_, conn := newTestClient(h, "conn-1", "cust-1", domain.RoleCustomer, nil)
	conn.pingErr = errors.New("broken pipe")

	m.Sweep()
	assert.Equal(t, 0, h.ClientCount())
	assert.True(t, conn.isClosed())
}

func TestSweepIndependentPerConnection(t *testing.T) {
	h := NewHub()
	m := NewHeartbeatMonitor(h, time.Minute)

	healthy, _ := newTestClient(h, "conn-h", "cust-1", domain.RoleCustomer, nil)
	stale, _ := newTestClient(h, "conn-s", "cust-2", domain.RoleCustomer, nil)

	m.Sweep()
	healthy.MarkAlive()
	// stale never pongs.

	m.Sweep()
	assert.Equal(t, 1, h.ClientCount())
	assert.True(t, healthy.Open())
	assert.False(t, stale.Open())
}

func TestMonitorStartStop(t *testing.T) {
	h := NewHub()
	m := NewHeartbeatMonitor(h, 10*time.Millisecond)

	m.Start()
	time.Sleep(25 * time.Millisecond)
	m.Stop()
}
