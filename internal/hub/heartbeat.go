package hub

import (
	"time"

	"github.com/amisra31/localpick-market-demo-sub001/pkg/log"
)

// HeartbeatMonitor distinguishes live connections from half-open ones. Each
// tick it evicts every client whose liveness flag was not refreshed by a
// pong since the previous tick, then clears the flag and pings the rest. A
// connection that misses two consecutive pings is therefore reclaimed.
type HeartbeatMonitor struct {
	hub      *Hub
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
}

func NewHeartbeatMonitor(h *Hub, interval time.Duration) *HeartbeatMonitor {
	return &HeartbeatMonitor{
		hub:      h,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the monitor goroutine.
func (m *HeartbeatMonitor) Start() {
	go m.run()
}

func (m *HeartbeatMonitor) run() {
	defer close(m.done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Sweep()
		case <-m.stop:
			return
		}
	}
}

// Sweep runs one heartbeat pass over every registered connection. Eviction
// takes the same cleanup path as an explicit disconnect.
func (m *HeartbeatMonitor) Sweep() {
	for _, c := range m.hub.Clients() {
		if !c.aliveAndClear() {
			l := log.L()
			l.Info().Str(log.FieldConnID, c.ID).Msg("heartbeat timeout, evicting connection")
			m.hub.Unregister(c)
			c.Conn.Close()
			continue
		}

		if err := c.Ping(); err != nil {
			l := log.L()
			l.Debug().Err(err).Str(log.FieldConnID, c.ID).Msg("ping failed, evicting connection")
			m.hub.Unregister(c)
			c.Conn.Close()
		}
	}
}

// Stop halts the monitor and waits for the goroutine to exit.
func (m *HeartbeatMonitor) Stop() {
	close(m.stop)
	<-m.done
}
