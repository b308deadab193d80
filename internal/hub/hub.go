package hub

import (
	"encoding/json"
	"sync"

	"github.com/amisra31/localpick-market-demo-sub001/internal/domain"
	"github.com/amisra31/localpick-market-demo-sub001/pkg/log"
)

// Hub owns every live connection and the conversation membership index, and
// routes every outbound push. It is constructed once at startup and injected
// wherever broadcasts originate; the registries are transient in-memory
// state, rebuilt from scratch on restart.
type Hub struct {
	mu            sync.RWMutex
	clients       map[string]*Client                      // connID -> client
	conversations map[string]map[string]*Client           // key -> connID -> client
	memberships   map[string]map[string]domain.ConversationKey // connID -> key -> parsed key
}

func NewHub() *Hub {
	return &Hub{
		clients:       make(map[string]*Client),
		conversations: make(map[string]map[string]*Client),
		memberships:   make(map[string]map[string]domain.ConversationKey),
	}
}

// Register adds an unauthenticated connection to the registry.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	h.clients[client.ID] = client
	h.mu.Unlock()

	l := log.L()
	l.Debug().Str(log.FieldConnID, client.ID).Msg("connection registered")
}

// Authenticate binds an identity to a registered connection. An unknown id
// is logged and ignored: a close racing a late auth frame is expected.
func (h *Hub) Authenticate(connID, userID string, role domain.Role, shopID *string) {
	h.mu.RLock()
	client, ok := h.clients[connID]
	h.mu.RUnlock()

	if !ok {
		l := log.L()
		l.Warn().Str(log.FieldConnID, connID).Msg("auth for unknown connection, ignoring")
		return
	}

	client.Bind(userID, role, shopID)
}

// Unregister removes a connection from the registry and from every
// conversation it joined, notifying remaining members. Safe to call more
// than once; only the first call does work.
func (h *Hub) Unregister(client *Client) {
	if !client.markClosed() {
		return
	}

	h.mu.Lock()
	delete(h.clients, client.ID)

	var left []domain.ConversationKey
	for keyStr, key := range h.memberships[client.ID] {
		if members, ok := h.conversations[keyStr]; ok {
			delete(members, client.ID)
			if len(members) == 0 {
				delete(h.conversations, keyStr)
			}
		}
		left = append(left, key)
	}
	delete(h.memberships, client.ID)
	h.mu.Unlock()

	id := client.Identity()
	for _, key := range left {
		if id.Authenticated {
			h.BroadcastToConversation(key, &domain.UserLeftMessage{
				Type:        domain.MsgTypeUserLeft,
				ChatSession: domain.RefForKey(key),
				UserID:      id.UserID,
				Role:        id.Role,
			}, client.ID)
		}
	}

	l := log.L()
	l.Debug().Str(log.FieldConnID, client.ID).Msg("connection unregistered")
}

// JoinConversation adds the connection to the session for key after the
// access check passes, creating the session on first join. It returns the
// connection ids of the siblings already present.
func (h *Hub) JoinConversation(client *Client, key domain.ConversationKey) ([]string, error) {
	if err := Authorize(client.Identity(), key); err != nil {
		return nil, err
	}

	keyStr := key.String()

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; !ok {
		// Connection already evicted; treat like any other denied join.
		return nil, ErrAccessDenied
	}

	members, ok := h.conversations[keyStr]
	if !ok {
		members = make(map[string]*Client)
		h.conversations[keyStr] = members
	}
	siblings := make([]string, 0, len(members))
	for id := range members {
		if id != client.ID {
			siblings = append(siblings, id)
		}
	}
	members[client.ID] = client

	if _, ok := h.memberships[client.ID]; !ok {
		h.memberships[client.ID] = make(map[string]domain.ConversationKey)
	}
	h.memberships[client.ID][keyStr] = key

	l := log.L()
	l.Info().
		Str(log.FieldConnID, client.ID).
		Str(log.FieldConversation, keyStr).
		Msg("joined conversation")

	return siblings, nil
}

// LeaveConversation removes the connection from the session for key and
// reports whether it was actually a member; the session entry is deleted
// when its last member leaves.
func (h *Hub) LeaveConversation(client *Client, key domain.ConversationKey) bool {
	keyStr := key.String()

	h.mu.Lock()
	var removed bool
	if members, ok := h.conversations[keyStr]; ok {
		if _, in := members[client.ID]; in {
			removed = true
			delete(members, client.ID)
			if len(members) == 0 {
				delete(h.conversations, keyStr)
			}
		}
	}
	if keys, ok := h.memberships[client.ID]; ok {
		delete(keys, keyStr)
		if len(keys) == 0 {
			delete(h.memberships, client.ID)
		}
	}
	h.mu.Unlock()

	if removed {
		l := log.L()
		l.Info().
			Str(log.FieldConnID, client.ID).
			Str(log.FieldConversation, keyStr).
			Msg("left conversation")
	}
	return removed
}

// IsMember reports whether the connection currently belongs to the session.
func (h *Hub) IsMember(connID string, key domain.ConversationKey) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	members, ok := h.conversations[key.String()]
	if !ok {
		return false
	}
	_, in := members[connID]
	return in
}

// MembersOf returns a snapshot of the session's member connection ids.
func (h *Hub) MembersOf(key domain.ConversationKey) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	members := h.conversations[key.String()]
	ids := make([]string, 0, len(members))
	for id := range members {
		ids = append(ids, id)
	}
	return ids
}

// snapshot returns a copy of the matching clients so a broadcast scan never
// holds the lock while delivering.
func (h *Hub) snapshot(match func(*Client) bool) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var out []*Client
	for _, c := range h.clients {
		if match(c) {
			out = append(out, c)
		}
	}
	return out
}

// deliver pushes pre-marshalled data to each target. Connections that are
// not open are skipped; a failed recipient never aborts the batch.
func (h *Hub) deliver(targets []*Client, data []byte) {
	for _, c := range targets {
		if !c.Open() {
			continue
		}
		c.sendRaw(data)
	}
}

func marshalMessage(message interface{}) ([]byte, bool) {
	data, err := json.Marshal(message)
	if err != nil {
		l := log.L()
		l.Error().Err(err).Msg("failed to marshal broadcast message")
		return nil, false
	}
	return data, true
}

// BroadcastToConversation delivers to the session members, optionally
// excluding one connection (usually the sender).
func (h *Hub) BroadcastToConversation(key domain.ConversationKey, message interface{}, excludeConnID string) {
	data, ok := marshalMessage(message)
	if !ok {
		return
	}

	keyStr := key.String()
	h.mu.RLock()
	members := h.conversations[keyStr]
	targets := make([]*Client, 0, len(members))
	for id, c := range members {
		if id == excludeConnID {
			continue
		}
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	h.deliver(targets, data)
}

// BroadcastToUser delivers to every connection bound to the exact
// (userID, role) pair; role is part of the match because one person can hold
// connections under different role contexts.
func (h *Hub) BroadcastToUser(userID string, role domain.Role, message interface{}) {
	data, ok := marshalMessage(message)
	if !ok {
		return
	}
	h.deliver(h.snapshot(func(c *Client) bool {
		id := c.Identity()
		return id.Authenticated && id.UserID == userID && id.Role == role
	}), data)
}

// BroadcastToRole delivers to every connection holding the role.
func (h *Hub) BroadcastToRole(role domain.Role, message interface{}) {
	data, ok := marshalMessage(message)
	if !ok {
		return
	}
	h.deliver(h.snapshot(func(c *Client) bool {
		id := c.Identity()
		return id.Authenticated && id.Role == role
	}), data)
}

// BroadcastToShop delivers to every merchant connection tagged with the
// shop, covering multiple staff accounts.
func (h *Hub) BroadcastToShop(shopID string, message interface{}) {
	data, ok := marshalMessage(message)
	if !ok {
		return
	}
	h.deliver(h.snapshot(func(c *Client) bool {
		id := c.Identity()
		return id.Authenticated && id.Role == domain.RoleMerchant &&
			id.ShopID != nil && *id.ShopID == shopID
	}), data)
}

// BroadcastToAll delivers to every live connection.
func (h *Hub) BroadcastToAll(message interface{}) {
	data, ok := marshalMessage(message)
	if !ok {
		return
	}
	h.deliver(h.snapshot(func(*Client) bool { return true }), data)
}

// Clients returns a snapshot of all registered clients.
func (h *Hub) Clients() []*Client {
	return h.snapshot(func(*Client) bool { return true })
}

// ClientCount returns the number of registered connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close evicts every connection; used during shutdown.
func (h *Hub) Close() {
	for _, c := range h.Clients() {
		h.Unregister(c)
		c.Conn.Close()
	}
}
