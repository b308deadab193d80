package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/amisra31/localpick-market-demo-sub001/internal/domain"
)

// MemoryStore is an in-memory implementation of the repository interfaces,
// used by tests and local development without a database.
type MemoryStore struct {
	mu       sync.RWMutex
	orders   map[string]*domain.Order
	changes  map[string][]domain.OrderStatusChange // orderID -> changes
	messages map[string]*domain.ChatMessage
	shops    map[string]*domain.Shop
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		orders:   make(map[string]*domain.Order),
		changes:  make(map[string][]domain.OrderStatusChange),
		messages: make(map[string]*domain.ChatMessage),
		shops:    make(map[string]*domain.Shop),
	}
}

// PutOrder seeds an order.
func (s *MemoryStore) PutOrder(o *domain.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *o
	s.orders[o.ID] = &cp
}

// PutShop seeds a shop.
func (s *MemoryStore) PutShop(shop *domain.Shop) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *shop
	s.shops[shop.ID] = &cp
}

func (s *MemoryStore) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (s *MemoryStore) UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return ErrOrderNotFound
	}
	o.Status = status
	o.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) AppendStatusChange(ctx context.Context, change *domain.OrderStatusChange) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if change.ID == "" {
		change.ID = uuid.New().String()
	}
	if change.CreatedAt.IsZero() {
		change.CreatedAt = time.Now()
	}
	s.changes[change.OrderID] = append(s.changes[change.OrderID], *change)
	return nil
}

func (s *MemoryStore) ListStatusChanges(ctx context.Context, orderID string) ([]domain.OrderStatusChange, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.OrderStatusChange, len(s.changes[orderID]))
	copy(out, s.changes[orderID])
	return out, nil
}

func (s *MemoryStore) CreateMessage(ctx context.Context, msg *domain.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	cp := *msg
	s.messages[msg.ID] = &cp
	return nil
}

func (s *MemoryStore) GetMessage(ctx context.Context, id string) (*domain.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.messages[id]
	if !ok {
		return nil, ErrMessageNotFound
	}
	cp := *m
	return &cp, nil
}

func (s *MemoryStore) MarkMessageRead(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.messages[id]
	if !ok {
		return ErrMessageNotFound
	}
	m.Read = true
	return nil
}

func (s *MemoryStore) ListConversationMessages(ctx context.Context, key domain.ConversationKey, limit int) ([]domain.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.ChatMessage
	for _, m := range s.messages {
		if m.Conversation().Equal(key) {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) GetShop(ctx context.Context, id string) (*domain.Shop, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	shop, ok := s.shops[id]
	if !ok {
		return nil, ErrShopNotFound
	}
	cp := *shop
	return &cp, nil
}
