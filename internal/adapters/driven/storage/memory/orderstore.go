package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/custodia-labs/idlekit/internal/core/domain"
	"github.com/custodia-labs/idlekit/internal/core/ports/driven"
)

// Ensure OrderStore implements the interface.
var _ driven.AchievementOrderStore = (*OrderStore)(nil)

type orderKey struct {
	identity string
	titleID  int
}

// OrderStore is an in-memory implementation of driven.AchievementOrderStore.
type OrderStore struct {
	mu     sync.RWMutex
	orders map[orderKey]domain.AchievementOrder
}

// NewOrderStore creates a new in-memory order store.
func NewOrderStore() *OrderStore {
	return &OrderStore{
		orders: make(map[orderKey]domain.AchievementOrder),
	}
}

// GetOrder returns the order for a title, or nil.
func (s *OrderStore) GetOrder(_ context.Context, identity string, titleID int) (*domain.AchievementOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[orderKey{identity, titleID}]
	if !ok {
		return nil, nil
	}
	o.Entries = slices.Clone(o.Entries)
	return &o, nil
}

// SaveOrder stores an order.
func (s *OrderStore) SaveOrder(_ context.Context, identity string, order domain.AchievementOrder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	order.Entries = slices.Clone(order.Entries)
	s.orders[orderKey{identity, order.TitleID}] = order
	return nil
}
