package store

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/efreitasn/dex/internal/domain"
)

// OrderStore is a thread-safe in-memory index of every order the exchange
// accepted, with a primary index by order ID and a secondary index by
// trader. Resting orders are stored by pointer and keep changing as they
// fill; callers that mutate them must serialize with readers.
type OrderStore struct {
	mu           sync.RWMutex
	orders       map[uint64]*domain.Order
	traderOrders map[common.Address][]*domain.Order // trader → orders (append-only)
}

// NewOrderStore creates an empty OrderStore.
func NewOrderStore() *OrderStore {
	return &OrderStore{
		orders:       make(map[uint64]*domain.Order),
		traderOrders: make(map[common.Address][]*domain.Order),
	}
}

// Create adds an order to the store and appends it to the trader's
// secondary index.
func (s *OrderStore) Create(o *domain.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.orders[o.ID] = o
	s.traderOrders[o.Trader] = append(s.traderOrders[o.Trader], o)
}

// Get retrieves an order by ID. It returns domain.ErrOrderNotFound if the
// order does not exist.
func (s *OrderStore) Get(id uint64) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return o, nil
}

// ListByTrader returns a trader's orders newest first. If symbol is
// non-nil, only orders on that symbol are included. Pagination is 1-based.
// It returns the requested page and the total count of matching orders
// before pagination.
func (s *OrderStore) ListByTrader(trader common.Address, symbol *domain.Symbol, page, limit int) ([]*domain.Order, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.traderOrders[trader]

	filtered := make([]*domain.Order, 0)
	for i := len(all) - 1; i >= 0; i-- {
		if symbol != nil && all[i].Symbol != *symbol {
			continue
		}
		filtered = append(filtered, all[i])
	}

	total := len(filtered)

	start := (page - 1) * limit
	if start >= total {
		return []*domain.Order{}, total
	}
	end := start + limit
	if end > total {
		end = total
	}

	return filtered[start:end], total
}
