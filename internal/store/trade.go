package store

import (
	"sync"

	"github.com/efreitasn/dex/internal/domain"
)

// TradeStore is a thread-safe in-memory store for trades,
// keyed by symbol. Trades are append-only and chronological.
type TradeStore struct {
	mu     sync.RWMutex
	trades map[domain.Symbol][]*domain.Trade
}

// NewTradeStore creates an empty TradeStore.
func NewTradeStore() *TradeStore {
	return &TradeStore{
		trades: make(map[domain.Symbol][]*domain.Trade),
	}
}

// Append adds trades to the symbol's chronological list.
func (s *TradeStore) Append(symbol domain.Symbol, trades ...*domain.Trade) {
	if len(trades) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.trades[symbol] = append(s.trades[symbol], trades...)
}

// GetBySymbol returns the most recent trades for a symbol in chronological
// order. A limit of zero or less returns all of them. Returns an empty
// slice if no trades exist for the symbol.
func (s *TradeStore) GetBySymbol(symbol domain.Symbol, limit int) []*domain.Trade {
	s.mu.RLock()
	defer s.mu.RUnlock()

	trades := s.trades[symbol]
	if limit > 0 && len(trades) > limit {
		trades = trades[len(trades)-limit:]
	}

	result := make([]*domain.Trade, len(trades))
	copy(result, trades)
	return result
}

// Count returns the number of trades recorded for a symbol.
func (s *TradeStore) Count(symbol domain.Symbol) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.trades[symbol])
}
