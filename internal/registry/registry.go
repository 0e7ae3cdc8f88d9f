// Package registry maps exchange symbols to the token contracts behind them.
package registry

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/efreitasn/dex/internal/domain"
	"github.com/efreitasn/dex/internal/token"
)

// Entry is a registered token.
type Entry struct {
	Symbol  domain.Symbol
	Address common.Address
	Quote   bool
	Token   token.Token
}

// Registry tracks registered tokens in a thread-safe manner. Exactly one
// symbol, fixed at construction, is the quote token.
type Registry struct {
	quote domain.Symbol

	mu      sync.RWMutex
	entries map[domain.Symbol]Entry
	order   []domain.Symbol
}

// New creates an empty Registry whose quote token will be quote.
func New(quote domain.Symbol) *Registry {
	return &Registry{
		quote:   quote,
		entries: make(map[domain.Symbol]Entry),
	}
}

// Quote returns the quote symbol.
func (r *Registry) Quote() domain.Symbol {
	return r.quote
}

// Register records symbol → (address, tok). It returns
// domain.ErrDuplicateToken if the symbol is already registered.
func (r *Registry) Register(symbol domain.Symbol, address common.Address, tok token.Token) (Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[symbol]; exists {
		return Entry{}, domain.ErrDuplicateToken
	}
	e := Entry{
		Symbol:  symbol,
		Address: address,
		Quote:   symbol == r.quote,
		Token:   tok,
	}
	r.entries[symbol] = e
	r.order = append(r.order, symbol)
	return e, nil
}

// Resolve returns the entry for symbol, or domain.ErrUnknownToken.
func (r *Registry) Resolve(symbol domain.Symbol) (Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[symbol]
	if !ok {
		return Entry{}, domain.ErrUnknownToken
	}
	return e, nil
}

// List returns all entries in registration order.
func (r *Registry) List() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Entry, len(r.order))
	for i, s := range r.order {
		out[i] = r.entries[s]
	}
	return out
}
