// Package ledger keeps per-trader, per-token balances and the part of each
// balance locked as order collateral.
package ledger

import (
	"errors"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/efreitasn/dex/internal/domain"
)

// ErrLockedShortfall is returned when collateral is spent beyond what is
// locked. It indicates broken bookkeeping, not a user error.
var ErrLockedShortfall = errors.New("ledger: spend exceeds locked balance")

type key struct {
	trader common.Address
	symbol domain.Symbol
}

// Record is a holding together with the key it is stored under.
type Record struct {
	Trader  common.Address
	Symbol  domain.Symbol
	Holding domain.Holding
}

// Ledger is the committed balance state. Reads are safe for concurrent use;
// writes go through a Tx, and at most one Tx may be open at a time.
type Ledger struct {
	mu       sync.RWMutex
	holdings map[key]*domain.Holding
}

// New creates an empty Ledger.
func New() *Ledger {
	return &Ledger{
		holdings: make(map[key]*domain.Holding),
	}
}

// Holding returns a copy of the committed holding, or a zero holding if the
// trader never held the token.
func (l *Ledger) Holding(trader common.Address, symbol domain.Symbol) domain.Holding {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if h, ok := l.holdings[key{trader, symbol}]; ok {
		return *h
	}
	return domain.Holding{}
}

// Total returns the sum of all traders' balances in symbol.
func (l *Ledger) Total(symbol domain.Symbol) *uint256.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	total := new(uint256.Int)
	for k, h := range l.holdings {
		if k.symbol == symbol {
			total.Add(total, &h.Balance)
		}
	}
	return total
}

// Records returns a copy of every committed holding.
func (l *Ledger) Records() []Record {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Record, 0, len(l.holdings))
	for k, h := range l.holdings {
		out = append(out, Record{Trader: k.trader, Symbol: k.symbol, Holding: *h})
	}
	return out
}

// Begin opens a transaction against the committed state.
func (l *Ledger) Begin() *Tx {
	return &Tx{
		ledger: l,
		staged: make(map[key]*domain.Holding),
	}
}

// Tx stages holding changes. Nothing is visible to Ledger readers until
// Commit; a Tx that is dropped without Commit has no effect.
type Tx struct {
	ledger *Ledger
	staged map[key]*domain.Holding
	order  []key
	done   bool
}

func (tx *Tx) holding(trader common.Address, symbol domain.Symbol) *domain.Holding {
	k := key{trader, symbol}
	if h, ok := tx.staged[k]; ok {
		return h
	}
	h := &domain.Holding{}
	tx.ledger.mu.RLock()
	if cur, ok := tx.ledger.holdings[k]; ok {
		*h = *cur
	}
	tx.ledger.mu.RUnlock()

	tx.staged[k] = h
	tx.order = append(tx.order, k)
	return h
}

// Holding returns the holding as seen inside the transaction.
func (tx *Tx) Holding(trader common.Address, symbol domain.Symbol) domain.Holding {
	return *tx.holding(trader, symbol)
}

// Available returns balance minus locked as seen inside the transaction.
func (tx *Tx) Available(trader common.Address, symbol domain.Symbol) *uint256.Int {
	return tx.holding(trader, symbol).Available()
}

// Credit increases the balance.
func (tx *Tx) Credit(trader common.Address, symbol domain.Symbol, amount *uint256.Int) error {
	h := tx.holding(trader, symbol)
	sum, err := domain.Add(&h.Balance, amount)
	if err != nil {
		return err
	}
	h.Balance = *sum
	return nil
}

// Debit decreases the balance. Only the available part can be debited.
func (tx *Tx) Debit(trader common.Address, symbol domain.Symbol, amount *uint256.Int) error {
	h := tx.holding(trader, symbol)
	if h.Available().Lt(amount) {
		return domain.ErrInsufficientBalance
	}
	h.Balance.Sub(&h.Balance, amount)
	return nil
}

// Lock moves amount from available to locked.
func (tx *Tx) Lock(trader common.Address, symbol domain.Symbol, amount *uint256.Int) error {
	h := tx.holding(trader, symbol)
	if h.Available().Lt(amount) {
		return domain.ErrInsufficientBalance
	}
	h.Locked.Add(&h.Locked, amount)
	return nil
}

// Unlock releases locked collateral, stopping at zero.
func (tx *Tx) Unlock(trader common.Address, symbol domain.Symbol, amount *uint256.Int) {
	h := tx.holding(trader, symbol)
	if h.Locked.Lt(amount) {
		h.Locked.Clear()
		return
	}
	h.Locked.Sub(&h.Locked, amount)
}

// SpendLocked removes amount from both locked and balance: the collateral
// leaves the trader's account.
func (tx *Tx) SpendLocked(trader common.Address, symbol domain.Symbol, amount *uint256.Int) error {
	h := tx.holding(trader, symbol)
	if h.Locked.Lt(amount) {
		return ErrLockedShortfall
	}
	h.Locked.Sub(&h.Locked, amount)
	h.Balance.Sub(&h.Balance, amount)
	return nil
}

// Commit publishes every staged holding and returns them in the order they
// were first touched. Committing twice is a no-op.
func (tx *Tx) Commit() []Record {
	if tx.done {
		return nil
	}
	tx.done = true

	changes := make([]Record, 0, len(tx.order))
	tx.ledger.mu.Lock()
	defer tx.ledger.mu.Unlock()
	for _, k := range tx.order {
		h := *tx.staged[k]
		tx.ledger.holdings[k] = &h
		changes = append(changes, Record{Trader: k.trader, Symbol: k.symbol, Holding: h})
	}
	return changes
}
