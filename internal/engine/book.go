package engine

import (
	"sync"

	"github.com/google/btree"
	"github.com/holiman/uint256"

	"github.com/efreitasn/dex/internal/domain"
)

// OrderBookEntry represents a single order resting on the book. Price and
// Sequence are copied out of the order so the tree ordering never depends
// on mutable order state.
type OrderBookEntry struct {
	Price    uint256.Int
	Sequence uint64
	OrderID  uint64
	Order    *domain.Order
}

// PriceLevel represents an aggregated price level in the order book.
type PriceLevel struct {
	Price       uint256.Int
	TotalAmount uint256.Int // unfilled base units
	OrderCount  int
}

// buyLess orders the buy side: price descending, then sequence ascending.
// Min() returns the best bid (highest price, earliest arrival).
func buyLess(a, b OrderBookEntry) bool {
	if c := a.Price.Cmp(&b.Price); c != 0 {
		return c > 0
	}
	return a.Sequence < b.Sequence
}

// sellLess orders the sell side: price ascending, then sequence ascending.
// Min() returns the best ask (lowest price, earliest arrival).
func sellLess(a, b OrderBookEntry) bool {
	if c := a.Price.Cmp(&b.Price); c != 0 {
		return c < 0
	}
	return a.Sequence < b.Sequence
}

// OrderBook maintains the buy and sell sides for a single symbol using
// B-trees with a secondary index for O(log n) removal by order ID.
//
// OrderBook is not safe for concurrent use; the Exchange serializes access.
type OrderBook struct {
	symbol domain.Symbol
	buys   *btree.BTreeG[OrderBookEntry]
	sells  *btree.BTreeG[OrderBookEntry]
	index  map[uint64]OrderBookEntry // order id → entry
}

// NewOrderBook creates an order book for the given symbol.
func NewOrderBook(symbol domain.Symbol) *OrderBook {
	const degree = 32
	return &OrderBook{
		symbol: symbol,
		buys:   btree.NewG[OrderBookEntry](degree, buyLess),
		sells:  btree.NewG[OrderBookEntry](degree, sellLess),
		index:  make(map[uint64]OrderBookEntry),
	}
}

// Symbol returns the symbol the book trades.
func (ob *OrderBook) Symbol() domain.Symbol {
	return ob.symbol
}

func (ob *OrderBook) side(s domain.Side) *btree.BTreeG[OrderBookEntry] {
	if s == domain.SideBuy {
		return ob.buys
	}
	return ob.sells
}

// Insert adds a resting order to the side it belongs to.
func (ob *OrderBook) Insert(o *domain.Order) {
	entry := OrderBookEntry{
		Price:    o.Price,
		Sequence: o.Sequence,
		OrderID:  o.ID,
		Order:    o,
	}
	ob.side(o.Side).ReplaceOrInsert(entry)
	ob.index[o.ID] = entry
}

// Remove deletes an order from the book by ID using the secondary index.
// It reports whether the order was on the book.
func (ob *OrderBook) Remove(orderID uint64) bool {
	entry, ok := ob.index[orderID]
	if !ok {
		return false
	}
	delete(ob.index, orderID)
	ob.side(entry.Order.Side).Delete(entry)
	return true
}

// Contains reports whether the order is resting on the book.
func (ob *OrderBook) Contains(orderID uint64) bool {
	_, ok := ob.index[orderID]
	return ok
}

// Best returns the highest-priority entry on the given side.
func (ob *OrderBook) Best(s domain.Side) (OrderBookEntry, bool) {
	return ob.side(s).Min()
}

// Walk iterates a side in priority order. The callback returns true to
// continue, false to stop.
func (ob *OrderBook) Walk(s domain.Side, fn func(OrderBookEntry) bool) {
	ob.side(s).Ascend(fn)
}

// Snapshot returns copies of the orders on one side, in book order.
func (ob *OrderBook) Snapshot(s domain.Side) []domain.Order {
	out := make([]domain.Order, 0, ob.side(s).Len())
	ob.side(s).Ascend(func(entry OrderBookEntry) bool {
		out = append(out, *entry.Order)
		return true
	})
	return out
}

// Levels returns up to n aggregated price levels from one side, best
// price first.
func (ob *OrderBook) Levels(s domain.Side, n int) []PriceLevel {
	if n <= 0 {
		return nil
	}
	levels := make([]PriceLevel, 0, n)
	ob.side(s).Ascend(func(entry OrderBookEntry) bool {
		remaining := entry.Order.Remaining()
		if len(levels) > 0 && levels[len(levels)-1].Price.Eq(&entry.Price) {
			last := &levels[len(levels)-1]
			last.TotalAmount.Add(&last.TotalAmount, remaining)
			last.OrderCount++
			return true
		}
		if len(levels) >= n {
			return false
		}
		levels = append(levels, PriceLevel{
			Price:       entry.Price,
			TotalAmount: *remaining,
			OrderCount:  1,
		})
		return true
	})
	return levels
}

// Len returns the number of orders resting on one side.
func (ob *OrderBook) Len(s domain.Side) int {
	return ob.side(s).Len()
}

// BookManager is a thread-safe map of symbol → OrderBook.
type BookManager struct {
	mu    sync.RWMutex
	books map[domain.Symbol]*OrderBook
}

// NewBookManager creates a new BookManager.
func NewBookManager() *BookManager {
	return &BookManager{
		books: make(map[domain.Symbol]*OrderBook),
	}
}

// Get returns the order book for symbol if one exists.
func (bm *BookManager) Get(symbol domain.Symbol) (*OrderBook, bool) {
	bm.mu.RLock()
	defer bm.mu.RUnlock()
	book, ok := bm.books[symbol]
	return book, ok
}

// GetOrCreate returns the order book for the given symbol, creating
// one if it doesn't already exist.
func (bm *BookManager) GetOrCreate(symbol domain.Symbol) *OrderBook {
	bm.mu.RLock()
	book, ok := bm.books[symbol]
	bm.mu.RUnlock()
	if ok {
		return book
	}

	bm.mu.Lock()
	defer bm.mu.Unlock()
	// Double-check after acquiring write lock.
	if book, ok = bm.books[symbol]; ok {
		return book
	}
	book = NewOrderBook(symbol)
	bm.books[symbol] = book
	return book
}
