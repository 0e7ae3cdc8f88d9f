package engine

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/holiman/uint256"

	"github.com/efreitasn/dex/internal/domain"
	"github.com/efreitasn/dex/internal/ledger"
	"github.com/efreitasn/dex/internal/registry"
	"github.com/efreitasn/dex/internal/store"
	"github.com/efreitasn/dex/internal/token"
)

// MarketResult describes an executed market order.
type MarketResult struct {
	Order     domain.Order   // the taker, Filled set to the executed amount
	Trades    []domain.Trade // one per maker touched, in match order
	Completed []domain.Order // makers that were completely filled
	Truncated bool           // matching stopped at the step limit
}

// Reserve compares what the ledger owes traders in one token with what the
// custody account actually holds.
type Reserve struct {
	Symbol  domain.Symbol
	Ledger  uint256.Int
	Custody uint256.Int
}

// Exchange is the single entry point for every state change. All mutators
// hold the write lock for their whole duration, so each public operation is
// observed as one indivisible step; stage-then-commit keeps failures free
// of partial effects.
type Exchange struct {
	mu sync.RWMutex

	registry *registry.Registry
	ledger   *ledger.Ledger
	books    *BookManager
	orders   *store.OrderStore
	trades   *store.TradeStore
	seq      *Sequencer

	maxMatchSteps int
	now           func() time.Time
}

// NewExchange creates an Exchange over the given components. maxMatchSteps
// bounds the maker orders one market order may consume; zero means
// unbounded.
func NewExchange(
	reg *registry.Registry,
	led *ledger.Ledger,
	books *BookManager,
	orders *store.OrderStore,
	trades *store.TradeStore,
	maxMatchSteps int,
) *Exchange {
	return &Exchange{
		registry:      reg,
		ledger:        led,
		books:         books,
		orders:        orders,
		trades:        trades,
		seq:           NewSequencer(0),
		maxMatchSteps: maxMatchSteps,
		now:           time.Now,
	}
}

// QuoteSymbol returns the symbol every price is denominated in.
func (e *Exchange) QuoteSymbol() domain.Symbol {
	return e.registry.Quote()
}

// AddToken registers a token. Base tokens get an empty order book.
func (e *Exchange) AddToken(symbol domain.Symbol, address common.Address, tok token.Token) (registry.Entry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	entry, err := e.registry.Register(symbol, address, tok)
	if err != nil {
		return registry.Entry{}, err
	}
	if !entry.Quote {
		e.books.GetOrCreate(symbol)
	}
	return entry, nil
}

// Deposit pulls amount of symbol from trader into custody and credits the
// trader's balance.
func (e *Exchange) Deposit(ctx context.Context, trader common.Address, symbol domain.Symbol, amount *uint256.Int) (domain.Holding, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	entry, err := e.registry.Resolve(symbol)
	if err != nil {
		return domain.Holding{}, err
	}
	if amount.IsZero() {
		return domain.Holding{}, &domain.ValidationError{Message: "amount must be greater than 0"}
	}

	tx := e.ledger.Begin()
	if err := tx.Credit(trader, symbol, amount); err != nil {
		return domain.Holding{}, err
	}
	if err := entry.Token.TransferIn(ctx, trader, amount); err != nil {
		return domain.Holding{}, err
	}
	tx.Commit()
	return e.ledger.Holding(trader, symbol), nil
}

// Withdraw debits amount from the trader's available balance and returns
// the tokens from custody.
func (e *Exchange) Withdraw(ctx context.Context, trader common.Address, symbol domain.Symbol, amount *uint256.Int) (domain.Holding, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	entry, err := e.registry.Resolve(symbol)
	if err != nil {
		return domain.Holding{}, err
	}
	if amount.IsZero() {
		return domain.Holding{}, &domain.ValidationError{Message: "amount must be greater than 0"}
	}

	tx := e.ledger.Begin()
	if err := tx.Debit(trader, symbol, amount); err != nil {
		return domain.Holding{}, err
	}
	if err := entry.Token.TransferOut(ctx, trader, amount); err != nil {
		return domain.Holding{}, err
	}
	tx.Commit()
	return e.ledger.Holding(trader, symbol), nil
}

// tradable resolves symbol and rejects the quote token.
func (e *Exchange) tradable(symbol domain.Symbol) (registry.Entry, error) {
	entry, err := e.registry.Resolve(symbol)
	if err != nil {
		return registry.Entry{}, err
	}
	if entry.Quote {
		return registry.Entry{}, &domain.QuoteError{Err: domain.ErrQuoteTokenForbidden, Quote: e.registry.Quote()}
	}
	return entry, nil
}

// CreateLimitOrder locks the order's collateral and rests it on the book.
// Limit orders never match on arrival.
func (e *Exchange) CreateLimitOrder(trader common.Address, symbol domain.Symbol, side domain.Side, amount, price *uint256.Int) (domain.Order, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.tradable(symbol); err != nil {
		return domain.Order{}, err
	}
	if amount.IsZero() {
		return domain.Order{}, &domain.ValidationError{Message: "amount must be greater than 0"}
	}
	if price.IsZero() {
		return domain.Order{}, &domain.ValidationError{Message: "price must be greater than 0"}
	}

	quote := e.registry.Quote()
	tx := e.ledger.Begin()
	if side == domain.SideSell {
		if err := tx.Lock(trader, symbol, amount); err != nil {
			return domain.Order{}, err
		}
	} else {
		required, err := domain.Mul(amount, price)
		if err != nil {
			return domain.Order{}, err
		}
		if err := tx.Lock(trader, quote, required); err != nil {
			return domain.Order{}, &domain.QuoteError{Err: domain.ErrInsufficientQuote, Quote: quote}
		}
	}

	id := e.seq.Next()
	order := &domain.Order{
		ID:        id,
		Type:      domain.OrderTypeLimit,
		Trader:    trader,
		Symbol:    symbol,
		Side:      side,
		Price:     *price,
		Amount:    *amount,
		Sequence:  id,
		CreatedAt: e.now(),
	}

	tx.Commit()
	e.books.GetOrCreate(symbol).Insert(order)
	e.orders.Create(order)
	return *order, nil
}

// CreateMarketOrder matches amount against the opposite side of the book
// and settles every fill. Whatever the book cannot fill is discarded.
func (e *Exchange) CreateMarketOrder(trader common.Address, symbol domain.Symbol, side domain.Side, amount *uint256.Int) (*MarketResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.tradable(symbol); err != nil {
		return nil, err
	}
	if amount.IsZero() {
		return nil, &domain.ValidationError{Message: "amount must be greater than 0"}
	}

	quote := e.registry.Quote()
	book := e.books.GetOrCreate(symbol)
	tx := e.ledger.Begin()

	if side == domain.SideSell && tx.Available(trader, symbol).Lt(amount) {
		return nil, domain.ErrInsufficientBase
	}

	plan, err := planMarket(book, side, amount, e.maxMatchSteps)
	if err != nil {
		return nil, err
	}

	if side == domain.SideBuy && tx.Available(trader, quote).Lt(&plan.Cost) {
		return nil, &domain.QuoteError{Err: domain.ErrInsufficientQuote, Quote: quote, Market: true}
	}

	if err := settle(tx, quote, symbol, trader, side, plan); err != nil {
		return nil, err
	}

	id := e.seq.Next()
	now := e.now()
	taker := &domain.Order{
		ID:        id,
		Type:      domain.OrderTypeMarket,
		Trader:    trader,
		Symbol:    symbol,
		Side:      side,
		Amount:    *amount,
		Filled:    plan.Filled,
		Sequence:  id,
		CreatedAt: now,
	}

	tx.Commit()
	completed := apply(book, plan)

	trades := make([]*domain.Trade, 0, len(plan.Fills))
	for i := range plan.Fills {
		f := &plan.Fills[i]
		trades = append(trades, &domain.Trade{
			TradeID:      uuid.New().String(),
			Symbol:       symbol,
			MakerOrderID: f.Maker.ID,
			TakerOrderID: id,
			Maker:        f.Maker.Trader,
			Taker:        trader,
			TakerSide:    side,
			Amount:       f.Amount,
			Price:        f.Maker.Price,
			ExecutedAt:   now,
		})
	}
	e.trades.Append(symbol, trades...)
	e.orders.Create(taker)

	result := &MarketResult{
		Order:     *taker,
		Trades:    make([]domain.Trade, len(trades)),
		Completed: completed,
		Truncated: plan.Truncated,
	}
	for i, t := range trades {
		result.Trades[i] = *t
	}
	return result, nil
}

// Orders returns the resting orders on one side of symbol's book in
// priority order. Unknown symbols have no orders.
func (e *Exchange) Orders(symbol domain.Symbol, side domain.Side) []domain.Order {
	e.mu.RLock()
	defer e.mu.RUnlock()

	book, ok := e.books.Get(symbol)
	if !ok {
		return []domain.Order{}
	}
	return book.Snapshot(side)
}

// Resting returns how many orders rest on one side of symbol's book.
func (e *Exchange) Resting(symbol domain.Symbol, side domain.Side) int {
	e.mu.RLock()
	defer e.mu.RUnlock()

	book, ok := e.books.Get(symbol)
	if !ok {
		return 0
	}
	return book.Len(side)
}

// Balance returns the trader's total balance in symbol.
func (e *Exchange) Balance(trader common.Address, symbol domain.Symbol) *uint256.Int {
	h := e.Holding(trader, symbol)
	return h.Balance.Clone()
}

// LockedBalance returns the part of the trader's balance locked by resting
// orders.
func (e *Exchange) LockedBalance(trader common.Address, symbol domain.Symbol) *uint256.Int {
	h := e.Holding(trader, symbol)
	return h.Locked.Clone()
}

// Holding returns balance and locked together, read at the same instant.
func (e *Exchange) Holding(trader common.Address, symbol domain.Symbol) domain.Holding {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.ledger.Holding(trader, symbol)
}

// Order returns a copy of an order by ID, resting or historical.
func (e *Exchange) Order(id uint64) (domain.Order, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	o, err := e.orders.Get(id)
	if err != nil {
		return domain.Order{}, err
	}
	return *o, nil
}

// TraderOrders returns copies of a trader's orders newest first, with the
// total count before pagination.
func (e *Exchange) TraderOrders(trader common.Address, symbol *domain.Symbol, page, limit int) ([]domain.Order, int) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	orders, total := e.orders.ListByTrader(trader, symbol, page, limit)
	out := make([]domain.Order, len(orders))
	for i, o := range orders {
		out[i] = *o
	}
	return out, total
}

// Tokens returns the registered tokens in registration order.
func (e *Exchange) Tokens() []registry.Entry {
	return e.registry.List()
}

// Depth returns up to levels aggregated price levels per side.
func (e *Exchange) Depth(symbol domain.Symbol, levels int) (bids, asks []PriceLevel, err error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if _, err := e.tradable(symbol); err != nil {
		return nil, nil, err
	}
	book, ok := e.books.Get(symbol)
	if !ok {
		return []PriceLevel{}, []PriceLevel{}, nil
	}
	return book.Levels(domain.SideBuy, levels), book.Levels(domain.SideSell, levels), nil
}

// Quote simulates a market order without changing any state. It walks the
// book exactly like CreateMarketOrder would, step limit included.
func (e *Exchange) Quote(symbol domain.Symbol, side domain.Side, amount *uint256.Int) (*QuoteResult, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if _, err := e.tradable(symbol); err != nil {
		return nil, err
	}
	if amount.IsZero() {
		return nil, &domain.ValidationError{Message: "amount must be greater than 0"}
	}
	book, _ := e.books.Get(symbol)
	plan, err := planMarket(book, side, amount, e.maxMatchSteps)
	if err != nil {
		return nil, err
	}
	return quoteFromPlan(plan, amount), nil
}

// Trades returns up to limit of the most recent trades on symbol, oldest
// first. A limit of zero returns all of them.
func (e *Exchange) Trades(symbol domain.Symbol, limit int) ([]domain.Trade, error) {
	if _, err := e.registry.Resolve(symbol); err != nil {
		return nil, err
	}
	trades := e.trades.GetBySymbol(symbol, limit)
	out := make([]domain.Trade, len(trades))
	for i, t := range trades {
		out[i] = *t
	}
	return out, nil
}

// Reserves reports, for every registered token, the ledger total next to
// the custody balance. The two are equal unless tokens were sent to the
// custody account outside Deposit.
func (e *Exchange) Reserves(ctx context.Context, custody common.Address) ([]Reserve, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	entries := e.registry.List()
	out := make([]Reserve, 0, len(entries))
	for _, entry := range entries {
		held, err := entry.Token.BalanceOf(ctx, custody)
		if err != nil {
			return nil, err
		}
		out = append(out, Reserve{
			Symbol:  entry.Symbol,
			Ledger:  *e.ledger.Total(entry.Symbol),
			Custody: *held,
		})
	}
	return out, nil
}
