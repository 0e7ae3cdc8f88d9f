package engine

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/efreitasn/dex/internal/domain"
	"github.com/efreitasn/dex/internal/ledger"
)

// Fill is one planned execution against a resting maker order at the
// maker's price.
type Fill struct {
	Maker  *domain.Order
	Amount uint256.Int // base units
	Cost   uint256.Int // Amount × Maker.Price
}

// Plan is the read-only outcome of walking the book for a market order.
// Nothing in the book or ledger changes while a plan is built.
type Plan struct {
	Fills     []Fill
	Filled    uint256.Int // total base units matched
	Cost      uint256.Int // total quote units exchanged
	Truncated bool        // the step limit stopped the walk with liquidity left
}

// Unfilled returns how much of amount the plan leaves unmatched.
func (p *Plan) Unfilled(amount *uint256.Int) *uint256.Int {
	return new(uint256.Int).Sub(amount, &p.Filled)
}

// planMarket walks the side opposite to takerSide in priority order,
// consuming at most maxSteps maker orders (0 means unbounded). A nil book
// yields an empty plan.
func planMarket(book *OrderBook, takerSide domain.Side, amount *uint256.Int, maxSteps int) (*Plan, error) {
	plan := &Plan{}
	if book == nil {
		return plan, nil
	}

	remaining := amount.Clone()
	var err error
	book.Walk(takerSide.Opposite(), func(entry OrderBookEntry) bool {
		if remaining.IsZero() {
			return false
		}
		if maxSteps > 0 && len(plan.Fills) >= maxSteps {
			plan.Truncated = true
			return false
		}

		q := domain.Min(remaining, entry.Order.Remaining())
		cost, mulErr := domain.Mul(q, &entry.Price)
		if mulErr != nil {
			err = mulErr
			return false
		}
		total, addErr := domain.Add(&plan.Cost, cost)
		if addErr != nil {
			err = addErr
			return false
		}

		plan.Cost = *total
		plan.Filled.Add(&plan.Filled, q)
		plan.Fills = append(plan.Fills, Fill{
			Maker:  entry.Order,
			Amount: *q,
			Cost:   *cost,
		})
		remaining.Sub(remaining, q)
		return true
	})
	if err != nil {
		return nil, err
	}
	return plan, nil
}

// settle applies every fill of the plan to the ledger transaction. The
// maker's collateral was locked when the order was placed, so it is spent
// from locked funds; the taker pays from available funds.
func settle(tx *ledger.Tx, quote, symbol domain.Symbol, taker common.Address, takerSide domain.Side, plan *Plan) error {
	for i := range plan.Fills {
		f := &plan.Fills[i]
		maker := f.Maker.Trader

		if takerSide == domain.SideSell {
			// Maker bought base with locked quote.
			if err := tx.SpendLocked(maker, quote, &f.Cost); err != nil {
				return err
			}
			if err := tx.Credit(maker, symbol, &f.Amount); err != nil {
				return err
			}
			if err := tx.Debit(taker, symbol, &f.Amount); err != nil {
				return domain.ErrInsufficientBase
			}
			if err := tx.Credit(taker, quote, &f.Cost); err != nil {
				return err
			}
			continue
		}

		// Maker sold locked base for quote.
		if err := tx.SpendLocked(maker, symbol, &f.Amount); err != nil {
			return err
		}
		if err := tx.Credit(maker, quote, &f.Cost); err != nil {
			return err
		}
		if err := tx.Debit(taker, quote, &f.Cost); err != nil {
			return &domain.QuoteError{Err: domain.ErrInsufficientQuote, Quote: quote, Market: true}
		}
		if err := tx.Credit(taker, symbol, &f.Amount); err != nil {
			return err
		}
	}
	return nil
}

// apply records the plan's fills on the maker orders and removes the ones
// that are now complete. It must only run after the settlement committed.
// It returns copies of the makers that were completely filled.
func apply(book *OrderBook, plan *Plan) []domain.Order {
	var completed []domain.Order
	for i := range plan.Fills {
		f := &plan.Fills[i]
		m := f.Maker
		m.Filled.Add(&m.Filled, &f.Amount)
		if m.IsFilled() {
			book.Remove(m.ID)
			completed = append(completed, *m)
		}
	}
	return completed
}

// QuotePriceLevel represents a single price level in a quote simulation.
type QuotePriceLevel struct {
	Price  uint256.Int
	Amount uint256.Int
}

// QuoteResult holds the result of a market order simulation.
type QuoteResult struct {
	AmountAvailable   uint256.Int
	FullyFillable     bool
	EstimatedAvgPrice *uint256.Int // nil when no liquidity
	EstimatedTotal    *uint256.Int // nil when no liquidity
	PriceLevels       []QuotePriceLevel
}

// quoteFromPlan aggregates a plan into price levels. The average price is
// truncated toward zero.
func quoteFromPlan(plan *Plan, amount *uint256.Int) *QuoteResult {
	result := &QuoteResult{
		AmountAvailable: plan.Filled,
		FullyFillable:   !plan.Filled.Lt(amount),
		PriceLevels:     make([]QuotePriceLevel, 0),
	}
	for i := range plan.Fills {
		f := &plan.Fills[i]
		n := len(result.PriceLevels)
		if n > 0 && result.PriceLevels[n-1].Price.Eq(&f.Maker.Price) {
			result.PriceLevels[n-1].Amount.Add(&result.PriceLevels[n-1].Amount, &f.Amount)
			continue
		}
		result.PriceLevels = append(result.PriceLevels, QuotePriceLevel{
			Price:  f.Maker.Price,
			Amount: f.Amount,
		})
	}
	if !plan.Filled.IsZero() {
		result.EstimatedAvgPrice = new(uint256.Int).Div(&plan.Cost, &plan.Filled)
		result.EstimatedTotal = plan.Cost.Clone()
	}
	return result
}
