package engine

import (
	"context"
	"fmt"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"pgregory.net/rapid"

	"github.com/efreitasn/dex/internal/domain"
)

var (
	propTraders = []common.Address{trader1, trader2, trader3}
	propSymbols = []domain.Symbol{"DAI", "BAT", "REP"}
)

const propMint = 1_000

// checkInvariants verifies every ledger, book and custody invariant of the
// exchange after an operation.
func checkInvariants(t *rapid.T, f *fixture, limitIDs []uint64) {
	ctx := context.Background()

	for _, r := range f.ledger.Records() {
		if r.Holding.Locked.Gt(&r.Holding.Balance) {
			t.Fatalf("%s %s: locked %s > balance %s", r.Trader.Hex(), r.Symbol, r.Holding.Locked.Dec(), r.Holding.Balance.Dec())
		}
	}

	for _, sym := range propSymbols {
		erc := f.tokens[sym]
		held, _ := erc.Custody(custody).BalanceOf(ctx, custody)
		if total := f.ledger.Total(sym); !total.Eq(held) {
			t.Fatalf("%s: ledger total %s != custody %s", sym, total.Dec(), held.Dec())
		}

		// Tokens are only ever moved, never created or destroyed.
		sum := new(uint256.Int).Set(held)
		for _, tr := range propTraders {
			sum.Add(sum, erc.BalanceOf(tr))
		}
		if sum.Uint64() != propMint*uint64(len(propTraders)) {
			t.Fatalf("%s: supply changed to %s", sym, sum.Dec())
		}
	}

	for _, sym := range []domain.Symbol{"BAT", "REP"} {
		book, _ := f.ex.books.Get(sym)
		checkSorted(t, book, domain.SideBuy)
		checkSorted(t, book, domain.SideSell)
	}

	for _, id := range limitIDs {
		o, err := f.ex.Order(id)
		if err != nil {
			t.Fatalf("order %d: %v", id, err)
		}
		if o.Filled.Gt(&o.Amount) {
			t.Fatalf("order %d: filled %s > amount %s", id, o.Filled.Dec(), o.Amount.Dec())
		}
		book, _ := f.ex.books.Get(o.Symbol)
		if resting := book.Contains(id); resting == o.IsFilled() {
			t.Fatalf("order %d: resting=%v but filled=%s of %s", id, resting, o.Filled.Dec(), o.Amount.Dec())
		}
	}
}

// snapshot captures everything a failing operation must leave unchanged.
type snapshot struct {
	holdings map[string]domain.Holding
	books    map[string]int
}

func takeSnapshot(f *fixture) snapshot {
	s := snapshot{holdings: make(map[string]domain.Holding), books: make(map[string]int)}
	for _, tr := range propTraders {
		for _, sym := range propSymbols {
			s.holdings[tr.Hex()+string(sym)] = f.ex.Holding(tr, sym)
		}
	}
	for _, sym := range []domain.Symbol{"BAT", "REP"} {
		for _, side := range []domain.Side{domain.SideBuy, domain.SideSell} {
			for _, o := range f.ex.Orders(sym, side) {
				s.books[fmt.Sprintf("%d", o.ID)] = int(o.Filled.Uint64())
			}
		}
	}
	return s
}

func (s snapshot) equal(o snapshot) bool {
	if len(s.books) != len(o.books) {
		return false
	}
	for k, v := range s.books {
		if o.books[k] != v {
			return false
		}
	}
	for k, h := range s.holdings {
		g := o.holdings[k]
		if !h.Balance.Eq(&g.Balance) || !h.Locked.Eq(&g.Locked) {
			return false
		}
	}
	return true
}

func TestProperty_RandomOperationsKeepInvariants(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		f := newFixture(t, rapid.IntRange(0, 4).Draw(t, "maxMatchSteps"))
		ctx := context.Background()
		for _, tr := range propTraders {
			for _, sym := range propSymbols {
				f.mint(t, tr, sym, propMint)
			}
		}

		var limitIDs []uint64
		steps := rapid.IntRange(1, 60).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			tr := rapid.SampledFrom(propTraders).Draw(t, "trader")
			sym := rapid.SampledFrom(propSymbols).Draw(t, "symbol")
			side := domain.Side(rapid.IntRange(0, 1).Draw(t, "side"))
			amount := u(rapid.Uint64Range(0, 120).Draw(t, "amount"))
			price := u(rapid.Uint64Range(0, 12).Draw(t, "price"))

			before := takeSnapshot(f)
			var err error
			switch rapid.IntRange(0, 3).Draw(t, "op") {
			case 0:
				_, err = f.ex.Deposit(ctx, tr, sym, amount)
			case 1:
				_, err = f.ex.Withdraw(ctx, tr, sym, amount)
			case 2:
				var o domain.Order
				o, err = f.ex.CreateLimitOrder(tr, sym, side, amount, price)
				if err == nil {
					limitIDs = append(limitIDs, o.ID)
				}
			case 3:
				var res *MarketResult
				res, err = f.ex.CreateMarketOrder(tr, sym, side, amount)
				if err == nil && res.Order.Filled.Gt(amount) {
					t.Fatalf("market order filled %s of %s", res.Order.Filled.Dec(), amount.Dec())
				}
			}
			if err != nil && !before.equal(takeSnapshot(f)) {
				t.Fatalf("failed operation (%v) changed state", err)
			}

			checkInvariants(t, f, limitIDs)
		}
	})
}

func TestProperty_OrdersIsPureRead(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		f := newFixture(t, 0)
		f.fund(t, trader1, "BAT", propMint)
		n := rapid.IntRange(1, 20).Draw(t, "orders")
		for i := 0; i < n; i++ {
			price := rapid.Uint64Range(1, 20).Draw(t, fmt.Sprintf("price-%d", i))
			f.limit(t, trader1, "BAT", domain.SideSell, 1, price)
		}

		first := prices(f.ex.Orders("BAT", domain.SideSell))
		second := prices(f.ex.Orders("BAT", domain.SideSell))
		if !equalUint64s(first, second) {
			t.Fatalf("repeated reads differ: %v vs %v", first, second)
		}
	})
}
