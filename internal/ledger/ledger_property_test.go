package ledger

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"pgregory.net/rapid"

	"github.com/efreitasn/dex/internal/domain"
)

// Locked never exceeds balance, whatever sequence of primitives runs and
// whether or not each transaction commits.
func TestProperty_LockedNeverExceedsBalance(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		l := New()
		traders := []common.Address{trader1, trader2}
		symbols := []domain.Symbol{"DAI", "BAT"}

		steps := rapid.IntRange(1, 60).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			tx := l.Begin()
			ops := rapid.IntRange(1, 5).Draw(t, "ops")
			for j := 0; j < ops; j++ {
				tr := traders[rapid.IntRange(0, 1).Draw(t, "trader")]
				sym := symbols[rapid.IntRange(0, 1).Draw(t, "symbol")]
				amt := uint256.NewInt(rapid.Uint64Range(0, 500).Draw(t, "amount"))
				switch rapid.IntRange(0, 4).Draw(t, "op") {
				case 0:
					_ = tx.Credit(tr, sym, amt)
				case 1:
					_ = tx.Debit(tr, sym, amt)
				case 2:
					_ = tx.Lock(tr, sym, amt)
				case 3:
					tx.Unlock(tr, sym, amt)
				case 4:
					_ = tx.SpendLocked(tr, sym, amt)
				}
			}
			if rapid.Bool().Draw(t, "commit") {
				tx.Commit()
			}

			for _, r := range l.Records() {
				if r.Holding.Locked.Gt(&r.Holding.Balance) {
					t.Fatalf("locked %s > balance %s for %s/%s",
						r.Holding.Locked.Dec(), r.Holding.Balance.Dec(), r.Trader.Hex(), r.Symbol)
				}
			}
		}
	})
}
