package domain

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Trade records one fill between a resting maker order and a taker.
type Trade struct {
	TradeID      string
	Symbol       Symbol
	MakerOrderID uint64
	TakerOrderID uint64
	Maker        common.Address
	Taker        common.Address
	TakerSide    Side
	Amount       uint256.Int // base units
	Price        uint256.Int // maker's price
	ExecutedAt   time.Time
}

// Cost returns the quote amount exchanged by the trade. Settlement already
// checked the product for overflow, so it cannot wrap here.
func (t *Trade) Cost() *uint256.Int {
	return new(uint256.Int).Mul(&t.Amount, &t.Price)
}
