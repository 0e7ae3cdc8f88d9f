package domain

import (
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// OrderType distinguishes limit orders from market orders.
type OrderType string

const (
	OrderTypeLimit  OrderType = "limit"
	OrderTypeMarket OrderType = "market"
)

// Side indicates whether an order buys or sells the base token. The
// numeric values are part of the public interface.
type Side uint8

const (
	SideBuy  Side = 0
	SideSell Side = 1
)

func (s Side) String() string {
	switch s {
	case SideBuy:
		return "BUY"
	case SideSell:
		return "SELL"
	}
	return "UNKNOWN"
}

// Opposite returns the side a taker on s trades against.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// ParseSide accepts BUY/SELL in any case, or the numeric forms 0/1.
func ParseSide(v string) (Side, error) {
	switch strings.ToUpper(v) {
	case "BUY", "0":
		return SideBuy, nil
	case "SELL", "1":
		return SideSell, nil
	}
	return 0, &ValidationError{Message: "side must be 'BUY' or 'SELL'"}
}

// Order is a trader's instruction to buy or sell Amount units of Symbol.
// Limit orders rest on the book until Filled reaches Amount; market orders
// are never stored in the book.
type Order struct {
	ID        uint64
	Type      OrderType
	Trader    common.Address
	Symbol    Symbol
	Side      Side
	Price     uint256.Int // quote units per base unit, zero for market orders
	Amount    uint256.Int
	Filled    uint256.Int
	Sequence  uint64 // arrival index, breaks price ties
	CreatedAt time.Time
}

// Remaining returns Amount - Filled.
func (o *Order) Remaining() *uint256.Int {
	return new(uint256.Int).Sub(&o.Amount, &o.Filled)
}

// IsFilled reports whether the order has nothing left to trade.
func (o *Order) IsFilled() bool {
	return !o.Filled.Lt(&o.Amount)
}
