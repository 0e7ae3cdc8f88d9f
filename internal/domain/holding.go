package domain

import "github.com/holiman/uint256"

// Holding is a trader's position in a single token. Locked is the part of
// Balance committed as collateral for resting orders.
type Holding struct {
	Balance uint256.Int
	Locked  uint256.Int
}

// Available returns the unlocked part of the balance.
func (h *Holding) Available() *uint256.Int {
	if h.Locked.Gt(&h.Balance) {
		return new(uint256.Int)
	}
	return new(uint256.Int).Sub(&h.Balance, &h.Locked)
}
