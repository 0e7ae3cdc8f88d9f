// Package token defines the capability the exchange needs from an external
// fungible token, and an in-process ERC20-style implementation of it.
package token

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"golang.org/x/crypto/sha3"
)

// Token is the narrow view of a token contract the exchange depends on.
// Custody is implicit: TransferIn moves funds from a trader into the
// exchange's custody and TransferOut moves them back.
type Token interface {
	TransferIn(ctx context.Context, from common.Address, amount *uint256.Int) error
	TransferOut(ctx context.Context, to common.Address, amount *uint256.Int) error
	BalanceOf(ctx context.Context, owner common.Address) (*uint256.Int, error)
}

// DeriveAddress returns the last 20 bytes of keccak256(label). The node
// uses it to give deployed tokens and its custody account stable addresses.
func DeriveAddress(label string) common.Address {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(label))
	return common.BytesToAddress(h.Sum(nil)[12:])
}
