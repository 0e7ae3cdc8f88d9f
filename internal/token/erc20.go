package token

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/efreitasn/dex/internal/domain"
)

// ERC20 is an in-process fungible token with balances and allowances.
// It is safe for concurrent use.
type ERC20 struct {
	symbol  string
	address common.Address

	mu         sync.Mutex
	balances   map[common.Address]*uint256.Int
	allowances map[common.Address]map[common.Address]*uint256.Int // owner → spender → amount
}

// NewERC20 creates a token with zero supply at the given address.
func NewERC20(symbol string, address common.Address) *ERC20 {
	return &ERC20{
		symbol:     symbol,
		address:    address,
		balances:   make(map[common.Address]*uint256.Int),
		allowances: make(map[common.Address]map[common.Address]*uint256.Int),
	}
}

// Symbol returns the token's ticker.
func (t *ERC20) Symbol() string {
	return t.symbol
}

// Address returns the token's contract address.
func (t *ERC20) Address() common.Address {
	return t.address
}

// Faucet mints amount to the given account.
func (t *ERC20) Faucet(to common.Address, amount *uint256.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	sum, err := domain.Add(t.balanceLocked(to), amount)
	if err != nil {
		return err
	}
	t.balances[to] = sum
	return nil
}

// Approve sets the amount spender may move out of owner's balance.
func (t *ERC20) Approve(owner, spender common.Address, amount *uint256.Int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.allowances[owner] == nil {
		t.allowances[owner] = make(map[common.Address]*uint256.Int)
	}
	t.allowances[owner][spender] = amount.Clone()
}

// Allowance returns the amount spender may still move out of owner's balance.
func (t *ERC20) Allowance(owner, spender common.Address) *uint256.Int {
	t.mu.Lock()
	defer t.mu.Unlock()

	if a, ok := t.allowances[owner][spender]; ok {
		return a.Clone()
	}
	return new(uint256.Int)
}

// BalanceOf returns the balance held by owner.
func (t *ERC20) BalanceOf(owner common.Address) *uint256.Int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.balanceLocked(owner).Clone()
}

// Transfer moves amount from one account to another.
func (t *ERC20) Transfer(from, to common.Address, amount *uint256.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.transferLocked(from, to, amount)
}

// TransferFrom moves amount from owner to recipient on behalf of spender,
// consuming spender's allowance.
func (t *ERC20) TransferFrom(spender, from, to common.Address, amount *uint256.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	allowance, ok := t.allowances[from][spender]
	if !ok || allowance.Lt(amount) {
		return domain.ErrInsufficientAllowance
	}
	if err := t.transferLocked(from, to, amount); err != nil {
		return err
	}
	allowance.Sub(allowance, amount)
	return nil
}

// Custody adapts the token to the exchange's Token capability, holding
// deposited funds at the custody address.
func (t *ERC20) Custody(custody common.Address) Token {
	return &custodyToken{erc20: t, custody: custody}
}

func (t *ERC20) balanceLocked(owner common.Address) *uint256.Int {
	if b, ok := t.balances[owner]; ok {
		return b
	}
	return new(uint256.Int)
}

func (t *ERC20) transferLocked(from, to common.Address, amount *uint256.Int) error {
	fromBal := t.balanceLocked(from)
	if fromBal.Lt(amount) {
		return domain.ErrTokenBalance
	}
	if from == to {
		return nil
	}
	toBal, err := domain.Add(t.balanceLocked(to), amount)
	if err != nil {
		return err
	}
	t.balances[from] = new(uint256.Int).Sub(fromBal, amount)
	t.balances[to] = toBal
	return nil
}

// custodyToken is the exchange-facing view of an ERC20.
type custodyToken struct {
	erc20   *ERC20
	custody common.Address
}

func (c *custodyToken) TransferIn(_ context.Context, from common.Address, amount *uint256.Int) error {
	return c.erc20.TransferFrom(c.custody, from, c.custody, amount)
}

func (c *custodyToken) TransferOut(_ context.Context, to common.Address, amount *uint256.Int) error {
	return c.erc20.Transfer(c.custody, to, amount)
}

func (c *custodyToken) BalanceOf(_ context.Context, owner common.Address) (*uint256.Int, error) {
	return c.erc20.BalanceOf(owner), nil
}
