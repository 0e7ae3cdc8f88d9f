package domain

import (
	"regexp"

	"github.com/holiman/uint256"
)

var amountRegex = regexp.MustCompile(`^[0-9]{1,78}$`)

// ParseAmount parses a base-10 token amount expressed in the token's
// smallest unit. No decimal point or scaling is applied.
func ParseAmount(s string) (*uint256.Int, error) {
	if !amountRegex.MatchString(s) {
		return nil, &ValidationError{
			Message: "amount must be a non-negative base-10 integer",
		}
	}
	v := new(uint256.Int)
	if err := v.SetFromDecimal(s); err != nil {
		return nil, ErrAmountOverflow
	}
	return v, nil
}

// Mul returns x*y, or ErrAmountOverflow when the product does not fit in
// 256 bits.
func Mul(x, y *uint256.Int) (*uint256.Int, error) {
	z, overflow := new(uint256.Int).MulOverflow(x, y)
	if overflow {
		return nil, ErrAmountOverflow
	}
	return z, nil
}

// Add returns x+y, or ErrAmountOverflow when the sum does not fit in
// 256 bits.
func Add(x, y *uint256.Int) (*uint256.Int, error) {
	z, overflow := new(uint256.Int).AddOverflow(x, y)
	if overflow {
		return nil, ErrAmountOverflow
	}
	return z, nil
}

// Min returns a copy of the smaller of x and y.
func Min(x, y *uint256.Int) *uint256.Int {
	if x.Lt(y) {
		return x.Clone()
	}
	return y.Clone()
}
