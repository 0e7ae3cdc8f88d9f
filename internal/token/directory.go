package token

import (
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/efreitasn/dex/internal/domain"
)

// Directory tracks the tokens deployed in this process, keyed by address.
type Directory struct {
	mu     sync.RWMutex
	tokens map[common.Address]*ERC20
}

// NewDirectory creates an empty Directory.
func NewDirectory() *Directory {
	return &Directory{
		tokens: make(map[common.Address]*ERC20),
	}
}

// Deploy creates a token for symbol at its derived address. Deploying the
// same symbol twice returns the existing token.
func (d *Directory) Deploy(symbol string) *ERC20 {
	addr := DeriveAddress("token:" + symbol)

	d.mu.Lock()
	defer d.mu.Unlock()

	if t, ok := d.tokens[addr]; ok {
		return t
	}
	t := NewERC20(symbol, addr)
	d.tokens[addr] = t
	return t
}

// Get returns the token deployed at addr, or
// domain.ErrTokenContractNotFound.
func (d *Directory) Get(addr common.Address) (*ERC20, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	t, ok := d.tokens[addr]
	if !ok {
		return nil, domain.ErrTokenContractNotFound
	}
	return t, nil
}

// List returns deployed tokens ordered by symbol.
func (d *Directory) List() []*ERC20 {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]*ERC20, 0, len(d.tokens))
	for _, t := range d.tokens {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].symbol < out[j].symbol })
	return out
}
