package tokenregistry

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/defistate/defistate-swap-go/ids"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

var (
	ErrUnknownToken    = errors.New("unknown token")
	ErrAddressConflict = errors.New("address already registered to another token")
	ErrInvalidAmount   = errors.New("invalid amount")
)

// Registry provides fast, indexed access to token metadata.
// It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	byID      map[ids.TokenID]Token
	byAddress map[common.Address]ids.TokenID
}

// NewRegistry creates a registry holding tokens. It fails if two tokens share
// an address.
func NewRegistry(tokens []Token) (*Registry, error) {
	r := &Registry{
		byID:      make(map[ids.TokenID]Token, len(tokens)),
		byAddress: make(map[common.Address]ids.TokenID, len(tokens)),
	}
	for _, t := range tokens {
		if err := r.Upsert(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Upsert inserts t or replaces the token with the same ID.
func (r *Registry) Upsert(t Token) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if owner, ok := r.byAddress[t.Address]; ok && owner != t.ID {
		return fmt.Errorf("%w: %s is held by %s", ErrAddressConflict, t.Address.Hex(), owner)
	}
	if old, ok := r.byID[t.ID]; ok {
		delete(r.byAddress, old.Address)
	}
	r.byID[t.ID] = t
	r.byAddress[t.Address] = t.ID
	return nil
}

// GetByID retrieves a token by its unique ID.
func (r *Registry) GetByID(id ids.TokenID) (Token, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byID[id]
	return t, ok
}

// GetByAddress retrieves a token by its contract address.
func (r *Registry) GetByAddress(address common.Address) (Token, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byAddress[address]
	if !ok {
		return Token{}, false
	}
	return r.byID[id], true
}

// All returns a copy of every token, ordered by ID.
func (r *Registry) All() []Token {
	r.mu.RLock()
	all := make([]Token, 0, len(r.byID))
	for _, t := range r.byID {
		all = append(all, t)
	}
	r.mu.RUnlock()

	slices.SortFunc(all, func(a, b Token) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return all
}

// FormatAmount converts a raw on-chain amount of token id into whole units,
// e.g. 1500000 USDC (6 decimals) becomes 1.5.
func (r *Registry) FormatAmount(id ids.TokenID, amount *uint256.Int) (decimal.Decimal, error) {
	t, ok := r.GetByID(id)
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnknownToken, id)
	}
	if amount == nil {
		return decimal.Zero, fmt.Errorf("%w: nil", ErrInvalidAmount)
	}
	return decimal.NewFromBigInt(amount.ToBig(), -int32(t.Decimals)), nil
}

// ParseAmount is the inverse of FormatAmount: it turns a decimal string of
// whole units into a raw amount. Amounts finer than the token's decimals,
// negative amounts and amounts beyond 256 bits are rejected.
func (r *Registry) ParseAmount(id ids.TokenID, s string) (*uint256.Int, error) {
	t, ok := r.GetByID(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownToken, id)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidAmount, s, err)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("%w: %q is negative", ErrInvalidAmount, s)
	}

	raw := d.Shift(int32(t.Decimals))
	if !raw.IsInteger() {
		return nil, fmt.Errorf("%w: %q has more than %d decimals", ErrInvalidAmount, s, t.Decimals)
	}
	amount, overflow := uint256.FromBig(raw.BigInt())
	if overflow {
		return nil, fmt.Errorf("%w: %q overflows 256 bits", ErrInvalidAmount, s)
	}
	return amount, nil
}
