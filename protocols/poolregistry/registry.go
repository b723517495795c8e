package poolregistry

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/defistate/defistate-swap-go/ids"
	"github.com/ethereum/go-ethereum/common"
)

// Kind names the pricing model of a pool.
type Kind string

const (
	KindUniswapV2 Kind = "uniswapv2"
	KindUniswapV3 Kind = "uniswapv3"
)

// Valid reports whether k is a supported pool kind.
func (k Kind) Valid() bool {
	return k == KindUniswapV2 || k == KindUniswapV3
}

func (k Kind) String() string {
	return string(k)
}

var (
	ErrUnknownKind     = errors.New("unknown pool kind")
	ErrAddressConflict = errors.New("address already registered to another pool")
	ErrInvalidPool     = errors.New("invalid pool")
)

// Pool is the metadata of a single pool.
type Pool struct {
	ID      ids.PoolID     `json:"id" yaml:"id" toml:"id"`
	Address common.Address `json:"address" yaml:"address" toml:"address"`
	Kind    Kind           `json:"kind" yaml:"kind" toml:"kind"`
	Token0  ids.TokenID    `json:"token0" yaml:"token0" toml:"token0"`
	Token1  ids.TokenID    `json:"token1" yaml:"token1" toml:"token1"`
	Fee     uint32         `json:"fee" yaml:"fee" toml:"fee"` // bps for uniswapv2, pips for uniswapv3
}

// Registry provides fast, indexed access to pool metadata.
// It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	byID      map[ids.PoolID]Pool
	byAddress map[common.Address]ids.PoolID
}

// NewRegistry creates a registry holding pools.
func NewRegistry(pools []Pool) (*Registry, error) {
	r := &Registry{
		byID:      make(map[ids.PoolID]Pool, len(pools)),
		byAddress: make(map[common.Address]ids.PoolID, len(pools)),
	}
	for _, p := range pools {
		if err := r.Upsert(p); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Upsert inserts p or replaces the pool with the same ID.
func (r *Registry) Upsert(p Pool) error {
	if !p.Kind.Valid() {
		return fmt.Errorf("%w: %q for %s", ErrUnknownKind, p.Kind, p.ID)
	}
	if p.Token0 == p.Token1 {
		return fmt.Errorf("%w: %s trades %s against itself", ErrInvalidPool, p.ID, p.Token0)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if owner, ok := r.byAddress[p.Address]; ok && owner != p.ID {
		return fmt.Errorf("%w: %s is held by %s", ErrAddressConflict, p.Address.Hex(), owner)
	}
	if old, ok := r.byID[p.ID]; ok {
		delete(r.byAddress, old.Address)
	}
	r.byID[p.ID] = p
	r.byAddress[p.Address] = p.ID
	return nil
}

// GetByID retrieves a pool by its unique ID.
func (r *Registry) GetByID(id ids.PoolID) (Pool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byID[id]
	return p, ok
}

// GetByAddress retrieves a pool by its contract address.
func (r *Registry) GetByAddress(address common.Address) (Pool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byAddress[address]
	if !ok {
		return Pool{}, false
	}
	return r.byID[id], true
}

// All returns a copy of every pool, ordered by ID.
func (r *Registry) All() []Pool {
	r.mu.RLock()
	all := make([]Pool, 0, len(r.byID))
	for _, p := range r.byID {
		all = append(all, p)
	}
	r.mu.RUnlock()

	slices.SortFunc(all, func(a, b Pool) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return all
}
