package engine

import (
	"fmt"
	"maps"
	"slices"

	"github.com/defistate/defistate-swap-go/ids"
	"github.com/holiman/uint256"
)

// World is the mutable ledger the engine reads and updates: per-token holdings
// and per-pool state.
//
// A World is not safe for concurrent use. The engine assumes at most one
// mutating call in flight against a given World.
type World[S State[S]] struct {
	holdings   map[ids.TokenID]*uint256.Int
	poolStates map[ids.PoolID]S
}

// NewWorld creates an empty World.
func NewWorld[S State[S]]() *World[S] {
	return &World[S]{
		holdings:   make(map[ids.TokenID]*uint256.Int),
		poolStates: make(map[ids.PoolID]S),
	}
}

// Balance returns a copy of the holding of token. Unknown tokens hold zero.
func (w *World[S]) Balance(token ids.TokenID) *uint256.Int {
	if b, ok := w.holdings[token]; ok {
		return b.Clone()
	}
	return new(uint256.Int)
}

// SetBalance overwrites the holding of token with a copy of amount.
func (w *World[S]) SetBalance(token ids.TokenID, amount *uint256.Int) {
	w.holdings[token] = amount.Clone()
}

// Credit adds amount to the holding of token, creating the entry if needed.
// It panics if the holding would exceed 2^256-1, which no real token supply can reach.
func (w *World[S]) Credit(token ids.TokenID, amount *uint256.Int) {
	b, ok := w.holdings[token]
	if !ok {
		w.holdings[token] = amount.Clone()
		return
	}
	if _, overflow := b.AddOverflow(b, amount); overflow {
		panic(fmt.Sprintf("holding of %s overflows uint256", token))
	}
}

// Debit subtracts amount from the holding of token.
func (w *World[S]) Debit(token ids.TokenID, amount *uint256.Int) error {
	b := w.holdings[token]
	if b == nil {
		b = new(uint256.Int)
	}
	if b.Lt(amount) {
		return fmt.Errorf("%w: %s holds %s, debit of %s", ErrInsufficientBalance, token, b.Dec(), amount.Dec())
	}
	if amount.IsZero() {
		return nil
	}
	b.Sub(b, amount)
	w.holdings[token] = b
	return nil
}

// PoolState returns the live state of a pool. The returned value is the one
// stored in the World, not a copy.
func (w *World[S]) PoolState(id ids.PoolID) (S, bool) {
	s, ok := w.poolStates[id]
	return s, ok
}

// SetPoolState seeds or replaces the state of a pool.
func (w *World[S]) SetPoolState(id ids.PoolID, state S) {
	w.poolStates[id] = state
}

// Holdings returns a deep copy of all holdings.
func (w *World[S]) Holdings() map[ids.TokenID]*uint256.Int {
	out := make(map[ids.TokenID]*uint256.Int, len(w.holdings))
	for token, b := range w.holdings {
		out[token] = b.Clone()
	}
	return out
}

// PoolIDs returns the IDs of every seeded pool in ascending order.
func (w *World[S]) PoolIDs() []ids.PoolID {
	return slices.Sorted(maps.Keys(w.poolStates))
}

// Clone returns a deep copy of the World.
func (w *World[S]) Clone() *World[S] {
	poolStates := make(map[ids.PoolID]S, len(w.poolStates))
	for id, s := range w.poolStates {
		poolStates[id] = s.Clone()
	}
	return &World[S]{
		holdings:   w.Holdings(),
		poolStates: poolStates,
	}
}
