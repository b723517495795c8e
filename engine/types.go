package engine

import (
	"github.com/defistate/defistate-swap-go/ids"
	"github.com/holiman/uint256"
)

// Pool is the pricing capability of a single liquidity pool.
//
// A Pool owns no shared state. Everything it needs to price a swap lives in the
// pool-state value S handed to Swap, which is why S is expected to be a pointer
// (or another reference type): Swap updates it in place.
//
// CONTRACT for Swap:
// 1. It may read and update state, and nothing else.
// 2. It must not modify state when it returns an error.
// 3. On success it returns a non-nil amount; the result is a pure function of
// (state, from, to, amountIn).
type Pool[S any] interface {
	ID() ids.PoolID
	Supports(from, to ids.TokenID) bool
	Swap(state S, from, to ids.TokenID, amountIn *uint256.Int) (*uint256.Int, error)
}

// State is the constraint every pool-state type satisfies. Clone must return a
// deep copy that shares no mutable memory with the receiver.
type State[S any] interface {
	Clone() S
}

// Hop is one declared leg of a route. It carries no amount.
type Hop struct {
	Pool ids.PoolID  `json:"pool"`
	From ids.TokenID `json:"from"`
	To   ids.TokenID `json:"to"`
}

// AmountHop is a Hop with a caller-fixed input amount, used by ExecutePath.
type AmountHop struct {
	Hop
	AmountIn *uint256.Int `json:"amountIn"`
}

// Step is the realized record of one evaluated hop.
type Step struct {
	Pool      ids.PoolID   `json:"pool"`
	From      ids.TokenID  `json:"from"`
	To        ids.TokenID  `json:"to"`
	AmountIn  *uint256.Int `json:"amountIn"`
	AmountOut *uint256.Int `json:"amountOut"`
}

// Path is the ordered list of steps produced by evaluating a route.
type Path struct {
	Steps []Step `json:"steps"`
}

// Len returns the number of steps.
func (p Path) Len() int {
	return len(p.Steps)
}

// TokenIn is the asset the path starts from. It is zero for an empty path.
func (p Path) TokenIn() ids.TokenID {
	if len(p.Steps) == 0 {
		return 0
	}
	return p.Steps[0].From
}

// TokenOut is the asset the path ends in. It is zero for an empty path.
func (p Path) TokenOut() ids.TokenID {
	if len(p.Steps) == 0 {
		return 0
	}
	return p.Steps[len(p.Steps)-1].To
}

// AmountIn returns a copy of the first step's input amount.
func (p Path) AmountIn() *uint256.Int {
	if len(p.Steps) == 0 {
		return new(uint256.Int)
	}
	return p.Steps[0].AmountIn.Clone()
}

// AmountOut returns a copy of the last step's output amount.
func (p Path) AmountOut() *uint256.Int {
	if len(p.Steps) == 0 {
		return new(uint256.Int)
	}
	return p.Steps[len(p.Steps)-1].AmountOut.Clone()
}

// Hops strips the amounts from a path.
func (p Path) Hops() []Hop {
	hops := make([]Hop, len(p.Steps))
	for i, s := range p.Steps {
		hops[i] = Hop{Pool: s.Pool, From: s.From, To: s.To}
	}
	return hops
}
