// Package multipool lets a single engine.Engine route across pools of
// different kinds by boxing every pool state behind one State interface.
package multipool

import (
	"errors"
	"fmt"

	"github.com/defistate/defistate-swap-go/engine"
	"github.com/defistate/defistate-swap-go/ids"
	"github.com/defistate/defistate-swap-go/protocols/poolregistry"
	uniswapv2 "github.com/defistate/defistate-swap-go/protocols/uniswapv2"
	v2calc "github.com/defistate/defistate-swap-go/protocols/uniswapv2/calculator"
	uniswapv3 "github.com/defistate/defistate-swap-go/protocols/uniswapv3"
	v3calc "github.com/defistate/defistate-swap-go/protocols/uniswapv3/calculator"
	"github.com/holiman/uint256"
)

// ErrStateKindMismatch is returned when a pricer is handed the state of
// another pool kind.
var ErrStateKindMismatch = errors.New("pool state kind does not match pricer")

// State is the pool state of any supported pool kind.
type State interface {
	Clone() State
	Kind() poolregistry.Kind
}

// V2 boxes a constant-product pool state.
type V2 struct {
	Pool *uniswapv2.Pool
}

func (s V2) Clone() State            { return V2{Pool: s.Pool.Clone()} }
func (s V2) Kind() poolregistry.Kind { return poolregistry.KindUniswapV2 }

// V3 boxes a concentrated-liquidity pool state.
type V3 struct {
	Pool *uniswapv3.Pool
}

func (s V3) Clone() State            { return V3{Pool: s.Pool.Clone()} }
func (s V3) Kind() poolregistry.Kind { return poolregistry.KindUniswapV3 }

var _ engine.Pool[State] = (*Pricer)(nil)

// Pricer dispatches a swap to the pricer of its pool kind.
type Pricer struct {
	kind poolregistry.Kind
	v2   *v2calc.Pricer
	v3   *v3calc.Pricer
}

// NewV2Pricer binds a pricer to a constant-product pool.
func NewV2Pricer(pool *uniswapv2.Pool) *Pricer {
	return &Pricer{kind: poolregistry.KindUniswapV2, v2: v2calc.NewPricer(pool)}
}

// NewV3Pricer binds a pricer to a concentrated-liquidity pool.
func NewV3Pricer(pool *uniswapv3.Pool) *Pricer {
	return &Pricer{kind: poolregistry.KindUniswapV3, v3: v3calc.NewPricer(pool)}
}

// PricerFor builds the pricer matching a boxed state.
func PricerFor(state State) (*Pricer, error) {
	switch s := state.(type) {
	case V2:
		if s.Pool != nil {
			return NewV2Pricer(s.Pool), nil
		}
	case V3:
		if s.Pool != nil {
			return NewV3Pricer(s.Pool), nil
		}
	}
	return nil, fmt.Errorf("%w: no pricer for %T", ErrStateKindMismatch, state)
}

func (p *Pricer) ID() ids.PoolID {
	if p.v2 != nil {
		return p.v2.ID()
	}
	return p.v3.ID()
}

func (p *Pricer) Kind() poolregistry.Kind {
	return p.kind
}

func (p *Pricer) Supports(from, to ids.TokenID) bool {
	if p.v2 != nil {
		return p.v2.Supports(from, to)
	}
	return p.v3.Supports(from, to)
}

func (p *Pricer) Swap(state State, from, to ids.TokenID, amountIn *uint256.Int) (*uint256.Int, error) {
	switch s := state.(type) {
	case V2:
		if p.v2 != nil && s.Pool != nil {
			return p.v2.Swap(s.Pool, from, to, amountIn)
		}
	case V3:
		if p.v3 != nil && s.Pool != nil {
			return p.v3.Swap(s.Pool, from, to, amountIn)
		}
	}
	return nil, fmt.Errorf("%w: %s is %s, got %T", ErrStateKindMismatch, p.ID(), p.kind, state)
}
