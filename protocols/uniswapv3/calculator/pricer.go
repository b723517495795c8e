package uniswapv3

import (
	"fmt"

	"github.com/defistate/defistate-swap-go/ids"
	uniswapv3 "github.com/defistate/defistate-swap-go/protocols/uniswapv3"
	"github.com/holiman/uint256"
)

// Pricer is the concentrated-liquidity pricing capability of a single pool.
// Price, tick and liquidity live in the *uniswapv3.Pool passed to Swap.
type Pricer struct {
	id     ids.PoolID
	token0 ids.TokenID
	token1 ids.TokenID
}

// NewPricer binds a pricer to the identity and token pair of pool.
func NewPricer(pool *uniswapv3.Pool) *Pricer {
	return &Pricer{id: pool.ID, token0: pool.Token0, token1: pool.Token1}
}

func (p *Pricer) ID() ids.PoolID {
	return p.id
}

func (p *Pricer) Supports(from, to ids.TokenID) bool {
	return (from == p.token0 && to == p.token1) || (from == p.token1 && to == p.token0)
}

// Swap runs an exact-input swap with no price limit and moves the pool to the
// resulting price. A swap the pool cannot fill leaves state untouched.
func (p *Pricer) Swap(state *uniswapv3.Pool, from, to ids.TokenID, amountIn *uint256.Int) (*uint256.Int, error) {
	if !state.HasPair(from, to) || from == to {
		return nil, fmt.Errorf("%w: %s does not contain the pair %s -> %s", ErrTokenMismatch, state.ID, from, to)
	}
	amountOut, next, err := SimulateExactInSwap(amountIn, nil, from, state)
	if err != nil {
		return nil, err
	}
	*state = *next
	return amountOut, nil
}
