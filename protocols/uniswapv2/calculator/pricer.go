package uniswapv2

import (
	"github.com/defistate/defistate-swap-go/ids"
	uniswapv2 "github.com/defistate/defistate-swap-go/protocols/uniswapv2"
	"github.com/holiman/uint256"
)

// Pricer is the constant-product pricing capability of a single pool. It is
// stateless; reserves live in the *uniswapv2.Pool passed to Swap.
type Pricer struct {
	id     ids.PoolID
	token0 ids.TokenID
	token1 ids.TokenID
}

// NewPricer binds a pricer to the identity and token pair of pool.
func NewPricer(pool *uniswapv2.Pool) *Pricer {
	return &Pricer{id: pool.ID, token0: pool.Token0, token1: pool.Token1}
}

func (p *Pricer) ID() ids.PoolID {
	return p.id
}

// Supports reports whether from -> to is one of the pool's two directions.
func (p *Pricer) Supports(from, to ids.TokenID) bool {
	return (from == p.token0 && to == p.token1) || (from == p.token1 && to == p.token0)
}

// Swap prices amountIn against state and moves the reserves accordingly.
func (p *Pricer) Swap(state *uniswapv2.Pool, from, to ids.TokenID, amountIn *uint256.Int) (*uint256.Int, error) {
	amountOut, next, err := SimulateSwap(amountIn, from, to, state)
	if err != nil {
		return nil, err
	}
	*state = *next
	return amountOut, nil
}
