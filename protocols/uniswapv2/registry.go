package uniswapv2

import (
	"github.com/defistate/defistate-swap-go/ids"
	"github.com/holiman/uint256"
)

// Pool is the state of a constant-product pool.
type Pool struct {
	ID       ids.PoolID   `json:"id"`
	Token0   ids.TokenID  `json:"token0"`
	Token1   ids.TokenID  `json:"token1"`
	Reserve0 *uint256.Int `json:"reserve0"`
	Reserve1 *uint256.Int `json:"reserve1"`
	FeeBps   uint16       `json:"feeBps"` // i.e 30 for 0.3%
}

// Clone returns a deep copy of the pool.
func (p *Pool) Clone() *Pool {
	c := *p
	if p.Reserve0 != nil {
		c.Reserve0 = p.Reserve0.Clone()
	}
	if p.Reserve1 != nil {
		c.Reserve1 = p.Reserve1.Clone()
	}
	return &c
}

// HasPair reports whether the pool trades a against b, in either order.
func (p *Pool) HasPair(a, b ids.TokenID) bool {
	return (a == p.Token0 && b == p.Token1) || (a == p.Token1 && b == p.Token0)
}
