package uniswapv3

import (
	"cmp"
	"math/big"
	"slices"

	"github.com/defistate/defistate-swap-go/ids"
	"github.com/holiman/uint256"
)

// TickInfo is an initialized tick of a pool. LiquidityNet is signed: it is
// added to the active liquidity when the price crosses the tick upwards and
// subtracted when it crosses downwards.
type TickInfo struct {
	Index        int64    `json:"index"`
	LiquidityNet *big.Int `json:"liquidityNet"`
}

// Pool is the state of one concentrated-liquidity pool.
//
// Ticks must be sorted by Index in ascending order and contain only
// initialized ticks. Swaps update Tick, Liquidity and SqrtPriceX96; they never
// touch Ticks.
type Pool struct {
	ID           ids.PoolID   `json:"id"`
	Token0       ids.TokenID  `json:"token0"`
	Token1       ids.TokenID  `json:"token1"`
	Fee          uint32       `json:"fee"` // in hundredths of a bip, 3000 = 0.3%
	TickSpacing  int64        `json:"tickSpacing"`
	Tick         int64        `json:"tick"`
	Liquidity    *uint256.Int `json:"liquidity"`
	SqrtPriceX96 *uint256.Int `json:"sqrtPriceX96"`
	Ticks        []TickInfo   `json:"ticks"`
}

// Clone returns a deep copy of the pool.
func (p *Pool) Clone() *Pool {
	c := *p
	if p.Liquidity != nil {
		c.Liquidity = p.Liquidity.Clone()
	}
	if p.SqrtPriceX96 != nil {
		c.SqrtPriceX96 = p.SqrtPriceX96.Clone()
	}
	if p.Ticks != nil {
		c.Ticks = make([]TickInfo, len(p.Ticks))
		for i, t := range p.Ticks {
			c.Ticks[i] = TickInfo{Index: t.Index}
			if t.LiquidityNet != nil {
				c.Ticks[i].LiquidityNet = new(big.Int).Set(t.LiquidityNet)
			}
		}
	}
	return &c
}

// HasPair reports whether the pool trades a against b.
func (p *Pool) HasPair(a, b ids.TokenID) bool {
	return (a == p.Token0 && b == p.Token1) || (a == p.Token1 && b == p.Token0)
}

// SortTicks orders Ticks by index, the layout the swap calculator expects.
func (p *Pool) SortTicks() {
	slices.SortFunc(p.Ticks, func(a, b TickInfo) int {
		return cmp.Compare(a.Index, b.Index)
	})
}
