package tickbitmap

import (
	"cmp"
	"slices"

	uniswapv3 "github.com/defistate/defistate-swap-go/protocols/uniswapv3"
	"github.com/defistate/defistate-swap-go/protocols/uniswapv3/calculator/tickmath"
)

func compareIndex(t uniswapv3.TickInfo, index int64) int {
	return cmp.Compare(t.Index, index)
}

// NextInitializedTick finds the next initialized tick in a sorted slice of
// initialized ticks, standing in for Uniswap V3's on-chain tick bitmap.
//
// With lte set it returns the largest initialized tick <= tick, otherwise the
// smallest initialized tick > tick. When no such tick exists it returns the
// global bound in that direction (tickmath.MIN_TICK or tickmath.MAX_TICK) with
// initialized = false, so a swap can keep walking through empty price space.
func NextInitializedTick(
	ticks []uniswapv3.TickInfo,
	tick int64,
	lte bool,
) (next int64, initialized bool) {
	if lte {
		index, found := slices.BinarySearchFunc(ticks, tick, compareIndex)
		if found {
			return tick, true
		}
		if index == 0 {
			return tickmath.MIN_TICK, false
		}
		return ticks[index-1].Index, true
	}

	// Smallest index whose tick is > tick.
	index, found := slices.BinarySearchFunc(ticks, tick, compareIndex)
	if found {
		index++
	}
	if index >= len(ticks) {
		return tickmath.MAX_TICK, false
	}
	return ticks[index].Index, true
}

// Lookup returns the initialized tick at index.
func Lookup(ticks []uniswapv3.TickInfo, index int64) (uniswapv3.TickInfo, bool) {
	i, found := slices.BinarySearchFunc(ticks, index, compareIndex)
	if !found {
		return uniswapv3.TickInfo{}, false
	}
	return ticks[i], true
}
