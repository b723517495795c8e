// Package ids defines the opaque identifiers shared by every other package.
package ids

import "strconv"

// TokenID identifies a fungible asset.
type TokenID uint64

// PoolID identifies a liquidity pool.
type PoolID uint64

func (t TokenID) String() string {
	return "token:" + strconv.FormatUint(uint64(t), 10)
}

func (p PoolID) String() string {
	return "pool:" + strconv.FormatUint(uint64(p), 10)
}
