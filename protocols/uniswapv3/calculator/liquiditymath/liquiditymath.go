package liquiditymath

import (
	"errors"
	"math/big"

	"github.com/holiman/uint256"
)

var (
	// maxUint128 is the maximum value for a uint128 (2^128 - 1).
	maxUint128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

	ErrLiquidityOverflow  = errors.New("liquidity overflow")
	ErrLiquidityUnderflow = errors.New("liquidity underflow")
)

// AddDelta adds a signed liquidity delta to an unsigned liquidity value,
// returning an error if the result leaves the uint128 range. dest is left
// untouched on error.
func AddDelta(dest *uint256.Int, x *uint256.Int, y *big.Int) error {
	sum := new(big.Int).Add(x.ToBig(), y)

	if sum.Sign() < 0 {
		return ErrLiquidityUnderflow
	}
	if sum.Cmp(maxUint128) > 0 {
		return ErrLiquidityOverflow
	}

	dest.SetFromBig(sum)
	return nil
}
