package swapmath

import (
	"errors"
	"sync"

	"github.com/defistate/defistate-swap-go/protocols/uniswapv3/calculator/sqrtpricemath"
	"github.com/holiman/uint256"
)

// FeeDenominator is the fee denominator, representing 100% in pips.
const FeeDenominator = 1_000_000

var ErrInvalidFee = errors.New("fee must be below 1e6 pips")

var feeDenominator = uint256.NewInt(FeeDenominator)

// SwapMath holds reusable integers for all calculations to avoid memory allocations.
// Instances are managed by a sync.Pool for safe concurrent use.
type SwapMath struct {
	// --- Return Values ---
	sqrtRatioNextX96 *uint256.Int
	amountIn         *uint256.Int
	amountOut        *uint256.Int
	feeAmount        *uint256.Int

	// --- Temporary Internal Values ---
	amountRemainingLessFee *uint256.Int
	fee                    *uint256.Int
	feeComplement          *uint256.Int
	rem                    *uint256.Int
}

var swapMathPool = sync.Pool{
	New: func() any {
		return &SwapMath{
			sqrtRatioNextX96:       new(uint256.Int),
			amountIn:               new(uint256.Int),
			amountOut:              new(uint256.Int),
			feeAmount:              new(uint256.Int),
			amountRemainingLessFee: new(uint256.Int),
			fee:                    new(uint256.Int),
			feeComplement:          new(uint256.Int),
			rem:                    new(uint256.Int),
		}
	},
}

// ComputeSwapStep calculates the result of an exact-input swap within a single
// tick range. It determines the next price, the amounts swapped, and the fee
// taken. The direction is implied by the target: a target at or below the
// current price swaps token0 for token1.
func ComputeSwapStep(
	// destination pointers
	sqrtRatioNextX96 *uint256.Int,
	amountIn *uint256.Int,
	amountOut *uint256.Int,
	feeAmount *uint256.Int,

	sqrtRatioCurrentX96 *uint256.Int,
	sqrtRatioTargetX96 *uint256.Int,
	liquidity *uint256.Int,
	amountRemaining *uint256.Int,
	feePips uint32,
) error {
	if feePips >= FeeDenominator {
		return ErrInvalidFee
	}

	s := swapMathPool.Get().(*SwapMath)
	defer swapMathPool.Put(s)

	if err := s.computeSwapStep(sqrtRatioCurrentX96, sqrtRatioTargetX96, liquidity, amountRemaining, feePips); err != nil {
		return err
	}

	// Copy out so the pooled integers can be reused.
	sqrtRatioNextX96.Set(s.sqrtRatioNextX96)
	amountIn.Set(s.amountIn)
	amountOut.Set(s.amountOut)
	feeAmount.Set(s.feeAmount)
	return nil
}

func (s *SwapMath) computeSwapStep(
	sqrtRatioCurrentX96, sqrtRatioTargetX96, liquidity, amountRemaining *uint256.Int, feePips uint32,
) error {
	zeroForOne := !sqrtRatioCurrentX96.Lt(sqrtRatioTargetX96)

	s.amountIn.Clear()
	s.amountOut.Clear()
	s.feeAmount.Clear()
	s.fee.SetUint64(uint64(feePips))
	s.feeComplement.SetUint64(uint64(FeeDenominator - feePips))

	if _, overflow := s.amountRemainingLessFee.MulDivOverflow(amountRemaining, s.feeComplement, feeDenominator); overflow {
		return sqrtpricemath.ErrOverflow
	}

	// Input needed to reach the target.
	var err error
	if zeroForOne {
		err = sqrtpricemath.GetAmount0Delta(s.amountIn, sqrtRatioTargetX96, sqrtRatioCurrentX96, liquidity, true)
	} else {
		err = sqrtpricemath.GetAmount1Delta(s.amountIn, sqrtRatioCurrentX96, sqrtRatioTargetX96, liquidity, true)
	}
	if err != nil {
		return err
	}

	reachedTarget := !s.amountRemainingLessFee.Lt(s.amountIn)
	if reachedTarget {
		s.sqrtRatioNextX96.Set(sqrtRatioTargetX96)
	} else {
		err = sqrtpricemath.GetNextSqrtPriceFromInput(s.sqrtRatioNextX96, sqrtRatioCurrentX96, liquidity, s.amountRemainingLessFee, zeroForOne)
		if err != nil {
			return err
		}
		// Rounding can still land exactly on the target.
		reachedTarget = s.sqrtRatioNextX96.Eq(sqrtRatioTargetX96)
	}

	// --- Recalculate amounts based on the actual price movement ---
	if zeroForOne {
		if !reachedTarget {
			if err = sqrtpricemath.GetAmount0Delta(s.amountIn, s.sqrtRatioNextX96, sqrtRatioCurrentX96, liquidity, true); err != nil {
				return err
			}
		}
		err = sqrtpricemath.GetAmount1Delta(s.amountOut, s.sqrtRatioNextX96, sqrtRatioCurrentX96, liquidity, false)
	} else {
		if !reachedTarget {
			if err = sqrtpricemath.GetAmount1Delta(s.amountIn, sqrtRatioCurrentX96, s.sqrtRatioNextX96, liquidity, true); err != nil {
				return err
			}
		}
		err = sqrtpricemath.GetAmount0Delta(s.amountOut, sqrtRatioCurrentX96, s.sqrtRatioNextX96, liquidity, false)
	}
	if err != nil {
		return err
	}

	if !reachedTarget {
		// The whole remainder is consumed; what the price move did not use is fee.
		s.feeAmount.Sub(amountRemaining, s.amountIn)
		return nil
	}
	return s.mulDivRoundingUp(s.feeAmount, s.amountIn, s.fee, s.feeComplement)
}

// mulDivRoundingUp writes ceil((a * b) / c) into dest.
func (s *SwapMath) mulDivRoundingUp(dest, a, b, c *uint256.Int) error {
	s.rem.MulMod(a, b, c)
	if _, overflow := dest.MulDivOverflow(a, b, c); overflow {
		return sqrtpricemath.ErrOverflow
	}
	if !s.rem.IsZero() {
		dest.AddUint64(dest, 1)
	}
	return nil
}
