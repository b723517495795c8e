package uniswapv3

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/defistate/defistate-swap-go/ids"
	uniswapv3 "github.com/defistate/defistate-swap-go/protocols/uniswapv3"
	"github.com/defistate/defistate-swap-go/protocols/uniswapv3/calculator/liquiditymath"
	"github.com/defistate/defistate-swap-go/protocols/uniswapv3/calculator/swapmath"
	"github.com/defistate/defistate-swap-go/protocols/uniswapv3/calculator/tickbitmap"
	"github.com/defistate/defistate-swap-go/protocols/uniswapv3/calculator/tickmath"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

var (
	ErrNilAmount             = errors.New("nil pointer passed as amount")
	ErrTokenMismatch         = errors.New("token mismatch")
	ErrInvalidState          = errors.New("invalid pool state")
	ErrInvalidPriceLimit     = errors.New("invalid sqrt price limit")
	ErrInsufficientLiquidity = errors.New("insufficient liquidity for swap")

	Q96 = new(uint256.Int).Lsh(uint256.NewInt(1), 96)
)

// swapState represents the state of a swap as it progresses.
// It includes all temporary variables needed for the simulation to avoid allocations.
type swapState struct {
	amountRemaining uint256.Int
	amountOut       uint256.Int
	sqrtPriceX96    uint256.Int
	tick            int64
	liquidity       uint256.Int

	// --- Reusable temporary variables for the loop ---
	sqrtPriceStartX96 uint256.Int
	sqrtPriceNextX96  uint256.Int
	targetPrice       uint256.Int
	limit             uint256.Int
	stepAmountIn      uint256.Int
	stepAmountOut     uint256.Int
	stepFeeAmount     uint256.Int
	liquidityNet      big.Int
}

// swapStatePool manages a pool of swapState objects for safe concurrent use.
var swapStatePool = sync.Pool{
	New: func() any {
		return new(swapState)
	},
}

// validate rejects pool states the swap loop cannot walk.
func validate(pool *uniswapv3.Pool) error {
	if pool == nil {
		return fmt.Errorf("%w: nil pool", ErrInvalidState)
	}
	if pool.SqrtPriceX96 == nil || pool.Liquidity == nil {
		return fmt.Errorf("%w: %s has nil price or liquidity", ErrInvalidState, pool.ID)
	}
	if pool.SqrtPriceX96.Lt(tickmath.MIN_SQRT_RATIO) || !pool.SqrtPriceX96.Lt(tickmath.MAX_SQRT_RATIO) {
		return fmt.Errorf("%w: %s sqrt price %s out of range", ErrInvalidState, pool.ID, pool.SqrtPriceX96.Dec())
	}
	if pool.Fee >= swapmath.FeeDenominator {
		return fmt.Errorf("%w: %s fee %d", ErrInvalidState, pool.ID, pool.Fee)
	}
	for i, t := range pool.Ticks {
		if t.LiquidityNet == nil {
			return fmt.Errorf("%w: %s tick %d has nil liquidityNet", ErrInvalidState, pool.ID, t.Index)
		}
		if t.Index < tickmath.MIN_TICK || t.Index > tickmath.MAX_TICK {
			return fmt.Errorf("%w: %s tick %d out of range", ErrInvalidState, pool.ID, t.Index)
		}
		if i > 0 && pool.Ticks[i-1].Index >= t.Index {
			return fmt.Errorf("%w: %s ticks are not strictly ascending at %d", ErrInvalidState, pool.ID, t.Index)
		}
	}
	return nil
}

// setLimit resolves the price limit of a swap. A nil limit lets the swap run
// until one step short of the global price bound.
func (s *swapState) setLimit(sqrtPriceLimitX96 *uint256.Int, zeroForOne bool) error {
	if sqrtPriceLimitX96 == nil {
		if zeroForOne {
			s.limit.AddUint64(tickmath.MIN_SQRT_RATIO, 1)
			if !s.limit.Lt(&s.sqrtPriceX96) {
				return fmt.Errorf("%w: price is already at its lower bound", ErrInsufficientLiquidity)
			}
		} else {
			s.limit.SubUint64(tickmath.MAX_SQRT_RATIO, 1)
			if !s.sqrtPriceX96.Lt(&s.limit) {
				return fmt.Errorf("%w: price is already at its upper bound", ErrInsufficientLiquidity)
			}
		}
		return nil
	}

	if zeroForOne {
		if !sqrtPriceLimitX96.Lt(&s.sqrtPriceX96) || !tickmath.MIN_SQRT_RATIO.Lt(sqrtPriceLimitX96) {
			return fmt.Errorf("%w: %s must be below the current price", ErrInvalidPriceLimit, sqrtPriceLimitX96.Dec())
		}
	} else {
		if !s.sqrtPriceX96.Lt(sqrtPriceLimitX96) || !sqrtPriceLimitX96.Lt(tickmath.MAX_SQRT_RATIO) {
			return fmt.Errorf("%w: %s must be above the current price", ErrInvalidPriceLimit, sqrtPriceLimitX96.Dec())
		}
	}
	s.limit.Set(sqrtPriceLimitX96)
	return nil
}

// swap walks the price from tick to tick until the input is spent or the
// limit is reached.
func (s *swapState) swap(pool *uniswapv3.Pool, zeroForOne bool) error {
	for !s.amountRemaining.IsZero() && !s.sqrtPriceX96.Eq(&s.limit) {
		s.sqrtPriceStartX96.Set(&s.sqrtPriceX96)

		// Past the last initialized tick the walk continues to the global bound.
		tickNext, initialized := tickbitmap.NextInitializedTick(pool.Ticks, s.tick, zeroForOne)
		if err := tickmath.GetSqrtRatioAtTick(&s.sqrtPriceNextX96, tickNext); err != nil {
			return err
		}

		if (zeroForOne && s.sqrtPriceNextX96.Lt(&s.limit)) ||
			(!zeroForOne && s.limit.Lt(&s.sqrtPriceNextX96)) {
			s.targetPrice.Set(&s.limit)
		} else {
			s.targetPrice.Set(&s.sqrtPriceNextX96)
		}

		if s.liquidity.IsZero() {
			// Nothing to trade against in this range; the price moves for free.
			s.sqrtPriceX96.Set(&s.targetPrice)
			s.stepAmountIn.Clear()
			s.stepAmountOut.Clear()
			s.stepFeeAmount.Clear()
		} else {
			err := swapmath.ComputeSwapStep(
				&s.sqrtPriceX96, &s.stepAmountIn, &s.stepAmountOut, &s.stepFeeAmount, // Destination pointers
				&s.sqrtPriceStartX96,
				&s.targetPrice,
				&s.liquidity,
				&s.amountRemaining,
				pool.Fee,
			)
			if err != nil {
				return fmt.Errorf("%w: %s step at tick %d: %w", ErrInvalidState, pool.ID, s.tick, err)
			}
		}

		// amountIn + fee never exceeds the remainder.
		s.amountRemaining.Sub(&s.amountRemaining, &s.stepAmountIn)
		s.amountRemaining.Sub(&s.amountRemaining, &s.stepFeeAmount)
		s.amountOut.Add(&s.amountOut, &s.stepAmountOut)

		if s.sqrtPriceX96.Eq(&s.sqrtPriceNextX96) {
			if initialized {
				info, ok := tickbitmap.Lookup(pool.Ticks, tickNext)
				if !ok {
					return fmt.Errorf("%w: %s tick %d vanished", ErrInvalidState, pool.ID, tickNext)
				}
				s.liquidityNet.Set(info.LiquidityNet)
				if zeroForOne {
					s.liquidityNet.Neg(&s.liquidityNet)
				}
				if err := liquiditymath.AddDelta(&s.liquidity, &s.liquidity, &s.liquidityNet); err != nil {
					return fmt.Errorf("%w: %s crossing tick %d: %w", ErrInvalidState, pool.ID, tickNext, err)
				}
			}

			if zeroForOne {
				s.tick = tickNext - 1
			} else {
				s.tick = tickNext
			}
		} else if !s.sqrtPriceX96.Eq(&s.sqrtPriceStartX96) {
			tick, err := tickmath.GetTickAtSqrtRatio(&s.sqrtPriceX96)
			if err != nil {
				return err
			}
			s.tick = tick
		}
	}

	if !s.amountRemaining.IsZero() {
		return fmt.Errorf("%w: %s left %s unswapped at the price limit", ErrInsufficientLiquidity, pool.ID, s.amountRemaining.Dec())
	}
	return nil
}

// direction reports whether tokenIn is token0 of the pool.
func direction(tokenIn ids.TokenID, pool *uniswapv3.Pool) (zeroForOne bool, err error) {
	switch tokenIn {
	case pool.Token0:
		return true, nil
	case pool.Token1:
		return false, nil
	}
	return false, fmt.Errorf("%w: token %s is not in %s", ErrTokenMismatch, tokenIn, pool.ID)
}

func (s *swapState) run(amountIn, sqrtPriceLimitX96 *uint256.Int, tokenIn ids.TokenID, pool *uniswapv3.Pool) error {
	if amountIn == nil {
		return ErrNilAmount
	}
	if err := validate(pool); err != nil {
		return err
	}
	zeroForOne, err := direction(tokenIn, pool)
	if err != nil {
		return err
	}

	s.amountRemaining.Set(amountIn)
	s.amountOut.Clear()
	s.sqrtPriceX96.Set(pool.SqrtPriceX96)
	s.tick = pool.Tick
	s.liquidity.Set(pool.Liquidity)

	if amountIn.IsZero() {
		return nil
	}
	if err := s.setLimit(sqrtPriceLimitX96, zeroForOne); err != nil {
		return err
	}
	return s.swap(pool, zeroForOne)
}

// SimulateExactInSwap calculates the amount out of an exact-input swap and the
// pool state after it. The input pool is never modified. A nil
// sqrtPriceLimitX96 places no limit on the price move; a swap that cannot
// spend its whole input before the limit fails with ErrInsufficientLiquidity.
func SimulateExactInSwap(
	amountIn *uint256.Int,
	sqrtPriceLimitX96 *uint256.Int,
	tokenIn ids.TokenID,
	pool *uniswapv3.Pool,
) (*uint256.Int, *uniswapv3.Pool, error) {
	state := swapStatePool.Get().(*swapState)
	defer swapStatePool.Put(state)

	if err := state.run(amountIn, sqrtPriceLimitX96, tokenIn, pool); err != nil {
		return nil, nil, err
	}

	next := pool.Clone()
	next.SqrtPriceX96.Set(&state.sqrtPriceX96)
	next.Tick = state.tick
	next.Liquidity.Set(&state.liquidity)
	return state.amountOut.Clone(), next, nil
}

// GetAmountOut calculates the amount out for a given exact amount in.
func GetAmountOut(
	amountIn *uint256.Int,
	sqrtPriceLimitX96 *uint256.Int,
	tokenIn ids.TokenID,
	pool *uniswapv3.Pool,
) (*uint256.Int, error) {
	state := swapStatePool.Get().(*swapState)
	defer swapStatePool.Put(state)

	if err := state.run(amountIn, sqrtPriceLimitX96, tokenIn, pool); err != nil {
		return nil, err
	}
	return state.amountOut.Clone(), nil
}

// GetVirtualReserves calculates the virtual reserves of a pool based on its
// current liquidity and price.
func GetVirtualReserves(tokenIn, tokenOut ids.TokenID, pool *uniswapv3.Pool) (reserveIn, reserveOut *uint256.Int, err error) {
	if err := validate(pool); err != nil {
		return nil, nil, err
	}
	if !pool.HasPair(tokenIn, tokenOut) || tokenIn == tokenOut {
		return nil, nil, fmt.Errorf("%w: %s does not contain the pair %s -> %s", ErrTokenMismatch, pool.ID, tokenIn, tokenOut)
	}

	// Not on a hot path, so a few allocations are acceptable for clarity.
	reserve0, overflow := new(uint256.Int).MulDivOverflow(pool.Liquidity, Q96, pool.SqrtPriceX96)
	if overflow {
		return nil, nil, fmt.Errorf("%w: reserve0 overflows", ErrInvalidState)
	}
	reserve1, overflow := new(uint256.Int).MulDivOverflow(pool.Liquidity, pool.SqrtPriceX96, Q96)
	if overflow {
		return nil, nil, fmt.Errorf("%w: reserve1 overflows", ErrInvalidState)
	}

	if tokenIn == pool.Token0 {
		return reserve0, reserve1, nil
	}
	return reserve1, reserve0, nil
}

// spotPricePrecision is the number of decimal places kept by GetSpotPrice.
const spotPricePrecision = 18

// GetSpotPrice calculates the spot price of tokenIn in units of tokenOut,
// adjusted for token decimals. For a USDC/WETH pool, the WETH price in USDC is
// GetSpotPrice(weth, 18, 6, pool).
func GetSpotPrice(tokenIn ids.TokenID, decimalsIn, decimalsOut uint8, pool *uniswapv3.Pool) (decimal.Decimal, error) {
	if err := validate(pool); err != nil {
		return decimal.Zero, err
	}
	if _, err := direction(tokenIn, pool); err != nil {
		return decimal.Zero, err
	}

	// SqrtPriceX96 is sqrt(token1/token0) * 2^96, so price = sqrtP^2 / 2^192.
	sqrtP := pool.SqrtPriceX96.ToBig()
	num := decimal.NewFromBigInt(new(big.Int).Mul(sqrtP, sqrtP), 0)
	den := decimal.NewFromBigInt(new(big.Int).Lsh(big.NewInt(1), 192), 0)
	if tokenIn == pool.Token1 {
		num, den = den, num
	}

	shift := int32(decimalsIn) - int32(decimalsOut)
	return num.Shift(shift).DivRound(den, spotPricePrecision), nil
}
