package uniswapv2

import (
	"errors"
	"fmt"
	"sync"

	"github.com/defistate/defistate-swap-go/ids"
	uniswapv2 "github.com/defistate/defistate-swap-go/protocols/uniswapv2"
	"github.com/holiman/uint256"
)

var (
	// basisPointDivisor is a constant representing 100% in basis points (10000).
	basisPointDivisor = uint256.NewInt(10000)

	one = uint256.NewInt(1)

	// ErrNilAmount is returned when a nil pointer is passed for an amount.
	ErrNilAmount = errors.New("nil pointer passed as amount")
	// ErrTokenMismatch is returned when the specified input/output tokens do not match the pool's tokens.
	ErrTokenMismatch = errors.New("token mismatch")
	// ErrInvalidState is returned for internal calculation errors, like division by zero.
	ErrInvalidState = errors.New("invalid internal state")
	// ErrInvalidFee is returned when the pool fee is 100% or more.
	ErrInvalidFee = errors.New("fee must be below 10000 bps")
	// ErrInsufficientLiquidity is returned when an amountOut is requested that is greater than or equal to the available reserve.
	ErrInsufficientLiquidity = errors.New("insufficient liquidity for swap")
	// ErrOverflow is returned when an intermediate value does not fit in 256 bits.
	ErrOverflow = errors.New("uint256 overflow")
)

// Calculator holds reusable scratch values for the constant-product formulas.
// Instances of this struct are NOT safe for concurrent use by themselves.
// They are intended to be managed by the sync.Pool below.
type Calculator struct {
	feeMultiplier   uint256.Int
	amountInWithFee uint256.Int
	denominator     uint256.Int
	numeratorIn     uint256.Int
	denominatorIn   uint256.Int
}

// calculatorPool manages a pool of Calculator objects, allowing for safe concurrent use.
var calculatorPool = sync.Pool{
	New: func() any {
		return new(Calculator)
	},
}

// GetAmountOut calculates the output amount for a swap.
func GetAmountOut(
	amountIn *uint256.Int,
	tokenIn ids.TokenID,
	tokenOut ids.TokenID,
	pool *uniswapv2.Pool,
) (*uint256.Int, error) {
	calc := calculatorPool.Get().(*Calculator)
	defer calculatorPool.Put(calc)
	return calc.getAmountOut(amountIn, tokenIn, tokenOut, pool)
}

// GetAmountIn calculates the required input amount for a desired output.
func GetAmountIn(
	amountOut *uint256.Int,
	tokenIn ids.TokenID,
	tokenOut ids.TokenID,
	pool *uniswapv2.Pool,
) (*uint256.Int, error) {
	calc := calculatorPool.Get().(*Calculator)
	defer calculatorPool.Put(calc)
	return calc.getAmountIn(amountOut, tokenIn, tokenOut, pool)
}

// SimulateSwap calculates the result of a swap and the pool state after it.
// The input pool is never modified; the returned pool shares no memory with it.
func SimulateSwap(
	amountIn *uint256.Int,
	tokenIn ids.TokenID,
	tokenOut ids.TokenID,
	pool *uniswapv2.Pool,
) (*uint256.Int, *uniswapv2.Pool, error) {
	calc := calculatorPool.Get().(*Calculator)
	defer calculatorPool.Put(calc)
	return calc.simulateSwap(amountIn, tokenIn, tokenOut, pool)
}

// getAmountOut computes
// amountOut = reserveOut * amountIn * (10000 - fee) / (reserveIn * 10000 + amountIn * (10000 - fee)).
func (c *Calculator) getAmountOut(
	amountIn *uint256.Int,
	tokenIn ids.TokenID,
	tokenOut ids.TokenID,
	pool *uniswapv2.Pool,
) (*uint256.Int, error) {
	if amountIn == nil {
		return nil, ErrNilAmount
	}

	reserveIn, reserveOut, err := GetReserves(tokenIn, tokenOut, pool)
	if err != nil {
		return nil, err
	}

	if reserveIn.IsZero() || reserveOut.IsZero() || amountIn.IsZero() {
		return new(uint256.Int), nil
	}
	if err := c.setFeeMultiplier(pool.FeeBps); err != nil {
		return nil, err
	}

	if _, overflow := c.amountInWithFee.MulOverflow(amountIn, &c.feeMultiplier); overflow {
		return nil, fmt.Errorf("%w: amountIn * feeMultiplier", ErrOverflow)
	}
	if _, overflow := c.denominator.MulOverflow(reserveIn, basisPointDivisor); overflow {
		return nil, fmt.Errorf("%w: reserveIn * 10000", ErrOverflow)
	}
	if _, overflow := c.denominator.AddOverflow(&c.denominator, &c.amountInWithFee); overflow {
		return nil, fmt.Errorf("%w: denominator", ErrOverflow)
	}

	if c.denominator.IsZero() {
		return nil, fmt.Errorf("%w: pool denominator is zero", ErrInvalidState)
	}

	// The 512-bit intermediate product keeps reserveOut * amountInWithFee exact.
	amountOut, overflow := new(uint256.Int).MulDivOverflow(reserveOut, &c.amountInWithFee, &c.denominator)
	if overflow {
		return nil, fmt.Errorf("%w: amountOut", ErrOverflow)
	}
	return amountOut, nil
}

// getAmountIn is the inverse of getAmountOut:
// amountIn = reserveIn * amountOut * 10000 / ((reserveOut - amountOut) * (10000 - fee)) + 1.
func (c *Calculator) getAmountIn(
	amountOut *uint256.Int,
	tokenIn ids.TokenID,
	tokenOut ids.TokenID,
	pool *uniswapv2.Pool,
) (*uint256.Int, error) {
	if amountOut == nil {
		return nil, ErrNilAmount
	}

	reserveIn, reserveOut, err := GetReserves(tokenIn, tokenOut, pool)
	if err != nil {
		return nil, err
	}

	if reserveIn.IsZero() || reserveOut.IsZero() || !amountOut.Lt(reserveOut) {
		return nil, fmt.Errorf("%w: requested amountOut (%s) is >= reserveOut (%s)", ErrInsufficientLiquidity, amountOut.Dec(), reserveOut.Dec())
	}
	if err := c.setFeeMultiplier(pool.FeeBps); err != nil {
		return nil, err
	}

	if _, overflow := c.numeratorIn.MulOverflow(reserveIn, basisPointDivisor); overflow {
		return nil, fmt.Errorf("%w: reserveIn * 10000", ErrOverflow)
	}
	c.denominatorIn.Sub(reserveOut, amountOut)
	if _, overflow := c.denominatorIn.MulOverflow(&c.denominatorIn, &c.feeMultiplier); overflow {
		return nil, fmt.Errorf("%w: denominator", ErrOverflow)
	}

	if c.denominatorIn.IsZero() {
		return nil, fmt.Errorf("%w: pool denominator is zero", ErrInvalidState)
	}

	amountIn, overflow := new(uint256.Int).MulDivOverflow(&c.numeratorIn, amountOut, &c.denominatorIn)
	if overflow {
		return nil, fmt.Errorf("%w: amountIn", ErrOverflow)
	}
	return amountIn.Add(amountIn, one), nil
}

func (c *Calculator) simulateSwap(
	amountIn *uint256.Int,
	tokenIn ids.TokenID,
	tokenOut ids.TokenID,
	pool *uniswapv2.Pool,
) (*uint256.Int, *uniswapv2.Pool, error) {
	amountOut, err := c.getAmountOut(amountIn, tokenIn, tokenOut, pool)
	if err != nil {
		return nil, nil, err
	}

	next := pool.Clone()
	if tokenIn == pool.Token0 {
		if _, overflow := next.Reserve0.AddOverflow(next.Reserve0, amountIn); overflow {
			return nil, nil, fmt.Errorf("%w: reserve0", ErrOverflow)
		}
		next.Reserve1.Sub(next.Reserve1, amountOut)
	} else { // tokenIn == pool.Token1
		if _, overflow := next.Reserve1.AddOverflow(next.Reserve1, amountIn); overflow {
			return nil, nil, fmt.Errorf("%w: reserve1", ErrOverflow)
		}
		next.Reserve0.Sub(next.Reserve0, amountOut)
	}

	return amountOut, next, nil
}

func (c *Calculator) setFeeMultiplier(feeBps uint16) error {
	if feeBps >= 10000 {
		return fmt.Errorf("%w: got %d", ErrInvalidFee, feeBps)
	}
	c.feeMultiplier.SetUint64(10000 - uint64(feeBps))
	return nil
}

// GetReserves returns the reserves for the given token pair. For V2, this is a direct lookup.
func GetReserves(tokenIn, tokenOut ids.TokenID, pool *uniswapv2.Pool) (reserveIn, reserveOut *uint256.Int, err error) {
	if pool.Reserve0 == nil || pool.Reserve1 == nil {
		return nil, nil, fmt.Errorf("%w: %s has nil reserves", ErrInvalidState, pool.ID)
	}
	if tokenIn == pool.Token0 && tokenOut == pool.Token1 {
		return pool.Reserve0, pool.Reserve1, nil
	} else if tokenIn == pool.Token1 && tokenOut == pool.Token0 {
		return pool.Reserve1, pool.Reserve0, nil
	}
	return nil, nil, fmt.Errorf("%w: %s does not contain the pair %s -> %s", ErrTokenMismatch, pool.ID, tokenIn, tokenOut)
}
