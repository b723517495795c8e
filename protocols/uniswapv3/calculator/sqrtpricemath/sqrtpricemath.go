package sqrtpricemath

import (
	"errors"
	"sync"

	"github.com/holiman/uint256"
)

var (
	// Q96 is the UQ64.96 fixed-point number representing 1.
	Q96 = new(uint256.Int).Lsh(uint256.NewInt(1), 96)
	// Resolution is the number of fractional bits in the Q96 format.
	Resolution = uint(96)

	ErrLiquidityZero    = errors.New("liquidity must be greater than zero")
	ErrLiquidityTooWide = errors.New("liquidity does not fit in 128 bits")
	ErrSqrtPriceZero    = errors.New("sqrt price must be greater than zero")
	ErrOverflow         = errors.New("arithmetic overflow")
	ErrPriceUnderflow   = errors.New("sqrt price underflow")
)

// SqrtPriceMath holds reusable integers to avoid memory allocations.
// Instances are managed by a sync.Pool for safe concurrent use.
type SqrtPriceMath struct {
	product     *uint256.Int
	numerator1  *uint256.Int
	numerator2  *uint256.Int
	denominator *uint256.Int
	quotient    *uint256.Int
	term        *uint256.Int
	rem         *uint256.Int
}

var pool = sync.Pool{
	New: func() any {
		return &SqrtPriceMath{
			product:     new(uint256.Int),
			numerator1:  new(uint256.Int),
			numerator2:  new(uint256.Int),
			denominator: new(uint256.Int),
			quotient:    new(uint256.Int),
			term:        new(uint256.Int),
			rem:         new(uint256.Int),
		}
	},
}

// --- Helpers ---

// mulDiv writes floor(a * b / c) into dest, with a 512-bit intermediate product.
func mulDiv(dest, a, b, c *uint256.Int) error {
	if c.IsZero() {
		return ErrOverflow
	}
	if _, overflow := dest.MulDivOverflow(a, b, c); overflow {
		return ErrOverflow
	}
	return nil
}

// mulDivRoundingUp writes ceil(a * b / c) into dest.
func (s *SqrtPriceMath) mulDivRoundingUp(dest, a, b, c *uint256.Int) error {
	if c.IsZero() {
		return ErrOverflow
	}
	// The remainder is taken first because dest may alias a or b.
	s.rem.MulMod(a, b, c)
	if _, overflow := dest.MulDivOverflow(a, b, c); overflow {
		return ErrOverflow
	}
	if !s.rem.IsZero() {
		if _, overflow := dest.AddOverflow(dest, uint256.NewInt(1)); overflow {
			return ErrOverflow
		}
	}
	return nil
}

// divRoundingUp writes ceil(a / b) into dest.
func (s *SqrtPriceMath) divRoundingUp(dest, a, b *uint256.Int) {
	s.rem.Mod(a, b)
	dest.Div(a, b)
	if !s.rem.IsZero() {
		dest.AddUint64(dest, 1)
	}
}

func checkInputs(sqrtPX96, liquidity *uint256.Int) error {
	if sqrtPX96.IsZero() {
		return ErrSqrtPriceZero
	}
	if liquidity.IsZero() {
		return ErrLiquidityZero
	}
	if liquidity.BitLen() > 128 {
		return ErrLiquidityTooWide
	}
	return nil
}

// --- Public API with Destination-Passing ---

// GetNextSqrtPriceFromAmount0RoundingUp writes the sqrt price reached after
// adding (add) or removing amount of token0, rounding up.
func GetNextSqrtPriceFromAmount0RoundingUp(dest, sqrtPX96, liquidity, amount *uint256.Int, add bool) error {
	if err := checkInputs(sqrtPX96, liquidity); err != nil {
		return err
	}
	s := pool.Get().(*SqrtPriceMath)
	defer pool.Put(s)
	return s.getNextSqrtPriceFromAmount0RoundingUp(dest, sqrtPX96, liquidity, amount, add)
}

// GetNextSqrtPriceFromAmount1RoundingDown writes the sqrt price reached after
// adding (add) or removing amount of token1, rounding down.
func GetNextSqrtPriceFromAmount1RoundingDown(dest, sqrtPX96, liquidity, amount *uint256.Int, add bool) error {
	if err := checkInputs(sqrtPX96, liquidity); err != nil {
		return err
	}
	s := pool.Get().(*SqrtPriceMath)
	defer pool.Put(s)
	return s.getNextSqrtPriceFromAmount1RoundingDown(dest, sqrtPX96, liquidity, amount, add)
}

// GetNextSqrtPriceFromInput writes the sqrt price reached after swapping
// amountIn into the pool. It rounds so that the price never overshoots.
func GetNextSqrtPriceFromInput(dest, sqrtPX96, liquidity, amountIn *uint256.Int, zeroForOne bool) error {
	if zeroForOne {
		return GetNextSqrtPriceFromAmount0RoundingUp(dest, sqrtPX96, liquidity, amountIn, true)
	}
	return GetNextSqrtPriceFromAmount1RoundingDown(dest, sqrtPX96, liquidity, amountIn, true)
}

// GetAmount0Delta writes the amount of token0 between two sqrt prices for the
// given liquidity.
func GetAmount0Delta(dest, sqrtRatioAX96, sqrtRatioBX96, liquidity *uint256.Int, roundUp bool) error {
	s := pool.Get().(*SqrtPriceMath)
	defer pool.Put(s)
	return s.getAmount0Delta(dest, sqrtRatioAX96, sqrtRatioBX96, liquidity, roundUp)
}

// GetAmount1Delta writes the amount of token1 between two sqrt prices for the
// given liquidity.
func GetAmount1Delta(dest, sqrtRatioAX96, sqrtRatioBX96, liquidity *uint256.Int, roundUp bool) error {
	s := pool.Get().(*SqrtPriceMath)
	defer pool.Put(s)
	return s.getAmount1Delta(dest, sqrtRatioAX96, sqrtRatioBX96, liquidity, roundUp)
}

// --- Internal Implementations ---

func (s *SqrtPriceMath) getNextSqrtPriceFromAmount0RoundingUp(dest, sqrtPX96, liquidity, amount *uint256.Int, add bool) error {
	if amount.IsZero() {
		dest.Set(sqrtPX96)
		return nil
	}

	// liquidity fits in 128 bits, so the shift cannot overflow.
	s.numerator1.Lsh(liquidity, Resolution)
	_, productOverflow := s.product.MulOverflow(amount, sqrtPX96)

	if add {
		if !productOverflow {
			if _, overflow := s.denominator.AddOverflow(s.numerator1, s.product); !overflow {
				return s.mulDivRoundingUp(dest, s.numerator1, sqrtPX96, s.denominator)
			}
		}
		// numerator1 / (numerator1 / sqrtPX96 + amount)
		s.denominator.Div(s.numerator1, sqrtPX96)
		if _, overflow := s.denominator.AddOverflow(s.denominator, amount); overflow {
			return ErrOverflow
		}
		s.divRoundingUp(dest, s.numerator1, s.denominator)
		return nil
	}

	if productOverflow || !s.product.Lt(s.numerator1) {
		return ErrPriceUnderflow
	}
	s.denominator.Sub(s.numerator1, s.product)
	return s.mulDivRoundingUp(dest, s.numerator1, sqrtPX96, s.denominator)
}

func (s *SqrtPriceMath) getNextSqrtPriceFromAmount1RoundingDown(dest, sqrtPX96, liquidity, amount *uint256.Int, add bool) error {
	if add {
		if err := mulDiv(s.quotient, amount, Q96, liquidity); err != nil {
			return err
		}
		if _, overflow := dest.AddOverflow(sqrtPX96, s.quotient); overflow || dest.BitLen() > 160 {
			return ErrOverflow
		}
		return nil
	}

	if err := s.mulDivRoundingUp(s.quotient, amount, Q96, liquidity); err != nil {
		return err
	}
	if !s.quotient.Lt(sqrtPX96) {
		return ErrPriceUnderflow
	}
	dest.Sub(sqrtPX96, s.quotient)
	return nil
}

func (s *SqrtPriceMath) getAmount0Delta(dest, sqrtRatioAX96, sqrtRatioBX96, liquidity *uint256.Int, roundUp bool) error {
	if sqrtRatioBX96.Lt(sqrtRatioAX96) {
		sqrtRatioAX96, sqrtRatioBX96 = sqrtRatioBX96, sqrtRatioAX96
	}
	if sqrtRatioAX96.IsZero() {
		return ErrSqrtPriceZero
	}
	if liquidity.BitLen() > 128 {
		return ErrLiquidityTooWide
	}

	s.numerator1.Lsh(liquidity, Resolution)
	s.numerator2.Sub(sqrtRatioBX96, sqrtRatioAX96)

	if roundUp {
		if err := s.mulDivRoundingUp(s.term, s.numerator1, s.numerator2, sqrtRatioBX96); err != nil {
			return err
		}
		s.divRoundingUp(dest, s.term, sqrtRatioAX96)
		return nil
	}
	if err := mulDiv(s.term, s.numerator1, s.numerator2, sqrtRatioBX96); err != nil {
		return err
	}
	dest.Div(s.term, sqrtRatioAX96)
	return nil
}

func (s *SqrtPriceMath) getAmount1Delta(dest, sqrtRatioAX96, sqrtRatioBX96, liquidity *uint256.Int, roundUp bool) error {
	if sqrtRatioBX96.Lt(sqrtRatioAX96) {
		sqrtRatioAX96, sqrtRatioBX96 = sqrtRatioBX96, sqrtRatioAX96
	}

	s.numerator1.Sub(sqrtRatioBX96, sqrtRatioAX96)
	if roundUp {
		return s.mulDivRoundingUp(dest, liquidity, s.numerator1, Q96)
	}
	return mulDiv(dest, liquidity, s.numerator1, Q96)
}
