package tickmath

import (
	"errors"
	"sync"

	"github.com/defistate/defistate-swap-go/protocols/uniswapv3/calculator/bitmath"
	"github.com/holiman/uint256"
)

var (
	// MIN_TICK is the minimum tick that may be passed to GetSqrtRatioAtTick.
	MIN_TICK = int64(-887272)
	// MAX_TICK is the maximum tick that may be passed to GetSqrtRatioAtTick.
	MAX_TICK = int64(887272)

	// MIN_SQRT_RATIO is the value returned by GetSqrtRatioAtTick(MIN_TICK).
	MIN_SQRT_RATIO = uint256.NewInt(4295128739)
	// MAX_SQRT_RATIO is the value returned by GetSqrtRatioAtTick(MAX_TICK).
	MAX_SQRT_RATIO = uint256.MustFromDecimal("1461446703485210103287273052203988822378723970342")

	ErrTickOutOfBounds      = errors.New("tick out of bounds")
	ErrSqrtPriceOutOfBounds = errors.New("sqrt price out of bounds")

	maxUint256 = new(uint256.Int).SetAllOne()

	// UQ128.128 factors 1/sqrt(1.0001^2^k), one per bit k of |tick|, with 1 at
	// index 1 and the rounding mask last.
	ratioConstants = [22]*uint256.Int{
		uint256.MustFromHex("0xfffcb933bd6fad37aa2d162d1a594001"),
		uint256.MustFromHex("0x100000000000000000000000000000000"),
		uint256.MustFromHex("0xfff97272373d413259a46990580e213a"),
		uint256.MustFromHex("0xfff2e50f5f656932ef12357cf3c7fdcc"),
		uint256.MustFromHex("0xffe5caca7e10e4e61c3624eaa0941cd0"),
		uint256.MustFromHex("0xffcb9843d60f6159c9db58835c926644"),
		uint256.MustFromHex("0xff973b41fa98c081472e6896dfb254c0"),
		uint256.MustFromHex("0xff2ea16466c96a3843ec78b326b52861"),
		uint256.MustFromHex("0xfe5dee046a99a2a811c461f1969c3053"),
		uint256.MustFromHex("0xfcbe86c7900a88aedcffc83b479aa3a4"),
		uint256.MustFromHex("0xf987a7253ac413176f2b074cf7815e54"),
		uint256.MustFromHex("0xf3392b0822b70005940c7a398e4b70f3"),
		uint256.MustFromHex("0xe7159475a2c29b7443b29c7fa6e889d9"),
		uint256.MustFromHex("0xd097f3bdfd2022b8845ad8f792aa5825"),
		uint256.MustFromHex("0xa9f746462d870fdf8a65dc1f90e061e5"),
		uint256.MustFromHex("0x70d869a156d2a1b890bb3df62baf32f7"),
		uint256.MustFromHex("0x31be135f97d08fd981231505542fcfa6"),
		uint256.MustFromHex("0x9aa508b5b7a84e1c677de54f3e99bc9"),
		uint256.MustFromHex("0x5d6af8dedb81196699c329225ee604"),
		uint256.MustFromHex("0x2216e584f5fa1ea926041bedfe98"),
		uint256.MustFromHex("0x48a170391f7dc42444e8fa2"),
		uint256.MustFromHex("0xffffffff"),
	}
)

// ticksPerBitLow and ticksPerBitHigh bracket 2 / log2(1.0001), the number of
// ticks spanned by one doubling of the sqrt price.
const (
	ticksPerBitLow  = 13863
	ticksPerBitHigh = 13864
)

// tickMath holds reusable integers to avoid memory allocations.
type tickMath struct {
	ratio *uint256.Int
	rem   *uint256.Int
	probe *uint256.Int
}

// pool manages a pool of tickMath objects for safe concurrent use.
var pool = sync.Pool{
	New: func() any {
		return &tickMath{
			ratio: new(uint256.Int),
			rem:   new(uint256.Int),
			probe: new(uint256.Int),
		}
	},
}

// GetSqrtRatioAtTick writes sqrt(1.0001^tick) * 2^96 into dest.
func GetSqrtRatioAtTick(dest *uint256.Int, tick int64) error {
	if tick < MIN_TICK || tick > MAX_TICK {
		return ErrTickOutOfBounds
	}

	tm := pool.Get().(*tickMath)
	defer pool.Put(tm)

	tm.sqrtRatioAtTick(dest, tick)
	return nil
}

func (tm *tickMath) sqrtRatioAtTick(dest *uint256.Int, tick int64) {
	absTick := tick
	if tick < 0 {
		absTick = -tick
	}

	if (absTick & 0x1) != 0 {
		tm.ratio.Set(ratioConstants[0])
	} else {
		tm.ratio.Set(ratioConstants[1])
	}

	// ratio stays below 2^129 and every constant below 2^128, so the product fits.
	for i := 2; i < 21; i++ {
		if (absTick & (1 << (i - 1))) != 0 {
			tm.ratio.Mul(tm.ratio, ratioConstants[i]).Rsh(tm.ratio, 128)
		}
	}

	if tick > 0 {
		tm.ratio.Div(maxUint256, tm.ratio)
	}

	// UQ128.128 to UQ64.96, rounding up.
	tm.rem.And(tm.ratio, ratioConstants[21])
	dest.Rsh(tm.ratio, 32)
	if !tm.rem.IsZero() {
		dest.AddUint64(dest, 1)
	}
}

// GetTickAtSqrtRatio returns the greatest tick such that
// GetSqrtRatioAtTick(tick) <= sqrtPriceX96.
//
// The most significant bit of the price bounds the answer to a window of about
// 14k ticks, which is then binary searched.
func GetTickAtSqrtRatio(sqrtPriceX96 *uint256.Int) (int64, error) {
	if sqrtPriceX96.Lt(MIN_SQRT_RATIO) || !sqrtPriceX96.Lt(MAX_SQRT_RATIO) {
		return 0, ErrSqrtPriceOutOfBounds
	}

	msb, err := bitmath.MostSignificantBit(sqrtPriceX96)
	if err != nil {
		return 0, err
	}
	log2Lo := int64(msb) - 96
	log2Hi := log2Lo + 1
	low := max(min(log2Lo*ticksPerBitLow, log2Lo*ticksPerBitHigh)-2, MIN_TICK)
	high := min(max(log2Hi*ticksPerBitLow, log2Hi*ticksPerBitHigh)+2, MAX_TICK)

	tm := pool.Get().(*tickMath)
	defer pool.Put(tm)

	tick := low
	for low <= high {
		mid := low + (high-low)/2
		tm.sqrtRatioAtTick(tm.probe, mid)

		if !sqrtPriceX96.Lt(tm.probe) {
			tick = mid
			low = mid + 1
		} else {
			high = mid - 1
		}
	}

	return tick, nil
}
