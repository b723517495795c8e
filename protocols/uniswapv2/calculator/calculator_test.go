package uniswapv2

import (
	"testing"

	"github.com/defistate/defistate-swap-go/ids"
	uniswapv2 "github.com/defistate/defistate-swap-go/protocols/uniswapv2"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// u is a helper to create a uint256.Int from a decimal string.
func u(s string) *uint256.Int {
	return uint256.MustFromDecimal(s)
}

// usdcWeth returns a fresh 100 USDC / 50 WETH pool.
func usdcWeth(feeBps uint16) *uniswapv2.Pool {
	return &uniswapv2.Pool{
		ID:       1,
		Token0:   0,                          // USDC
		Token1:   1,                          // WETH
		Reserve0: u("100000000"),             // 100 USDC
		Reserve1: u("50000000000000000000"), // 50 WETH (18 decimals)
		FeeBps:   feeBps,
	}
}

func TestGetAmountOut(t *testing.T) {
	testCases := []struct {
		name           string
		amountIn       *uint256.Int
		tokenIn        ids.TokenID
		tokenOut       ids.TokenID
		pool           *uniswapv2.Pool
		expectedAmount *uint256.Int
		expectedErr    error
	}{
		{
			name:           "Standard Swap (Token0 -> Token1)",
			amountIn:       u("1000000"), // 1 USDC
			tokenIn:        0,
			tokenOut:       1,
			pool:           usdcWeth(30),
			expectedAmount: u("493579017198530649"),
		},
		{
			name:           "Standard Swap (Token1 -> Token0)",
			amountIn:       u("1000000000000000000"), // 1 WETH
			tokenIn:        1,
			tokenOut:       0,
			pool:           usdcWeth(30),
			expectedAmount: u("1955016"),
		},
		{
			name:           "Swap with Different Fee",
			amountIn:       u("1000000"),
			tokenIn:        0,
			tokenOut:       1,
			pool:           usdcWeth(100), // 1% fee
			expectedAmount: u("490147539360332706"),
		},
		{
			name:     "Edge Case: Zero Liquidity",
			amountIn: u("1000000"),
			tokenIn:  0,
			tokenOut: 1,
			pool: &uniswapv2.Pool{
				ID:       3,
				Token0:   0,
				Token1:   1,
				Reserve0: new(uint256.Int),
				Reserve1: u("50000000000000000000"),
				FeeBps:   30,
			},
			expectedAmount: new(uint256.Int),
		},
		{
			name:           "Edge Case: Zero Input",
			amountIn:       new(uint256.Int),
			tokenIn:        0,
			tokenOut:       1,
			pool:           usdcWeth(30),
			expectedAmount: new(uint256.Int),
		},
		{
			name:        "Invalid Input: Nil AmountIn",
			amountIn:    nil,
			tokenIn:     0,
			tokenOut:    1,
			pool:        usdcWeth(30),
			expectedErr: ErrNilAmount,
		},
		{
			name:        "Invalid Input: Token Mismatch",
			amountIn:    u("1000000"),
			tokenIn:     99, // This token is not in the pool
			tokenOut:    1,
			pool:        usdcWeth(30),
			expectedErr: ErrTokenMismatch,
		},
		{
			name:        "Invalid State: Fee of 100%",
			amountIn:    u("1000000"),
			tokenIn:     0,
			tokenOut:    1,
			pool:        usdcWeth(10000),
			expectedErr: ErrInvalidFee,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			amountOut, err := GetAmountOut(tc.amountIn, tc.tokenIn, tc.tokenOut, tc.pool)

			if tc.expectedErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tc.expectedErr)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, amountOut)
			assert.Equal(t, tc.expectedAmount.Dec(), amountOut.Dec())
		})
	}
}

func TestGetAmountIn(t *testing.T) {
	testCases := []struct {
		name           string
		amountOut      *uint256.Int
		tokenIn        ids.TokenID
		tokenOut       ids.TokenID
		pool           *uniswapv2.Pool
		expectedAmount *uint256.Int
		expectedErr    error
	}{
		{
			name:           "Standard Swap (Token0 -> Token1)",
			amountOut:      u("493579017198530649"),
			tokenIn:        0,
			tokenOut:       1,
			pool:           usdcWeth(30),
			expectedAmount: u("1000000"),
		},
		{
			name:           "Standard Swap (Token1 -> Token0)",
			amountOut:      u("1955016"),
			tokenIn:        1,
			tokenOut:       0,
			pool:           usdcWeth(30),
			expectedAmount: u("999999498234537320"),
		},
		{
			name:        "Invalid Input: Nil AmountOut",
			amountOut:   nil,
			pool:        usdcWeth(30),
			expectedErr: ErrNilAmount,
		},
		{
			name:        "Invalid State: Insufficient Liquidity",
			amountOut:   u("60000000000000000000"), // Request more than is in the pool
			tokenIn:     0,
			tokenOut:    1,
			pool:        usdcWeth(30),
			expectedErr: ErrInsufficientLiquidity,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			amountIn, err := GetAmountIn(tc.amountOut, tc.tokenIn, tc.tokenOut, tc.pool)

			if tc.expectedErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tc.expectedErr)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, amountIn)
			assert.Equal(t, tc.expectedAmount.Dec(), amountIn.Dec())
		})
	}
}

func TestSimulateSwap(t *testing.T) {
	pool := usdcWeth(30)
	amountIn := u("1000000")

	amountOut, newPool, err := SimulateSwap(amountIn, 0, 1, pool)
	require.NoError(t, err)
	assert.Equal(t, "493579017198530649", amountOut.Dec())

	expectedReserve0 := new(uint256.Int).Add(pool.Reserve0, amountIn)
	expectedReserve1 := new(uint256.Int).Sub(pool.Reserve1, amountOut)
	assert.True(t, expectedReserve0.Eq(newPool.Reserve0))
	assert.True(t, expectedReserve1.Eq(newPool.Reserve1))
}

// TestSimulateSwap_StateIsolation verifies that the simulation does not mutate
// its input and that the returned state shares no memory with it.
func TestSimulateSwap_StateIsolation(t *testing.T) {
	original := usdcWeth(30)
	pristine := original.Clone()
	amountIn := u("1000000")

	amountOut1, next1, err := SimulateSwap(amountIn, 0, 1, original)
	require.NoError(t, err)
	amountOut2, next2, err := SimulateSwap(amountIn, 0, 1, original)
	require.NoError(t, err)

	t.Run("Idempotency Check", func(t *testing.T) {
		assert.Equal(t, amountOut1.Dec(), amountOut2.Dec())
		assert.Equal(t, next1, next2)
		assert.Equal(t, pristine, original)
	})

	t.Run("Deep Copy Check", func(t *testing.T) {
		assert.NotSame(t, original.Reserve0, next1.Reserve0)
		assert.NotSame(t, original.Reserve1, next1.Reserve1)
		assert.NotSame(t, next1.Reserve0, next2.Reserve0)
	})
}

func TestPricer(t *testing.T) {
	state := usdcWeth(30)
	pricer := NewPricer(state)

	assert.Equal(t, ids.PoolID(1), pricer.ID())
	assert.True(t, pricer.Supports(0, 1))
	assert.True(t, pricer.Supports(1, 0))
	assert.False(t, pricer.Supports(0, 0))
	assert.False(t, pricer.Supports(0, 2))

	t.Run("Swap updates reserves in place", func(t *testing.T) {
		out, err := pricer.Swap(state, 0, 1, u("1000000"))
		require.NoError(t, err)
		assert.Equal(t, "493579017198530649", out.Dec())
		assert.Equal(t, "101000000", state.Reserve0.Dec())
		assert.Equal(t, "49506420982801469351", state.Reserve1.Dec())
	})

	t.Run("Failed swap leaves state untouched", func(t *testing.T) {
		before := state.Clone()
		_, err := pricer.Swap(state, 5, 1, u("1000000"))
		require.ErrorIs(t, err, ErrTokenMismatch)
		assert.Equal(t, before, state)
	})
}

// result is a package-level variable to ensure the compiler does not optimize away the benchmarked function call.
var result *uint256.Int

func BenchmarkGetAmountOut(b *testing.B) {
	pool := usdcWeth(30)
	amountIn := u("1000000")
	b.ReportAllocs()
	for b.Loop() {
		result, _ = GetAmountOut(amountIn, 0, 1, pool)
	}
}
