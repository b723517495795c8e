package tokenregistry

import (
	"testing"

	"github.com/defistate/defistate-swap-go/ids"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	wethAddress = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	usdcAddress = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := NewRegistry([]Token{
		{ID: 2, Address: usdcAddress, Name: "USD Coin", Symbol: "USDC", Decimals: 6},
		{ID: 1, Address: wethAddress, Name: "Wrapped Ether", Symbol: "WETH", Decimals: 18},
	})
	require.NoError(t, err)
	return r
}

func TestRegistry(t *testing.T) {
	r := newTestRegistry(t)
	nonExistentAddress := common.HexToAddress("0x1111111111111111111111111111111111111111")

	t.Run("Successful Lookups", func(t *testing.T) {
		weth, found := r.GetByID(1)
		assert.True(t, found, "WETH should be found by ID 1")
		assert.Equal(t, "WETH", weth.Symbol)

		usdc, found := r.GetByAddress(usdcAddress)
		assert.True(t, found, "USDC should be found by its address")
		assert.Equal(t, "USDC", usdc.Symbol)
	})

	t.Run("Not Found Lookups", func(t *testing.T) {
		_, found := r.GetByID(999)
		assert.False(t, found)

		_, found = r.GetByAddress(nonExistentAddress)
		assert.False(t, found)
	})

	t.Run("All Method", func(t *testing.T) {
		allTokens := r.All()
		require.Len(t, allTokens, 2)
		assert.Equal(t, "WETH", allTokens[0].Symbol, "All() is ordered by ID")
		assert.Equal(t, "USDC", allTokens[1].Symbol)

		allTokens[0].Symbol = "MODIFIED"
		original, _ := r.GetByID(1)
		assert.Equal(t, "WETH", original.Symbol, "Modifying the returned slice should not affect the internal state")
	})

	t.Run("Edge Case - Empty Registry", func(t *testing.T) {
		empty, err := NewRegistry(nil)
		require.NoError(t, err)
		_, found := empty.GetByID(1)
		assert.False(t, found)
		assert.NotNil(t, empty.All())
		assert.Empty(t, empty.All())
	})
}

func TestRegistry_Upsert(t *testing.T) {
	t.Run("replacing a token moves its address", func(t *testing.T) {
		r := newTestRegistry(t)
		newAddress := common.HexToAddress("0x2222222222222222222222222222222222222222")

		require.NoError(t, r.Upsert(Token{ID: 1, Address: newAddress, Symbol: "WETH2", Decimals: 18}))

		_, found := r.GetByAddress(wethAddress)
		assert.False(t, found, "the old address must be released")
		tok, found := r.GetByAddress(newAddress)
		require.True(t, found)
		assert.Equal(t, "WETH2", tok.Symbol)
		assert.Len(t, r.All(), 2)
	})

	t.Run("address held by another token", func(t *testing.T) {
		r := newTestRegistry(t)
		err := r.Upsert(Token{ID: 3, Address: wethAddress, Symbol: "FAKE"})
		assert.ErrorIs(t, err, ErrAddressConflict)

		_, found := r.GetByID(3)
		assert.False(t, found)
	})

	t.Run("duplicate address in constructor", func(t *testing.T) {
		_, err := NewRegistry([]Token{
			{ID: 1, Address: wethAddress},
			{ID: 2, Address: wethAddress},
		})
		assert.ErrorIs(t, err, ErrAddressConflict)
	})
}

func TestRegistry_FormatAmount(t *testing.T) {
	r := newTestRegistry(t)

	testCases := []struct {
		name     string
		id       ids.TokenID
		amount   *uint256.Int
		expected string
	}{
		{"1.5 USDC", 2, uint256.NewInt(1_500_000), "1.5"},
		{"one wei", 1, uint256.NewInt(1), "0.000000000000000001"},
		{"zero", 1, new(uint256.Int), "0"},
		{"250k USDC", 2, uint256.NewInt(250_000_000_000), "250000"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d, err := r.FormatAmount(tc.id, tc.amount)
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tc.expected).Equal(d), "got %s", d)
		})
	}

	_, err := r.FormatAmount(999, uint256.NewInt(1))
	assert.ErrorIs(t, err, ErrUnknownToken)

	_, err = r.FormatAmount(1, nil)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestRegistry_ParseAmount(t *testing.T) {
	r := newTestRegistry(t)

	testCases := []struct {
		name     string
		id       ids.TokenID
		input    string
		expected string
		err      error
	}{
		{"whole USDC", 2, "250000", "250000000000", nil},
		{"fractional WETH", 1, "0.1", "100000000000000000", nil},
		{"smallest unit", 2, "0.000001", "1", nil},
		{"too precise", 2, "0.0000001", "", ErrInvalidAmount},
		{"negative", 1, "-1", "", ErrInvalidAmount},
		{"garbage", 1, "one", "", ErrInvalidAmount},
		{"overflow", 1, "1e100", "", ErrInvalidAmount},
		{"unknown token", 999, "1", "", ErrUnknownToken},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			amount, err := r.ParseAmount(tc.id, tc.input)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, amount.Dec())

			// Round trip through FormatAmount.
			d, err := r.FormatAmount(tc.id, amount)
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tc.input).Equal(d))
		})
	}
}
