package liquiditymath

import (
	"math/big"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddDelta(t *testing.T) {
	maxU128 := uint256.MustFromBig(maxUint128)

	testCases := []struct {
		name     string
		x        *uint256.Int
		y        *big.Int
		expected string
		err      error
	}{
		{"1 + 0", uint256.NewInt(1), big.NewInt(0), "1", nil},
		{"1 + -1", uint256.NewInt(1), big.NewInt(-1), "0", nil},
		{"1 + 1", uint256.NewInt(1), big.NewInt(1), "2", nil},
		{"max - 15 + 15", new(uint256.Int).SubUint64(maxU128, 15), big.NewInt(15), maxU128.Dec(), nil},
		{"max - 15 + 16 overflows", new(uint256.Int).SubUint64(maxU128, 15), big.NewInt(16), "", ErrLiquidityOverflow},
		{"0 + -1 underflows", uint256.NewInt(0), big.NewInt(-1), "", ErrLiquidityUnderflow},
		{"3 + -4 underflows", uint256.NewInt(3), big.NewInt(-4), "", ErrLiquidityUnderflow},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			dest := uint256.NewInt(42)
			err := AddDelta(dest, tc.x, tc.y)
			if tc.err != nil {
				require.ErrorIs(t, err, tc.err)
				assert.Equal(t, uint64(42), dest.Uint64(), "dest must be untouched on error")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, dest.Dec())
		})
	}

	t.Run("dest may alias x", func(t *testing.T) {
		x := uint256.NewInt(100)
		require.NoError(t, AddDelta(x, x, big.NewInt(-40)))
		assert.Equal(t, uint64(60), x.Uint64())
	})
}
