package bitmath

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMostSignificantBit(t *testing.T) {
	testCases := []struct {
		name     string
		input    *uint256.Int
		expected uint8
		err      error
	}{
		{"Input 1", uint256.NewInt(1), 0, nil},
		{"Input 2", uint256.NewInt(2), 1, nil},
		{"Input 3", uint256.NewInt(3), 1, nil},
		{"Input 255", uint256.NewInt(255), 7, nil},
		{"Input 256", uint256.NewInt(256), 8, nil},
		{"Large Number (2^128 - 1)", new(uint256.Int).SubUint64(new(uint256.Int).Lsh(uint256.NewInt(1), 128), 1), 127, nil},
		{"Large Number (2^128)", new(uint256.Int).Lsh(uint256.NewInt(1), 128), 128, nil},
		{"Max uint256", new(uint256.Int).SetAllOne(), 255, nil},
		{"Error on Zero", uint256.NewInt(0), 0, ErrInputIsZero},
		{"Error on Nil", nil, 0, ErrInputIsNil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := MostSignificantBit(tc.input)
			if tc.err != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tc.err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tc.expected, result)
			}
		})
	}
}
