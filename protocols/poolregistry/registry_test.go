package poolregistry

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	addr1 = common.HexToAddress("0xB4e16d0168e52d35CaCD2c6185b44281Ec28C9Dc")
	addr2 = common.HexToAddress("0x8ad599c3A0ff1De082011EFDDc58f1908eb6e6D8")
)

func testPools() []Pool {
	return []Pool{
		{ID: 20, Address: addr2, Kind: KindUniswapV3, Token0: 2, Token1: 1, Fee: 3000},
		{ID: 10, Address: addr1, Kind: KindUniswapV2, Token0: 2, Token1: 1, Fee: 30},
	}
}

func TestRegistry(t *testing.T) {
	r, err := NewRegistry(testPools())
	require.NoError(t, err)

	t.Run("Successful Lookups", func(t *testing.T) {
		p, found := r.GetByID(10)
		require.True(t, found)
		assert.Equal(t, KindUniswapV2, p.Kind)

		p, found = r.GetByAddress(addr2)
		require.True(t, found)
		assert.EqualValues(t, 20, p.ID)
		assert.Equal(t, uint32(3000), p.Fee)
	})

	t.Run("Not Found Lookups", func(t *testing.T) {
		_, found := r.GetByID(999)
		assert.False(t, found)

		_, found = r.GetByAddress(common.HexToAddress("0x1111111111111111111111111111111111111111"))
		assert.False(t, found)
	})

	t.Run("All Method", func(t *testing.T) {
		all := r.All()
		require.Len(t, all, 2)
		assert.EqualValues(t, 10, all[0].ID)
		assert.EqualValues(t, 20, all[1].ID)

		all[0].Fee = 1
		p, _ := r.GetByID(10)
		assert.Equal(t, uint32(30), p.Fee)
	})
}

func TestRegistry_Upsert(t *testing.T) {
	testCases := []struct {
		name string
		pool Pool
		err  error
	}{
		{"replace existing", Pool{ID: 10, Address: addr1, Kind: KindUniswapV2, Token0: 2, Token1: 1, Fee: 25}, nil},
		{"unknown kind", Pool{ID: 30, Kind: "curve", Token0: 1, Token1: 2}, ErrUnknownKind},
		{"same token twice", Pool{ID: 30, Kind: KindUniswapV2, Token0: 1, Token1: 1}, ErrInvalidPool},
		{"address conflict", Pool{ID: 30, Address: addr1, Kind: KindUniswapV2, Token0: 1, Token1: 2}, ErrAddressConflict},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r, err := NewRegistry(testPools())
			require.NoError(t, err)

			err = r.Upsert(tc.pool)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
				assert.Len(t, r.All(), 2)
				return
			}
			require.NoError(t, err)
			got, found := r.GetByID(tc.pool.ID)
			require.True(t, found)
			assert.Equal(t, tc.pool, got)
		})
	}
}

func TestKind(t *testing.T) {
	assert.True(t, KindUniswapV2.Valid())
	assert.True(t, KindUniswapV3.Valid())
	assert.False(t, Kind("").Valid())
	assert.Equal(t, "uniswapv3", KindUniswapV3.String())
}
