package engine

import (
	"testing"

	"github.com/defistate/defistate-swap-go/ids"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorld_Balance(t *testing.T) {
	w := NewWorld[*feeState]()

	t.Run("unknown token holds zero", func(t *testing.T) {
		b := w.Balance(42)
		require.NotNil(t, b)
		assert.True(t, b.IsZero())
	})

	t.Run("returned balance is a copy", func(t *testing.T) {
		w.SetBalance(1, uint256.NewInt(100))
		b := w.Balance(1)
		b.SetUint64(5)
		assert.Equal(t, uint64(100), w.Balance(1).Uint64())
	})

	t.Run("SetBalance copies its argument", func(t *testing.T) {
		amount := uint256.NewInt(7)
		w.SetBalance(2, amount)
		amount.SetUint64(8)
		assert.Equal(t, uint64(7), w.Balance(2).Uint64())
	})
}

func TestWorld_CreditDebit(t *testing.T) {
	w := NewWorld[*feeState]()

	credit := uint256.NewInt(50)
	w.Credit(1, credit)
	credit.SetUint64(1)
	assert.Equal(t, uint64(50), w.Balance(1).Uint64(), "first credit must not alias the argument")

	w.Credit(1, uint256.NewInt(25))
	assert.Equal(t, uint64(75), w.Balance(1).Uint64())

	require.NoError(t, w.Debit(1, uint256.NewInt(75)))
	assert.True(t, w.Balance(1).IsZero())

	err := w.Debit(1, uint256.NewInt(1))
	require.ErrorIs(t, err, ErrInsufficientBalance)

	err = w.Debit(9, uint256.NewInt(1))
	require.ErrorIs(t, err, ErrInsufficientBalance)
	require.NoError(t, w.Debit(9, new(uint256.Int)))

	t.Run("credit overflow panics", func(t *testing.T) {
		full := new(uint256.Int).SetAllOne()
		w.SetBalance(3, full)
		assert.Panics(t, func() { w.Credit(3, uint256.NewInt(1)) })
	})
}

func TestWorld_Clone(t *testing.T) {
	w := NewWorld[*feeState]()
	w.SetBalance(1, uint256.NewInt(10))
	w.SetPoolState(7, &feeState{FeeBps: 100})
	w.SetPoolState(3, &feeState{FeeBps: 200})

	c := w.Clone()
	w.Credit(1, uint256.NewInt(5))
	live, ok := w.PoolState(7)
	require.True(t, ok)
	live.FeeBps = 1

	assert.Equal(t, uint64(10), c.Balance(1).Uint64())
	cloned, ok := c.PoolState(7)
	require.True(t, ok)
	assert.Equal(t, uint64(100), cloned.FeeBps)

	assert.Equal(t, []ids.PoolID{3, 7}, c.PoolIDs())
}

func TestWorld_PoolStateIsLive(t *testing.T) {
	w := NewWorld[*feeState]()
	_, ok := w.PoolState(1)
	assert.False(t, ok)

	w.SetPoolState(1, &feeState{FeeBps: 100})
	s, _ := w.PoolState(1)
	s.FeeBps = 300

	again, _ := w.PoolState(1)
	assert.Equal(t, uint64(300), again.FeeBps)
}
