package tokenpoolregistry

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/defistate/defistate-swap-go/ids"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenPoolSystem(t *testing.T) {

	t.Run("API_Correctness_Add", func(t *testing.T) {
		s := NewTokenPoolSystem()

		s.AddPair(101, Pair{10, 20})
		// Another pool with a shared token
		s.AddPair(102, Pair{10, 30})
		// A third pool over the same tokens as the first
		s.AddPair(103, Pair{10, 20})

		assert.ElementsMatch(t, []ids.PoolID{101, 102, 103}, s.PoolsForToken(10))
		assert.ElementsMatch(t, []ids.PoolID{101, 103}, s.PoolsForToken(20))
		assert.ElementsMatch(t, []ids.PoolID{102}, s.PoolsForToken(30))
		assert.Nil(t, s.PoolsForToken(40))

		assert.ElementsMatch(t, []ids.TokenID{10, 30}, s.TokensForPool(102))
		assert.Nil(t, s.TokensForPool(999))

		assert.True(t, s.HasHop(102, 30, 10))
		assert.False(t, s.HasHop(102, 20, 10))
	})

	t.Run("API_Correctness_BatchOperations", func(t *testing.T) {
		s := NewTokenPoolSystem()

		s.AddPairs([]ids.PoolID{101, 102, 103}, []Pair{{10, 20}, {10, 30}, {10, 20}})
		assert.ElementsMatch(t, []ids.PoolID{101, 102, 103}, s.PoolsForToken(10))
		assert.ElementsMatch(t, []ids.PoolID{101, 103}, s.PoolsForToken(20))

		edges := s.View().EdgeCount
		s.AddPairs([]ids.PoolID{101, 102}, []Pair{{20, 10}, {10, 30}})
		assert.Equal(t, edges, s.View().EdgeCount, "re-adding known pairs must not add edges")

		s.AddPairs(nil, nil)

		assert.Panics(t, func() {
			s.AddPairs([]ids.PoolID{1}, []Pair{{1, 2}, {3, 4}})
		}, "AddPairs should panic if slice lengths are mismatched")
	})

	t.Run("View_IsLockFreeAndReturnsCopy", func(t *testing.T) {
		s := NewTokenPoolSystem()
		s.AddPair(101, Pair{10, 20})

		view1 := s.View()
		require.Len(t, view1.Nodes, 3)
		originalTarget := view1.Adjacency[0][0]

		view1.Nodes[0].Token = 999
		view1.Adjacency[0][0] = 999

		view2 := s.View()
		assert.Equal(t, ids.TokenID(10), view2.Nodes[1].Token, "internal state of Nodes should not be affected by modification")
		assert.Equal(t, originalTarget, view2.Adjacency[0][0], "internal state of Adjacency should not be affected by modification")
	})

	t.Run("Concurrency_ReadsAndWrites_WithBatching", func(t *testing.T) {
		s := NewTokenPoolSystem()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		writerWg := &sync.WaitGroup{}

		writerWg.Add(1)
		go func() {
			defer writerWg.Done()
			const batchSize = 20
			var poolsToAdd []ids.PoolID
			var pairsToAdd []Pair

			for i := 0; i < 200; i++ {
				poolsToAdd = append(poolsToAdd, ids.PoolID(1000+i))
				pairsToAdd = append(pairsToAdd, Pair{ids.TokenID(i), ids.TokenID(i + 1)})

				if len(poolsToAdd) >= batchSize {
					s.AddPairs(poolsToAdd, pairsToAdd)
					poolsToAdd, pairsToAdd = nil, nil
				}
			}
			if len(poolsToAdd) > 0 {
				s.AddPairs(poolsToAdd, pairsToAdd)
			}
		}()

		readerWg := &sync.WaitGroup{}
		numReaders := 10
		readerWg.Add(numReaders)
		for i := 0; i < numReaders; i++ {
			isViewReader := i%2 == 0
			go func(isViewReader bool) {
				defer readerWg.Done()
				for {
					select {
					case <-ctx.Done():
						return
					default:
						if isViewReader {
							_ = s.View()
						} else {
							randomTokenID := ids.TokenID(rand.Intn(150))
							_ = s.PoolsForToken(randomTokenID)
						}
					}
				}
			}(isViewReader)
		}

		writerWg.Wait()
		cancel()
		readerWg.Wait()

		finalView := s.View()
		// 200 pools plus 201 tokens, four edges per pool.
		assert.Len(t, finalView.Nodes, 401)
		assert.Equal(t, 800, finalView.EdgeCount)
	})
}

func TestNewTokenPoolSystemFromView(t *testing.T) {
	t.Parallel()
	// Token 10 (index 0) and token 20 (index 2) trade through pool 100 (index 1).
	originalView := &TokenPoolRegistryView{
		Nodes: []Node{
			{Kind: KindToken, Token: 10},
			{Kind: KindPool, Pool: 100},
			{Kind: KindToken, Token: 20},
		},
		Adjacency: [][]NodeIndex{{1}, {2, 0}, {1}},
		EdgeCount: 4,
	}

	s, err := NewTokenPoolSystemFromView(originalView)
	require.NoError(t, err)
	require.NotNil(t, s)

	assert.Equal(t, []ids.PoolID{100}, s.PoolsForToken(10))
	assert.Equal(t, []ids.TokenID{20, 10}, s.TokensForPool(100))

	systemView := s.View()
	require.NotNil(t, systemView)
	assert.Equal(t, originalView, systemView)

	_, err = NewTokenPoolSystemFromView(&TokenPoolRegistryView{Nodes: []Node{{Kind: KindToken}}})
	assert.Error(t, err)
}

func BenchmarkTokenPoolSystem(b *testing.B) {
	sizes := []int{100, 1000, 10000}

	for _, size := range sizes {
		b.Run(fmt.Sprintf("Size%d", size), func(b *testing.B) {
			numPools := size
			numTokens := size / 2

			b.Run("AddPair_Single", func(b *testing.B) {
				s := NewTokenPoolSystem()
				for i := 0; i < numTokens; i++ {
					s.AddPair(ids.PoolID(i), Pair{ids.TokenID(i), ids.TokenID(i + 1)})
				}
				b.ResetTimer()
				b.ReportAllocs()
				for i := 0; i < b.N; i++ {
					s.AddPair(ids.PoolID(numPools+i), Pair{ids.TokenID(rand.Intn(numTokens)), ids.TokenID(rand.Intn(numTokens))})
				}
			})

			s := NewTokenPoolSystem()
			for i := 0; i < numPools; i++ {
				s.AddPair(ids.PoolID(i), Pair{ids.TokenID(i), ids.TokenID(i + 1)})
			}

			b.Run("View", func(b *testing.B) {
				b.ReportAllocs()
				b.RunParallel(func(pb *testing.PB) {
					for pb.Next() {
						_ = s.View()
					}
				})
			})

			b.Run("PoolsForToken", func(b *testing.B) {
				b.ReportAllocs()
				b.RunParallel(func(pb *testing.PB) {
					localRand := rand.New(rand.NewSource(int64(b.N)))
					for pb.Next() {
						_ = s.PoolsForToken(ids.TokenID(localRand.Intn(numTokens)))
					}
				})
			})
		})
	}
}
