package tokenpoolregistry

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/defistate/defistate-swap-go/ids"
)

// Pair is the unordered pair of tokens a two-sided pool trades between.
type Pair struct {
	Token0 ids.TokenID
	Token1 ids.TokenID
}

// TokenPoolSystem provides a concurrency-safe layer over a TokenPoolRegistry.
// It uses a sync.RWMutex for writes and an atomic.Pointer for lock-free snapshot reads.
type TokenPoolSystem struct {
	mu         sync.RWMutex
	registry   *TokenPoolRegistry
	cachedView atomic.Pointer[TokenPoolRegistryView] // Read-optimized cache for the registry view
}

// NewTokenPoolSystem creates and initializes a new, concurrency-safe TokenPoolSystem.
func NewTokenPoolSystem() *TokenPoolSystem {
	s := &TokenPoolSystem{
		registry: NewTokenPoolRegistry(),
	}
	// Initialize the cached view with an empty, non-nil snapshot.
	s.cachedView.Store(s.registry.View())
	return s
}

// NewTokenPoolSystemFromView creates a concurrency-safe system from a snapshot view.
func NewTokenPoolSystemFromView(view *TokenPoolRegistryView) (*TokenPoolSystem, error) {
	registry, err := NewTokenPoolRegistryFromView(view)
	if err != nil {
		return nil, err
	}
	s := &TokenPoolSystem{
		registry: registry,
	}
	s.cachedView.Store(s.registry.View())
	return s, nil
}

// updateCachedView generates a fresh view from the registry and atomically updates the pointer.
// This method MUST be called from within a write lock (s.mu.Lock).
func (s *TokenPoolSystem) updateCachedView() {
	s.cachedView.Store(s.registry.View())
}

// --- Write Methods ---

// AddPair connects token0 and token1 through pool in both directions. For
// multiple additions, use AddPairs.
func (s *TokenPoolSystem) AddPair(pool ids.PoolID, pair Pair) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.registry.ConnectBidirectionalPair(pool, pair.Token0, pair.Token1)
	s.updateCachedView()
}

// AddPairs adds multiple pools in a single operation and refreshes the cached
// view once. It panics if the input slices have mismatched lengths, as this is
// a programmer error.
func (s *TokenPoolSystem) AddPairs(poolIDs []ids.PoolID, pairs []Pair) {
	if len(poolIDs) != len(pairs) {
		panic(fmt.Sprintf("mismatched input lengths: %d pool IDs and %d pairs", len(poolIDs), len(pairs)))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(poolIDs) == 0 {
		return
	}

	for i, poolID := range poolIDs {
		s.registry.ConnectBidirectionalPair(poolID, pairs[i].Token0, pairs[i].Token1)
	}

	s.updateCachedView()
}

// --- Read Methods ---

// PoolsForToken returns the ids of every pool that accepts token as input.
func (s *TokenPoolSystem) PoolsForToken(token ids.TokenID) []ids.PoolID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry.poolIDs(s.registry.PoolsAccepting(token))
}

// TokensForPool returns the ids of every token pool emits.
func (s *TokenPoolSystem) TokensForPool(pool ids.PoolID) []ids.TokenID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry.tokenIDs(s.registry.TokensEmittedBy(pool))
}

// HasHop reports whether from -> pool -> to is routable.
func (s *TokenPoolSystem) HasHop(pool ids.PoolID, from, to ids.TokenID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry.HasHop(pool, from, to)
}

// View returns a deep copy of the latest snapshot. It never takes the lock.
func (s *TokenPoolSystem) View() *TokenPoolRegistryView {
	cachedViewPtr := s.cachedView.Load()
	if cachedViewPtr == nil {
		return &TokenPoolRegistryView{}
	}

	// The cached snapshot is shared between readers, so callers get their own copy.
	nodesCopy := make([]Node, len(cachedViewPtr.Nodes))
	copy(nodesCopy, cachedViewPtr.Nodes)

	adjacencyCopy := make([][]NodeIndex, len(cachedViewPtr.Adjacency))
	for i, adj := range cachedViewPtr.Adjacency {
		adjCopy := make([]NodeIndex, len(adj))
		copy(adjCopy, adj)
		adjacencyCopy[i] = adjCopy
	}

	return &TokenPoolRegistryView{
		Nodes:     nodesCopy,
		Adjacency: adjacencyCopy,
		EdgeCount: cachedViewPtr.EdgeCount,
	}
}
