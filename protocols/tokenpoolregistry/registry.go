package tokenpoolregistry

import (
	"fmt"
	"iter"
	"slices"

	"github.com/defistate/defistate-swap-go/ids"
)

// NodeKind tags a graph node as a token or a pool.
type NodeKind uint8

const (
	KindToken NodeKind = iota
	KindPool
)

func (k NodeKind) String() string {
	switch k {
	case KindToken:
		return "token"
	case KindPool:
		return "pool"
	default:
		return fmt.Sprintf("NodeKind(%d)", uint8(k))
	}
}

// NodeIndex is the stable handle of a node. It is the node's position in the
// registry's arena and never changes for the lifetime of the registry.
type NodeIndex int

// Node is a token or a pool vertex. Only the field matching Kind is meaningful.
type Node struct {
	Kind  NodeKind    `json:"kind"`
	Token ids.TokenID `json:"token,omitempty"`
	Pool  ids.PoolID  `json:"pool,omitempty"`
}

func (n Node) String() string {
	if n.Kind == KindPool {
		return n.Pool.String()
	}
	return n.Token.String()
}

// TokenPoolRegistryView provides a complete snapshot of the graph's core data
// structures, for consumers that run their own traversal.
type TokenPoolRegistryView struct {
	Nodes     []Node        `json:"nodes"`
	Adjacency [][]NodeIndex `json:"adjacency"`
	EdgeCount int           `json:"edgeCount"`
}

// TokenPoolRegistry is a simple, non-thread-safe directed multigraph over token
// and pool nodes. Edges always join a token and a pool: token -> pool means the
// pool accepts the token as input, pool -> token means the pool emits it.
type TokenPoolRegistry struct {
	// Lookups for fast index retrieval
	tokenToIndex map[ids.TokenID]NodeIndex
	poolToIndex  map[ids.PoolID]NodeIndex

	// Arena; adjacency[i] holds the targets of the outgoing edges of nodes[i].
	nodes     []Node
	adjacency [][]NodeIndex
	edgeCount int
}

// NewTokenPoolRegistry creates an empty registry.
func NewTokenPoolRegistry() *TokenPoolRegistry {
	return &TokenPoolRegistry{
		tokenToIndex: make(map[ids.TokenID]NodeIndex),
		poolToIndex:  make(map[ids.PoolID]NodeIndex),
		nodes:        make([]Node, 0),
		adjacency:    make([][]NodeIndex, 0),
	}
}

// NewTokenPoolRegistryFromView reconstructs a registry from a view snapshot. It
// deep copies the view so the new registry has full ownership of its memory.
func NewTokenPoolRegistryFromView(view *TokenPoolRegistryView) (*TokenPoolRegistry, error) {
	if len(view.Nodes) != len(view.Adjacency) {
		return nil, fmt.Errorf("view has %d nodes but %d adjacency lists", len(view.Nodes), len(view.Adjacency))
	}

	r := &TokenPoolRegistry{
		tokenToIndex: make(map[ids.TokenID]NodeIndex, len(view.Nodes)),
		poolToIndex:  make(map[ids.PoolID]NodeIndex, len(view.Nodes)),
		nodes:        slices.Clone(view.Nodes),
		adjacency:    make([][]NodeIndex, len(view.Adjacency)),
	}
	if r.nodes == nil {
		r.nodes = make([]Node, 0)
	}

	for i, n := range r.nodes {
		idx := NodeIndex(i)
		switch n.Kind {
		case KindToken:
			if _, dup := r.tokenToIndex[n.Token]; dup {
				return nil, fmt.Errorf("view lists %s twice", n.Token)
			}
			r.tokenToIndex[n.Token] = idx
		case KindPool:
			if _, dup := r.poolToIndex[n.Pool]; dup {
				return nil, fmt.Errorf("view lists %s twice", n.Pool)
			}
			r.poolToIndex[n.Pool] = idx
		default:
			return nil, fmt.Errorf("node %d has unknown kind %s", i, n.Kind)
		}
	}

	edges := 0
	for i, adj := range view.Adjacency {
		for _, target := range adj {
			if target < 0 || int(target) >= len(r.nodes) {
				return nil, fmt.Errorf("node %d has an edge to out-of-range node %d", i, target)
			}
			if r.nodes[target].Kind == r.nodes[i].Kind {
				return nil, fmt.Errorf("edge %d -> %d joins two %s nodes", i, target, r.nodes[i].Kind)
			}
		}
		r.adjacency[i] = slices.Clone(adj)
		edges += len(adj)
	}
	r.edgeCount = edges
	return r, nil
}

func (r *TokenPoolRegistry) addNode(n Node) NodeIndex {
	idx := NodeIndex(len(r.nodes))
	r.nodes = append(r.nodes, n)
	r.adjacency = append(r.adjacency, nil)
	return idx
}

// AddToken returns the node of token, creating it on first reference.
func (r *TokenPoolRegistry) AddToken(token ids.TokenID) NodeIndex {
	if idx, ok := r.tokenToIndex[token]; ok {
		return idx
	}
	idx := r.addNode(Node{Kind: KindToken, Token: token})
	r.tokenToIndex[token] = idx
	return idx
}

// AddPool returns the node of pool, creating it on first reference.
func (r *TokenPoolRegistry) AddPool(pool ids.PoolID) NodeIndex {
	if idx, ok := r.poolToIndex[pool]; ok {
		return idx
	}
	idx := r.addNode(Node{Kind: KindPool, Pool: pool})
	r.poolToIndex[pool] = idx
	return idx
}

func (r *TokenPoolRegistry) addEdge(from, to NodeIndex) {
	r.adjacency[from] = append(r.adjacency[from], to)
	r.edgeCount++
}

// addEdgeUnique adds from -> to unless that edge already exists.
func (r *TokenPoolRegistry) addEdgeUnique(from, to NodeIndex) {
	if slices.Contains(r.adjacency[from], to) {
		return
	}
	r.addEdge(from, to)
}

// ConnectTokenToPool adds a token -> pool edge. Repeated calls add parallel edges.
func (r *TokenPoolRegistry) ConnectTokenToPool(token ids.TokenID, pool ids.PoolID) {
	r.addEdge(r.AddToken(token), r.AddPool(pool))
}

// ConnectPoolToToken adds a pool -> token edge. Repeated calls add parallel edges.
func (r *TokenPoolRegistry) ConnectPoolToToken(pool ids.PoolID, token ids.TokenID) {
	r.addEdge(r.AddPool(pool), r.AddToken(token))
}

// ConnectBidirectionalPair makes a and b tradable into each other through pool:
// a -> pool -> b and b -> pool -> a. Edges that already exist are not duplicated.
func (r *TokenPoolRegistry) ConnectBidirectionalPair(pool ids.PoolID, a, b ids.TokenID) {
	p := r.AddPool(pool)
	ai := r.AddToken(a)
	bi := r.AddToken(b)

	r.addEdgeUnique(ai, p)
	r.addEdgeUnique(p, bi)
	r.addEdgeUnique(bi, p)
	r.addEdgeUnique(p, ai)
}

// neighbors yields the targets of the outgoing edges of the node found by
// lookup that have the given kind. The lookup runs each time the sequence is
// iterated; an unknown id yields nothing.
func (r *TokenPoolRegistry) neighbors(lookup func() (NodeIndex, bool), kind NodeKind) iter.Seq[NodeIndex] {
	return func(yield func(NodeIndex) bool) {
		idx, ok := lookup()
		if !ok {
			return
		}
		for _, target := range r.adjacency[idx] {
			if r.nodes[target].Kind != kind {
				continue
			}
			if !yield(target) {
				return
			}
		}
	}
}

// PoolsAccepting yields the pool nodes reachable by one outgoing edge of token.
func (r *TokenPoolRegistry) PoolsAccepting(token ids.TokenID) iter.Seq[NodeIndex] {
	return r.neighbors(func() (NodeIndex, bool) { return r.TokenIndex(token) }, KindPool)
}

// TokensEmittedBy yields the token nodes reachable by one outgoing edge of pool.
func (r *TokenPoolRegistry) TokensEmittedBy(pool ids.PoolID) iter.Seq[NodeIndex] {
	return r.neighbors(func() (NodeIndex, bool) { return r.PoolIndex(pool) }, KindToken)
}

// HasHop reports whether from -> pool -> to is a pair of edges in the graph.
func (r *TokenPoolRegistry) HasHop(pool ids.PoolID, from, to ids.TokenID) bool {
	p, ok := r.poolToIndex[pool]
	if !ok {
		return false
	}
	f, ok := r.tokenToIndex[from]
	if !ok {
		return false
	}
	t, ok := r.tokenToIndex[to]
	if !ok {
		return false
	}
	return slices.Contains(r.adjacency[f], p) && slices.Contains(r.adjacency[p], t)
}

// Node returns the node stored at idx. It panics if idx is out of range.
func (r *TokenPoolRegistry) Node(idx NodeIndex) Node {
	return r.nodes[idx]
}

func (r *TokenPoolRegistry) TokenIndex(token ids.TokenID) (NodeIndex, bool) {
	idx, ok := r.tokenToIndex[token]
	return idx, ok
}

func (r *TokenPoolRegistry) PoolIndex(pool ids.PoolID) (NodeIndex, bool) {
	idx, ok := r.poolToIndex[pool]
	return idx, ok
}

func (r *TokenPoolRegistry) NodeCount() int {
	return len(r.nodes)
}

func (r *TokenPoolRegistry) EdgeCount() int {
	return r.edgeCount
}

// poolIDs resolves a sequence of pool nodes to their ids.
func (r *TokenPoolRegistry) poolIDs(seq iter.Seq[NodeIndex]) []ids.PoolID {
	var out []ids.PoolID
	for idx := range seq {
		out = append(out, r.nodes[idx].Pool)
	}
	return out
}

// tokenIDs resolves a sequence of token nodes to their ids.
func (r *TokenPoolRegistry) tokenIDs(seq iter.Seq[NodeIndex]) []ids.TokenID {
	var out []ids.TokenID
	for idx := range seq {
		out = append(out, r.nodes[idx].Token)
	}
	return out
}

// View returns a deep copy of the graph's core data structures.
func (r *TokenPoolRegistry) View() *TokenPoolRegistryView {
	adjacencyCopy := make([][]NodeIndex, len(r.adjacency))
	for i, adj := range r.adjacency {
		adjCopy := make([]NodeIndex, len(adj))
		copy(adjCopy, adj)
		adjacencyCopy[i] = adjCopy
	}

	nodesCopy := make([]Node, len(r.nodes))
	copy(nodesCopy, r.nodes)

	return &TokenPoolRegistryView{
		Nodes:     nodesCopy,
		Adjacency: adjacencyCopy,
		EdgeCount: r.edgeCount,
	}
}
