package main

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/big"

	"github.com/defistate/defistate-swap-go/cmd/swapsim/config"
	"github.com/defistate/defistate-swap-go/engine"
	"github.com/defistate/defistate-swap-go/ids"
	"github.com/defistate/defistate-swap-go/protocols/multipool"
	"github.com/defistate/defistate-swap-go/protocols/poolregistry"
	"github.com/defistate/defistate-swap-go/protocols/tokenpoolregistry"
	"github.com/defistate/defistate-swap-go/protocols/tokenregistry"
	uniswapv2 "github.com/defistate/defistate-swap-go/protocols/uniswapv2"
	uniswapv3 "github.com/defistate/defistate-swap-go/protocols/uniswapv3"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ErrInvalidScenario = errors.New("invalid scenario")
	// ErrHopNotInGraph is returned when a route hop is not an edge pair of the
	// token-pool graph.
	ErrHopNotInGraph = errors.New("route hop is not in the token-pool graph")
)

// simulator is a scenario wired to its registries, graph, world and engine.
type simulator struct {
	scenario *config.Scenario
	tokens   *tokenregistry.Registry
	pools    *poolregistry.Registry
	graph    *tokenpoolregistry.TokenPoolSystem
	world    *engine.World[multipool.State]
	engine   *engine.Engine[multipool.State]
	logger   *slog.Logger
}

func newSimulator(s *config.Scenario, logger *slog.Logger, reg prometheus.Registerer) (*simulator, error) {
	sim := &simulator{
		scenario: s,
		graph:    tokenpoolregistry.NewTokenPoolSystem(),
		world:    engine.NewWorld[multipool.State](),
		logger:   logger,
	}

	tokens := make([]tokenregistry.Token, 0, len(s.Tokens))
	for _, t := range s.Tokens {
		address, err := parseAddress(t.Address)
		if err != nil {
			return nil, fmt.Errorf("token %d: %w", t.ID, err)
		}
		tokens = append(tokens, tokenregistry.Token{
			ID:       ids.TokenID(t.ID),
			Address:  address,
			Name:     t.Name,
			Symbol:   t.Symbol,
			Decimals: t.Decimals,
		})
	}
	var err error
	if sim.tokens, err = tokenregistry.NewRegistry(tokens); err != nil {
		return nil, err
	}

	pools := make([]poolregistry.Pool, 0, len(s.Pools))
	pricers := make([]engine.Pool[multipool.State], 0, len(s.Pools))
	poolIDs := make([]ids.PoolID, 0, len(s.Pools))
	pairs := make([]tokenpoolregistry.Pair, 0, len(s.Pools))
	for _, pc := range s.Pools {
		meta, state, err := sim.buildPool(pc)
		if err != nil {
			return nil, fmt.Errorf("pool %d: %w", pc.ID, err)
		}
		pricer, err := multipool.PricerFor(state)
		if err != nil {
			return nil, fmt.Errorf("pool %d: %w", pc.ID, err)
		}
		pools = append(pools, meta)
		pricers = append(pricers, pricer)
		sim.world.SetPoolState(meta.ID, state)
		poolIDs = append(poolIDs, meta.ID)
		pairs = append(pairs, tokenpoolregistry.Pair{Token0: meta.Token0, Token1: meta.Token1})
	}
	if sim.pools, err = poolregistry.NewRegistry(pools); err != nil {
		return nil, err
	}
	sim.graph.AddPairs(poolIDs, pairs)

	for _, h := range s.Holdings {
		token := ids.TokenID(h.Token)
		amount, err := sim.tokens.ParseAmount(token, h.Amount)
		if err != nil {
			return nil, fmt.Errorf("holding of %s: %w", token, err)
		}
		sim.world.Credit(token, amount)
	}

	sim.engine, err = engine.New(&engine.Config[multipool.State]{
		Pools:    pricers,
		Logger:   logger.With("component", "engine"),
		Registry: reg,
	})
	if err != nil {
		return nil, err
	}

	logger.Info("scenario loaded",
		"tokens", len(tokens), "pools", len(pools), "holdings", len(s.Holdings), "hops", len(s.Route))
	return sim, nil
}

func (sim *simulator) buildPool(pc config.PoolConfig) (poolregistry.Pool, multipool.State, error) {
	address, err := parseAddress(pc.Address)
	if err != nil {
		return poolregistry.Pool{}, nil, err
	}
	meta := poolregistry.Pool{
		ID:      ids.PoolID(pc.ID),
		Address: address,
		Kind:    poolregistry.Kind(pc.Kind),
		Token0:  ids.TokenID(pc.Token0),
		Token1:  ids.TokenID(pc.Token1),
		Fee:     pc.Fee,
	}
	for _, token := range []ids.TokenID{meta.Token0, meta.Token1} {
		if _, ok := sim.tokens.GetByID(token); !ok {
			return meta, nil, fmt.Errorf("%w: %s", tokenregistry.ErrUnknownToken, token)
		}
	}

	switch meta.Kind {
	case poolregistry.KindUniswapV2:
		if pc.Fee > math.MaxUint16 {
			return meta, nil, fmt.Errorf("%w: fee %d does not fit in bps", ErrInvalidScenario, pc.Fee)
		}
		pool := &uniswapv2.Pool{
			ID:     meta.ID,
			Token0: meta.Token0,
			Token1: meta.Token1,
			FeeBps: uint16(pc.Fee),
		}
		if pool.Reserve0, err = parseRaw("reserve0", pc.Reserve0); err != nil {
			return meta, nil, err
		}
		if pool.Reserve1, err = parseRaw("reserve1", pc.Reserve1); err != nil {
			return meta, nil, err
		}
		return meta, multipool.V2{Pool: pool}, nil

	case poolregistry.KindUniswapV3:
		pool := &uniswapv3.Pool{
			ID:          meta.ID,
			Token0:      meta.Token0,
			Token1:      meta.Token1,
			Fee:         pc.Fee,
			TickSpacing: pc.TickSpacing,
			Tick:        pc.Tick,
			Ticks:       make([]uniswapv3.TickInfo, 0, len(pc.Ticks)),
		}
		if pool.SqrtPriceX96, err = parseRaw("sqrtPriceX96", pc.SqrtPriceX96); err != nil {
			return meta, nil, err
		}
		if pool.Liquidity, err = parseRaw("liquidity", pc.Liquidity); err != nil {
			return meta, nil, err
		}
		for _, tc := range pc.Ticks {
			net, ok := new(big.Int).SetString(tc.LiquidityNet, 10)
			if !ok {
				return meta, nil, fmt.Errorf("%w: tick %d liquidityNet %q", ErrInvalidScenario, tc.Index, tc.LiquidityNet)
			}
			pool.Ticks = append(pool.Ticks, uniswapv3.TickInfo{Index: tc.Index, LiquidityNet: net})
		}
		pool.SortTicks()
		return meta, multipool.V3{Pool: pool}, nil
	}
	return meta, nil, fmt.Errorf("%w: %q", poolregistry.ErrUnknownKind, pc.Kind)
}

// route turns the configured hops into engine hops, rejecting any hop the
// token-pool graph does not contain.
func (sim *simulator) route() ([]engine.Hop, error) {
	hops := make([]engine.Hop, len(sim.scenario.Route))
	for i, h := range sim.scenario.Route {
		hop := engine.Hop{Pool: ids.PoolID(h.Pool), From: ids.TokenID(h.From), To: ids.TokenID(h.To)}
		if !sim.graph.HasHop(hop.Pool, hop.From, hop.To) {
			return nil, fmt.Errorf("%w: hop %d %s %s -> %s", ErrHopNotInGraph, i, hop.Pool, hop.From, hop.To)
		}
		hops[i] = hop
	}
	if err := sim.engine.ValidateRoute(sim.world, hops); err != nil {
		return nil, err
	}
	return hops, nil
}

// run evaluates the route in the scenario's mode. In execute mode the World
// keeps every hop applied before a failure, and the returned Path holds them.
func (sim *simulator) run() (engine.Path, error) {
	hops, err := sim.route()
	if err != nil {
		return engine.Path{}, err
	}
	sim.logger.Debug("route validated", "mode", sim.scenario.Mode, "hops", len(hops))

	switch sim.scenario.Mode {
	case config.ModeSimulate:
		amountIn, err := sim.tokens.ParseAmount(hops[0].From, sim.scenario.AmountIn)
		if err != nil {
			return engine.Path{}, fmt.Errorf("amountIn: %w", err)
		}
		return sim.engine.SimulateChained(sim.world, hops, amountIn, sim.scenario.CapFirstHop)

	case config.ModeExecute:
		amountHops := make([]engine.AmountHop, len(hops))
		for i, hop := range hops {
			amountIn, err := sim.tokens.ParseAmount(hop.From, sim.scenario.Route[i].AmountIn)
			if err != nil {
				return engine.Path{}, fmt.Errorf("hop %d amountIn: %w", i, err)
			}
			amountHops[i] = engine.AmountHop{Hop: hop, AmountIn: amountIn}
		}
		return sim.engine.ExecutePath(sim.world, amountHops)
	}
	return engine.Path{}, fmt.Errorf("%w: mode %q", ErrInvalidScenario, sim.scenario.Mode)
}

func parseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%w: address %q", ErrInvalidScenario, s)
	}
	return common.HexToAddress(s), nil
}

func parseRaw(field, s string) (*uint256.Int, error) {
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %q: %v", ErrInvalidScenario, field, s, err)
	}
	return v, nil
}
