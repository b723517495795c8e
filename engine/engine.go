// Package engine evaluates swap routes against a World of token holdings and
// pool states, either for real (ApplySwap, ExecutePath) or in isolation
// (SimulateChained).
package engine

import (
	"errors"
	"fmt"

	"github.com/defistate/defistate-swap-go/ids"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
)

// Logger defines a standard interface for structured, leveled logging.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config holds the pool implementations and dependencies of an Engine.
type Config[S State[S]] struct {
	Pools    []Pool[S]
	Logger   Logger
	Registry prometheus.Registerer
}

func (c *Config[S]) validate() error {
	if c.Logger == nil {
		return errors.New("config: Logger cannot be nil")
	}
	if c.Registry == nil {
		return errors.New("config: Registry cannot be nil")
	}
	seen := make(map[ids.PoolID]struct{}, len(c.Pools))
	for i, p := range c.Pools {
		if p == nil {
			return fmt.Errorf("config: pool at index %d is nil", i)
		}
		if _, dup := seen[p.ID()]; dup {
			return fmt.Errorf("config: duplicate implementation for %s", p.ID())
		}
		seen[p.ID()] = struct{}{}
	}
	return nil
}

// Engine evaluates routes over one family of pool-state types. It holds no
// per-call state; every call is a single pass over its hop list.
type Engine[S State[S]] struct {
	pools   map[ids.PoolID]Pool[S]
	logger  Logger
	metrics *Metrics
}

// New constructs an Engine from a configuration, returning an error if the config is invalid.
func New[S State[S]](cfg *Config[S]) (*Engine[S], error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	pools := make(map[ids.PoolID]Pool[S], len(cfg.Pools))
	for _, p := range cfg.Pools {
		pools[p.ID()] = p
	}

	return &Engine[S]{
		pools:   pools,
		logger:  cfg.Logger,
		metrics: NewMetrics(cfg.Registry),
	}, nil
}

// Pool returns the implementation registered for id.
func (e *Engine[S]) Pool(id ids.PoolID) (Pool[S], bool) {
	p, ok := e.pools[id]
	return p, ok
}

// resolved is a hop that passed validation, paired with its implementation.
type resolved[S any] struct {
	Hop
	pool Pool[S]
}

// resolveHop checks that a single hop can be evaluated against world.
func (e *Engine[S]) resolveHop(world *World[S], hop Hop) (Pool[S], error) {
	pool, ok := e.pools[hop.Pool]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPool, hop.Pool)
	}
	if !pool.Supports(hop.From, hop.To) {
		return nil, fmt.Errorf("%w: %s cannot swap %s -> %s", ErrUnsupportedDirection, hop.Pool, hop.From, hop.To)
	}
	if _, ok := world.PoolState(hop.Pool); !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnseededPoolState, hop.Pool)
	}
	return pool, nil
}

// resolveRoute validates the shape of a route and resolves every hop, in order,
// stopping at the first violation.
func (e *Engine[S]) resolveRoute(world *World[S], hops []Hop) ([]resolved[S], error) {
	if len(hops) == 0 {
		return nil, ErrEmptyRoute
	}

	out := make([]resolved[S], len(hops))
	for i, hop := range hops {
		if i > 0 && hop.From != hops[i-1].To {
			return nil, fmt.Errorf("%w: hop %d: expected from %s, got %s", ErrPathDiscontinuity, i, hops[i-1].To, hop.From)
		}
		pool, err := e.resolveHop(world, hop)
		if err != nil {
			return nil, fmt.Errorf("hop %d: %w", i, err)
		}
		out[i] = resolved[S]{Hop: hop, pool: pool}
	}
	return out, nil
}

// ValidateRoute reports whether hops can be evaluated against world: the route is
// non-empty and continuous, and every pool has an implementation that supports
// the hop's direction and a seeded state.
func (e *Engine[S]) ValidateRoute(world *World[S], hops []Hop) error {
	_, err := e.resolveRoute(world, hops)
	return err
}

// ApplySwap swaps up to amountIn of from into to through pool, against the live
// World. The swapped amount is capped at the current holding of from; a zero
// holding returns zero without pricing. On success from is debited by the
// capped amount, the pool state is updated and to is credited with the output.
func (e *Engine[S]) ApplySwap(world *World[S], pool ids.PoolID, from, to ids.TokenID, amountIn *uint256.Int) (*uint256.Int, error) {
	if amountIn == nil {
		return nil, e.fail(modeApply, ErrNilAmount)
	}
	hop := Hop{Pool: pool, From: from, To: to}
	impl, err := e.resolveHop(world, hop)
	if err != nil {
		return nil, e.fail(modeApply, err)
	}
	out, err := e.applySwap(world, impl, hop, amountIn, modeApply)
	if err != nil {
		return nil, e.fail(modeApply, err)
	}
	return out, nil
}

// applySwap is the single state-changing unit shared by ApplySwap and ExecutePath.
// hop must already be resolved.
func (e *Engine[S]) applySwap(world *World[S], impl Pool[S], hop Hop, amountIn *uint256.Int, mode string) (*uint256.Int, error) {
	amount := world.Balance(hop.From)
	if amountIn.Lt(amount) {
		amount.Set(amountIn)
	}
	if amount.IsZero() {
		e.metrics.zeroInputHops.WithLabelValues(mode).Inc()
		return new(uint256.Int), nil
	}

	state, _ := world.PoolState(hop.Pool)
	out, err := impl.Swap(state, hop.From, hop.To, amount.Clone())
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s -> %s: %v", ErrPricing, hop.Pool, hop.From, hop.To, err)
	}
	e.metrics.swapsTotal.WithLabelValues(mode).Inc()

	// amount never exceeds the holding, so the debit cannot fail.
	if err := world.Debit(hop.From, amount); err != nil {
		panic(err)
	}
	world.Credit(hop.To, out)

	e.logger.Debug("swap applied",
		"pool", hop.Pool, "from", hop.From, "to", hop.To,
		"amount_in", amount.Dec(), "amount_out", out.Dec())
	return out.Clone(), nil
}

// ExecutePath applies each hop in order against the live World, each with its own
// fixed input amount. The returned Path records the requested input amount of
// every hop (not the capped one) and the realized output.
//
// The whole route is validated before anything is mutated. If a pool's pricing
// fails midway, the hops before it stay applied and the returned Path holds
// exactly those steps.
func (e *Engine[S]) ExecutePath(world *World[S], hops []AmountHop) (Path, error) {
	timer := prometheus.NewTimer(e.metrics.pathDuration.WithLabelValues(modeExecute))
	defer timer.ObserveDuration()

	plain := make([]Hop, len(hops))
	for i, h := range hops {
		if h.AmountIn == nil {
			return Path{}, e.fail(modeExecute, fmt.Errorf("hop %d: %w", i, ErrNilAmount))
		}
		plain[i] = h.Hop
	}

	route, err := e.resolveRoute(world, plain)
	if err != nil {
		return Path{}, e.fail(modeExecute, err)
	}

	steps := make([]Step, 0, len(route))
	for i, r := range route {
		out, err := e.applySwap(world, r.pool, r.Hop, hops[i].AmountIn, modeExecute)
		if err != nil {
			return Path{Steps: steps}, e.fail(modeExecute, fmt.Errorf("hop %d: %w", i, err))
		}
		steps = append(steps, Step{
			Pool:      r.Pool,
			From:      r.From,
			To:        r.To,
			AmountIn:  hops[i].AmountIn.Clone(),
			AmountOut: out,
		})
	}
	return Path{Steps: steps}, nil
}

// SimulateChained evaluates a route without touching world. The first hop swaps
// firstIn (capped at the World's holding of the starting token when capFirstHop
// is set); every later hop swaps exactly the previous hop's output.
//
// Pricing runs against per-call clones of the pool states, seeded lazily from
// world on first use, so a pool visited twice sees the effect of its first visit.
func (e *Engine[S]) SimulateChained(world *World[S], hops []Hop, firstIn *uint256.Int, capFirstHop bool) (Path, error) {
	timer := prometheus.NewTimer(e.metrics.pathDuration.WithLabelValues(modeSimulate))
	defer timer.ObserveDuration()

	if firstIn == nil {
		return Path{}, e.fail(modeSimulate, ErrNilAmount)
	}
	route, err := e.resolveRoute(world, hops)
	if err != nil {
		return Path{}, e.fail(modeSimulate, err)
	}

	amount := firstIn.Clone()
	if capFirstHop {
		if held := world.Balance(route[0].From); held.Lt(amount) {
			amount = held
		}
	}

	scratch := make(map[ids.PoolID]S)
	steps := make([]Step, 0, len(route))
	for i, r := range route {
		out := new(uint256.Int)
		if amount.IsZero() {
			e.metrics.zeroInputHops.WithLabelValues(modeSimulate).Inc()
		} else {
			state, ok := scratch[r.Pool]
			if !ok {
				live, _ := world.PoolState(r.Pool)
				state = live.Clone()
				scratch[r.Pool] = state
			}
			res, err := r.pool.Swap(state, r.From, r.To, amount.Clone())
			if err != nil {
				return Path{}, e.fail(modeSimulate, fmt.Errorf("hop %d: %w: %s %s -> %s: %v", i, ErrPricing, r.Pool, r.From, r.To, err))
			}
			out = res.Clone()
			e.metrics.swapsTotal.WithLabelValues(modeSimulate).Inc()
		}

		steps = append(steps, Step{
			Pool:      r.Pool,
			From:      r.From,
			To:        r.To,
			AmountIn:  amount,
			AmountOut: out,
		})
		e.logger.Debug("hop simulated",
			"hop", i, "pool", r.Pool, "from", r.From, "to", r.To,
			"amount_in", amount.Dec(), "amount_out", out.Dec())

		amount = out.Clone()
	}
	return Path{Steps: steps}, nil
}

func (e *Engine[S]) fail(mode string, err error) error {
	e.metrics.pathErrorsTotal.WithLabelValues(errorReason(err)).Inc()
	e.logger.Warn("route evaluation aborted", "mode", mode, "error", err)
	return err
}
