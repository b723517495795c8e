package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/defistate/defistate-swap-go/engine"
	"github.com/defistate/defistate-swap-go/ids"
	"github.com/defistate/defistate-swap-go/protocols/multipool"
	"github.com/defistate/defistate-swap-go/protocols/poolregistry"
	v3calc "github.com/defistate/defistate-swap-go/protocols/uniswapv3/calculator"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// Amount is a token amount in raw units and in whole units of the token.
type Amount struct {
	Token     ids.TokenID `json:"token"`
	Symbol    string      `json:"symbol"`
	Raw       string      `json:"raw"`
	Formatted string      `json:"formatted"`
}

type StepReport struct {
	Pool      ids.PoolID        `json:"pool"`
	Kind      poolregistry.Kind `json:"kind"`
	AmountIn  Amount            `json:"amountIn"`
	AmountOut Amount            `json:"amountOut"`
}

// PoolReport is the state of a pool after the run. Price is the price of
// token0 in units of token1.
type PoolReport struct {
	ID      ids.PoolID        `json:"id"`
	Address common.Address    `json:"address"`
	Kind    poolregistry.Kind `json:"kind"`
	Price   string            `json:"price"`
	Tick    *int64            `json:"tick,omitempty"`
}

// Report is what swapsim prints. Error is set when the run aborted; Steps then
// holds the hops that were applied before the failure.
type Report struct {
	Mode      string       `json:"mode"`
	AmountIn  *Amount      `json:"amountIn,omitempty"`
	AmountOut *Amount      `json:"amountOut,omitempty"`
	Steps     []StepReport `json:"steps"`
	Holdings  []Amount     `json:"holdings"`
	Pools     []PoolReport `json:"pools"`
	Error     string       `json:"error,omitempty"`
}

func (sim *simulator) amount(token ids.TokenID, raw *uint256.Int) (Amount, error) {
	formatted, err := sim.tokens.FormatAmount(token, raw)
	if err != nil {
		return Amount{}, err
	}
	t, _ := sim.tokens.GetByID(token)
	return Amount{Token: token, Symbol: t.Symbol, Raw: raw.Dec(), Formatted: formatted.String()}, nil
}

// report describes path and the World as it stands.
func (sim *simulator) report(path engine.Path, runErr error) (*Report, error) {
	r := &Report{
		Mode:     sim.scenario.Mode,
		Steps:    make([]StepReport, 0, path.Len()),
		Holdings: []Amount{},
	}
	if runErr != nil {
		r.Error = runErr.Error()
	}

	for _, step := range path.Steps {
		meta, _ := sim.pools.GetByID(step.Pool)
		in, err := sim.amount(step.From, step.AmountIn)
		if err != nil {
			return nil, err
		}
		out, err := sim.amount(step.To, step.AmountOut)
		if err != nil {
			return nil, err
		}
		r.Steps = append(r.Steps, StepReport{Pool: step.Pool, Kind: meta.Kind, AmountIn: in, AmountOut: out})
	}
	if path.Len() > 0 {
		in, out := r.Steps[0].AmountIn, r.Steps[len(r.Steps)-1].AmountOut
		r.AmountIn, r.AmountOut = &in, &out
	}

	for _, t := range sim.tokens.All() {
		balance := sim.world.Balance(t.ID)
		if balance.IsZero() {
			continue
		}
		a, err := sim.amount(t.ID, balance)
		if err != nil {
			return nil, err
		}
		r.Holdings = append(r.Holdings, a)
	}

	for _, meta := range sim.pools.All() {
		pr, err := sim.poolReport(meta)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", meta.ID, err)
		}
		r.Pools = append(r.Pools, pr)
	}
	return r, nil
}

func (sim *simulator) poolReport(meta poolregistry.Pool) (PoolReport, error) {
	pr := PoolReport{ID: meta.ID, Address: meta.Address, Kind: meta.Kind}
	t0, _ := sim.tokens.GetByID(meta.Token0)
	t1, _ := sim.tokens.GetByID(meta.Token1)

	state, _ := sim.world.PoolState(meta.ID)
	switch s := state.(type) {
	case multipool.V2:
		r0, err := sim.tokens.FormatAmount(t0.ID, s.Pool.Reserve0)
		if err != nil {
			return pr, err
		}
		r1, err := sim.tokens.FormatAmount(t1.ID, s.Pool.Reserve1)
		if err != nil {
			return pr, err
		}
		if r0.IsZero() {
			pr.Price = decimal.Zero.String()
		} else {
			pr.Price = r1.DivRound(r0, 18).String()
		}
	case multipool.V3:
		price, err := v3calc.GetSpotPrice(t0.ID, t0.Decimals, t1.Decimals, s.Pool)
		if err != nil {
			return pr, err
		}
		pr.Price = price.String()
		tick := s.Pool.Tick
		pr.Tick = &tick
	}
	return pr, nil
}

func writeReport(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
