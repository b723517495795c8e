// Package config loads swapsim scenario files.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

const (
	ModeSimulate = "simulate"
	ModeExecute  = "execute"
)

var ErrInvalidConfig = errors.New("invalid scenario")

// TokenConfig describes one token. Amounts elsewhere in the scenario are
// written in whole units of the token and scaled by Decimals.
type TokenConfig struct {
	ID       uint64 `yaml:"id" toml:"id" json:"id"`
	Address  string `yaml:"address" toml:"address" json:"address"`
	Symbol   string `yaml:"symbol" toml:"symbol" json:"symbol"`
	Name     string `yaml:"name" toml:"name" json:"name"`
	Decimals uint8  `yaml:"decimals" toml:"decimals" json:"decimals"`
}

// TickConfig is one initialized tick of a uniswapv3 pool.
type TickConfig struct {
	Index        int64  `yaml:"index" toml:"index" json:"index"`
	LiquidityNet string `yaml:"liquidityNet" toml:"liquidityNet" json:"liquidityNet"`
}

// PoolConfig describes one pool and its starting state. Reserves apply to
// uniswapv2 pools; SqrtPriceX96, Tick, Liquidity and Ticks to uniswapv3
// pools. All state values are raw integers.
type PoolConfig struct {
	ID           uint64       `yaml:"id" toml:"id" json:"id"`
	Address      string       `yaml:"address" toml:"address" json:"address"`
	Kind         string       `yaml:"kind" toml:"kind" json:"kind"`
	Token0       uint64       `yaml:"token0" toml:"token0" json:"token0"`
	Token1       uint64       `yaml:"token1" toml:"token1" json:"token1"`
	Fee          uint32       `yaml:"fee" toml:"fee" json:"fee"`
	Reserve0     string       `yaml:"reserve0" toml:"reserve0" json:"reserve0"`
	Reserve1     string       `yaml:"reserve1" toml:"reserve1" json:"reserve1"`
	SqrtPriceX96 string       `yaml:"sqrtPriceX96" toml:"sqrtPriceX96" json:"sqrtPriceX96"`
	Tick         int64        `yaml:"tick" toml:"tick" json:"tick"`
	TickSpacing  int64        `yaml:"tickSpacing" toml:"tickSpacing" json:"tickSpacing"`
	Liquidity    string       `yaml:"liquidity" toml:"liquidity" json:"liquidity"`
	Ticks        []TickConfig `yaml:"ticks" toml:"ticks" json:"ticks"`
}

// HoldingConfig is a starting balance, in whole units.
type HoldingConfig struct {
	Token  uint64 `yaml:"token" toml:"token" json:"token"`
	Amount string `yaml:"amount" toml:"amount" json:"amount"`
}

// HopConfig is one leg of the route. AmountIn, in whole units of From, is
// required in execute mode and ignored in simulate mode.
type HopConfig struct {
	Pool     uint64 `yaml:"pool" toml:"pool" json:"pool"`
	From     uint64 `yaml:"from" toml:"from" json:"from"`
	To       uint64 `yaml:"to" toml:"to" json:"to"`
	AmountIn string `yaml:"amountIn" toml:"amountIn" json:"amountIn"`
}

// Scenario is a complete swapsim run.
type Scenario struct {
	Mode        string          `yaml:"mode" toml:"mode" json:"mode"`
	AmountIn    string          `yaml:"amountIn" toml:"amountIn" json:"amountIn"`
	CapFirstHop bool            `yaml:"capFirstHop" toml:"capFirstHop" json:"capFirstHop"`
	Tokens      []TokenConfig   `yaml:"tokens" toml:"tokens" json:"tokens"`
	Pools       []PoolConfig    `yaml:"pools" toml:"pools" json:"pools"`
	Holdings    []HoldingConfig `yaml:"holdings" toml:"holdings" json:"holdings"`
	Route       []HopConfig     `yaml:"route" toml:"route" json:"route"`
}

// LoadConfig reads a scenario from path. The format follows the file suffix:
// .yaml/.yml, .toml or .json.
func LoadConfig(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var s Scenario
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &s)
	case ".toml":
		err = toml.Unmarshal(data, &s)
	case ".json":
		err = json.Unmarshal(data, &s)
	default:
		return nil, fmt.Errorf("unsupported scenario format %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks the shape of the scenario. Amounts, addresses and route
// semantics are checked when the scenario is built.
func (s *Scenario) Validate() error {
	switch s.Mode {
	case ModeSimulate:
		if s.AmountIn == "" {
			return fmt.Errorf("%w: amountIn is required in simulate mode", ErrInvalidConfig)
		}
	case ModeExecute:
		for i, h := range s.Route {
			if h.AmountIn == "" {
				return fmt.Errorf("%w: route hop %d needs amountIn in execute mode", ErrInvalidConfig, i)
			}
		}
	default:
		return fmt.Errorf("%w: mode must be %q or %q, got %q", ErrInvalidConfig, ModeSimulate, ModeExecute, s.Mode)
	}

	if len(s.Tokens) == 0 {
		return fmt.Errorf("%w: no tokens", ErrInvalidConfig)
	}
	if len(s.Pools) == 0 {
		return fmt.Errorf("%w: no pools", ErrInvalidConfig)
	}
	if len(s.Route) == 0 {
		return fmt.Errorf("%w: empty route", ErrInvalidConfig)
	}
	return nil
}
