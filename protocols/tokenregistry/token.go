package tokenregistry

import (
	"github.com/defistate/defistate-swap-go/ids"
	"github.com/ethereum/go-ethereum/common"
)

// Token is the metadata of a fungible asset.
type Token struct {
	ID       ids.TokenID    `json:"id" yaml:"id" toml:"id"`
	Address  common.Address `json:"address" yaml:"address" toml:"address"`
	Name     string         `json:"name" yaml:"name" toml:"name"`
	Symbol   string         `json:"symbol" yaml:"symbol" toml:"symbol"`
	Decimals uint8          `json:"decimals" yaml:"decimals" toml:"decimals"`
}
