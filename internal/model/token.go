package model

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// TokenRef identifies an ERC20 token together with its display metadata.
// DecimalsKnown distinguishes "decimals resolved to N" from "decimals
// unknown"; callers must never substitute 18 before the display layer.
type TokenRef struct {
	Address       common.Address `json:"address"`
	Symbol        string         `json:"symbol"`
	Decimals      uint8          `json:"decimals"`
	DecimalsKnown bool           `json:"decimals_known"`
}

// AmountFloat converts a raw integer token amount to a display float
// using the token's decimals. Precision loss past float64 is accepted for
// display and USD valuation.
func AmountFloat(raw *big.Int, decimals uint8) float64 {
	if raw == nil {
		return 0
	}
	f := new(big.Float).SetInt(raw)
	scale := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	out, _ := new(big.Float).Quo(f, scale).Float64()
	return out
}

// KnownToken builds a TokenRef with resolved metadata.
func KnownToken(address common.Address, symbol string, decimals uint8) TokenRef {
	return TokenRef{
		Address:       address,
		Symbol:        symbol,
		Decimals:      decimals,
		DecimalsKnown: true,
	}
}
