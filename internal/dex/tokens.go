package dex

import (
	"github.com/ethereum/go-ethereum/common"

	"positionScope/internal/model"
)

// Well-known mainnet tokens. The allow-list short-circuits metadata
// lookups for tokens whose decimals never change.
var (
	WETH = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	USDC = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	USDT = common.HexToAddress("0xdAC17F958D2ee523a2206206994597C13D831ec7")
	DAI  = common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")
	WBTC = common.HexToAddress("0x2260FAC5E5542a773Aa44fBCfeDf7C193bc2C599")
)

// DefaultAllowList returns the static metadata set for mainnet.
func DefaultAllowList() []model.TokenRef {
	return []model.TokenRef{
		model.KnownToken(WETH, "WETH", 18),
		model.KnownToken(USDC, "USDC", 6),
		model.KnownToken(USDT, "USDT", 6),
		model.KnownToken(DAI, "DAI", 18),
		model.KnownToken(WBTC, "WBTC", 8),
	}
}
