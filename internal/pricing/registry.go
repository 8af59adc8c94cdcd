package pricing

import (
	"github.com/ethereum/go-ethereum/common"

	"positionScope/internal/dex"
	"positionScope/internal/model"
)

// DefaultStaticPools returns the trusted mainnet pricing routes. These
// anchor-paired pools are deep enough that the index's liquidity filter
// does not apply to them.
func DefaultStaticPools() []model.PricingPool {
	return []model.PricingPool{
		{
			// USDC/WETH 0.05% concentrated pool.
			Address: common.HexToAddress("0x88e6A0c2dDD26FEEb64F039a2c41296FcB3f5640"),
			Variant: model.VariantConcentrated,
			Token0:  dex.USDC,
			Token1:  dex.WETH,
		},
		{
			// WETH/USDT 0.05% concentrated pool.
			Address: common.HexToAddress("0x11b815efB8f581194ae79006d24E0d814B7697F6"),
			Variant: model.VariantConcentrated,
			Token0:  dex.WETH,
			Token1:  dex.USDT,
		},
		{
			// DAI/WETH constant-product pair.
			Address: common.HexToAddress("0xA478c2975Ab1Ea89e8196811F51A7B7Ade33eB11"),
			Variant: model.VariantConstantProduct,
			Token0:  dex.DAI,
			Token1:  dex.WETH,
		},
		{
			// WBTC/WETH 0.3% concentrated pool.
			Address: common.HexToAddress("0xCBCdF9626bC03E24f779434178A73a0B4bad62eD"),
			Variant: model.VariantConcentrated,
			Token0:  dex.WBTC,
			Token1:  dex.WETH,
		},
	}
}
