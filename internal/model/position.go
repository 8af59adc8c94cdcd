package model

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// RawPosition is the uniform intermediate record emitted by discovery, one
// per LP stake. It is never mutated after creation; enrichment produces a
// new ValuedPosition instead.
type RawPosition struct {
	ID        string
	Variant   VariantKind
	Token0    common.Address
	Token1    common.Address
	Liquidity *big.Int
	TickLower *int32
	TickUpper *int32
	FeeTier   *uint32
	TokenID   *big.Int

	ConstantProduct *ConstantProductStake
	Concentrated    *ConcentratedDetail
	HookedSingleton *HookedSingletonDetail
}

// ConstantProductStake carries the share-token snapshot of a V2-style stake.
// Amounts are computed later as balance/totalSupply x reserve.
type ConstantProductStake struct {
	Pair        common.Address
	Balance     *big.Int
	TotalSupply *big.Int
	Reserve0    *big.Int
	Reserve1    *big.Int
}

// ConcentratedDetail carries V3-style per-position detail. TokensOwed are
// the protocol's direct unclaimed-fee fields.
type ConcentratedDetail struct {
	Pool        common.Address
	TokensOwed0 *big.Int
	TokensOwed1 *big.Int
}

// HookedSingletonDetail carries V4-style detail. Fee accrual here requires
// fee-growth-delta accounting between the current inside growth and the
// snapshot taken at the position's last action.
type HookedSingletonDetail struct {
	PoolID               [32]byte
	Key                  PoolKey
	PositionID           [32]byte
	FeeGrowthInside0     *big.Int
	FeeGrowthInside1     *big.Int
	FeeGrowthInside0Last *big.Int
	FeeGrowthInside1Last *big.Int
}

// PriceSource tags how a position's current pool price was obtained.
type PriceSource string

const (
	// PriceSourceLive marks a price read from the pool's slot0 state.
	PriceSourceLive PriceSource = "live"
	// PriceSourceDerived marks a price reconstructed from the two legs'
	// independently resolved USD prices. Weaker guarantee than live.
	PriceSourceDerived PriceSource = "derived"
)

// ValuedLeg is one token side of a valued position.
type ValuedLeg struct {
	Ref       TokenRef `json:"token"`
	AmountRaw string   `json:"amount_raw"`
	Amount    float64  `json:"amount"`
	USD       float64  `json:"usd"`
}

// PriceRange is the human-readable price band of a tick range, quoted as
// token1 per token0.
type PriceRange struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// ValuedPosition is the externally visible result of one enrichment pass.
type ValuedPosition struct {
	ID            string      `json:"id"`
	Variant       VariantKind `json:"variant"`
	Pair          string      `json:"pair"`
	Token0        ValuedLeg   `json:"token0"`
	Token1        ValuedLeg   `json:"token1"`
	LiquidityUSD  float64     `json:"liquidity_usd"`
	FeesEarnedUSD float64     `json:"fees_earned_usd"`
	InRange       *bool       `json:"in_range,omitempty"`
	PriceRange    *PriceRange `json:"price_range,omitempty"`
	PriceSource   PriceSource `json:"price_source,omitempty"`
}
