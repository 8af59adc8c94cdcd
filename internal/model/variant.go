package model

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// VariantKind tags which AMM design a pool belongs to.
type VariantKind string

const (
	// VariantConstantProduct is a V2-style pair pool with x*y=k reserves.
	VariantConstantProduct VariantKind = "constant-product"
	// VariantConcentrated is a V3-style pool with tick-range liquidity.
	VariantConcentrated VariantKind = "concentrated"
	// VariantHookedSingleton is a V4-style pool living inside a singleton
	// manager, identified by a composite key rather than its own address.
	VariantHookedSingleton VariantKind = "hooked-singleton"
)

// PoolKey is the composite identifier of a hooked-singleton pool. The
// currency pair must be sorted ascending by address; sort order decides
// which side is amount0.
type PoolKey struct {
	Currency0   common.Address `json:"currency0"`
	Currency1   common.Address `json:"currency1"`
	Fee         uint32         `json:"fee"`
	TickSpacing int32          `json:"tick_spacing"`
	Hooks       common.Address `json:"hooks"`
}

// Validate rejects keys that violate the sorted-pair precondition.
func (k PoolKey) Validate() error {
	if bytes.Compare(k.Currency0.Bytes(), k.Currency1.Bytes()) >= 0 {
		return fmt.Errorf("pool key currencies not sorted: %s >= %s", k.Currency0.Hex(), k.Currency1.Hex())
	}
	return nil
}

// PricingPool describes a pool usable to derive one token's price relative
// to the other side of its pair. Pairing is structural, so entries are
// cached for the process lifetime.
type PricingPool struct {
	Address common.Address `json:"address"`
	Variant VariantKind    `json:"variant"`
	Token0  common.Address `json:"token0"`
	Token1  common.Address `json:"token1"`
}

// Other returns the counterpart of token inside the pool pair.
func (p PricingPool) Other(token common.Address) (common.Address, bool) {
	switch token {
	case p.Token0:
		return p.Token1, true
	case p.Token1:
		return p.Token0, true
	default:
		return common.Address{}, false
	}
}
