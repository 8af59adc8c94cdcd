package amm

import "math/big"

// FeeGrowthDelta computes the unclaimed fee amount owed per leg from a pair
// of per-unit-liquidity accumulators: (current - last) * liquidity / 2^128.
// A negative delta indicates an accumulator wraparound or a stale snapshot
// and is clamped to zero rather than surfacing as a negative fee.
func FeeGrowthDelta(current, last, liquidity *big.Int) *big.Int {
	if current == nil || last == nil || liquidity == nil || liquidity.Sign() <= 0 {
		return new(big.Int)
	}

	delta := new(big.Int).Sub(current, last)
	if delta.Sign() < 0 {
		return new(big.Int)
	}

	delta.Mul(delta, liquidity)
	return delta.Div(delta, Q128)
}
