package amm

import (
	"errors"
	"math/big"
)

var (
	ErrEmptyPriceRange  = errors.New("sqrt price bounds must differ")
	ErrInvalidSqrtPrice = errors.New("sqrt price must be positive")
)

// AmountsFromLiquidity converts a position's liquidity and tick-range sqrt
// prices into token amounts at the current pool price. Three cases: price
// below the range (all token0), above the range (all token1), inside the
// range (split). All arithmetic stays in big.Int.
func AmountsFromLiquidity(sqrtCurrent, sqrtLower, sqrtUpper, liquidity *big.Int) (*big.Int, *big.Int, error) {
	if sqrtCurrent == nil || sqrtLower == nil || sqrtUpper == nil || liquidity == nil {
		return nil, nil, ErrInvalidSqrtPrice
	}
	if sqrtCurrent.Sign() <= 0 || sqrtLower.Sign() <= 0 || sqrtUpper.Sign() <= 0 {
		return nil, nil, ErrInvalidSqrtPrice
	}
	if sqrtLower.Cmp(sqrtUpper) > 0 {
		sqrtLower, sqrtUpper = sqrtUpper, sqrtLower
	}
	if sqrtLower.Cmp(sqrtUpper) == 0 {
		return nil, nil, ErrEmptyPriceRange
	}

	if liquidity.Sign() == 0 {
		return new(big.Int), new(big.Int), nil
	}

	switch {
	case sqrtCurrent.Cmp(sqrtLower) <= 0:
		// Price below range: position holds only token0.
		return amount0Delta(sqrtLower, sqrtUpper, liquidity), new(big.Int), nil
	case sqrtCurrent.Cmp(sqrtUpper) >= 0:
		// Price above range: position holds only token1.
		return new(big.Int), amount1Delta(sqrtLower, sqrtUpper, liquidity), nil
	default:
		return amount0Delta(sqrtCurrent, sqrtUpper, liquidity), amount1Delta(sqrtLower, sqrtCurrent, liquidity), nil
	}
}

// amount0Delta computes liquidity * 2^96 * (sqrtB - sqrtA) / sqrtB / sqrtA,
// rounded down.
func amount0Delta(sqrtA, sqrtB, liquidity *big.Int) *big.Int {
	numerator := new(big.Int).Lsh(liquidity, 96)
	numerator.Mul(numerator, new(big.Int).Sub(sqrtB, sqrtA))
	numerator.Div(numerator, sqrtB)
	return numerator.Div(numerator, sqrtA)
}

// amount1Delta computes liquidity * (sqrtB - sqrtA) / 2^96, rounded down.
func amount1Delta(sqrtA, sqrtB, liquidity *big.Int) *big.Int {
	amount := new(big.Int).Sub(sqrtB, sqrtA)
	amount.Mul(amount, liquidity)
	return amount.Rsh(amount, 96)
}
