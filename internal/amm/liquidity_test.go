package amm

import (
	"math/big"
	"testing"
)

func sqrtAt(t *testing.T, tick int32) *big.Int {
	t.Helper()
	ratio, err := SqrtRatioAtTick(tick)
	if err != nil {
		t.Fatalf("tick %d: %v", tick, err)
	}
	return ratio
}

func TestAmountsFromLiquidityInsideRange(t *testing.T) {
	liquidity := fromString(t, "1000000000000000000")
	amount0, amount1, err := AmountsFromLiquidity(
		sqrtAt(t, -276310), sqrtAt(t, -276320), sqrtAt(t, -276300), liquidity)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if amount0.Cmp(fromString(t, "499499619588698417541")) != 0 {
		t.Fatalf("amount0 mismatch: %s", amount0)
	}
	if amount1.Cmp(fromString(t, "500200696")) != 0 {
		t.Fatalf("amount1 mismatch: %s", amount1)
	}
	if amount0.Sign() <= 0 || amount1.Sign() <= 0 {
		t.Fatalf("inside range must hold both tokens: %s / %s", amount0, amount1)
	}
}

func TestAmountsFromLiquidityBelowRange(t *testing.T) {
	liquidity := fromString(t, "1000000000000000000")
	amount0, amount1, err := AmountsFromLiquidity(
		sqrtAt(t, -277000), sqrtAt(t, -276320), sqrtAt(t, -276300), liquidity)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if amount0.Cmp(fromString(t, "999249038942148389105")) != 0 {
		t.Fatalf("amount0 mismatch: %s", amount0)
	}
	if amount1.Sign() != 0 {
		t.Fatalf("below range must hold no token1: %s", amount1)
	}
}

func TestAmountsFromLiquidityAboveRange(t *testing.T) {
	liquidity := fromString(t, "1000000000000000000")
	amount0, amount1, err := AmountsFromLiquidity(
		sqrtAt(t, -276000), sqrtAt(t, -276320), sqrtAt(t, -276300), liquidity)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if amount0.Sign() != 0 {
		t.Fatalf("above range must hold no token0: %s", amount0)
	}
	if amount1.Cmp(fromString(t, "1000651542")) != 0 {
		t.Fatalf("amount1 mismatch: %s", amount1)
	}
}

func TestAmountsFromLiquidityZeroLiquidity(t *testing.T) {
	amount0, amount1, err := AmountsFromLiquidity(
		sqrtAt(t, 0), sqrtAt(t, -100), sqrtAt(t, 100), new(big.Int))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if amount0.Sign() != 0 || amount1.Sign() != 0 {
		t.Fatalf("zero liquidity must yield zero amounts: %s / %s", amount0, amount1)
	}
}

func TestAmountsFromLiquidityRejectsEqualBounds(t *testing.T) {
	bound := sqrtAt(t, 100)
	if _, _, err := AmountsFromLiquidity(sqrtAt(t, 0), bound, bound, big.NewInt(1)); err == nil {
		t.Fatalf("expected error for equal bounds")
	}
}

func TestAmountsFromLiquidityRejectsBadInput(t *testing.T) {
	if _, _, err := AmountsFromLiquidity(nil, sqrtAt(t, -100), sqrtAt(t, 100), big.NewInt(1)); err == nil {
		t.Fatalf("expected error for nil current price")
	}
	if _, _, err := AmountsFromLiquidity(big.NewInt(0), sqrtAt(t, -100), sqrtAt(t, 100), big.NewInt(1)); err == nil {
		t.Fatalf("expected error for zero price")
	}
}
