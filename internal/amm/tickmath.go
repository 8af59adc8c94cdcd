package amm

import (
	"errors"
	"math"
	"math/big"

	"github.com/holiman/uint256"
)

const (
	// MinTick is the lowest tick a pool can price.
	MinTick = int32(-887272)
	// MaxTick is the highest tick a pool can price.
	MaxTick = int32(887272)
)

var (
	// MinSqrtRatio is SqrtRatioAtTick(MinTick).
	MinSqrtRatio, _ = new(big.Int).SetString("4295128739", 10)
	// MaxSqrtRatio is SqrtRatioAtTick(MaxTick).
	MaxSqrtRatio, _ = new(big.Int).SetString("1461446703485210103287273052203988822378723970342", 10)

	// Q96 is the 2^96 fixed-point scale of sqrt prices.
	Q96 = new(big.Int).Lsh(big.NewInt(1), 96)
	// Q128 is the 2^128 fixed-point scale of fee-growth accumulators.
	Q128 = new(big.Int).Lsh(big.NewInt(1), 128)

	ErrTickOutOfBounds      = errors.New("tick out of bounds")
	ErrSqrtPriceOutOfBounds = errors.New("sqrt price out of bounds")

	maxUint256 = uint256.MustFromBig(new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1)))

	// sqrt(1.0001^(2^i)) in UQ128.128 for i = 0..19, preceded by the
	// UQ128.128 one used when the low bit is unset.
	ratioConstants = [21]*uint256.Int{
		uint256.MustFromHex("0xfffcb933bd6fad37aa2d162d1a594001"),
		uint256.MustFromHex("0x100000000000000000000000000000000"),
		uint256.MustFromHex("0xfff97272373d413259a46990580e213a"),
		uint256.MustFromHex("0xfff2e50f5f656932ef12357cf3c7fdcc"),
		uint256.MustFromHex("0xffe5caca7e10e4e61c3624eaa0941cd0"),
		uint256.MustFromHex("0xffcb9843d60f6159c9db58835c926644"),
		uint256.MustFromHex("0xff973b41fa98c081472e6896dfb254c0"),
		uint256.MustFromHex("0xff2ea16466c96a3843ec78b326b52861"),
		uint256.MustFromHex("0xfe5dee046a99a2a811c461f1969c3053"),
		uint256.MustFromHex("0xfcbe86c7900a88aedcffc83b479aa3a4"),
		uint256.MustFromHex("0xf987a7253ac413176f2b074cf7815e54"),
		uint256.MustFromHex("0xf3392b0822b70005940c7a398e4b70f3"),
		uint256.MustFromHex("0xe7159475a2c29b7443b29c7fa6e889d9"),
		uint256.MustFromHex("0xd097f3bdfd2022b8845ad8f792aa5825"),
		uint256.MustFromHex("0xa9f746462d870fdf8a65dc1f90e061e5"),
		uint256.MustFromHex("0x70d869a156d2a1b890bb3df62baf32f7"),
		uint256.MustFromHex("0x31be135f97d08fd981231505542fcfa6"),
		uint256.MustFromHex("0x9aa508b5b7a84e1c677de54f3e99bc9"),
		uint256.MustFromHex("0x5d6af8dedb81196699c329225ee604"),
		uint256.MustFromHex("0x2216e584f5fa1ea926041bedfe98"),
		uint256.MustFromHex("0x48a170391f7dc42444e8fa2"),
	}

	roundingMask = uint256.MustFromHex("0xffffffff")
)

// SqrtRatioAtTick computes sqrt(1.0001^tick) * 2^96 exactly, matching the
// on-chain fixed-point bit ladder bit for bit.
func SqrtRatioAtTick(tick int32) (*big.Int, error) {
	if tick < MinTick || tick > MaxTick {
		return nil, ErrTickOutOfBounds
	}

	absTick := tick
	if absTick < 0 {
		absTick = -absTick
	}

	ratio := new(uint256.Int)
	if absTick&0x1 != 0 {
		ratio.Set(ratioConstants[0])
	} else {
		ratio.Set(ratioConstants[1])
	}

	for i := 2; i < 21; i++ {
		if absTick&(1<<(i-1)) != 0 {
			ratio.Mul(ratio, ratioConstants[i]).Rsh(ratio, 128)
		}
	}

	if tick > 0 {
		ratio.Div(maxUint256, ratio)
	}

	// Convert UQ128.128 to Q64.96, rounding up.
	rem := new(uint256.Int).And(ratio, roundingMask)
	ratio.Rsh(ratio, 32)
	if rem.Sign() > 0 {
		ratio.AddUint64(ratio, 1)
	}

	return ratio.ToBig(), nil
}

// TickAtSqrtRatio returns the greatest tick whose sqrt ratio is at most the
// given value. Binary search over SqrtRatioAtTick; exact within the valid
// ratio range.
func TickAtSqrtRatio(sqrtPriceX96 *big.Int) (int32, error) {
	if sqrtPriceX96 == nil || sqrtPriceX96.Cmp(MinSqrtRatio) < 0 || sqrtPriceX96.Cmp(MaxSqrtRatio) >= 0 {
		return 0, ErrSqrtPriceOutOfBounds
	}

	low, high := MinTick, MaxTick
	var tick int32
	for low <= high {
		mid := (low + high) / 2
		ratio, err := SqrtRatioAtTick(mid)
		if err != nil {
			return 0, err
		}
		if ratio.Cmp(sqrtPriceX96) <= 0 {
			tick = mid
			low = mid + 1
		} else {
			high = mid - 1
		}
	}
	return tick, nil
}

// TickFromPriceRatio converts a raw token1/token0 price ratio into the
// implied tick, round(ln(ratio)/ln(1.0001)). Used for the derived-price
// fallback when slot0 is unreadable.
func TickFromPriceRatio(ratio float64) (int32, error) {
	if ratio <= 0 || math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		return 0, ErrSqrtPriceOutOfBounds
	}
	tick := int32(math.Round(math.Log(ratio) / math.Log(1.0001)))
	if tick < MinTick || tick > MaxTick {
		return 0, ErrTickOutOfBounds
	}
	return tick, nil
}
