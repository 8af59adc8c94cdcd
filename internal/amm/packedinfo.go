package amm

import (
	"errors"
	"math/big"
)

// The singleton position manager stores per-token position info in one
// uint256: from the most significant end, a 200-bit pool id fragment, then
// 24 bits of tickUpper, 24 bits of tickLower, and an 8-bit flag byte at the
// bottom. Ticks are unsigned on the wire and must be converted to signed
// int24 before use.
const (
	infoFlagBits  = 8
	infoTickBits  = 24
	tickLowerOff  = infoFlagBits
	tickUpperOff  = infoFlagBits + infoTickBits
	poolIDFragOff = infoFlagBits + 2*infoTickBits
)

var ErrEmptyPositionInfo = errors.New("position info is empty")

// PositionInfo is the decoded form of the packed field.
type PositionInfo struct {
	PoolIDFragment *big.Int
	TickLower      int32
	TickUpper      int32
	Flags          uint8
}

// DecodePositionInfo unpacks the bit-packed position-info word, range
// checking both ticks against the protocol bound.
func DecodePositionInfo(packed *big.Int) (PositionInfo, error) {
	if packed == nil || packed.Sign() == 0 {
		return PositionInfo{}, ErrEmptyPositionInfo
	}
	if packed.Sign() < 0 || packed.BitLen() > 256 {
		return PositionInfo{}, errors.New("position info out of uint256 range")
	}

	flags := uint8(new(big.Int).And(packed, big.NewInt(0xff)).Uint64())

	lower, err := tickFromUnsigned24(extractBits(packed, tickLowerOff, infoTickBits))
	if err != nil {
		return PositionInfo{}, err
	}
	upper, err := tickFromUnsigned24(extractBits(packed, tickUpperOff, infoTickBits))
	if err != nil {
		return PositionInfo{}, err
	}

	return PositionInfo{
		PoolIDFragment: new(big.Int).Rsh(packed, poolIDFragOff),
		TickLower:      lower,
		TickUpper:      upper,
		Flags:          flags,
	}, nil
}

// Encode repacks the info into its on-chain bit layout. Decoding then
// encoding reproduces the original word.
func (p PositionInfo) Encode() *big.Int {
	packed := new(big.Int)
	if p.PoolIDFragment != nil {
		packed.Lsh(p.PoolIDFragment, poolIDFragOff)
	}
	packed.Or(packed, new(big.Int).Lsh(big.NewInt(int64(uint32(p.TickUpper)&0xffffff)), tickUpperOff))
	packed.Or(packed, new(big.Int).Lsh(big.NewInt(int64(uint32(p.TickLower)&0xffffff)), tickLowerOff))
	return packed.Or(packed, big.NewInt(int64(p.Flags)))
}

// MatchesPoolID reports whether the stored fragment agrees with the leading
// bits of a full 32-byte pool id.
func (p PositionInfo) MatchesPoolID(poolID [32]byte) bool {
	if p.PoolIDFragment == nil {
		return false
	}
	full := new(big.Int).SetBytes(poolID[:])
	frag := new(big.Int).Rsh(full, poolIDFragOff)
	return p.PoolIDFragment.Cmp(frag) == 0
}

func extractBits(value *big.Int, offset, width uint) uint32 {
	shifted := new(big.Int).Rsh(value, offset)
	mask := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), width), big.NewInt(1))
	return uint32(shifted.And(shifted, mask).Uint64())
}

// tickFromUnsigned24 converts a 24-bit wire value to a signed tick and
// range checks it.
func tickFromUnsigned24(raw uint32) (int32, error) {
	tick := int32(raw)
	if raw&0x800000 != 0 {
		tick = int32(raw | 0xff000000)
	}
	if tick < MinTick || tick > MaxTick {
		return 0, ErrTickOutOfBounds
	}
	return tick, nil
}
