package amm

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"positionScope/internal/model"
)

// PoolID derives the 32-byte identifier of a hooked-singleton pool from its
// composite key: keccak256 over the five fields, each widened to a 32-byte
// word. The currency pair must already be sorted; this is validated rather
// than re-derived because sort order decides which side is amount0.
func PoolID(key model.PoolKey) ([32]byte, error) {
	if err := key.Validate(); err != nil {
		return [32]byte{}, err
	}

	buf := make([]byte, 0, 5*32)
	buf = append(buf, common.LeftPadBytes(key.Currency0.Bytes(), 32)...)
	buf = append(buf, common.LeftPadBytes(key.Currency1.Bytes(), 32)...)
	buf = append(buf, common.LeftPadBytes(new(big.Int).SetUint64(uint64(key.Fee)).Bytes(), 32)...)
	buf = append(buf, int32Word(key.TickSpacing)...)
	buf = append(buf, common.LeftPadBytes(key.Hooks.Bytes(), 32)...)

	var id [32]byte
	copy(id[:], crypto.Keccak256(buf))
	return id, nil
}

// PositionID derives the digest the singleton manager keys position state
// by: keccak256 over the tightly packed owner, two's-complement int24 tick
// bounds, and 32-byte salt. The encoding must match the on-chain contract
// exactly or fee-growth lookups will silently return garbage.
func PositionID(owner common.Address, tickLower, tickUpper int32, salt *big.Int) ([32]byte, error) {
	if tickLower < MinTick || tickLower > MaxTick || tickUpper < MinTick || tickUpper > MaxTick {
		return [32]byte{}, ErrTickOutOfBounds
	}
	if salt == nil {
		salt = new(big.Int)
	}

	buf := make([]byte, 0, 20+3+3+32)
	buf = append(buf, owner.Bytes()...)
	buf = append(buf, int24Packed(tickLower)...)
	buf = append(buf, int24Packed(tickUpper)...)
	buf = append(buf, common.LeftPadBytes(salt.Bytes(), 32)...)

	var id [32]byte
	copy(id[:], crypto.Keccak256(buf))
	return id, nil
}

// int32Word encodes a signed value as a two's-complement 32-byte word.
func int32Word(v int32) []byte {
	word := big.NewInt(int64(v))
	if v < 0 {
		word.Add(word, new(big.Int).Lsh(big.NewInt(1), 256))
	}
	return common.LeftPadBytes(word.Bytes(), 32)
}

// int24Packed encodes a tick as a 3-byte two's-complement value.
func int24Packed(v int32) []byte {
	u := uint32(v) & 0xffffff
	return []byte{byte(u >> 16), byte(u >> 8), byte(u)}
}
