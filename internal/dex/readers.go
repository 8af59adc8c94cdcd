package dex

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"

	"positionScope/internal/model"
)

// Typed reads for the three pool designs. Raw return words are decoded
// into structs here, at the boundary, and never passed onward untyped.

// PairState is the share-relevant snapshot of a constant-product pair.
type PairState struct {
	Token0      common.Address
	Token1      common.Address
	Reserve0    *big.Int
	Reserve1    *big.Int
	TotalSupply *big.Int
}

// Slot0 is the current price state of a concentrated pool.
type Slot0 struct {
	SqrtPriceX96 *big.Int
	Tick         int32
}

// PositionDetail is one enumerable NFT position as stored by the position
// manager.
type PositionDetail struct {
	Token0               common.Address
	Token1               common.Address
	Fee                  uint32
	TickLower            int32
	TickUpper            int32
	Liquidity            *big.Int
	FeeGrowthInside0Last *big.Int
	FeeGrowthInside1Last *big.Int
	TokensOwed0          *big.Int
	TokensOwed1          *big.Int
}

// SingletonPosition is the state-view record of a hooked-singleton
// position.
type SingletonPosition struct {
	Liquidity            *big.Int
	FeeGrowthInside0Last *big.Int
	FeeGrowthInside1Last *big.Int
}

// ReadERC20Balance reads balanceOf(owner) on any ERC20-compatible
// contract, share tokens and position NFTs included.
func ReadERC20Balance(ctx context.Context, caller Caller, token, owner common.Address) (*big.Int, error) {
	parsed, err := ERC20ABI()
	if err != nil {
		return nil, err
	}
	values, err := CallMethod(ctx, caller, token, parsed, "balanceOf", owner)
	if err != nil {
		return nil, err
	}
	return AsBigInt(values[0])
}

// ReadPairState reads tokens, reserves, and total supply of a pair.
func ReadPairState(ctx context.Context, caller Caller, pair common.Address) (PairState, error) {
	parsed, err := PairABI()
	if err != nil {
		return PairState{}, err
	}

	state := PairState{}

	values, err := CallMethod(ctx, caller, pair, parsed, "token0")
	if err != nil {
		return PairState{}, err
	}
	if state.Token0, err = AsAddress(values[0]); err != nil {
		return PairState{}, fmt.Errorf("token0: %w", err)
	}

	values, err = CallMethod(ctx, caller, pair, parsed, "token1")
	if err != nil {
		return PairState{}, err
	}
	if state.Token1, err = AsAddress(values[0]); err != nil {
		return PairState{}, fmt.Errorf("token1: %w", err)
	}

	values, err = CallMethod(ctx, caller, pair, parsed, "getReserves")
	if err != nil {
		return PairState{}, err
	}
	if state.Reserve0, err = AsBigInt(values[0]); err != nil {
		return PairState{}, fmt.Errorf("reserve0: %w", err)
	}
	if state.Reserve1, err = AsBigInt(values[1]); err != nil {
		return PairState{}, fmt.Errorf("reserve1: %w", err)
	}

	values, err = CallMethod(ctx, caller, pair, parsed, "totalSupply")
	if err != nil {
		return PairState{}, err
	}
	if state.TotalSupply, err = AsBigInt(values[0]); err != nil {
		return PairState{}, fmt.Errorf("totalSupply: %w", err)
	}

	return state, nil
}

// ReadPoolSlot0 reads the current sqrt price and tick of a concentrated
// pool.
func ReadPoolSlot0(ctx context.Context, caller Caller, pool common.Address) (Slot0, error) {
	parsed, err := PoolABI()
	if err != nil {
		return Slot0{}, err
	}
	values, err := CallMethod(ctx, caller, pool, parsed, "slot0")
	if err != nil {
		return Slot0{}, err
	}

	sqrtPrice, err := AsBigInt(values[0])
	if err != nil {
		return Slot0{}, fmt.Errorf("sqrtPriceX96: %w", err)
	}
	tickBig, err := AsBigInt(values[1])
	if err != nil {
		return Slot0{}, fmt.Errorf("tick: %w", err)
	}
	tick, err := Int24FromBig(tickBig)
	if err != nil {
		return Slot0{}, fmt.Errorf("tick: %w", err)
	}

	return Slot0{SqrtPriceX96: sqrtPrice, Tick: tick}, nil
}

// ReadPoolTokens reads the pair of a concentrated pool.
func ReadPoolTokens(ctx context.Context, caller Caller, pool common.Address) (common.Address, common.Address, error) {
	parsed, err := PoolABI()
	if err != nil {
		return common.Address{}, common.Address{}, err
	}

	values, err := CallMethod(ctx, caller, pool, parsed, "token0")
	if err != nil {
		return common.Address{}, common.Address{}, err
	}
	token0, err := AsAddress(values[0])
	if err != nil {
		return common.Address{}, common.Address{}, fmt.Errorf("token0: %w", err)
	}

	values, err = CallMethod(ctx, caller, pool, parsed, "token1")
	if err != nil {
		return common.Address{}, common.Address{}, err
	}
	token1, err := AsAddress(values[0])
	if err != nil {
		return common.Address{}, common.Address{}, fmt.Errorf("token1: %w", err)
	}

	return token0, token1, nil
}

// FindPool asks the concentrated factory for the pool of a token pair at
// a fee tier. The zero address means no such pool is deployed.
func FindPool(ctx context.Context, caller Caller, factory, tokenA, tokenB common.Address, fee uint32) (common.Address, bool, error) {
	parsed, err := FactoryABI()
	if err != nil {
		return common.Address{}, false, err
	}
	values, err := CallMethod(ctx, caller, factory, parsed, "getPool", tokenA, tokenB, big.NewInt(int64(fee)))
	if err != nil {
		return common.Address{}, false, err
	}
	pool, err := AsAddress(values[0])
	if err != nil {
		return common.Address{}, false, fmt.Errorf("getPool: %w", err)
	}
	if pool == (common.Address{}) {
		return common.Address{}, false, nil
	}
	return pool, true, nil
}

// ReadPositionCount reads the wallet's NFT balance on the position
// manager.
func ReadPositionCount(ctx context.Context, caller Caller, manager, owner common.Address) (*big.Int, error) {
	parsed, err := PositionManagerABI()
	if err != nil {
		return nil, err
	}
	values, err := CallMethod(ctx, caller, manager, parsed, "balanceOf", owner)
	if err != nil {
		return nil, err
	}
	return AsBigInt(values[0])
}

// ReadTokenOfOwnerByIndex enumerates the wallet's position token ids.
func ReadTokenOfOwnerByIndex(ctx context.Context, caller Caller, manager, owner common.Address, index *big.Int) (*big.Int, error) {
	parsed, err := PositionManagerABI()
	if err != nil {
		return nil, err
	}
	values, err := CallMethod(ctx, caller, manager, parsed, "tokenOfOwnerByIndex", owner, index)
	if err != nil {
		return nil, err
	}
	return AsBigInt(values[0])
}

// ReadPositionDetail reads the full per-token position record.
func ReadPositionDetail(ctx context.Context, caller Caller, manager common.Address, tokenID *big.Int) (PositionDetail, error) {
	parsed, err := PositionManagerABI()
	if err != nil {
		return PositionDetail{}, err
	}

	data, err := parsed.Pack("positions", tokenID)
	if err != nil {
		return PositionDetail{}, fmt.Errorf("pack positions: %w", err)
	}
	resp, err := caller.CallContract(ctx, ethereum.CallMsg{To: &manager, Data: data}, nil)
	if err != nil {
		return PositionDetail{}, fmt.Errorf("call positions: %w", err)
	}
	if len(resp) == 0 {
		return PositionDetail{}, fmt.Errorf("call positions: empty result")
	}

	var out struct {
		Nonce                    *big.Int
		Operator                 common.Address
		Token0                   common.Address
		Token1                   common.Address
		Fee                      *big.Int
		TickLower                *big.Int
		TickUpper                *big.Int
		Liquidity                *big.Int
		FeeGrowthInside0LastX128 *big.Int
		FeeGrowthInside1LastX128 *big.Int
		TokensOwed0              *big.Int
		TokensOwed1              *big.Int
	}
	if err := parsed.UnpackIntoInterface(&out, "positions", resp); err != nil {
		return PositionDetail{}, fmt.Errorf("unpack positions: %w", err)
	}

	tickLower, err := Int24FromBig(out.TickLower)
	if err != nil {
		return PositionDetail{}, fmt.Errorf("tickLower: %w", err)
	}
	tickUpper, err := Int24FromBig(out.TickUpper)
	if err != nil {
		return PositionDetail{}, fmt.Errorf("tickUpper: %w", err)
	}

	return PositionDetail{
		Token0:               out.Token0,
		Token1:               out.Token1,
		Fee:                  uint32(out.Fee.Uint64()),
		TickLower:            tickLower,
		TickUpper:            tickUpper,
		Liquidity:            out.Liquidity,
		FeeGrowthInside0Last: out.FeeGrowthInside0LastX128,
		FeeGrowthInside1Last: out.FeeGrowthInside1LastX128,
		TokensOwed0:          out.TokensOwed0,
		TokensOwed1:          out.TokensOwed1,
	}, nil
}

// ReadPoolAndPositionInfo reads a singleton position's pool key and the
// bit-packed info word.
func ReadPoolAndPositionInfo(ctx context.Context, caller Caller, manager common.Address, tokenID *big.Int) (model.PoolKey, *big.Int, error) {
	parsed, err := SingletonManagerABI()
	if err != nil {
		return model.PoolKey{}, nil, err
	}

	data, err := parsed.Pack("getPoolAndPositionInfo", tokenID)
	if err != nil {
		return model.PoolKey{}, nil, fmt.Errorf("pack getPoolAndPositionInfo: %w", err)
	}
	resp, err := caller.CallContract(ctx, ethereum.CallMsg{To: &manager, Data: data}, nil)
	if err != nil {
		return model.PoolKey{}, nil, fmt.Errorf("call getPoolAndPositionInfo: %w", err)
	}
	if len(resp) == 0 {
		return model.PoolKey{}, nil, fmt.Errorf("call getPoolAndPositionInfo: empty result")
	}

	var out struct {
		PoolKey struct {
			Currency0   common.Address
			Currency1   common.Address
			Fee         *big.Int
			TickSpacing *big.Int
			Hooks       common.Address
		}
		Info *big.Int
	}
	if err := parsed.UnpackIntoInterface(&out, "getPoolAndPositionInfo", resp); err != nil {
		return model.PoolKey{}, nil, fmt.Errorf("unpack getPoolAndPositionInfo: %w", err)
	}

	tickSpacing, err := Int24FromBig(out.PoolKey.TickSpacing)
	if err != nil {
		return model.PoolKey{}, nil, fmt.Errorf("tickSpacing: %w", err)
	}

	key := model.PoolKey{
		Currency0:   out.PoolKey.Currency0,
		Currency1:   out.PoolKey.Currency1,
		Fee:         uint32(out.PoolKey.Fee.Uint64()),
		TickSpacing: tickSpacing,
		Hooks:       out.PoolKey.Hooks,
	}
	return key, out.Info, nil
}

// ReadSingletonSlot0 reads the current price of a singleton pool through
// the state-view lens.
func ReadSingletonSlot0(ctx context.Context, caller Caller, stateView common.Address, poolID [32]byte) (Slot0, error) {
	parsed, err := StateViewABI()
	if err != nil {
		return Slot0{}, err
	}
	values, err := CallMethod(ctx, caller, stateView, parsed, "getSlot0", poolID)
	if err != nil {
		return Slot0{}, err
	}

	sqrtPrice, err := AsBigInt(values[0])
	if err != nil {
		return Slot0{}, fmt.Errorf("sqrtPriceX96: %w", err)
	}
	tickBig, err := AsBigInt(values[1])
	if err != nil {
		return Slot0{}, fmt.Errorf("tick: %w", err)
	}
	tick, err := Int24FromBig(tickBig)
	if err != nil {
		return Slot0{}, fmt.Errorf("tick: %w", err)
	}

	return Slot0{SqrtPriceX96: sqrtPrice, Tick: tick}, nil
}

// ReadSingletonPosition reads liquidity and the fee-growth snapshot of a
// singleton position, keyed by pool id and position id.
func ReadSingletonPosition(ctx context.Context, caller Caller, stateView common.Address, poolID, positionID [32]byte) (SingletonPosition, error) {
	parsed, err := StateViewABI()
	if err != nil {
		return SingletonPosition{}, err
	}
	values, err := CallMethod(ctx, caller, stateView, parsed, "getPositionInfo", poolID, positionID)
	if err != nil {
		return SingletonPosition{}, err
	}

	liquidity, err := AsBigInt(values[0])
	if err != nil {
		return SingletonPosition{}, fmt.Errorf("liquidity: %w", err)
	}
	growth0, err := AsBigInt(values[1])
	if err != nil {
		return SingletonPosition{}, fmt.Errorf("feeGrowthInside0: %w", err)
	}
	growth1, err := AsBigInt(values[2])
	if err != nil {
		return SingletonPosition{}, fmt.Errorf("feeGrowthInside1: %w", err)
	}

	return SingletonPosition{
		Liquidity:            liquidity,
		FeeGrowthInside0Last: growth0,
		FeeGrowthInside1Last: growth1,
	}, nil
}

// ReadFeeGrowthInside reads the current inside fee-growth accumulators of
// a tick range.
func ReadFeeGrowthInside(ctx context.Context, caller Caller, stateView common.Address, poolID [32]byte, tickLower, tickUpper int32) (*big.Int, *big.Int, error) {
	parsed, err := StateViewABI()
	if err != nil {
		return nil, nil, err
	}
	values, err := CallMethod(ctx, caller, stateView, parsed, "getFeeGrowthInside", poolID, big.NewInt(int64(tickLower)), big.NewInt(int64(tickUpper)))
	if err != nil {
		return nil, nil, err
	}

	growth0, err := AsBigInt(values[0])
	if err != nil {
		return nil, nil, fmt.Errorf("feeGrowthInside0: %w", err)
	}
	growth1, err := AsBigInt(values[1])
	if err != nil {
		return nil, nil, fmt.Errorf("feeGrowthInside1: %w", err)
	}
	return growth0, growth1, nil
}
