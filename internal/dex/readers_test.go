package dex

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestReadPairState(t *testing.T) {
	pairABI, err := PairABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}

	pair := common.HexToAddress("0x1111111111111111111111111111111111111111")
	token0 := common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	token1 := common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")

	caller := newFakeCaller()
	caller.stub(t, pairABI, pair, "token0", []interface{}{token0})
	caller.stub(t, pairABI, pair, "token1", []interface{}{token1})
	caller.stub(t, pairABI, pair, "getReserves", []interface{}{
		big.NewInt(1_000_000), big.NewInt(500), uint32(1_700_000_000),
	})
	caller.stub(t, pairABI, pair, "totalSupply", []interface{}{big.NewInt(22_360)})

	state, err := ReadPairState(context.Background(), caller, pair)
	if err != nil {
		t.Fatalf("read pair state: %v", err)
	}
	if state.Token0 != token0 || state.Token1 != token1 {
		t.Fatalf("token mismatch: %+v", state)
	}
	if state.Reserve0.Int64() != 1_000_000 || state.Reserve1.Int64() != 500 {
		t.Fatalf("reserve mismatch: %+v", state)
	}
	if state.TotalSupply.Int64() != 22_360 {
		t.Fatalf("supply mismatch: %+v", state)
	}
}

func TestReadPoolSlot0(t *testing.T) {
	poolABI, err := PoolABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}

	pool := common.HexToAddress("0x2222222222222222222222222222222222222222")
	sqrtPrice, _ := new(big.Int).SetString("79228162514264337593543950336", 10)

	caller := newFakeCaller()
	caller.stub(t, poolABI, pool, "slot0", []interface{}{
		sqrtPrice, big.NewInt(-276310), uint16(0), uint16(1), uint16(1), uint8(0), true,
	})

	slot0, err := ReadPoolSlot0(context.Background(), caller, pool)
	if err != nil {
		t.Fatalf("read slot0: %v", err)
	}
	if slot0.SqrtPriceX96.Cmp(sqrtPrice) != 0 {
		t.Fatalf("sqrt price mismatch: %s", slot0.SqrtPriceX96)
	}
	if slot0.Tick != -276310 {
		t.Fatalf("tick mismatch: %d", slot0.Tick)
	}
}

func TestReadPositionDetail(t *testing.T) {
	managerABI, err := PositionManagerABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}

	manager := common.HexToAddress("0x3333333333333333333333333333333333333333")
	token0 := common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	token1 := common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	tokenID := big.NewInt(42)

	caller := newFakeCaller()
	caller.stub(t, managerABI, manager, "positions", []interface{}{
		big.NewInt(0), common.Address{}, token0, token1,
		big.NewInt(3000), big.NewInt(-276320), big.NewInt(-276300),
		big.NewInt(1_000_000), big.NewInt(7), big.NewInt(8),
		big.NewInt(11), big.NewInt(12),
	}, tokenID)

	detail, err := ReadPositionDetail(context.Background(), caller, manager, tokenID)
	if err != nil {
		t.Fatalf("read position: %v", err)
	}
	if detail.Token0 != token0 || detail.Token1 != token1 {
		t.Fatalf("token mismatch: %+v", detail)
	}
	if detail.Fee != 3000 {
		t.Fatalf("fee mismatch: %d", detail.Fee)
	}
	if detail.TickLower != -276320 || detail.TickUpper != -276300 {
		t.Fatalf("tick mismatch: %+v", detail)
	}
	if detail.Liquidity.Int64() != 1_000_000 {
		t.Fatalf("liquidity mismatch: %s", detail.Liquidity)
	}
	if detail.TokensOwed0.Int64() != 11 || detail.TokensOwed1.Int64() != 12 {
		t.Fatalf("owed mismatch: %+v", detail)
	}
}

func TestReadPoolAndPositionInfo(t *testing.T) {
	managerABI, err := SingletonManagerABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}

	manager := common.HexToAddress("0x4444444444444444444444444444444444444444")
	tokenID := big.NewInt(7)
	poolKey := struct {
		Currency0   common.Address
		Currency1   common.Address
		Fee         *big.Int
		TickSpacing *big.Int
		Hooks       common.Address
	}{
		Currency0:   common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"),
		Currency1:   common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"),
		Fee:         big.NewInt(500),
		TickSpacing: big.NewInt(10),
		Hooks:       common.Address{},
	}

	caller := newFakeCaller()
	caller.stub(t, managerABI, manager, "getPoolAndPositionInfo", []interface{}{
		poolKey, big.NewInt(123456),
	}, tokenID)

	key, info, err := ReadPoolAndPositionInfo(context.Background(), caller, manager, tokenID)
	if err != nil {
		t.Fatalf("read pool and position info: %v", err)
	}
	if key.Currency0 != poolKey.Currency0 || key.Currency1 != poolKey.Currency1 {
		t.Fatalf("currency mismatch: %+v", key)
	}
	if key.Fee != 500 || key.TickSpacing != 10 {
		t.Fatalf("key mismatch: %+v", key)
	}
	if info.Int64() != 123456 {
		t.Fatalf("info mismatch: %s", info)
	}
}

func TestFindPoolZeroAddressMeansAbsent(t *testing.T) {
	factoryABI, err := FactoryABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}

	factory := common.HexToAddress("0x5555555555555555555555555555555555555555")
	tokenA := common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	tokenB := common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")

	caller := newFakeCaller()
	caller.stub(t, factoryABI, factory, "getPool", []interface{}{common.Address{}},
		tokenA, tokenB, big.NewInt(3000))

	_, found, err := FindPool(context.Background(), caller, factory, tokenA, tokenB, 3000)
	if err != nil {
		t.Fatalf("find pool: %v", err)
	}
	if found {
		t.Fatalf("expected pool to be absent")
	}
}
