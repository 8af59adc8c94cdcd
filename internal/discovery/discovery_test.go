package discovery

import (
	"context"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"positionScope/internal/amm"
	"positionScope/internal/dex"
	"positionScope/internal/model"
)

type fakeCaller struct {
	responses map[string][]byte
	errs      map[string]error
}

func newFakeCaller() *fakeCaller {
	return &fakeCaller{
		responses: make(map[string][]byte),
		errs:      make(map[string]error),
	}
}

func callKey(to common.Address, data []byte) string {
	return to.Hex() + "|" + common.Bytes2Hex(data)
}

func (f *fakeCaller) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	key := callKey(*msg.To, msg.Data)
	if err, ok := f.errs[key]; ok {
		return nil, err
	}
	if resp, ok := f.responses[key]; ok {
		return resp, nil
	}
	return nil, fmt.Errorf("unexpected call to %s", msg.To.Hex())
}

func (f *fakeCaller) stub(t *testing.T, parsed abi.ABI, to common.Address, method string, outputs []interface{}, args ...interface{}) {
	t.Helper()
	data, err := parsed.Pack(method, args...)
	if err != nil {
		t.Fatalf("pack %s: %v", method, err)
	}
	resp, err := parsed.Methods[method].Outputs.Pack(outputs...)
	if err != nil {
		t.Fatalf("pack %s outputs: %v", method, err)
	}
	f.responses[callKey(to, data)] = resp
}

var (
	wallet = common.HexToAddress("0x7C5f5A4bBd8fD63184577525326123B519429bDc")
	tokenA = common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	tokenB = common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
)

func mustABI(t *testing.T, get func() (abi.ABI, error)) abi.ABI {
	t.Helper()
	parsed, err := get()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	return parsed
}

func TestDiscoverConstantProduct(t *testing.T) {
	pairABI := mustABI(t, dex.PairABI)
	erc20 := mustABI(t, dex.ERC20ABI)

	held := common.HexToAddress("0x1111111111111111111111111111111111111111")
	empty := common.HexToAddress("0x2222222222222222222222222222222222222222")

	caller := newFakeCaller()
	caller.stub(t, erc20, held, "balanceOf", []interface{}{big.NewInt(2_236)}, wallet)
	caller.stub(t, erc20, empty, "balanceOf", []interface{}{big.NewInt(0)}, wallet)
	caller.stub(t, pairABI, held, "token0", []interface{}{tokenA})
	caller.stub(t, pairABI, held, "token1", []interface{}{tokenB})
	caller.stub(t, pairABI, held, "getReserves", []interface{}{
		big.NewInt(1_000_000), big.NewInt(500), uint32(0),
	})
	caller.stub(t, pairABI, held, "totalSupply", []interface{}{big.NewInt(22_360)})

	svc := NewService(caller, Contracts{PairRegistry: []common.Address{held, empty}}, nil, zap.NewNop())

	positions, err := svc.discoverConstantProduct(context.Background(), wallet)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if len(positions) != 1 {
		t.Fatalf("expected 1 position, got %d", len(positions))
	}

	pos := positions[0]
	if pos.Variant != model.VariantConstantProduct {
		t.Fatalf("variant mismatch: %s", pos.Variant)
	}
	if pos.Token0 != tokenA || pos.Token1 != tokenB {
		t.Fatalf("token mismatch: %+v", pos)
	}
	stake := pos.ConstantProduct
	if stake == nil || stake.Balance.Int64() != 2_236 || stake.TotalSupply.Int64() != 22_360 {
		t.Fatalf("stake mismatch: %+v", stake)
	}
}

func TestDiscoverConcentratedSkipsClosedPositions(t *testing.T) {
	managerABI := mustABI(t, dex.PositionManagerABI)
	factoryABI := mustABI(t, dex.FactoryABI)

	manager := common.HexToAddress("0x3333333333333333333333333333333333333333")
	factory := common.HexToAddress("0x4444444444444444444444444444444444444444")
	pool := common.HexToAddress("0x5555555555555555555555555555555555555555")

	caller := newFakeCaller()
	caller.stub(t, managerABI, manager, "balanceOf", []interface{}{big.NewInt(2)}, wallet)
	caller.stub(t, managerABI, manager, "tokenOfOwnerByIndex", []interface{}{big.NewInt(42)}, wallet, big.NewInt(0))
	caller.stub(t, managerABI, manager, "tokenOfOwnerByIndex", []interface{}{big.NewInt(43)}, wallet, big.NewInt(1))

	// Open position.
	caller.stub(t, managerABI, manager, "positions", []interface{}{
		big.NewInt(0), common.Address{}, tokenA, tokenB,
		big.NewInt(3000), big.NewInt(-276320), big.NewInt(-276300),
		big.NewInt(1_000_000), big.NewInt(0), big.NewInt(0),
		big.NewInt(17), big.NewInt(19),
	}, big.NewInt(42))
	// Closed position: no liquidity, nothing owed.
	caller.stub(t, managerABI, manager, "positions", []interface{}{
		big.NewInt(0), common.Address{}, tokenA, tokenB,
		big.NewInt(3000), big.NewInt(-100), big.NewInt(100),
		big.NewInt(0), big.NewInt(0), big.NewInt(0),
		big.NewInt(0), big.NewInt(0),
	}, big.NewInt(43))

	caller.stub(t, factoryABI, factory, "getPool", []interface{}{pool}, tokenA, tokenB, big.NewInt(3000))

	svc := NewService(caller, Contracts{
		ConcentratedNFT:     manager,
		ConcentratedFactory: factory,
	}, nil, zap.NewNop())

	positions, err := svc.discoverConcentrated(context.Background(), wallet)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if len(positions) != 1 {
		t.Fatalf("expected 1 position, got %d", len(positions))
	}

	pos := positions[0]
	if pos.ID != "cl:42" {
		t.Fatalf("id mismatch: %s", pos.ID)
	}
	if *pos.TickLower != -276320 || *pos.TickUpper != -276300 {
		t.Fatalf("tick mismatch: %+v", pos)
	}
	if pos.Concentrated == nil || pos.Concentrated.Pool != pool {
		t.Fatalf("pool mismatch: %+v", pos.Concentrated)
	}
	if pos.Concentrated.TokensOwed0.Int64() != 17 || pos.Concentrated.TokensOwed1.Int64() != 19 {
		t.Fatalf("owed mismatch: %+v", pos.Concentrated)
	}
}

func TestDiscoverHookedSingleton(t *testing.T) {
	managerABI := mustABI(t, dex.SingletonManagerABI)
	viewABI := mustABI(t, dex.StateViewABI)

	manager := common.HexToAddress("0x6666666666666666666666666666666666666666")
	view := common.HexToAddress("0x7777777777777777777777777777777777777777")
	tokenID := big.NewInt(12345)

	key := model.PoolKey{
		Currency0:   tokenA,
		Currency1:   tokenB,
		Fee:         500,
		TickSpacing: 10,
	}
	poolID, err := amm.PoolID(key)
	if err != nil {
		t.Fatalf("pool id: %v", err)
	}

	const (
		tickLower = int32(-887270)
		tickUpper = int32(887270)
	)
	packed := amm.PositionInfo{
		PoolIDFragment: new(big.Int).Rsh(new(big.Int).SetBytes(poolID[:]), 56),
		TickLower:      tickLower,
		TickUpper:      tickUpper,
	}.Encode()

	positionID, err := amm.PositionID(manager, tickLower, tickUpper, tokenID)
	if err != nil {
		t.Fatalf("position id: %v", err)
	}

	abiKey := struct {
		Currency0   common.Address
		Currency1   common.Address
		Fee         *big.Int
		TickSpacing *big.Int
		Hooks       common.Address
	}{
		Currency0:   key.Currency0,
		Currency1:   key.Currency1,
		Fee:         big.NewInt(int64(key.Fee)),
		TickSpacing: big.NewInt(int64(key.TickSpacing)),
	}

	caller := newFakeCaller()
	caller.stub(t, managerABI, manager, "getPoolAndPositionInfo", []interface{}{abiKey, packed}, tokenID)
	caller.stub(t, viewABI, view, "getPositionInfo", []interface{}{
		big.NewInt(1_000_000), big.NewInt(10), big.NewInt(20),
	}, poolID, positionID)
	caller.stub(t, viewABI, view, "getFeeGrowthInside", []interface{}{
		big.NewInt(13), big.NewInt(21),
	}, poolID, big.NewInt(int64(tickLower)), big.NewInt(int64(tickUpper)))

	index := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"tokenIds":["12345"]}`)
	}))
	defer index.Close()

	svc := NewService(caller, Contracts{
		SingletonNFT:  manager,
		SingletonView: view,
	}, NewNFTIndexClient(index.URL), zap.NewNop())

	positions, err := svc.discoverHookedSingleton(context.Background(), wallet)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if len(positions) != 1 {
		t.Fatalf("expected 1 position, got %d", len(positions))
	}

	pos := positions[0]
	if pos.ID != "hs:12345" {
		t.Fatalf("id mismatch: %s", pos.ID)
	}
	if pos.Liquidity.Int64() != 1_000_000 {
		t.Fatalf("liquidity mismatch: %s", pos.Liquidity)
	}
	detail := pos.HookedSingleton
	if detail == nil || detail.PoolID != poolID || detail.PositionID != positionID {
		t.Fatalf("id derivation mismatch: %+v", detail)
	}
	if detail.FeeGrowthInside0.Int64() != 13 || detail.FeeGrowthInside0Last.Int64() != 10 {
		t.Fatalf("growth mismatch: %+v", detail)
	}
}

func TestDiscoverIsolatesVariantFailure(t *testing.T) {
	pairABI := mustABI(t, dex.PairABI)
	erc20 := mustABI(t, dex.ERC20ABI)

	held := common.HexToAddress("0x1111111111111111111111111111111111111111")
	manager := common.HexToAddress("0x3333333333333333333333333333333333333333")

	caller := newFakeCaller()
	caller.stub(t, erc20, held, "balanceOf", []interface{}{big.NewInt(100)}, wallet)
	caller.stub(t, pairABI, held, "token0", []interface{}{tokenA})
	caller.stub(t, pairABI, held, "token1", []interface{}{tokenB})
	caller.stub(t, pairABI, held, "getReserves", []interface{}{
		big.NewInt(10), big.NewInt(10), uint32(0),
	})
	caller.stub(t, pairABI, held, "totalSupply", []interface{}{big.NewInt(1000)})
	// The concentrated manager has no stubs, so that scan fails.

	svc := NewService(caller, Contracts{
		PairRegistry:    []common.Address{held},
		ConcentratedNFT: manager,
	}, nil, zap.NewNop())

	positions, err := svc.Discover(context.Background(), wallet)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if len(positions) != 1 {
		t.Fatalf("expected constant-product result to survive, got %d", len(positions))
	}
}

func TestDiscoverAllVariantsFailing(t *testing.T) {
	manager := common.HexToAddress("0x3333333333333333333333333333333333333333")
	pair := common.HexToAddress("0x1111111111111111111111111111111111111111")

	// No stubs at all: every RPC read fails.
	caller := newFakeCaller()

	svc := NewService(caller, Contracts{
		PairRegistry:    []common.Address{pair},
		ConcentratedNFT: manager,
		SingletonNFT:    manager,
	}, NewNFTIndexClient("http://127.0.0.1:0"), zap.NewNop())

	if _, err := svc.Discover(context.Background(), wallet); err == nil {
		t.Fatalf("expected error when every variant fails")
	}
}
