package pricing

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"positionScope/internal/model"
)

func TestPoolsForTokenFiltersUnsupportedVariants(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"pairs":[
			{"pairAddress":"0x1111111111111111111111111111111111111111","labels":["v2"],
			 "baseToken":{"address":"0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"},
			 "quoteToken":{"address":"0xeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee"},
			 "liquidity":{"usd":250000}},
			{"pairAddress":"0x2222222222222222222222222222222222222222","labels":["v3"],
			 "baseToken":{"address":"0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"},
			 "quoteToken":{"address":"0xeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee"},
			 "liquidity":{"usd":90000}},
			{"pairAddress":"0x3333333333333333333333333333333333333333","labels":["v4"],
			 "baseToken":{"address":"0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"},
			 "quoteToken":{"address":"0xeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee"},
			 "liquidity":{"usd":500000}}
		]}`)
	}))
	defer server.Close()

	client := NewPoolIndexClient(server.URL)
	pools, err := client.PoolsForToken(context.Background(), common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"))
	if err != nil {
		t.Fatalf("pools for token: %v", err)
	}

	if len(pools) != 2 {
		t.Fatalf("expected the singleton pool to be dropped, got %d pools", len(pools))
	}
	if pools[0].Pool.Variant != model.VariantConstantProduct || pools[0].LiquidityUSD != 250000 {
		t.Fatalf("first pool mismatch: %+v", pools[0])
	}
	if pools[1].Pool.Variant != model.VariantConcentrated {
		t.Fatalf("second pool mismatch: %+v", pools[1])
	}
}

func TestPoolsForTokenNotFoundIsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewPoolIndexClient(server.URL)
	pools, err := client.PoolsForToken(context.Background(), common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"))
	if err != nil {
		t.Fatalf("pools for token: %v", err)
	}
	if len(pools) != 0 {
		t.Fatalf("expected empty result, got %d", len(pools))
	}
}
