package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"positionScope/internal/model"
)

const poolIndexTimeout = 8 * time.Second

// PoolIndexClient queries an external pool index for the liquid pools a
// token trades in. It supplements the static registry during price
// resolution.
type PoolIndexClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewPoolIndexClient(baseURL string) *PoolIndexClient {
	return &PoolIndexClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: poolIndexTimeout},
	}
}

type poolIndexPair struct {
	PairAddress string   `json:"pairAddress"`
	Labels      []string `json:"labels"`
	BaseToken   struct {
		Address string `json:"address"`
	} `json:"baseToken"`
	QuoteToken struct {
		Address string `json:"address"`
	} `json:"quoteToken"`
	Liquidity struct {
		USD float64 `json:"usd"`
	} `json:"liquidity"`
}

type poolIndexResponse struct {
	Pairs []poolIndexPair `json:"pairs"`
}

// CandidatePool is one index result with its reported depth.
type CandidatePool struct {
	Pool         model.PricingPool
	LiquidityUSD float64
}

// PoolsForToken returns the indexed pools containing the token. Pools the
// index cannot map to a standalone pool contract (singleton designs) are
// dropped here since their state is not addressable by pool address.
func (c *PoolIndexClient) PoolsForToken(ctx context.Context, token common.Address) ([]CandidatePool, error) {
	url := fmt.Sprintf("%s/v1/pools/%s", c.baseURL, token.Hex())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query pool index: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pool index returned status %d", resp.StatusCode)
	}

	var payload poolIndexResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode pool index response: %w", err)
	}

	candidates := make([]CandidatePool, 0, len(payload.Pairs))
	for _, pair := range payload.Pairs {
		variant, ok := variantFromLabels(pair.Labels)
		if !ok {
			continue
		}
		if !common.IsHexAddress(pair.PairAddress) {
			continue
		}
		candidates = append(candidates, CandidatePool{
			Pool: model.PricingPool{
				Address: common.HexToAddress(pair.PairAddress),
				Variant: variant,
				Token0:  common.HexToAddress(pair.BaseToken.Address),
				Token1:  common.HexToAddress(pair.QuoteToken.Address),
			},
			LiquidityUSD: pair.Liquidity.USD,
		})
	}
	return candidates, nil
}

func variantFromLabels(labels []string) (model.VariantKind, bool) {
	for _, label := range labels {
		switch label {
		case "v2":
			return model.VariantConstantProduct, true
		case "v3":
			return model.VariantConcentrated, true
		}
	}
	return "", false
}
