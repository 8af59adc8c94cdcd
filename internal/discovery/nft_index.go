package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

const nftIndexTimeout = 10 * time.Second

// NFTIndexClient queries an external token index for the position NFTs a
// wallet holds. The singleton manager does not expose on-chain
// enumeration, so its token ids come from here.
type NFTIndexClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewNFTIndexClient(baseURL string) *NFTIndexClient {
	return &NFTIndexClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: nftIndexTimeout},
	}
}

type nftIndexResponse struct {
	TokenIDs []string `json:"tokenIds"`
}

// TokenIDs returns the ids of the contract's NFTs owned by the wallet.
func (c *NFTIndexClient) TokenIDs(ctx context.Context, contract, owner common.Address) ([]*big.Int, error) {
	url := fmt.Sprintf("%s/v1/accounts/%s/tokens?contract=%s", c.baseURL, owner.Hex(), contract.Hex())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query nft index: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("nft index returned status %d", resp.StatusCode)
	}

	var payload nftIndexResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode nft index response: %w", err)
	}

	ids := make([]*big.Int, 0, len(payload.TokenIDs))
	for _, raw := range payload.TokenIDs {
		id, ok := new(big.Int).SetString(raw, 10)
		if !ok {
			return nil, fmt.Errorf("malformed token id %q", raw)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
