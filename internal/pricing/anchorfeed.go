package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"
)

const anchorFeedTimeout = 8 * time.Second

// AnchorFeed fetches the anchor token's USD price from an external price
// index, with a fallback source when the primary is down. Everything else
// in the oracle is priced relative to the anchor, so this is the one
// off-chain price the system depends on.
type AnchorFeed struct {
	primaryURL  string
	fallbackURL string
	httpClient  *http.Client
}

func NewAnchorFeed(primaryURL, fallbackURL string) *AnchorFeed {
	return &AnchorFeed{
		primaryURL:  primaryURL,
		fallbackURL: fallbackURL,
		httpClient:  &http.Client{Timeout: anchorFeedTimeout},
	}
}

type anchorFeedResponse struct {
	PriceUSD string `json:"priceUsd"`
}

// AnchorUSD returns the anchor's current USD price.
func (f *AnchorFeed) AnchorUSD(ctx context.Context) (float64, error) {
	price, primaryErr := f.fetch(ctx, f.primaryURL)
	if primaryErr == nil {
		return price, nil
	}
	if f.fallbackURL == "" {
		return 0, primaryErr
	}

	price, fallbackErr := f.fetch(ctx, f.fallbackURL)
	if fallbackErr != nil {
		return 0, fmt.Errorf("anchor feed primary: %v, fallback: %w", primaryErr, fallbackErr)
	}
	return price, nil
}

func (f *AnchorFeed) fetch(ctx context.Context, url string) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("query anchor feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("anchor feed returned status %d", resp.StatusCode)
	}

	var payload anchorFeedResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("decode anchor feed response: %w", err)
	}

	price, err := strconv.ParseFloat(payload.PriceUSD, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed anchor price %q: %w", payload.PriceUSD, err)
	}
	if price <= 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, fmt.Errorf("anchor feed returned invalid price %v", price)
	}
	return price, nil
}
