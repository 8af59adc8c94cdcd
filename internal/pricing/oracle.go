package pricing

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/big"
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"positionScope/internal/dex"
	"positionScope/internal/model"
)

// ErrNoPrice marks a token the oracle could not resolve through any
// anchor route. Callers treat it as "no data", not as a failure.
var ErrNoPrice = errors.New("no price route to anchor")

const (
	defaultCacheTTL        = 30 * time.Second
	defaultMinLiquidityUSD = 10_000
	// One intermediate token between the priced token and the anchor.
	maxHops = 1
)

// Options tunes the oracle. Zero values fall back to defaults.
type Options struct {
	CacheTTL        time.Duration
	MinLiquidityUSD float64
}

// Oracle resolves token USD prices from on-chain pool state, anchored on
// a single reference token whose USD price comes from an external feed.
type Oracle struct {
	caller     dex.Caller
	resolver   *dex.TokenResolver
	anchor     common.Address
	anchorFeed *AnchorFeed
	poolIndex  *PoolIndexClient
	static     []model.PricingPool
	logger     *zap.Logger

	minLiquidityUSD float64
	prices          *priceCache

	// Pool routes never change within a process run.
	poolMu sync.RWMutex
	pools  map[string][]CandidatePool
}

func NewOracle(caller dex.Caller, resolver *dex.TokenResolver, anchor common.Address, anchorFeed *AnchorFeed, poolIndex *PoolIndexClient, static []model.PricingPool, opts Options, logger *zap.Logger) *Oracle {
	if logger == nil {
		logger = zap.NewNop()
	}
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	minLiquidity := opts.MinLiquidityUSD
	if minLiquidity <= 0 {
		minLiquidity = defaultMinLiquidityUSD
	}
	return &Oracle{
		caller:          caller,
		resolver:        resolver,
		anchor:          anchor,
		anchorFeed:      anchorFeed,
		poolIndex:       poolIndex,
		static:          static,
		logger:          logger,
		minLiquidityUSD: minLiquidity,
		prices:          newPriceCache(ttl),
		pools:           make(map[string][]CandidatePool),
	}
}

// PriceTokens resolves USD prices for a batch of tokens. The anchor feed
// is consulted once per batch; tokens are resolved concurrently and a
// token that cannot be priced is simply absent from the result.
func (o *Oracle) PriceTokens(ctx context.Context, tokens []common.Address) (map[common.Address]float64, error) {
	anchorUSD, err := o.anchorFeed.AnchorUSD(ctx)
	if err != nil {
		return nil, fmt.Errorf("anchor price: %w", err)
	}

	seen := make(map[common.Address]struct{}, len(tokens))
	unique := make([]common.Address, 0, len(tokens))
	for _, token := range tokens {
		if _, ok := seen[token]; ok {
			continue
		}
		seen[token] = struct{}{}
		unique = append(unique, token)
	}

	var (
		mu     sync.Mutex
		result = make(map[common.Address]float64, len(unique))
		wg     sync.WaitGroup
	)
	for _, token := range unique {
		wg.Add(1)
		go func(token common.Address) {
			defer wg.Done()
			price, err := o.priceToken(ctx, token, anchorUSD, 0)
			if err != nil {
				if !errors.Is(err, ErrNoPrice) {
					o.logger.Warn("price resolution failed",
						zap.String("token", token.Hex()),
						zap.Error(err))
				}
				return
			}
			mu.Lock()
			result[token] = price
			mu.Unlock()
		}(token)
	}
	wg.Wait()

	return result, nil
}

// PriceToken resolves a single token. See PriceTokens for batch use.
func (o *Oracle) PriceToken(ctx context.Context, token common.Address) (float64, error) {
	anchorUSD, err := o.anchorFeed.AnchorUSD(ctx)
	if err != nil {
		return 0, fmt.Errorf("anchor price: %w", err)
	}
	return o.priceToken(ctx, token, anchorUSD, 0)
}

func (o *Oracle) priceToken(ctx context.Context, token common.Address, anchorUSD float64, depth int) (float64, error) {
	if token == o.anchor {
		return anchorUSD, nil
	}
	if price, ok := o.prices.get(token); ok {
		return price, nil
	}

	candidates, err := o.candidatePools(ctx, token)
	if err != nil {
		return 0, err
	}

	for _, candidate := range candidates {
		other, ok := candidate.Pool.Other(token)
		if !ok {
			continue
		}
		if other != o.anchor && depth >= maxHops {
			continue
		}

		relative, err := o.relativePrice(ctx, candidate.Pool, token, other)
		if err != nil {
			o.logger.Debug("pool read failed, trying next route",
				zap.String("pool", candidate.Pool.Address.Hex()),
				zap.Error(err))
			continue
		}

		var otherUSD float64
		if other == o.anchor {
			otherUSD = anchorUSD
		} else {
			otherUSD, err = o.priceToken(ctx, other, anchorUSD, depth+1)
			if err != nil {
				continue
			}
		}

		price := relative * otherUSD
		if price <= 0 || math.IsNaN(price) || math.IsInf(price, 0) {
			continue
		}

		o.prices.put(token, price)
		return price, nil
	}

	return 0, fmt.Errorf("%w: %s", ErrNoPrice, token.Hex())
}

// candidatePools merges the static registry with the pool index, orders
// anchor-paired pools first and deeper pools before shallower, and caches
// the route list for the process lifetime.
func (o *Oracle) candidatePools(ctx context.Context, token common.Address) ([]CandidatePool, error) {
	key := cacheKey(token)

	o.poolMu.RLock()
	cached, ok := o.pools[key]
	o.poolMu.RUnlock()
	if ok {
		return cached, nil
	}

	var candidates []CandidatePool
	for _, pool := range o.static {
		if _, ok := pool.Other(token); !ok {
			continue
		}
		// Registry pools are trusted regardless of indexed depth.
		candidates = append(candidates, CandidatePool{Pool: pool, LiquidityUSD: math.Inf(1)})
	}

	if o.poolIndex != nil {
		indexed, err := o.poolIndex.PoolsForToken(ctx, token)
		if err != nil {
			if len(candidates) == 0 {
				return nil, fmt.Errorf("pool index: %w", err)
			}
			o.logger.Warn("pool index unavailable, using registry pools only",
				zap.Error(err))
		}
		for _, candidate := range indexed {
			if candidate.LiquidityUSD < o.minLiquidityUSD {
				continue
			}
			if _, ok := candidate.Pool.Other(token); !ok {
				continue
			}
			candidates = append(candidates, candidate)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		iAnchor := o.pairsAnchor(candidates[i].Pool, token)
		jAnchor := o.pairsAnchor(candidates[j].Pool, token)
		if iAnchor != jAnchor {
			return iAnchor
		}
		return candidates[i].LiquidityUSD > candidates[j].LiquidityUSD
	})

	o.poolMu.Lock()
	o.pools[key] = candidates
	o.poolMu.Unlock()
	return candidates, nil
}

func (o *Oracle) pairsAnchor(pool model.PricingPool, token common.Address) bool {
	other, ok := pool.Other(token)
	return ok && other == o.anchor
}

// relativePrice reads the pool's current state and returns the price of
// token denominated in other, decimals applied.
func (o *Oracle) relativePrice(ctx context.Context, pool model.PricingPool, token, other common.Address) (float64, error) {
	tokenRef := o.resolver.Resolve(ctx, token)
	otherRef := o.resolver.Resolve(ctx, other)
	if !tokenRef.DecimalsKnown || !otherRef.DecimalsKnown {
		return 0, fmt.Errorf("decimals unresolved for pair %s/%s", token.Hex(), other.Hex())
	}

	switch pool.Variant {
	case model.VariantConstantProduct:
		state, err := dex.ReadPairState(ctx, o.caller, pool.Address)
		if err != nil {
			return 0, err
		}
		reserveToken, reserveOther := state.Reserve0, state.Reserve1
		if token == state.Token1 {
			reserveToken, reserveOther = state.Reserve1, state.Reserve0
		} else if token != state.Token0 {
			return 0, fmt.Errorf("token %s not in pair %s", token.Hex(), pool.Address.Hex())
		}
		tokenSide := model.AmountFloat(reserveToken, tokenRef.Decimals)
		if tokenSide == 0 {
			return 0, fmt.Errorf("pair %s has empty %s reserve", pool.Address.Hex(), tokenRef.Symbol)
		}
		return model.AmountFloat(reserveOther, otherRef.Decimals) / tokenSide, nil

	case model.VariantConcentrated:
		slot0, err := dex.ReadPoolSlot0(ctx, o.caller, pool.Address)
		if err != nil {
			return 0, err
		}
		oneInZero, err := rawPriceOneInZero(slot0.SqrtPriceX96)
		if err != nil {
			return 0, err
		}
		if token == pool.Token0 {
			// oneInZero is token1-per-token0 in raw units.
			return oneInZero * math.Pow10(int(tokenRef.Decimals)-int(otherRef.Decimals)), nil
		}
		if token != pool.Token1 {
			return 0, fmt.Errorf("token %s not in pool %s", token.Hex(), pool.Address.Hex())
		}
		if oneInZero == 0 {
			return 0, fmt.Errorf("pool %s reports zero price", pool.Address.Hex())
		}
		return 1 / oneInZero * math.Pow10(int(tokenRef.Decimals)-int(otherRef.Decimals)), nil

	default:
		return 0, fmt.Errorf("pool %s: variant %q not usable for pricing", pool.Address.Hex(), pool.Variant)
	}
}

var q96Float = new(big.Float).SetInt(new(big.Int).Lsh(big.NewInt(1), 96))

// rawPriceOneInZero converts a Q64.96 sqrt price to the raw token1/token0
// price ratio.
func rawPriceOneInZero(sqrtPriceX96 *big.Int) (float64, error) {
	if sqrtPriceX96 == nil || sqrtPriceX96.Sign() <= 0 {
		return 0, errors.New("sqrt price must be positive")
	}
	ratio, _ := new(big.Float).Quo(new(big.Float).SetInt(sqrtPriceX96), q96Float).Float64()
	return ratio * ratio, nil
}
