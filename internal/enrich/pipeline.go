package enrich

import (
	"context"
	"fmt"
	"math"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"positionScope/internal/amm"
	"positionScope/internal/dex"
	"positionScope/internal/model"
)

// PriceOracle is the slice of the pricing oracle the pipeline needs.
type PriceOracle interface {
	PriceTokens(ctx context.Context, tokens []common.Address) (map[common.Address]float64, error)
}

// Pipeline turns raw discovered positions into USD-valued records. One
// position failing to value never aborts the batch.
type Pipeline struct {
	caller        dex.Caller
	resolver      *dex.TokenResolver
	oracle        PriceOracle
	singletonView common.Address
	logger        *zap.Logger
}

func NewPipeline(caller dex.Caller, resolver *dex.TokenResolver, oracle PriceOracle, singletonView common.Address, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		caller:        caller,
		resolver:      resolver,
		oracle:        oracle,
		singletonView: singletonView,
		logger:        logger,
	}
}

// Enrich values every position and returns them sorted by descending USD
// value.
func (p *Pipeline) Enrich(ctx context.Context, positions []model.RawPosition) ([]model.ValuedPosition, error) {
	tokens := make([]common.Address, 0, 2*len(positions))
	for _, pos := range positions {
		tokens = append(tokens, pos.Token0, pos.Token1)
	}
	prices, err := p.oracle.PriceTokens(ctx, tokens)
	if err != nil {
		return nil, fmt.Errorf("price batch: %w", err)
	}

	valued := make([]model.ValuedPosition, 0, len(positions))
	for _, pos := range positions {
		vp, err := p.value(ctx, pos, prices)
		if err != nil {
			p.logger.Warn("position skipped",
				zap.String("position", pos.ID),
				zap.Error(err))
			continue
		}
		valued = append(valued, vp)
	}

	sort.SliceStable(valued, func(i, j int) bool {
		return valued[i].LiquidityUSD+valued[i].FeesEarnedUSD > valued[j].LiquidityUSD+valued[j].FeesEarnedUSD
	})
	return valued, nil
}

func (p *Pipeline) value(ctx context.Context, pos model.RawPosition, prices map[common.Address]float64) (model.ValuedPosition, error) {
	ref0 := p.resolver.Resolve(ctx, pos.Token0)
	ref1 := p.resolver.Resolve(ctx, pos.Token1)

	switch pos.Variant {
	case model.VariantConstantProduct:
		return p.valueConstantProduct(pos, ref0, ref1, prices)
	case model.VariantConcentrated:
		return p.valueConcentrated(ctx, pos, ref0, ref1, prices)
	case model.VariantHookedSingleton:
		return p.valueHookedSingleton(ctx, pos, ref0, ref1, prices)
	default:
		return model.ValuedPosition{}, fmt.Errorf("unknown variant %q", pos.Variant)
	}
}

func (p *Pipeline) valueConstantProduct(pos model.RawPosition, ref0, ref1 model.TokenRef, prices map[common.Address]float64) (model.ValuedPosition, error) {
	stake := pos.ConstantProduct
	if stake == nil {
		return model.ValuedPosition{}, fmt.Errorf("missing constant-product detail")
	}
	if stake.TotalSupply == nil || stake.TotalSupply.Sign() == 0 {
		return model.ValuedPosition{}, fmt.Errorf("zero total supply")
	}

	amount0 := shareOf(stake.Reserve0, stake.Balance, stake.TotalSupply)
	amount1 := shareOf(stake.Reserve1, stake.Balance, stake.TotalSupply)

	leg0 := makeLeg(ref0, amount0, prices[pos.Token0])
	leg1 := makeLeg(ref1, amount1, prices[pos.Token1])

	return model.ValuedPosition{
		ID:           pos.ID,
		Variant:      pos.Variant,
		Pair:         pairLabel(leg0, leg1),
		Token0:       leg0,
		Token1:       leg1,
		LiquidityUSD: leg0.USD + leg1.USD,
		PriceSource:  model.PriceSourceLive,
	}, nil
}

func (p *Pipeline) valueConcentrated(ctx context.Context, pos model.RawPosition, ref0, ref1 model.TokenRef, prices map[common.Address]float64) (model.ValuedPosition, error) {
	detail := pos.Concentrated
	if detail == nil || pos.TickLower == nil || pos.TickUpper == nil {
		return model.ValuedPosition{}, fmt.Errorf("missing concentrated detail")
	}

	currentTick, source, err := p.currentTick(ctx, pos, ref0, ref1, prices, func(ctx context.Context) (dex.Slot0, error) {
		return dex.ReadPoolSlot0(ctx, p.caller, detail.Pool)
	})
	if err != nil {
		return model.ValuedPosition{}, err
	}

	vp, err := p.valueRange(pos, ref0, ref1, prices, currentTick, source)
	if err != nil {
		return model.ValuedPosition{}, err
	}

	vp.FeesEarnedUSD = legUSD(ref0, detail.TokensOwed0, prices[pos.Token0]) +
		legUSD(ref1, detail.TokensOwed1, prices[pos.Token1])
	return vp, nil
}

func (p *Pipeline) valueHookedSingleton(ctx context.Context, pos model.RawPosition, ref0, ref1 model.TokenRef, prices map[common.Address]float64) (model.ValuedPosition, error) {
	detail := pos.HookedSingleton
	if detail == nil || pos.TickLower == nil || pos.TickUpper == nil {
		return model.ValuedPosition{}, fmt.Errorf("missing singleton detail")
	}

	currentTick, source, err := p.currentTick(ctx, pos, ref0, ref1, prices, func(ctx context.Context) (dex.Slot0, error) {
		return dex.ReadSingletonSlot0(ctx, p.caller, p.singletonView, detail.PoolID)
	})
	if err != nil {
		return model.ValuedPosition{}, err
	}

	vp, err := p.valueRange(pos, ref0, ref1, prices, currentTick, source)
	if err != nil {
		return model.ValuedPosition{}, err
	}

	fees0 := amm.FeeGrowthDelta(detail.FeeGrowthInside0, detail.FeeGrowthInside0Last, pos.Liquidity)
	fees1 := amm.FeeGrowthDelta(detail.FeeGrowthInside1, detail.FeeGrowthInside1Last, pos.Liquidity)
	vp.FeesEarnedUSD = legUSD(ref0, fees0, prices[pos.Token0]) +
		legUSD(ref1, fees1, prices[pos.Token1])
	return vp, nil
}

// currentTick reads the pool's live tick, falling back to a tick derived
// from the two legs' independent USD prices when the pool state is
// unreadable.
func (p *Pipeline) currentTick(ctx context.Context, pos model.RawPosition, ref0, ref1 model.TokenRef, prices map[common.Address]float64, readSlot0 func(context.Context) (dex.Slot0, error)) (int32, model.PriceSource, error) {
	slot0, err := readSlot0(ctx)
	if err == nil {
		return slot0.Tick, model.PriceSourceLive, nil
	}
	p.logger.Debug("live pool state unavailable, deriving tick from prices",
		zap.String("position", pos.ID),
		zap.Error(err))

	price0, ok0 := prices[pos.Token0]
	price1, ok1 := prices[pos.Token1]
	if !ok0 || !ok1 || price0 <= 0 || price1 <= 0 || !ref0.DecimalsKnown || !ref1.DecimalsKnown {
		return 0, "", fmt.Errorf("pool state unreadable and legs not independently priced: %w", err)
	}

	// price0/price1 is token1 per token0 in human units; rescale to the
	// raw ratio tick space is defined over.
	rawRatio := price0 / price1 * math.Pow10(int(ref1.Decimals)-int(ref0.Decimals))
	tick, err := amm.TickFromPriceRatio(rawRatio)
	if err != nil {
		return 0, "", fmt.Errorf("derive tick: %w", err)
	}
	return tick, model.PriceSourceDerived, nil
}

// valueRange computes leg amounts for a tick-range position at the given
// current tick.
func (p *Pipeline) valueRange(pos model.RawPosition, ref0, ref1 model.TokenRef, prices map[common.Address]float64, currentTick int32, source model.PriceSource) (model.ValuedPosition, error) {
	sqrtCurrent, err := amm.SqrtRatioAtTick(currentTick)
	if err != nil {
		return model.ValuedPosition{}, fmt.Errorf("current tick: %w", err)
	}
	sqrtLower, err := amm.SqrtRatioAtTick(*pos.TickLower)
	if err != nil {
		return model.ValuedPosition{}, fmt.Errorf("lower tick: %w", err)
	}
	sqrtUpper, err := amm.SqrtRatioAtTick(*pos.TickUpper)
	if err != nil {
		return model.ValuedPosition{}, fmt.Errorf("upper tick: %w", err)
	}

	amount0, amount1, err := amm.AmountsFromLiquidity(sqrtCurrent, sqrtLower, sqrtUpper, pos.Liquidity)
	if err != nil {
		return model.ValuedPosition{}, fmt.Errorf("amounts: %w", err)
	}

	leg0 := makeLeg(ref0, amount0, prices[pos.Token0])
	leg1 := makeLeg(ref1, amount1, prices[pos.Token1])

	inRange := currentTick >= *pos.TickLower && currentTick < *pos.TickUpper

	return model.ValuedPosition{
		ID:           pos.ID,
		Variant:      pos.Variant,
		Pair:         pairLabel(leg0, leg1),
		Token0:       leg0,
		Token1:       leg1,
		LiquidityUSD: leg0.USD + leg1.USD,
		InRange:      &inRange,
		PriceRange:   priceRange(*pos.TickLower, *pos.TickUpper, ref0, ref1),
		PriceSource:  source,
	}, nil
}

// shareOf returns reserve x balance / totalSupply in big.Int arithmetic.
func shareOf(reserve, balance, totalSupply *big.Int) *big.Int {
	if reserve == nil || balance == nil {
		return new(big.Int)
	}
	out := new(big.Int).Mul(reserve, balance)
	return out.Div(out, totalSupply)
}

func makeLeg(ref model.TokenRef, raw *big.Int, price float64) model.ValuedLeg {
	if ref.Symbol == "" {
		ref.Symbol = "UNKNOWN"
	}
	amount := model.AmountFloat(raw, displayDecimals(ref))
	leg := model.ValuedLeg{
		Ref:    ref,
		Amount: amount,
		USD:    amount * price,
	}
	if raw != nil {
		leg.AmountRaw = raw.String()
	} else {
		leg.AmountRaw = "0"
	}
	return leg
}

func legUSD(ref model.TokenRef, raw *big.Int, price float64) float64 {
	return model.AmountFloat(raw, displayDecimals(ref)) * price
}

// displayDecimals applies the display-only 18-decimals fallback for
// tokens whose metadata never resolved. Valuation paths that need exact
// decimals check DecimalsKnown themselves.
func displayDecimals(ref model.TokenRef) uint8 {
	if ref.DecimalsKnown {
		return ref.Decimals
	}
	return 18
}

func pairLabel(leg0, leg1 model.ValuedLeg) string {
	return fmt.Sprintf("%s/%s", leg0.Ref.Symbol, leg1.Ref.Symbol)
}

// priceRange converts tick bounds to human token1-per-token0 prices.
func priceRange(tickLower, tickUpper int32, ref0, ref1 model.TokenRef) *model.PriceRange {
	if !ref0.DecimalsKnown || !ref1.DecimalsKnown {
		return nil
	}
	scale := math.Pow10(int(ref0.Decimals) - int(ref1.Decimals))
	return &model.PriceRange{
		Lower: math.Pow(1.0001, float64(tickLower)) * scale,
		Upper: math.Pow(1.0001, float64(tickUpper)) * scale,
	}
}
