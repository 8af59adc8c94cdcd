package scope

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"positionScope/internal/discovery"
	"positionScope/internal/enrich"
	"positionScope/internal/model"
	"positionScope/internal/pricing"
)

// Service is the public surface of the tracker: discover-and-value a
// wallet, or price an arbitrary token set.
type Service struct {
	discovery *discovery.Service
	pipeline  *enrich.Pipeline
	oracle    *pricing.Oracle
	logger    *zap.Logger
}

func NewService(disc *discovery.Service, pipeline *enrich.Pipeline, oracle *pricing.Oracle, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		discovery: disc,
		pipeline:  pipeline,
		oracle:    oracle,
		logger:    logger,
	}
}

// ValuePositions discovers every LP position the wallet holds and
// returns them USD-valued, sorted by descending value.
func (s *Service) ValuePositions(ctx context.Context, wallet common.Address) ([]model.ValuedPosition, error) {
	raw, err := s.discovery.Discover(ctx, wallet)
	if err != nil {
		return nil, fmt.Errorf("discover positions: %w", err)
	}
	if len(raw) == 0 {
		return nil, nil
	}

	valued, err := s.pipeline.Enrich(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("value positions: %w", err)
	}

	s.logger.Info("wallet valued",
		zap.String("wallet", wallet.Hex()),
		zap.Int("discovered", len(raw)),
		zap.Int("valued", len(valued)))
	return valued, nil
}

// PriceTokens resolves USD prices for the given tokens. Tokens without a
// price route are absent from the result.
func (s *Service) PriceTokens(ctx context.Context, tokens []common.Address) (map[common.Address]float64, error) {
	return s.oracle.PriceTokens(ctx, tokens)
}
