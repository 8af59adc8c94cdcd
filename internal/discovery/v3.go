package discovery

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"positionScope/internal/dex"
	"positionScope/internal/model"
)

// discoverConcentrated enumerates the wallet's position NFTs and reads
// each underlying tick-range position. Positions with zero liquidity and
// nothing owed are closed and dropped here.
func (s *Service) discoverConcentrated(ctx context.Context, wallet common.Address) ([]model.RawPosition, error) {
	manager := s.contracts.ConcentratedNFT
	if manager == (common.Address{}) {
		s.logger.Debug("concentrated manager not configured, skipping variant")
		return nil, nil
	}

	count, err := dex.ReadPositionCount(ctx, s.caller, manager, wallet)
	if err != nil {
		return nil, fmt.Errorf("position count: %w", err)
	}

	var positions []model.RawPosition
	total := count.Int64()
	for i := int64(0); i < total; i++ {
		tokenID, err := dex.ReadTokenOfOwnerByIndex(ctx, s.caller, manager, wallet, big.NewInt(i))
		if err != nil {
			return nil, fmt.Errorf("token at index %d: %w", i, err)
		}

		detail, err := dex.ReadPositionDetail(ctx, s.caller, manager, tokenID)
		if err != nil {
			return nil, fmt.Errorf("position %s: %w", tokenID, err)
		}
		if detail.Liquidity.Sign() == 0 && detail.TokensOwed0.Sign() == 0 && detail.TokensOwed1.Sign() == 0 {
			continue
		}

		pool, found, err := dex.FindPool(ctx, s.caller, s.contracts.ConcentratedFactory, detail.Token0, detail.Token1, detail.Fee)
		if err != nil {
			return nil, fmt.Errorf("pool for position %s: %w", tokenID, err)
		}
		if !found {
			s.logger.Warn("position references unknown pool, skipping",
				zap.String("token_id", tokenID.String()))
			continue
		}

		tickLower := detail.TickLower
		tickUpper := detail.TickUpper
		fee := detail.Fee
		positions = append(positions, model.RawPosition{
			ID:        fmt.Sprintf("cl:%s", tokenID),
			Variant:   model.VariantConcentrated,
			Token0:    detail.Token0,
			Token1:    detail.Token1,
			Liquidity: detail.Liquidity,
			TickLower: &tickLower,
			TickUpper: &tickUpper,
			FeeTier:   &fee,
			TokenID:   tokenID,
			Concentrated: &model.ConcentratedDetail{
				Pool:        pool,
				TokensOwed0: detail.TokensOwed0,
				TokensOwed1: detail.TokensOwed1,
			},
		})
	}

	return positions, nil
}
