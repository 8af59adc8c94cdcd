package discovery

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"positionScope/internal/amm"
	"positionScope/internal/dex"
	"positionScope/internal/model"
)

// discoverHookedSingleton resolves the wallet's singleton position NFTs
// through the token index, then derives the pool and position ids locally
// and reads position state through the state view. The position id salt
// is the NFT token id and the recorded owner is the manager contract,
// which holds all managed positions in the singleton's books.
func (s *Service) discoverHookedSingleton(ctx context.Context, wallet common.Address) ([]model.RawPosition, error) {
	manager := s.contracts.SingletonNFT
	if manager == (common.Address{}) || s.nftIndex == nil {
		s.logger.Debug("singleton manager or token index not configured, skipping variant")
		return nil, nil
	}

	tokenIDs, err := s.nftIndex.TokenIDs(ctx, manager, wallet)
	if err != nil {
		return nil, fmt.Errorf("token index: %w", err)
	}

	var positions []model.RawPosition
	for _, tokenID := range tokenIDs {
		key, packed, err := dex.ReadPoolAndPositionInfo(ctx, s.caller, manager, tokenID)
		if err != nil {
			if dex.IsAbsence(err) {
				// Burned or transferred since the index snapshot.
				s.logger.Debug("token no longer held, skipping",
					zap.String("token_id", tokenID.String()))
				continue
			}
			return nil, fmt.Errorf("position %s: %w", tokenID, err)
		}

		info, err := amm.DecodePositionInfo(packed)
		if err != nil {
			return nil, fmt.Errorf("position %s info: %w", tokenID, err)
		}

		poolID, err := amm.PoolID(key)
		if err != nil {
			return nil, fmt.Errorf("position %s pool id: %w", tokenID, err)
		}
		if !info.MatchesPoolID(poolID) {
			s.logger.Warn("position info does not match derived pool id, skipping",
				zap.String("token_id", tokenID.String()))
			continue
		}

		positionID, err := amm.PositionID(manager, info.TickLower, info.TickUpper, tokenID)
		if err != nil {
			return nil, fmt.Errorf("position %s id: %w", tokenID, err)
		}

		state, err := dex.ReadSingletonPosition(ctx, s.caller, s.contracts.SingletonView, poolID, positionID)
		if err != nil {
			return nil, fmt.Errorf("position %s state: %w", tokenID, err)
		}
		if state.Liquidity.Sign() == 0 {
			continue
		}

		growth0, growth1, err := dex.ReadFeeGrowthInside(ctx, s.caller, s.contracts.SingletonView, poolID, info.TickLower, info.TickUpper)
		if err != nil {
			return nil, fmt.Errorf("position %s fee growth: %w", tokenID, err)
		}

		tickLower := info.TickLower
		tickUpper := info.TickUpper
		fee := key.Fee
		positions = append(positions, model.RawPosition{
			ID:        fmt.Sprintf("hs:%s", tokenID),
			Variant:   model.VariantHookedSingleton,
			Token0:    key.Currency0,
			Token1:    key.Currency1,
			Liquidity: state.Liquidity,
			TickLower: &tickLower,
			TickUpper: &tickUpper,
			FeeTier:   &fee,
			TokenID:   tokenID,
			HookedSingleton: &model.HookedSingletonDetail{
				PoolID:               poolID,
				Key:                  key,
				PositionID:           positionID,
				FeeGrowthInside0:     growth0,
				FeeGrowthInside1:     growth1,
				FeeGrowthInside0Last: state.FeeGrowthInside0Last,
				FeeGrowthInside1Last: state.FeeGrowthInside1Last,
			},
		})
	}

	return positions, nil
}
