package discovery

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"positionScope/internal/dex"
	"positionScope/internal/model"
)

// discoverConstantProduct walks the registered pair list and keeps every
// pair the wallet holds share tokens in. Constant-product pairs have no
// on-chain enumeration, so membership comes from the registry alone.
func (s *Service) discoverConstantProduct(ctx context.Context, wallet common.Address) ([]model.RawPosition, error) {
	var positions []model.RawPosition

	for _, pair := range s.contracts.PairRegistry {
		balance, err := dex.ReadERC20Balance(ctx, s.caller, pair, wallet)
		if err != nil {
			if dex.IsAbsence(err) {
				s.logger.Debug("pair not readable, skipping",
					zap.String("pair", pair.Hex()))
				continue
			}
			return nil, fmt.Errorf("pair %s balance: %w", pair.Hex(), err)
		}
		if balance.Sign() == 0 {
			continue
		}

		state, err := dex.ReadPairState(ctx, s.caller, pair)
		if err != nil {
			return nil, fmt.Errorf("pair %s state: %w", pair.Hex(), err)
		}
		if state.TotalSupply.Sign() == 0 {
			// Shares with no supply cannot be valued.
			s.logger.Warn("pair has zero total supply, skipping",
				zap.String("pair", pair.Hex()))
			continue
		}

		positions = append(positions, model.RawPosition{
			ID:      fmt.Sprintf("cp:%s", pair.Hex()),
			Variant: model.VariantConstantProduct,
			Token0:  state.Token0,
			Token1:  state.Token1,
			ConstantProduct: &model.ConstantProductStake{
				Pair:        pair,
				Balance:     balance,
				TotalSupply: state.TotalSupply,
				Reserve0:    state.Reserve0,
				Reserve1:    state.Reserve1,
			},
		})
	}

	return positions, nil
}
