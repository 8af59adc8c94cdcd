package discovery

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"positionScope/internal/dex"
	"positionScope/internal/model"
)

// Contracts holds the protocol entry points discovery reads from.
// A zero address disables the matching variant.
type Contracts struct {
	PairRegistry        []common.Address
	ConcentratedNFT     common.Address
	ConcentratedFactory common.Address
	SingletonNFT        common.Address
	SingletonView       common.Address
}

// Service discovers a wallet's liquidity positions across all pool
// designs.
type Service struct {
	caller    dex.Caller
	contracts Contracts
	nftIndex  *NFTIndexClient
	logger    *zap.Logger
}

func NewService(caller dex.Caller, contracts Contracts, nftIndex *NFTIndexClient, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		caller:    caller,
		contracts: contracts,
		nftIndex:  nftIndex,
		logger:    logger,
	}
}

// Discover runs the three variant scans concurrently and merges their
// results. A variant that fails is logged and skipped; the scan only
// errors when every variant fails.
func (s *Service) Discover(ctx context.Context, wallet common.Address) ([]model.RawPosition, error) {
	type scan struct {
		variant model.VariantKind
		run     func(context.Context, common.Address) ([]model.RawPosition, error)
	}
	scans := []scan{
		{model.VariantConstantProduct, s.discoverConstantProduct},
		{model.VariantConcentrated, s.discoverConcentrated},
		{model.VariantHookedSingleton, s.discoverHookedSingleton},
	}

	var (
		mu        sync.Mutex
		positions []model.RawPosition
		failures  []error
		wg        sync.WaitGroup
	)

	for _, sc := range scans {
		wg.Add(1)
		go func(sc scan) {
			defer wg.Done()
			found, err := sc.run(ctx, wallet)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				s.logger.Warn("variant scan failed",
					zap.String("variant", string(sc.variant)),
					zap.Error(err))
				failures = append(failures, fmt.Errorf("%s: %w", sc.variant, err))
				return
			}
			positions = append(positions, found...)
		}(sc)
	}
	wg.Wait()

	if len(failures) == len(scans) {
		return nil, fmt.Errorf("all variant scans failed: %w", failures[0])
	}

	s.logger.Info("discovery complete",
		zap.String("wallet", wallet.Hex()),
		zap.Int("positions", len(positions)),
		zap.Int("failed_variants", len(failures)))
	return positions, nil
}
