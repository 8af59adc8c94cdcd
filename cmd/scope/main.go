package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"positionScope/internal/chain"
	"positionScope/internal/config"
	"positionScope/internal/dex"
	"positionScope/internal/discovery"
	"positionScope/internal/enrich"
	"positionScope/internal/pricing"
	"positionScope/internal/scope"
	"positionScope/internal/storage"
	"positionScope/internal/storage/postgres"
)

func main() {
	root := &cobra.Command{
		Use:          "scope",
		Short:        "LP position tracker",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	positionsCmd := &cobra.Command{
		Use:   "positions",
		Short: "Discover and value a wallet's LP positions",
		RunE:  runPositions,
	}
	addCommonFlags(positionsCmd)
	positionsCmd.Flags().String("wallet", "", "wallet address to scan")
	positionsCmd.Flags().StringSlice("pair-registry", nil, "constant-product pair addresses (comma-separated)")
	positionsCmd.Flags().String("nft-index", "", "NFT index API base URL")
	positionsCmd.Flags().String("out", "./data/positions.jsonl", "output JSONL path")
	positionsCmd.Flags().String("pg-dsn", "", "optional Postgres DSN for snapshots")
	root.AddCommand(positionsCmd)

	priceCmd := &cobra.Command{
		Use:   "price [token...]",
		Short: "Resolve USD prices for tokens",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runPrice,
	}
	addCommonFlags(priceCmd)
	root.AddCommand(priceCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addCommonFlags(cmd *cobra.Command) {
	cmd.Flags().String("rpc", "", "JSON-RPC URL")
	cmd.Flags().String("anchor", dex.WETH.Hex(), "anchor token address")
	cmd.Flags().String("anchor-feed", "", "anchor price feed URL")
	cmd.Flags().String("anchor-feed-fallback", "", "fallback anchor price feed URL")
	cmd.Flags().String("pool-index", "", "pool index API base URL")
	cmd.Flags().String("concentrated-nft", "0xC36442b4a4522E871399CD717aBDD847Ab11FE88", "concentrated position manager address")
	cmd.Flags().String("concentrated-factory", "0x1F98431c8aD98523631AE4a59f267346ea31F984", "concentrated pool factory address")
	cmd.Flags().String("singleton-nft", "0xbD216513d74C8cf14cf4747E6AaA6420FF64ee9e", "singleton position manager address")
	cmd.Flags().String("singleton-view", "0x7fFE42C4a5DEeA5b0feC41C94C136Cf115597227", "singleton state view address")
	cmd.Flags().Duration("price-ttl", 30*time.Second, "price cache TTL")
	cmd.Flags().Float64("min-pool-liquidity-usd", 10_000, "minimum indexed pool depth for pricing")
	cmd.Flags().Int("max-retries", 5, "maximum retry attempts per call")
	cmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
}

type app struct {
	cfg     config.Config
	logger  *zap.Logger
	client  *chain.Client
	service *scope.Service
}

func buildApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	if cfg.RPCURL == "" {
		return nil, fmt.Errorf("rpc url is required")
	}
	if cfg.AnchorFeedURL == "" {
		return nil, fmt.Errorf("anchor feed url is required")
	}

	anchor, err := parseAddress(cfg.Anchor, "anchor")
	if err != nil {
		return nil, err
	}
	singletonView, err := parseAddress(cfg.SingletonView, "singleton-view")
	if err != nil {
		return nil, err
	}

	contracts := discovery.Contracts{SingletonView: singletonView}
	if contracts.ConcentratedNFT, err = parseAddress(cfg.ConcentratedNFT, "concentrated-nft"); err != nil {
		return nil, err
	}
	if contracts.ConcentratedFactory, err = parseAddress(cfg.ConcentratedFactory, "concentrated-factory"); err != nil {
		return nil, err
	}
	if contracts.SingletonNFT, err = parseAddress(cfg.SingletonNFT, "singleton-nft"); err != nil {
		return nil, err
	}
	for _, raw := range cfg.PairRegistry {
		pair, err := parseAddress(raw, "pair-registry")
		if err != nil {
			return nil, err
		}
		contracts.PairRegistry = append(contracts.PairRegistry, pair)
	}

	client, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("connect rpc: %w", err)
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("chain id: %w", err)
	}
	head, err := client.LatestBlockNumber(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("latest block: %w", err)
	}
	logger.Info("connected",
		zap.String("chain_id", chainID.String()),
		zap.Uint64("head", head))

	caller := dex.NewRetryingCaller(client, cfg.MaxRetries, cfg.RetryBackoff)
	resolver := dex.NewTokenResolver(caller, dex.DefaultAllowList(), logger)

	var poolIndex *pricing.PoolIndexClient
	if cfg.PoolIndexURL != "" {
		poolIndex = pricing.NewPoolIndexClient(cfg.PoolIndexURL)
	}
	oracle := pricing.NewOracle(
		caller,
		resolver,
		anchor,
		pricing.NewAnchorFeed(cfg.AnchorFeedURL, cfg.AnchorFeedFallback),
		poolIndex,
		pricing.DefaultStaticPools(),
		pricing.Options{CacheTTL: cfg.PriceTTL, MinLiquidityUSD: cfg.MinPoolLiquidityUSD},
		logger,
	)

	var nftIndex *discovery.NFTIndexClient
	if cfg.NFTIndexURL != "" {
		nftIndex = discovery.NewNFTIndexClient(cfg.NFTIndexURL)
	}

	disc := discovery.NewService(caller, contracts, nftIndex, logger)
	pipeline := enrich.NewPipeline(caller, resolver, oracle, singletonView, logger)

	return &app{
		cfg:     cfg,
		logger:  logger,
		client:  client,
		service: scope.NewService(disc, pipeline, oracle, logger),
	}, nil
}

func (a *app) close() {
	a.client.Close()
	a.logger.Sync()
}

func runPositions(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.close()

	wallet, err := parseAddress(a.cfg.Wallet, "wallet")
	if err != nil {
		return err
	}

	a.logger.Info("scan start",
		zap.String("wallet", wallet.Hex()),
		zap.Int("registered_pairs", len(a.cfg.PairRegistry)))

	positions, err := a.service.ValuePositions(ctx, wallet)
	if err != nil {
		return err
	}

	sink := storage.NewJsonlStorage(a.cfg.Out)
	if err := sink.PutValuations(positions); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	if a.cfg.PgDSN != "" {
		store, err := postgres.NewStore(ctx, a.cfg.PgDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		if err := store.SaveSnapshot(ctx, wallet.Hex(), time.Now().UTC(), positions); err != nil {
			return fmt.Errorf("save snapshot: %w", err)
		}
	}

	for _, p := range positions {
		line, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("marshal position: %w", err)
		}
		fmt.Println(string(line))
	}
	return nil
}

func runPrice(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.close()

	tokens := make([]common.Address, 0, len(args))
	for _, raw := range args {
		token, err := parseAddress(raw, "token")
		if err != nil {
			return err
		}
		tokens = append(tokens, token)
	}

	prices, err := a.service.PriceTokens(ctx, tokens)
	if err != nil {
		return err
	}

	for _, token := range tokens {
		price, ok := prices[token]
		if !ok {
			fmt.Printf("%s\tno price\n", token.Hex())
			continue
		}
		fmt.Printf("%s\t%.6f\n", token.Hex(), price)
	}
	return nil
}

func parseAddress(raw, name string) (common.Address, error) {
	if !common.IsHexAddress(raw) {
		return common.Address{}, fmt.Errorf("%s: invalid address %q", name, raw)
	}
	return common.HexToAddress(raw), nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
