package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	RPCURL string
	Wallet string

	Anchor              string
	AnchorFeedURL       string
	AnchorFeedFallback  string
	PoolIndexURL        string
	NFTIndexURL         string
	PairRegistry        []string
	ConcentratedNFT     string
	ConcentratedFactory string
	SingletonNFT        string
	SingletonView       string

	PriceTTL            time.Duration
	MinPoolLiquidityUSD float64

	Out   string
	PgDSN string

	MaxRetries   int
	RetryBackoff time.Duration
	LogLevel     string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("price-ttl", 30*time.Second)
	v.SetDefault("min-pool-liquidity-usd", 10_000.0)
	v.SetDefault("out", "./data/positions.jsonl")
	v.SetDefault("max-retries", 5)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		RPCURL:              v.GetString("rpc"),
		Wallet:              v.GetString("wallet"),
		Anchor:              v.GetString("anchor"),
		AnchorFeedURL:       v.GetString("anchor-feed"),
		AnchorFeedFallback:  v.GetString("anchor-feed-fallback"),
		PoolIndexURL:        v.GetString("pool-index"),
		NFTIndexURL:         v.GetString("nft-index"),
		PairRegistry:        getStringSlice(v, "pair-registry"),
		ConcentratedNFT:     v.GetString("concentrated-nft"),
		ConcentratedFactory: v.GetString("concentrated-factory"),
		SingletonNFT:        v.GetString("singleton-nft"),
		SingletonView:       v.GetString("singleton-view"),
		PriceTTL:            v.GetDuration("price-ttl"),
		MinPoolLiquidityUSD: v.GetFloat64("min-pool-liquidity-usd"),
		Out:                 v.GetString("out"),
		PgDSN:               v.GetString("pg-dsn"),
		MaxRetries:          v.GetInt("max-retries"),
		RetryBackoff:        v.GetDuration("retry-backoff"),
		LogLevel:            v.GetString("log-level"),
	}

	return cfg, nil
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
