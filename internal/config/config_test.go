package config

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.PriceTTL != 30*time.Second {
		t.Fatalf("price ttl default mismatch: %v", cfg.PriceTTL)
	}
	if cfg.MinPoolLiquidityUSD != 10_000 {
		t.Fatalf("min liquidity default mismatch: %v", cfg.MinPoolLiquidityUSD)
	}
	if cfg.Out != "./data/positions.jsonl" {
		t.Fatalf("out default mismatch: %q", cfg.Out)
	}
	if cfg.MaxRetries != 5 || cfg.RetryBackoff != 500*time.Millisecond {
		t.Fatalf("retry defaults mismatch: %d %v", cfg.MaxRetries, cfg.RetryBackoff)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("log level default mismatch: %q", cfg.LogLevel)
	}
}

func TestLoadFlagsOverrideDefaults(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("rpc", "", "")
	flags.String("wallet", "", "")
	flags.StringSlice("pair-registry", nil, "")
	flags.Duration("price-ttl", 30*time.Second, "")
	flags.String("log-level", "info", "")

	args := []string{
		"--rpc", "https://rpc.example",
		"--wallet", "0x7C5f5A4bBd8fD63184577525326123B519429bDc",
		"--pair-registry", "0x1111111111111111111111111111111111111111,0x2222222222222222222222222222222222222222",
		"--price-ttl", "45s",
		"--log-level", "debug",
	}
	if err := flags.Parse(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := Load("", flags)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.RPCURL != "https://rpc.example" {
		t.Fatalf("rpc mismatch: %q", cfg.RPCURL)
	}
	if cfg.Wallet != "0x7C5f5A4bBd8fD63184577525326123B519429bDc" {
		t.Fatalf("wallet mismatch: %q", cfg.Wallet)
	}
	if len(cfg.PairRegistry) != 2 {
		t.Fatalf("pair registry mismatch: %v", cfg.PairRegistry)
	}
	if cfg.PriceTTL != 45*time.Second {
		t.Fatalf("price ttl mismatch: %v", cfg.PriceTTL)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("log level mismatch: %q", cfg.LogLevel)
	}
}
