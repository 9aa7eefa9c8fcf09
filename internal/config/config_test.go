package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		Venue:        VenueBinance,
		Symbol:       "BTCUSDT",
		Timeframe:    "1h",
		Limit:        500,
		ShortWindow:  20,
		LongWindow:   50,
		Equity:       10000,
		RiskPerTrade: 0.01,
		StopPct:      0.02,
		PollInterval: 20 * time.Second,
		HTTPTimeout:  10 * time.Second,
		APIKey:       "key",
		APISecret:    "secret",
	}
}

func TestValidateConfigAcceptsValidConfig(t *testing.T) {
	if err := validate(validConfig()); err != nil {
		t.Fatalf("expected config to be valid, got %v", err)
	}
}

func TestValidateConfigRejectsInvalidValues(t *testing.T) {
	cases := map[string]func(*Config){
		"venue":          func(c *Config) { c.Venue = "kraken" },
		"missing key":    func(c *Config) { c.APIKey = "" },
		"zero equity":    func(c *Config) { c.Equity = 0 },
		"risk percent":   func(c *Config) { c.RiskPerTrade = 1 },
		"stop":           func(c *Config) { c.StopPct = 0 },
		"windows":        func(c *Config) { c.LongWindow = c.ShortWindow },
		"limit":          func(c *Config) { c.Limit = 0 },
		"poll interval":  func(c *Config) { c.PollInterval = 0 },
		"http timeout":   func(c *Config) { c.HTTPTimeout = 0 },
		"negative delay": func(c *Config) { c.BackoffMax = -time.Second },
		"short backoff":  func(c *Config) { c.BackoffMax = 5 * time.Second },
		"kafka topic":    func(c *Config) { c.KafkaBrokers = []string{"localhost:9092"}; c.KafkaTopic = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := validConfig()
			mutate(&cfg)
			if err := validate(cfg); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestValidateAcceptsBackoffAtOrAbovePollInterval(t *testing.T) {
	cfg := validConfig()
	cfg.BackoffMax = cfg.PollInterval
	if err := validate(cfg); err != nil {
		t.Fatalf("expected backoff equal to poll interval to be valid, got %v", err)
	}
	cfg.BackoffMax = 5 * time.Minute
	if err := validate(cfg); err != nil {
		t.Fatalf("expected longer backoff to be valid, got %v", err)
	}
}

func TestValidateDryRunNeedsNoCredentials(t *testing.T) {
	cfg := validConfig()
	cfg.APIKey = ""
	cfg.APISecret = ""
	cfg.DryRun = true
	if err := validate(cfg); err != nil {
		t.Fatalf("expected dry run without credentials to be valid, got %v", err)
	}
}

func TestLoadConfigPrecedence(t *testing.T) {
	dir := t.TempDir()
	envContents := "BINANCE_API_KEY=file-key\nBINANCE_API_SECRET=file-secret\nSYMBOL=ETHUSDT\nEQUITY=2500\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(envContents), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	chdir(t, dir)

	t.Setenv("BINANCE_API_KEY", "env-key")

	resetFlags := resetFlagSet(t)
	defer resetFlags()

	os.Args = []string{
		"cmd",
		"--timeframe", "4h",
		"--kafka-brokers", "a:9092, b:9092",
		"--risk-per-trade", "0.02",
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.APIKey != "env-key" {
		t.Fatalf("expected API key from env, got %q", cfg.APIKey)
	}
	if cfg.APISecret != "file-secret" {
		t.Fatalf("expected API secret from .env, got %q", cfg.APISecret)
	}
	if cfg.Symbol != "ETHUSDT" || cfg.Equity != 2500 {
		t.Fatalf("expected symbol and equity from .env, got %q %v", cfg.Symbol, cfg.Equity)
	}
	if cfg.Timeframe != "4h" || cfg.RiskPerTrade != 0.02 {
		t.Fatalf("expected CLI overrides, got %q %v", cfg.Timeframe, cfg.RiskPerTrade)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "b:9092" {
		t.Fatalf("expected two kafka brokers, got %v", cfg.KafkaBrokers)
	}
	if cfg.BaseURL != "https://api.binance.com" || cfg.PollInterval != 20*time.Second || cfg.Limit != 500 {
		t.Fatalf("expected defaults, got %q %s %d", cfg.BaseURL, cfg.PollInterval, cfg.Limit)
	}
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	original, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Chdir(original)
	})
}

func resetFlagSet(t *testing.T) func() {
	t.Helper()
	originalArgs := os.Args
	originalCommandLine := flag.CommandLine
	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	return func() {
		flag.CommandLine = originalCommandLine
		os.Args = originalArgs
	}
}
