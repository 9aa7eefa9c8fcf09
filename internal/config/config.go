package config

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Venue string

const (
	VenueBinance Venue = "binance"
	VenueAlpaca  Venue = "alpaca"
)

// Config is built once at startup and passed by value; nothing mutates it afterwards.
type Config struct {
	Venue         Venue
	Symbol        string
	Timeframe     string
	Limit         int
	ShortWindow   int
	LongWindow    int
	Equity        float64
	RiskPerTrade  float64
	StopPct       float64
	PollInterval  time.Duration
	BackoffMax    time.Duration
	HTTPTimeout   time.Duration
	DryRun        bool
	BaseURL       string
	AlpacaFeed    string
	TimeInForce   string
	DecisionsPath string
	StatusAddr    string
	KafkaBrokers  []string
	KafkaTopic    string
	PostgresDSN   string
	LogLevel      string
	APIKey        string
	APISecret     string
}

func Load() (Config, error) {
	var cfg Config
	var venue string
	var kafkaBrokers string

	env := loadEnv(".env")
	env.SetDefault("SYMBOL", "BTCUSDT")
	env.SetDefault("TIMEFRAME", "1h")
	env.SetDefault("EQUITY", 10000.0)
	env.SetDefault("RISK_PER_TRADE", 0.01)
	env.SetDefault("LOG_LEVEL", "info")

	flag.StringVar(&venue, "venue", string(VenueBinance), "order and market data venue: binance or alpaca")
	flag.StringVar(&cfg.Symbol, "symbol", env.GetString("SYMBOL"), "trading symbol")
	flag.StringVar(&cfg.Timeframe, "timeframe", env.GetString("TIMEFRAME"), "candle interval, e.g. 1h")
	flag.IntVar(&cfg.Limit, "limit", 500, "number of candles fetched per iteration")
	flag.IntVar(&cfg.ShortWindow, "short-window", 20, "short moving average window")
	flag.IntVar(&cfg.LongWindow, "long-window", 50, "long moving average window")
	flag.Float64Var(&cfg.Equity, "equity", env.GetFloat64("EQUITY"), "account equity used for sizing")
	flag.Float64Var(&cfg.RiskPerTrade, "risk-per-trade", env.GetFloat64("RISK_PER_TRADE"), "fraction of equity risked per trade")
	flag.Float64Var(&cfg.StopPct, "stop-pct", 0.02, "stop distance below entry as a fraction")
	flag.DurationVar(&cfg.PollInterval, "poll-interval", 20*time.Second, "delay between iterations")
	flag.DurationVar(&cfg.BackoffMax, "backoff-max", 0, "if > 0, back off exponentially after failures up to this delay")
	flag.DurationVar(&cfg.HTTPTimeout, "http-timeout", 10*time.Second, "timeout for each venue request")
	flag.BoolVar(&cfg.DryRun, "dry-run", false, "if true, journal orders without submitting them")
	flag.StringVar(&cfg.BaseURL, "base-url", "", "venue REST base URL")
	flag.StringVar(&cfg.AlpacaFeed, "alpaca-feed", "iex", "alpaca market data feed: iex or sip")
	flag.StringVar(&cfg.TimeInForce, "time-in-force", "gtc", "alpaca time in force: gtc, day or ioc")
	flag.StringVar(&cfg.DecisionsPath, "decisions-path", "decisions.ndjson", "path to decisions log, empty to disable")
	flag.StringVar(&cfg.StatusAddr, "status-addr", "", "listen address for /healthz, /status and /metrics, empty to disable")
	flag.StringVar(&kafkaBrokers, "kafka-brokers", env.GetString("KAFKA_BROKERS"), "comma-separated kafka brokers for the decision journal")
	flag.StringVar(&cfg.KafkaTopic, "kafka-topic", "swingbot.decisions", "kafka topic for the decision journal")
	flag.StringVar(&cfg.PostgresDSN, "postgres-dsn", env.GetString("POSTGRES_DSN"), "postgres DSN for the decision journal")
	flag.StringVar(&cfg.LogLevel, "log-level", env.GetString("LOG_LEVEL"), "log level: debug, info, warn or error")
	flag.Parse()

	cfg.Venue = Venue(venue)
	cfg.KafkaBrokers = splitList(kafkaBrokers)

	switch cfg.Venue {
	case VenueAlpaca:
		cfg.APIKey = env.GetString("APCA_API_KEY_ID")
		cfg.APISecret = env.GetString("APCA_API_SECRET_KEY")
		if cfg.BaseURL == "" {
			cfg.BaseURL = env.GetString("APCA_API_BASE_URL")
		}
		if cfg.BaseURL == "" {
			cfg.BaseURL = "https://paper-api.alpaca.markets"
		}
	default:
		cfg.APIKey = env.GetString("BINANCE_API_KEY")
		cfg.APISecret = env.GetString("BINANCE_API_SECRET")
		if cfg.BaseURL == "" {
			cfg.BaseURL = env.GetString("BINANCE_BASE_URL")
		}
		if cfg.BaseURL == "" {
			cfg.BaseURL = "https://api.binance.com"
		}
	}

	if err := validate(cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// loadEnv reads an optional dotenv file; real environment variables win over it.
func loadEnv(path string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	_ = v.ReadInConfig()
	v.AutomaticEnv()
	return v
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func validate(cfg Config) error {
	if cfg.Venue != VenueBinance && cfg.Venue != VenueAlpaca {
		return fmt.Errorf("invalid venue: %s", cfg.Venue)
	}
	if cfg.Symbol == "" {
		return fmt.Errorf("symbol is required")
	}
	if cfg.Timeframe == "" {
		return fmt.Errorf("timeframe is required")
	}
	if !cfg.DryRun && (cfg.APIKey == "" || cfg.APISecret == "") {
		if cfg.Venue == VenueAlpaca {
			return fmt.Errorf("APCA_API_KEY_ID and APCA_API_SECRET_KEY are required unless -dry-run")
		}
		return fmt.Errorf("BINANCE_API_KEY and BINANCE_API_SECRET are required unless -dry-run")
	}
	if cfg.Limit < 1 {
		return fmt.Errorf("limit must be >= 1")
	}
	if cfg.ShortWindow < 1 {
		return fmt.Errorf("short-window must be >= 1")
	}
	if cfg.LongWindow <= cfg.ShortWindow {
		return fmt.Errorf("long-window must be > short-window")
	}
	if cfg.Equity <= 0 {
		return fmt.Errorf("equity must be > 0")
	}
	if cfg.RiskPerTrade <= 0 || cfg.RiskPerTrade >= 1 {
		return fmt.Errorf("risk-per-trade must be a fraction between 0 and 1")
	}
	if cfg.StopPct <= 0 || cfg.StopPct >= 1 {
		return fmt.Errorf("stop-pct must be a fraction between 0 and 1")
	}
	if cfg.PollInterval <= 0 {
		return fmt.Errorf("poll-interval must be > 0")
	}
	if cfg.BackoffMax < 0 {
		return fmt.Errorf("backoff-max must be >= 0")
	}
	if cfg.BackoffMax > 0 && cfg.BackoffMax < cfg.PollInterval {
		return fmt.Errorf("backoff-max must be >= poll-interval")
	}
	if cfg.HTTPTimeout <= 0 {
		return fmt.Errorf("http-timeout must be > 0")
	}
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaTopic == "" {
		return fmt.Errorf("kafka-topic is required when kafka-brokers is set")
	}
	return nil
}
