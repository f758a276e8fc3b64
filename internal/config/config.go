package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	apperr "NewsSentinel/internal/errors"
	"NewsSentinel/internal/logging"
)

// Adoption policies for the entry time of positions first seen at reconciliation.
const (
	AdoptObserved = "observed"
	AdoptExpired  = "expired"
)

// Indicator bar sources.
const (
	SourceAlpaca = "alpaca"
	SourceYahoo  = "yahoo"
)

// Config holds all application configuration.
type Config struct {
	Alpaca struct {
		APIKey     string `yaml:"api_key"`
		SecretKey  string `yaml:"secret_key"`
		TradingURL string `yaml:"trading_url"`
		DataURL    string `yaml:"data_url"`
	} `yaml:"alpaca"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Schedule struct {
		WatchlistInterval  time.Duration `yaml:"watchlist_interval"`
		PositionsInterval  time.Duration `yaml:"positions_interval"`
		NewsInterval       time.Duration `yaml:"news_interval"`
		CompactionInterval time.Duration `yaml:"compaction_interval"`
		RunOnStart         *bool         `yaml:"run_on_start"`
	} `yaml:"schedule"`
	Screener   ScreenerConfig   `yaml:"screener"`
	News       NewsConfig       `yaml:"news"`
	Entry      EntryConfig      `yaml:"entry"`
	Exit       ExitConfig       `yaml:"exit"`
	Indicators IndicatorsConfig `yaml:"indicators"`
	Database   struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Log         logging.LogConfig `yaml:"log"`
	Proxy       string            `yaml:"proxy"`
	CallTimeout time.Duration     `yaml:"call_timeout"`
}

// ScreenerConfig holds the level-1 price and liquidity filter.
type ScreenerConfig struct {
	MinPrice  float64 `yaml:"min_price"`
	MaxPrice  float64 `yaml:"max_price"`
	MinVolume int64   `yaml:"min_volume"`
	ChunkSize int     `yaml:"chunk_size"`
	Workers   int     `yaml:"workers"`
}

// NewsConfig tunes the material-event pipeline.
type NewsConfig struct {
	MaxAge          time.Duration `yaml:"max_age"`
	DedupWindow     time.Duration `yaml:"dedup_window"`
	MinSentiment    *float64      `yaml:"min_sentiment"`
	FetchLimit      int           `yaml:"fetch_limit"`
	InitialLookback time.Duration `yaml:"initial_lookback"`
	AllowedKeywords []string      `yaml:"allowed_keywords"`
	BannedKeywords  []string      `yaml:"banned_keywords"`
}

// EntryConfig controls the entry guard and position sizing.
type EntryConfig struct {
	MaxRSI   float64 `yaml:"max_rsi"`
	Notional float64 `yaml:"notional"`
}

// ExitConfig holds the thresholds of the exit rule ladder.
type ExitConfig struct {
	HardStop            float64       `yaml:"hard_stop"`
	StaleAfter          time.Duration `yaml:"stale_after"`
	StaleMinProfit      float64       `yaml:"stale_min_profit"`
	Tier1Profit         float64       `yaml:"tier1_profit"`
	Tier1Fraction       float64       `yaml:"tier1_fraction"`
	TrailingStop        float64       `yaml:"trailing_stop"`
	RSIOverheat         float64       `yaml:"rsi_overheat"`
	AdoptedEntryTime    string        `yaml:"adopted_entry_time"`
	PendingCloseTimeout time.Duration `yaml:"pending_close_timeout"`
}

// IndicatorsConfig selects the bar source and RSI parameters.
type IndicatorsConfig struct {
	Source    string        `yaml:"source"`
	RSIPeriod int           `yaml:"rsi_period"`
	Timeframe string        `yaml:"timeframe"`
	Lookback  time.Duration `yaml:"lookback"`
}

// Load reads config from a YAML file, then applies environment variable overrides and defaults.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{Log: logging.DefaultLogConfig()}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("ALPACA_API_KEY"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("ALPACA_SECRET_KEY"); v != "" {
		cfg.Alpaca.SecretKey = v
	}
	if v := os.Getenv("ALPACA_BASE_URL"); v != "" {
		cfg.Alpaca.TradingURL = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("TRADE_NOTIONAL"); v != "" {
		var notional float64
		if _, err := fmt.Sscanf(v, "%f", &notional); err == nil {
			cfg.Entry.Notional = notional
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Alpaca.TradingURL == "" {
		cfg.Alpaca.TradingURL = "https://paper-api.alpaca.markets"
	}
	if cfg.Alpaca.DataURL == "" {
		cfg.Alpaca.DataURL = "https://data.alpaca.markets"
	}

	if cfg.Schedule.WatchlistInterval == 0 {
		cfg.Schedule.WatchlistInterval = time.Hour
	}
	if cfg.Schedule.PositionsInterval == 0 {
		cfg.Schedule.PositionsInterval = 60 * time.Second
	}
	if cfg.Schedule.NewsInterval == 0 {
		cfg.Schedule.NewsInterval = 2 * time.Minute
	}
	if cfg.Schedule.CompactionInterval == 0 {
		cfg.Schedule.CompactionInterval = 15 * time.Minute
	}
	if cfg.Schedule.RunOnStart == nil {
		on := true
		cfg.Schedule.RunOnStart = &on
	}

	if cfg.Screener.MinPrice == 0 {
		cfg.Screener.MinPrice = 2.0
	}
	if cfg.Screener.MaxPrice == 0 {
		cfg.Screener.MaxPrice = 20.0
	}
	if cfg.Screener.MinVolume == 0 {
		cfg.Screener.MinVolume = 100000
	}
	if cfg.Screener.ChunkSize == 0 {
		cfg.Screener.ChunkSize = 500
	}
	if cfg.Screener.Workers == 0 {
		cfg.Screener.Workers = 4
	}

	if cfg.News.MaxAge == 0 {
		cfg.News.MaxAge = 24 * time.Hour
	}
	if cfg.News.DedupWindow == 0 {
		cfg.News.DedupWindow = 48 * time.Hour
	}
	if cfg.News.MinSentiment == nil {
		threshold := 0.2
		cfg.News.MinSentiment = &threshold
	}
	if cfg.News.FetchLimit == 0 {
		cfg.News.FetchLimit = 50
	}
	if cfg.News.InitialLookback == 0 {
		cfg.News.InitialLookback = 30 * time.Minute
	}

	if cfg.Entry.MaxRSI == 0 {
		cfg.Entry.MaxRSI = 70
	}
	if cfg.Entry.Notional == 0 {
		cfg.Entry.Notional = 1000
	}

	if cfg.Exit.HardStop == 0 {
		cfg.Exit.HardStop = 0.05
	}
	if cfg.Exit.StaleAfter == 0 {
		cfg.Exit.StaleAfter = 45 * time.Minute
	}
	if cfg.Exit.StaleMinProfit == 0 {
		cfg.Exit.StaleMinProfit = 0.015
	}
	if cfg.Exit.Tier1Profit == 0 {
		cfg.Exit.Tier1Profit = 0.065
	}
	if cfg.Exit.Tier1Fraction == 0 {
		cfg.Exit.Tier1Fraction = 0.5
	}
	if cfg.Exit.TrailingStop == 0 {
		cfg.Exit.TrailingStop = 0.03
	}
	if cfg.Exit.RSIOverheat == 0 {
		cfg.Exit.RSIOverheat = 85
	}
	if cfg.Exit.AdoptedEntryTime == "" {
		cfg.Exit.AdoptedEntryTime = AdoptObserved
	}
	if cfg.Exit.PendingCloseTimeout == 0 {
		cfg.Exit.PendingCloseTimeout = 5 * time.Minute
	}

	if cfg.Indicators.Source == "" {
		cfg.Indicators.Source = SourceAlpaca
	}
	if cfg.Indicators.RSIPeriod == 0 {
		cfg.Indicators.RSIPeriod = 14
	}
	if cfg.Indicators.Timeframe == "" {
		cfg.Indicators.Timeframe = "1Min"
	}
	if cfg.Indicators.Lookback == 0 {
		cfg.Indicators.Lookback = 48 * time.Hour
	}

	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/news_sentinel.db"
	}
	if cfg.CallTimeout == 0 {
		cfg.CallTimeout = 15 * time.Second
	}
}

// Validate checks that all required fields are set and thresholds are sane.
func (c *Config) Validate() error {
	if c.Alpaca.APIKey == "" {
		return invalid("alpaca.api_key is required")
	}
	if c.Alpaca.SecretKey == "" {
		return invalid("alpaca.secret_key is required")
	}
	if c.Screener.MinPrice <= 0 || c.Screener.MaxPrice < c.Screener.MinPrice {
		return invalid("screener price range must satisfy 0 < min_price <= max_price")
	}
	if c.Screener.MinVolume < 0 {
		return invalid("screener.min_volume must not be negative")
	}
	if *c.News.MinSentiment < -1 || *c.News.MinSentiment > 1 {
		return invalid("news.min_sentiment must be in [-1, 1]")
	}
	if c.Entry.Notional <= 0 {
		return invalid("entry.notional must be positive")
	}
	if c.Entry.MaxRSI <= 0 || c.Entry.MaxRSI > 100 {
		return invalid("entry.max_rsi must be in (0, 100]")
	}
	for name, v := range map[string]float64{
		"exit.hard_stop":      c.Exit.HardStop,
		"exit.tier1_fraction": c.Exit.Tier1Fraction,
		"exit.trailing_stop":  c.Exit.TrailingStop,
	} {
		if v <= 0 || v > 1 {
			return invalid(name + " must be in (0, 1]")
		}
	}
	switch c.Exit.AdoptedEntryTime {
	case AdoptObserved, AdoptExpired:
	default:
		return invalid(fmt.Sprintf("exit.adopted_entry_time must be %q or %q", AdoptObserved, AdoptExpired))
	}
	switch strings.ToLower(c.Indicators.Source) {
	case SourceAlpaca, SourceYahoo:
	default:
		return invalid(fmt.Sprintf("indicators.source must be %q or %q", SourceAlpaca, SourceYahoo))
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return invalid("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}

// RunOnStart reports whether the first watchlist refresh runs before scheduling.
func (c *Config) RunOnStart() bool {
	return c.Schedule.RunOnStart == nil || *c.Schedule.RunOnStart
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", apperr.ErrConfigInvalid, msg)
}
