package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"NewsSentinel/internal/alpaca"
	"NewsSentinel/internal/collector"
	"NewsSentinel/internal/config"
	"NewsSentinel/internal/logging"
	"NewsSentinel/internal/news"
	"NewsSentinel/internal/notifier"
	"NewsSentinel/internal/position"
	"NewsSentinel/internal/recorder"
	"NewsSentinel/internal/scheduler"
	tradesignal "NewsSentinel/internal/signal"
	"NewsSentinel/internal/strategy"
	"NewsSentinel/internal/watchlist"
)

func newScreener(cfg *config.Config, client *alpaca.Client, logger zerolog.Logger) *watchlist.Screener {
	s := watchlist.NewScreener(client, watchlist.Criteria{
		MinPrice:  decimal.NewFromFloat(cfg.Screener.MinPrice),
		MaxPrice:  decimal.NewFromFloat(cfg.Screener.MaxPrice),
		MinVolume: cfg.Screener.MinVolume,
	}, logging.WithComponent(logger, "screener"))
	s.ChunkSize = cfg.Screener.ChunkSize
	s.Workers = cfg.Screener.Workers
	s.CallTimeout = cfg.CallTimeout
	return s
}

func newAlpaca(cfg *config.Config) *alpaca.Client {
	return alpaca.NewClient(cfg.Alpaca.TradingURL, cfg.Alpaca.DataURL, cfg.Alpaca.APIKey, cfg.Alpaca.SecretKey, cfg.Proxy)
}

func screen(ctx context.Context, cfg *config.Config, logger zerolog.Logger, out io.Writer) error {
	assets, err := newScreener(cfg, newAlpaca(cfg), logger).Run(ctx)
	if err != nil {
		return err
	}
	for _, a := range assets {
		fmt.Fprintf(out, "%-6s %-8s %8s %12d\n", a.Symbol, a.Exchange, a.Price.StringFixed(2), a.Volume)
	}
	fmt.Fprintf(out, "%d symbols\n", len(assets))
	return nil
}

func run(parent context.Context, cfg *config.Config, logger zerolog.Logger) error {
	logger.Info().Str("trading_url", cfg.Alpaca.TradingURL).Msg("NewsSentinel starting")

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := newAlpaca(cfg)

	var fetcher collector.BarFetcher = client
	if strings.EqualFold(cfg.Indicators.Source, config.SourceYahoo) {
		fetcher = collector.NewYahooFetcher(cfg.Proxy)
	}
	logger.Info().Str("source", fetcher.Name()).Msg("indicator bar source")
	col := collector.NewCollector(fetcher, logging.WithComponent(logger, "indicators"))
	col.RSIPeriod = cfg.Indicators.RSIPeriod
	col.Timeframe = cfg.Indicators.Timeframe
	col.Lookback = cfg.Indicators.Lookback
	col.Timeout = cfg.CallTimeout

	classifier, err := news.NewClassifier(cfg.News.AllowedKeywords, cfg.News.BannedKeywords)
	if err != nil {
		return fmt.Errorf("news keywords: %w", err)
	}
	engine := news.NewEngine(news.Options{
		MaxAge:       cfg.News.MaxAge,
		DedupWindow:  cfg.News.DedupWindow,
		MinSentiment: cfg.News.MinSentiment,
		Classifier:   classifier,
		Scorer:       news.NewLexiconScorer(),
	}, logging.WithComponent(logger, "news"))

	manager := position.NewManager(client, col, position.Options{
		Thresholds: strategy.Thresholds{
			HardStop:       cfg.Exit.HardStop,
			StaleAfter:     cfg.Exit.StaleAfter,
			StaleMinProfit: cfg.Exit.StaleMinProfit,
			Tier1Profit:    cfg.Exit.Tier1Profit,
			Tier1Fraction:  cfg.Exit.Tier1Fraction,
			TrailingStop:   cfg.Exit.TrailingStop,
			RSIOverheat:    cfg.Exit.RSIOverheat,
		},
		AdoptExpired:        cfg.Exit.AdoptedEntryTime == config.AdoptExpired,
		PendingCloseTimeout: cfg.Exit.PendingCloseTimeout,
		CallTimeout:         cfg.CallTimeout,
	}, logging.WithComponent(logger, "positions"))

	wl := watchlist.New()
	router := tradesignal.NewRouter(wl, col, manager, tradesignal.Options{
		Guard:       strategy.EntryGuard{MaxRSI: cfg.Entry.MaxRSI},
		Notional:    cfg.Entry.Notional,
		CallTimeout: cfg.CallTimeout,
	}, logging.WithComponent(logger, "router"))

	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, logging.WithComponent(logger, "telegram"))

	var rec recorder.Recorder = recorder.NewNoopRecorder()
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, logging.WithComponent(logger, "recorder"))
		if err != nil {
			logger.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
		} else {
			rec = sr
			defer sr.Close()
		}
	}

	sched := scheduler.NewScheduler(ctx, logging.WithComponent(logger, "scheduler"))
	sched.Screener = newScreener(cfg, client, logger)
	sched.Watchlist = wl
	sched.Source = client
	sched.Engine = engine
	sched.Router = router
	sched.Positions = manager
	sched.Notifier = tn
	sched.Recorder = rec
	sched.CallTimeout = cfg.CallTimeout
	sched.FetchLimit = cfg.News.FetchLimit
	sched.InitialLookback = cfg.News.InitialLookback

	if err := sched.RegisterAll(scheduler.Intervals{
		Watchlist:  cfg.Schedule.WatchlistInterval,
		Positions:  cfg.Schedule.PositionsInterval,
		News:       cfg.Schedule.NewsInterval,
		Compaction: cfg.Schedule.CompactionInterval,
	}); err != nil {
		return fmt.Errorf("register cron tasks: %w", err)
	}

	if cfg.RunOnStart() {
		logger.Info().Msg("running initial watchlist refresh")
		sched.RefreshWatchlist()
	}

	sched.Start()
	defer sched.Stop()

	if tn.Enabled() {
		go tn.StartPolling(ctx, sched.HandleCommand)
		logger.Info().Msg("telegram polling started")
	}

	logger.Info().Msg("NewsSentinel is running, press Ctrl+C to stop")
	<-ctx.Done()
	logger.Info().Msg("shutdown signal received, stopping")
	return nil
}
