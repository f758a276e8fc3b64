// Package scheduler drives the bot: watchlist refresh, news scans, position
// updates and dedup compaction on fixed intervals.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	apperr "NewsSentinel/internal/errors"
	"NewsSentinel/internal/logging"
	"NewsSentinel/internal/model"
	"NewsSentinel/internal/news"
	"NewsSentinel/internal/notifier"
	"NewsSentinel/internal/recorder"
	"NewsSentinel/internal/watchlist"
)

// NewsSource fetches the raw news feed.
type NewsSource interface {
	News(ctx context.Context, since time.Time, limit int, includeContent bool) ([]byte, error)
}

// Screener produces watchlist candidates.
type Screener interface {
	Run(ctx context.Context) ([]model.Asset, error)
}

// Positions is the position state machine.
type Positions interface {
	Update(ctx context.Context) ([]model.ExitEvent, error)
	Snapshot() []model.TradeState
	Len() int
}

// Router turns accepted articles into entry attempts.
type Router interface {
	Route(ctx context.Context, a model.NewsArticle) []model.EntryResult
}

// Notifier delivers alerts.
type Notifier interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Intervals are the periods of the recurring tasks.
type Intervals struct {
	Watchlist  time.Duration
	Positions  time.Duration
	News       time.Duration
	Compaction time.Duration
}

// Scheduler manages all cron tasks.
type Scheduler struct {
	Cron      *cron.Cron
	Screener  Screener
	Watchlist *watchlist.Watchlist
	Source    NewsSource
	Engine    *news.Engine
	Router    Router
	Positions Positions
	Notifier  Notifier
	Recorder  recorder.Recorder
	Logger    zerolog.Logger
	Ctx       context.Context

	CallTimeout     time.Duration
	FetchLimit      int
	InitialLookback time.Duration
	Now             func() time.Time

	startedAt time.Time
	jobs      map[string]cron.EntryID
	mu        sync.Mutex
	watermark time.Time
	lastPoll  time.Time
}

// NewScheduler creates a new Scheduler. Overlapping runs of the same job are
// skipped and panics are recovered.
func NewScheduler(ctx context.Context, logger zerolog.Logger) *Scheduler {
	clog := logging.CronLogger(logger)
	return &Scheduler{
		Cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(clog),
			cron.WithChain(cron.Recover(clog), cron.SkipIfStillRunning(clog)),
		),
		Recorder:        recorder.NewNoopRecorder(),
		Logger:          logger,
		Ctx:             ctx,
		CallTimeout:     15 * time.Second,
		FetchLimit:      50,
		InitialLookback: 30 * time.Minute,
		Now:             time.Now,
		startedAt:       time.Now(),
		jobs:            make(map[string]cron.EntryID),
	}
}

// RegisterAll registers the watchlist, news, position and compaction tasks.
func (s *Scheduler) RegisterAll(iv Intervals) error {
	jobs := []struct {
		name  string
		every time.Duration
		fn    func()
	}{
		{"watchlist", iv.Watchlist, s.RefreshWatchlist},
		{"positions", iv.Positions, s.UpdatePositions},
		{"news", iv.News, s.ScanNews},
		{"compaction", iv.Compaction, s.CompactDedup},
	}
	for _, j := range jobs {
		if j.every <= 0 {
			return fmt.Errorf("register %s task: interval must be positive", j.name)
		}
		id, err := s.Cron.AddFunc("@every "+j.every.String(), j.fn)
		if err != nil {
			return fmt.Errorf("register %s task: %w", j.name, err)
		}
		s.jobs[j.name] = id
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.Logger.Info().Int("jobs", len(s.Cron.Entries())).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.Logger.Info().Msg("scheduler stopped")
}

// RefreshWatchlist re-screens the market and replaces the watchlist.
// A failed screen keeps the previous watchlist.
func (s *Scheduler) RefreshWatchlist() {
	log := logging.WithComponent(s.Logger, "watchlist")
	assets, err := s.Screener.Run(s.Ctx)
	if err != nil {
		log.Error().Err(err).Msg("screen failed, keeping previous watchlist")
		return
	}
	s.Watchlist.Replace(watchlist.Symbols(assets))
	log.Info().Int("size", s.Watchlist.Len()).Msg("watchlist updated")
}

// ScanNews fetches news since the watermark and pushes each article through
// the pipeline and router. The watermark advances to the poll time on success.
// Nothing is fetched while the watchlist is empty, so the watermark and the
// dedup cache wait for the first successful screen.
func (s *Scheduler) ScanNews() {
	log := logging.WithComponent(s.Logger, "news")
	if s.Watchlist.Len() == 0 {
		log.Debug().Msg("watchlist empty, skipping news scan")
		return
	}
	now := s.Now()

	s.mu.Lock()
	since := s.watermark
	if since.IsZero() {
		since = now.Add(-s.InitialLookback)
	}
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(s.Ctx, s.CallTimeout)
	raw, err := s.Source.News(ctx, since, s.FetchLimit, true)
	cancel()
	if err != nil {
		s.logTaskError(log, apperr.Timeout(err), "news fetch failed")
		return
	}

	s.mu.Lock()
	s.watermark = now
	s.lastPoll = now
	s.mu.Unlock()

	articles := news.NormalizeFeed(raw, now)
	sort.SliceStable(articles, func(i, j int) bool { return articles[i].CreatedAt.Before(articles[j].CreatedAt) })
	log.Debug().Int("count", len(articles)).Time("since", since).Msg("news fetched")

	for i := range articles {
		if s.Ctx.Err() != nil {
			return
		}
		a := &articles[i]
		v := s.Engine.Evaluate(a)
		if err := s.Recorder.RecordVerdict(&model.NewsVerdict{
			ArticleID: a.ID,
			Headline:  a.Headline,
			Symbol:    a.Symbol,
			Accepted:  v.Accepted,
			Stage:     string(v.Stage),
			Sentiment: v.Sentiment,
			Timestamp: now,
		}); err != nil {
			log.Error().Err(err).Msg("record verdict")
		}
		if !v.Accepted {
			continue
		}
		log.Info().Str("symbol", a.Symbol).Str("headline", a.Headline).Float64("sentiment", v.Sentiment).Msg("material news accepted")

		for _, res := range s.Router.Route(s.Ctx, *a) {
			res := res
			if err := s.Recorder.RecordEntry(&res); err != nil {
				log.Error().Err(err).Msg("record entry")
			}
			if res.Outcome != model.EntrySkipped {
				s.trySend(notifier.FormatEntry(&res))
			}
		}
	}
}

// UpdatePositions runs one position cycle and reports every exit.
func (s *Scheduler) UpdatePositions() {
	log := logging.WithComponent(s.Logger, "positions")
	events, err := s.Positions.Update(s.Ctx)
	if err != nil {
		s.logTaskError(log, err, "position update failed")
		return
	}
	for _, ev := range events {
		ev := ev
		if err := s.Recorder.RecordExit(&ev); err != nil {
			log.Error().Err(err).Msg("record exit")
		}
		s.trySend(notifier.FormatExit(&ev))
	}
}

// CompactDedup forgets headlines older than the dedup window.
func (s *Scheduler) CompactDedup() {
	removed := s.Engine.CompactDedup()
	s.Logger.Debug().Int("removed", removed).Int("remaining", s.Engine.DedupSize()).Msg("dedup compacted")
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(_ context.Context, command string) string {
	now := s.Now()
	var name string
	if fields := strings.Fields(command); len(fields) > 0 {
		name, _, _ = strings.Cut(strings.ToLower(fields[0]), "@")
	}
	switch name {
	case "/positions":
		return notifier.FormatPositions(s.Positions.Snapshot(), now)
	case "/watchlist":
		return notifier.FormatWatchlist(s.Watchlist.Symbols(), s.Watchlist.UpdatedAt())
	case "/status":
		s.mu.Lock()
		lastPoll := s.lastPoll
		s.mu.Unlock()
		summary, err := s.Recorder.Summary(now.Add(-24 * time.Hour))
		if err != nil {
			s.Logger.Error().Err(err).Msg("status summary")
		}
		return notifier.FormatStatus(notifier.Status{
			StartedAt:     s.startedAt,
			WatchlistSize: s.Watchlist.Len(),
			OpenPositions: s.Positions.Len(),
			DedupSize:     s.Engine.DedupSize(),
			LastNewsPoll:  lastPoll,
			Activity:      summary,
		}, now)
	default:
		return "Commands:\n• /positions\n• /watchlist\n• /status"
	}
}

func (s *Scheduler) logTaskError(log zerolog.Logger, err error, msg string) {
	if apperr.IsTransient(err) {
		log.Warn().Err(err).Msg(msg + ", will retry next cycle")
		return
	}
	log.Error().Err(err).Msg(msg)
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		s.Logger.Error().Err(err).Msg("send notification")
	}
}
