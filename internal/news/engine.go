// Package news turns raw feed items into material-event signals.
package news

import (
	"strings"
	"time"

	"github.com/rs/zerolog"

	"NewsSentinel/internal/model"
)

// Stage names the pipeline step that rejected an article.
type Stage string

const (
	StageAccepted     Stage = "accepted"
	StageStale        Stage = "stale"
	StageDuplicate    Stage = "duplicate"
	StageBanned       Stage = "banned"
	StageNotMaterial  Stage = "not_material"
	StageLowSentiment Stage = "low_sentiment"
)

// Verdict is the outcome of one article through the pipeline.
type Verdict struct {
	Accepted  bool
	Stage     Stage
	Sentiment float64
}

// Options tunes the engine. Zero values fall back to the defaults; a nil
// MinSentiment means 0.2.
type Options struct {
	MaxAge       time.Duration
	DedupWindow  time.Duration
	MinSentiment *float64
	Classifier   *Classifier
	Scorer       Scorer
	Now          func() time.Time
}

// Engine composes the freshness gate, dedup cache, classifier and sentiment
// threshold. It exclusively owns its dedup cache.
type Engine struct {
	maxAge       time.Duration
	minSentiment float64
	dedup        *DedupCache
	classifier   *Classifier
	scorer       Scorer
	now          func() time.Time
	logger       zerolog.Logger
}

// NewEngine creates an engine.
func NewEngine(opts Options, logger zerolog.Logger) *Engine {
	if opts.MaxAge == 0 {
		opts.MaxAge = 24 * time.Hour
	}
	if opts.DedupWindow == 0 {
		opts.DedupWindow = 48 * time.Hour
	}
	if opts.Classifier == nil {
		opts.Classifier = &Classifier{
			Allowed: MustLexicon(DefaultAllowedKeywords),
			Banned:  MustLexicon(DefaultBannedKeywords),
		}
	}
	if opts.Scorer == nil {
		opts.Scorer = NewLexiconScorer()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	minSentiment := 0.2
	if opts.MinSentiment != nil {
		minSentiment = *opts.MinSentiment
	}
	return &Engine{
		maxAge:       opts.MaxAge,
		minSentiment: minSentiment,
		dedup:        NewDedupCache(opts.DedupWindow),
		classifier:   opts.Classifier,
		scorer:       opts.Scorer,
		now:          opts.Now,
		logger:       logger,
	}
}

// Process runs the pipeline and returns the article when it is accepted, nil otherwise.
func (e *Engine) Process(a *model.NewsArticle) *model.NewsArticle {
	if v := e.Evaluate(a); v.Accepted {
		return a
	}
	return nil
}

// Evaluate runs the pipeline, short-circuiting at the first rejecting stage.
// The stage order is fixed: freshness, dedup, ban, materiality, sentiment.
// Dedup records the headline before content filtering, so a rejected headline
// is never re-examined.
func (e *Engine) Evaluate(a *model.NewsArticle) Verdict {
	now := e.now()
	log := e.logger.With().Str("article_id", a.ID).Str("symbol", a.Symbol).Logger()

	if !e.isFresh(a, now) {
		log.Debug().Time("created_at", a.CreatedAt).Msg("news dropped: too old")
		return Verdict{Stage: StageStale}
	}

	if e.dedup.CheckAndRecord(a.Headline, now) {
		log.Debug().Str("headline", a.Headline).Msg("news dropped: duplicate")
		return Verdict{Stage: StageDuplicate}
	}

	text := strings.ToLower(a.Text())

	if e.classifier.IsBanned(text) {
		log.Debug().Str("headline", a.Headline).Msg("news dropped: banned content")
		return Verdict{Stage: StageBanned}
	}
	if !e.classifier.IsMaterial(text) {
		log.Debug().Str("headline", a.Headline).Msg("news dropped: not material")
		return Verdict{Stage: StageNotMaterial}
	}

	a.SentimentScore = e.scorer.Polarity(text)
	if a.SentimentScore < e.minSentiment {
		log.Debug().Float64("score", a.SentimentScore).Msg("news dropped: low sentiment")
		return Verdict{Stage: StageLowSentiment, Sentiment: a.SentimentScore}
	}

	return Verdict{Accepted: true, Stage: StageAccepted, Sentiment: a.SentimentScore}
}

func (e *Engine) isFresh(a *model.NewsArticle, now time.Time) bool {
	return now.Sub(a.CreatedAt) <= e.maxAge
}

// CompactDedup forgets headlines older than the dedup window.
func (e *Engine) CompactDedup() int {
	return e.dedup.Compact(e.now())
}

// DedupSize returns the number of remembered headlines.
func (e *Engine) DedupSize() int {
	return e.dedup.Len()
}
