package news

import (
	"strings"
	"unicode"
)

// Scorer computes the polarity of a text in [-1, 1].
type Scorer interface {
	Polarity(text string) float64
}

// ScorerFunc adapts a plain function to Scorer.
type ScorerFunc func(text string) float64

func (f ScorerFunc) Polarity(text string) float64 { return f(text) }

// defaultPolarity is a small financial-news lexicon. Weights are per word.
var defaultPolarity = map[string]float64{
	"amazing": 0.6, "excellent": 1.0, "great": 0.8, "good": 0.7, "strong": 0.4,
	"positive": 0.2, "record": 0.3, "beat": 0.4, "beats": 0.4, "exceed": 0.5,
	"exceeds": 0.5, "exceeded": 0.5, "outperform": 0.5, "surge": 0.5, "surges": 0.5,
	"soar": 0.6, "soars": 0.6, "jump": 0.3, "jumps": 0.3, "gain": 0.3, "gains": 0.3,
	"growth": 0.3, "profit": 0.4, "profits": 0.4, "profitable": 0.5, "up": 0.1,
	"approve": 0.4, "approves": 0.4, "approved": 0.4, "approval": 0.4,
	"win": 0.6, "wins": 0.6, "awarded": 0.5, "raise": 0.2, "raises": 0.2,
	"upbeat": 0.6, "robust": 0.5, "optimistic": 0.5, "successful": 0.7,
	"expands": 0.2, "expansion": 0.2, "higher": 0.25, "best": 1.0, "boost": 0.4,

	"bad": -0.7, "poor": -0.4, "weak": -0.4, "negative": -0.3, "miss": -0.4,
	"misses": -0.4, "missed": -0.4, "loss": -0.4, "losses": -0.4, "lost": -0.3,
	"lose": -0.4, "decline": -0.3, "declines": -0.3, "drop": -0.3, "drops": -0.3,
	"fall": -0.3, "falls": -0.3, "plunge": -0.6, "plunges": -0.6, "crash": -0.8,
	"disastrous": -1.0, "disaster": -1.0, "bankruptcy": -0.8, "bankrupt": -0.8,
	"lawsuit": -0.5, "fraud": -0.8, "recall": -0.4, "reject": -0.5, "rejects": -0.5,
	"rejected": -0.5, "delay": -0.3, "delayed": -0.3, "cut": -0.3, "cuts": -0.3,
	"lower": -0.25, "concern": -0.3, "concerns": -0.3, "worst": -1.0, "terrible": -1.0,
	"halt": -0.4, "halted": -0.4, "downgrade": -0.4, "layoffs": -0.5, "warning": -0.4,
}

var negations = map[string]bool{
	"not": true, "no": true, "never": true, "without": true, "isn't": true, "didn't": true,
}

// LexiconScorer averages per-word polarity over the sentiment-bearing words of
// a text. A negation flips and halves the next sentiment word.
type LexiconScorer struct {
	Words map[string]float64
}

// NewLexiconScorer returns a scorer over the built-in financial lexicon.
func NewLexiconScorer() *LexiconScorer {
	return &LexiconScorer{Words: defaultPolarity}
}

// Polarity implements Scorer.
func (s *LexiconScorer) Polarity(text string) float64 {
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})

	var sum float64
	var n int
	negate := false
	for _, tok := range tokens {
		if negations[tok] {
			negate = true
			continue
		}
		w, ok := s.Words[tok]
		if !ok {
			continue
		}
		if negate {
			w = -w * 0.5
			negate = false
		}
		sum += w
		n++
	}
	if n == 0 {
		return 0
	}
	p := sum / float64(n)
	if p > 1 {
		return 1
	}
	if p < -1 {
		return -1
	}
	return p
}
