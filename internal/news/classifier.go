package news

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultAllowedKeywords is the material-event lexicon: earnings and guidance,
// M&A, regulatory, business development and insider filings.
var DefaultAllowedKeywords = []string{
	// earnings
	"earnings", "eps", "revenue", "beat", "miss", "guidance", "report",
	// M&A
	"merger", "acquisition", "buyout", "stake",
	// regulatory
	"fda", "approval", "clearance", "phase",
	// business
	"contract", "partnership", "agreement", "awarded",
	// insiders
	"form 4", "insider",
}

// DefaultBannedKeywords marks generic commentary that is never actionable.
var DefaultBannedKeywords = []string{
	"top 10", "stocks to watch", "analysis", "opinion",
	"why (.*) is moving", "upgrade", "downgrade", "rating",
}

// Lexicon is a compiled set of case-insensitive patterns.
type Lexicon struct {
	patterns []*regexp.Regexp
}

// NewLexicon compiles patterns. Each pattern is a regular expression matched
// anywhere in the text, ignoring case.
func NewLexicon(patterns []string) (*Lexicon, error) {
	l := &Lexicon{patterns: make([]*regexp.Regexp, 0, len(patterns))}
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("compile pattern %q: %w", p, err)
		}
		l.patterns = append(l.patterns, re)
	}
	return l, nil
}

// MustLexicon is NewLexicon for package-level defaults.
func MustLexicon(patterns []string) *Lexicon {
	l, err := NewLexicon(patterns)
	if err != nil {
		panic(err)
	}
	return l
}

// Match returns the first pattern that matches text, if any.
func (l *Lexicon) Match(text string) (string, bool) {
	for _, re := range l.patterns {
		if re.MatchString(text) {
			return strings.TrimPrefix(re.String(), "(?i)"), true
		}
	}
	return "", false
}

// Classifier decides whether text describes a material event.
type Classifier struct {
	Allowed *Lexicon
	Banned  *Lexicon
}

// NewClassifier builds a classifier, falling back to the default lexicons for empty lists.
func NewClassifier(allowed, banned []string) (*Classifier, error) {
	if len(allowed) == 0 {
		allowed = DefaultAllowedKeywords
	}
	if len(banned) == 0 {
		banned = DefaultBannedKeywords
	}
	a, err := NewLexicon(allowed)
	if err != nil {
		return nil, fmt.Errorf("allowed keywords: %w", err)
	}
	b, err := NewLexicon(banned)
	if err != nil {
		return nil, fmt.Errorf("banned keywords: %w", err)
	}
	return &Classifier{Allowed: a, Banned: b}, nil
}

// IsBanned reports whether text contains commentary that disqualifies it.
func (c *Classifier) IsBanned(text string) bool {
	_, ok := c.Banned.Match(strings.ToLower(text))
	return ok
}

// IsMaterial reports whether text mentions at least one material-event term.
func (c *Classifier) IsMaterial(text string) bool {
	_, ok := c.Allowed.Match(strings.ToLower(text))
	return ok
}
