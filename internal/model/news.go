package model

import "time"

// UnknownSymbol is the primary symbol of an article that reports none.
const UnknownSymbol = "UNKNOWN"

// NewsArticle is the canonical, normalized news item. SentimentScore is assigned
// once by the classifier; everything else is fixed at normalization time.
type NewsArticle struct {
	ID             string
	Headline       string
	Symbol         string
	Symbols        []string
	Source         string
	URL            string
	CreatedAt      time.Time
	Summary        string
	SentimentScore float64
}

// Text returns the lowercase-ready text body the classifier works on.
func (a *NewsArticle) Text() string {
	return a.Headline + " " + a.Summary
}
