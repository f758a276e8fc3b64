package model

import "time"

// EntryOutcome describes what happened to one routed symbol.
type EntryOutcome string

const (
	EntrySubmitted EntryOutcome = "SUBMITTED"
	EntrySkipped   EntryOutcome = "SKIPPED_RSI"
	EntryFailed    EntryOutcome = "FAILED"
)

// EntryResult is the outcome of offering one symbol of an accepted article for entry.
type EntryResult struct {
	Symbol    string
	Headline  string
	RSI       float64
	Notional  float64
	Outcome   EntryOutcome
	OrderID   string
	Err       error
	Timestamp time.Time
}

// ExitEvent records a sell decided by the rule ladder and how its execution went.
type ExitEvent struct {
	Symbol     string
	Rule       string
	Reason     string
	Fraction   float64
	Qty        float64
	EntryPrice float64
	Price      float64
	OrderID    string
	Err        error
	Timestamp  time.Time
}

// NewsVerdict is the outcome of one article through the news pipeline.
type NewsVerdict struct {
	ArticleID string
	Headline  string
	Symbol    string
	Accepted  bool
	Stage     string
	Sentiment float64
	Timestamp time.Time
}
