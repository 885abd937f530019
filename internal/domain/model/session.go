package model

import (
	"regexp"
	"strings"
	"time"
)

// TradeSession is one journal entry: an analysed chart plus the user's
// decision, outcome and notes.
type TradeSession struct {
	ID           string
	UserID       string
	CreatedAt    time.Time
	ImageType    string
	Analysis     string
	Bias         Bias
	TradeTaken   *bool // nil until a decision is recorded.
	TradeReason  string
	TradeOutcome TradeOutcome
	DecisionAt   *time.Time
	OutcomeAt    *time.Time
	Notes        string
}

// Decided reports whether a take/skip decision has been recorded.
func (s *TradeSession) Decided() bool {
	return s.TradeTaken != nil
}

// Taken reports whether the user decided to take the trade.
func (s *TradeSession) Taken() bool {
	return s.TradeTaken != nil && *s.TradeTaken
}

var biasPattern = regexp.MustCompile(`(?i)BIAS:\s*\(?(Long|Short|Neutral)\)?`)

// ExtractBias finds the "BIAS:" line in an analysis. Defaults to neutral.
func ExtractBias(analysis string) Bias {
	m := biasPattern.FindStringSubmatch(analysis)
	if m == nil {
		return BiasNeutral
	}
	return Bias(strings.ToLower(m[1]))
}
