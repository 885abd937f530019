package model

// Bias is the directional bias extracted from a chart analysis.
type Bias string

const (
	BiasLong    Bias = "long"
	BiasShort   Bias = "short"
	BiasNeutral Bias = "neutral"
)

// TradeOutcome is the recorded result of a taken trade.
type TradeOutcome string

const (
	TradeOutcomeNone TradeOutcome = ""
	TradeOutcomeWin  TradeOutcome = "win"
	TradeOutcomeLoss TradeOutcome = "loss"
)

// Valid reports whether o is a recordable outcome (win or loss).
func (o TradeOutcome) Valid() bool {
	return o == TradeOutcomeWin || o == TradeOutcomeLoss
}
