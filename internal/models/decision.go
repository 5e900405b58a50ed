package models

// Action is the canonical trading signal.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

// TradingSignal is the normalized output of a run. Action is always one of
// BUY/SELL/HOLD; ambiguous decision text maps to HOLD with LowConfidence set.
type TradingSignal struct {
	Action        Action  `json:"action"`
	Confidence    float64 `json:"confidence"` // 0.0 to 1.0
	LowConfidence bool    `json:"low_confidence"`
	Reasoning     string  `json:"reasoning,omitempty"`
}

// TradingDecision is the full decision record persisted with the audit trail.
type TradingDecision struct {
	Symbol     string  `json:"symbol"`
	Action     Action  `json:"action"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
	TradeDate  string  `json:"trade_date"`
}
