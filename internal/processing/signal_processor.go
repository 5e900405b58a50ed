// Package processing turns free-form decision text into a structured trading
// signal. Extraction is deterministic: the same decision text always yields
// the same signal, so audit replays are stable.
package processing

import (
	"regexp"
	"strings"

	"go.uber.org/zap"

	"tradecouncil/internal/models"
)

// Extraction rules, strongest first. Each rule only fires when the ones
// above it found nothing.
var (
	directiveRe = regexp.MustCompile(`(?i)FINAL\s+TRANSACTION\s+PROPOSAL:?\s*\**\s*(BUY|SELL|HOLD)\s*\**`)
	buyTokenRe  = regexp.MustCompile(`(?i)\bBUY\b`)
	sellTokenRe = regexp.MustCompile(`(?i)\bSELL\b`)
	holdTokenRe = regexp.MustCompile(`(?i)\bHOLD\b`)
)

var bullishPatterns = []string{
	"bullish", "accumulate", "overweight", "go long", "strong upside",
	"attractive entry", "add to position", "increase exposure",
}

var bearishPatterns = []string{
	"bearish", "underweight", "go short", "exit the position", "take profits",
	"reduce exposure", "significant downside", "avoid the stock",
}

// SignalExtractor maps a final decision paragraph to a trading signal.
type SignalExtractor struct {
	logger *zap.Logger
}

// NewSignalExtractor creates an extractor.
func NewSignalExtractor(logger *zap.Logger) *SignalExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SignalExtractor{logger: logger}
}

// Extract maps decision text to a signal. An explicit final directive wins
// over everything; then explicit decision tokens by frequency; then polarity
// phrasing; otherwise Hold, flagged low confidence.
func (e *SignalExtractor) Extract(decision string) *models.TradingSignal {
	if m := directiveRe.FindAllStringSubmatch(decision, -1); len(m) > 0 {
		action := parseAction(m[len(m)-1][1])
		return &models.TradingSignal{
			Action:     action,
			Confidence: 0.95,
			Reasoning:  "explicit final transaction directive",
		}
	}

	buys := len(buyTokenRe.FindAllString(decision, -1))
	sells := len(sellTokenRe.FindAllString(decision, -1))
	holds := len(holdTokenRe.FindAllString(decision, -1))
	if action, ok := dominantToken(buys, sells, holds); ok {
		return &models.TradingSignal{
			Action:     action,
			Confidence: 0.7,
			Reasoning:  "dominant decision token",
		}
	}

	lower := strings.ToLower(decision)
	bullish := countPatterns(lower, bullishPatterns)
	bearish := countPatterns(lower, bearishPatterns)
	switch {
	case bullish > bearish:
		return &models.TradingSignal{Action: models.ActionBuy, Confidence: 0.5, Reasoning: "bullish polarity phrasing"}
	case bearish > bullish:
		return &models.TradingSignal{Action: models.ActionSell, Confidence: 0.5, Reasoning: "bearish polarity phrasing"}
	}

	e.logger.Warn("no decision signal found in text, defaulting to hold")
	return &models.TradingSignal{
		Action:        models.ActionHold,
		Confidence:    0.2,
		LowConfidence: true,
		Reasoning:     "no explicit decision found",
	}
}

// dominantToken picks the strict majority token. A tie between the leaders
// is ambiguous and falls through to the next rule.
func dominantToken(buys, sells, holds int) (models.Action, bool) {
	switch {
	case buys > sells && buys > holds:
		return models.ActionBuy, true
	case sells > buys && sells > holds:
		return models.ActionSell, true
	case holds > buys && holds > sells:
		return models.ActionHold, true
	}
	return "", false
}

func countPatterns(lower string, patterns []string) int {
	n := 0
	for _, p := range patterns {
		n += strings.Count(lower, p)
	}
	return n
}

func parseAction(token string) models.Action {
	switch strings.ToUpper(token) {
	case "BUY":
		return models.ActionBuy
	case "SELL":
		return models.ActionSell
	default:
		return models.ActionHold
	}
}
