package processing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"tradecouncil/internal/models"
)

func TestExplicitDirectiveWins(t *testing.T) {
	e := NewSignalExtractor(nil)

	cases := []struct {
		name     string
		decision string
		want     models.Action
	}{
		{"bold buy", "Long analysis... FINAL TRANSACTION PROPOSAL: **BUY**", models.ActionBuy},
		{"plain sell", "final transaction proposal: SELL", models.ActionSell},
		{"hold with trailing text", "FINAL TRANSACTION PROPOSAL: **HOLD** pending earnings", models.ActionHold},
		{"directive beats tokens", "sell sell sell sell. FINAL TRANSACTION PROPOSAL: **BUY**", models.ActionBuy},
		{"last directive wins", "FINAL TRANSACTION PROPOSAL: **SELL**\n...reconsidering...\nFINAL TRANSACTION PROPOSAL: **HOLD**", models.ActionHold},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			signal := e.Extract(tc.decision)
			assert.Equal(t, tc.want, signal.Action)
			assert.False(t, signal.LowConfidence)
			assert.Greater(t, signal.Confidence, 0.9)
		})
	}
}

func TestDominantTokenRule(t *testing.T) {
	e := NewSignalExtractor(nil)

	signal := e.Extract("I would buy here. Buy the dip. Do not sell.")
	assert.Equal(t, models.ActionBuy, signal.Action)
	assert.False(t, signal.LowConfidence)

	signal = e.Extract("Sell into strength. Sell before earnings. One could hold, but no.")
	assert.Equal(t, models.ActionSell, signal.Action)
}

func TestPolarityFallback(t *testing.T) {
	e := NewSignalExtractor(nil)

	signal := e.Extract("The setup is bullish and I would accumulate on weakness.")
	assert.Equal(t, models.ActionBuy, signal.Action)
	assert.False(t, signal.LowConfidence)

	signal = e.Extract("Decidedly bearish; reduce exposure into the event.")
	assert.Equal(t, models.ActionSell, signal.Action)
}

func TestAmbiguousTextDefaultsToHold(t *testing.T) {
	e := NewSignalExtractor(nil)

	signal := e.Extract("The committee discussed many factors and will reconvene next week.")
	assert.Equal(t, models.ActionHold, signal.Action)
	assert.True(t, signal.LowConfidence)
	assert.Less(t, signal.Confidence, 0.5)
}

func TestTokenTieFallsThrough(t *testing.T) {
	e := NewSignalExtractor(nil)

	// One buy and one sell token tie; bullish phrasing decides.
	signal := e.Extract("Some say buy, some say sell, but the chart is bullish.")
	assert.Equal(t, models.ActionBuy, signal.Action)
}

func TestExtractionIsDeterministic(t *testing.T) {
	e := NewSignalExtractor(nil)
	text := "Mixed evidence. FINAL TRANSACTION PROPOSAL: **SELL**"

	first := e.Extract(text)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, e.Extract(text))
	}
}
