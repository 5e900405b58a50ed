package agents

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"tradecouncil/internal/llm"
	"tradecouncil/internal/memory"
	"tradecouncil/internal/models"
)

// Trader converts the approved investment plan into a concrete trade
// proposal ending with the transaction directive.
type Trader struct {
	llm        llm.Client
	mem        *memory.Memory
	retrievalK int
	logger     *zap.Logger
}

// NewTrader creates the trading agent.
func NewTrader(client llm.Client, mem *memory.Memory, retrievalK int, logger *zap.Logger) *Trader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Trader{llm: client, mem: mem, retrievalK: retrievalK, logger: logger}
}

// Plan produces the trade proposal and records it in state. degraded reports
// that memory retrieval was unavailable and the plan ran without lessons.
func (t *Trader) Plan(ctx context.Context, state *models.AnalysisState) (degraded bool, err error) {
	reports, err := state.AnalystReports()
	if err != nil {
		return false, fmt.Errorf("trader: %w", err)
	}
	investmentPlan, err := state.InvestmentPlan()
	if err != nil {
		return false, fmt.Errorf("trader: %w", err)
	}
	situation := SituationSummary(reports)

	lessons, degraded, err := t.mem.Retrieve(ctx, memory.CollectionTrader, situation, t.retrievalK)
	if err != nil {
		return false, fmt.Errorf("trader: %w", err)
	}

	prompt := fmt.Sprintf(
		"Company: %s\nTrade date: %s\n\nAnalyst reports:\n%s\n\n"+
			"Approved investment plan:\n%s\n\n"+
			"Lessons from past decisions in similar situations:\n%s\n\n"+
			"Decide the position and state your proposal.",
		state.Ticker, state.TradeDate, situation, investmentPlan,
		renderLessons(lessons))

	proposal, err := t.llm.Generate(ctx, traderContext, prompt)
	if err != nil {
		return degraded, fmt.Errorf("trader: %w", err)
	}
	return degraded, state.SetTraderPlan(proposal)
}
