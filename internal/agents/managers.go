package agents

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"tradecouncil/internal/llm"
	"tradecouncil/internal/memory"
	"tradecouncil/internal/models"
)

// ResearchManager judges the bull/bear debate and writes the investment
// plan. It reads the complete transcript, never a summary of it.
type ResearchManager struct {
	llm        llm.Client
	mem        *memory.Memory
	retrievalK int
	logger     *zap.Logger
}

// NewResearchManager creates the debate judge. client should be the
// deep-thinking model.
func NewResearchManager(client llm.Client, mem *memory.Memory, retrievalK int, logger *zap.Logger) *ResearchManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResearchManager{llm: client, mem: mem, retrievalK: retrievalK, logger: logger}
}

// Decide weighs the full debate transcript and records the investment plan.
func (m *ResearchManager) Decide(ctx context.Context, state *models.AnalysisState) (degraded bool, err error) {
	reports, err := state.AnalystReports()
	if err != nil {
		return false, fmt.Errorf("research manager: %w", err)
	}
	situation := SituationSummary(reports)

	lessons, degraded, err := m.mem.Retrieve(ctx, memory.CollectionJudge, situation, m.retrievalK)
	if err != nil {
		return false, fmt.Errorf("research manager: %w", err)
	}

	prompt := fmt.Sprintf(
		"Company: %s\nTrade date: %s\n\nAnalyst reports:\n%s\n\n"+
			"Full debate transcript:\n%s\n\n"+
			"Your past mistakes on similar situations:\n%s\n\n"+
			"Judge the debate and produce the investment plan for the trader.",
		state.Ticker, state.TradeDate, situation,
		renderTranscript(state.DebateTranscript()),
		renderLessons(lessons))

	plan, err := m.llm.Generate(ctx, researchManagerContext, prompt)
	if err != nil {
		return degraded, fmt.Errorf("research manager: %w", err)
	}
	return degraded, state.SetInvestmentPlan(plan)
}

// RiskManager judges the risk debate and writes the binding final decision.
type RiskManager struct {
	llm        llm.Client
	mem        *memory.Memory
	retrievalK int
	logger     *zap.Logger
}

// NewRiskManager creates the risk judge. client should be the deep-thinking
// model.
func NewRiskManager(client llm.Client, mem *memory.Memory, retrievalK int, logger *zap.Logger) *RiskManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RiskManager{llm: client, mem: mem, retrievalK: retrievalK, logger: logger}
}

// Decide weighs the risk transcript against the trader's plan and records
// the final trade decision.
func (m *RiskManager) Decide(ctx context.Context, state *models.AnalysisState) (degraded bool, err error) {
	reports, err := state.AnalystReports()
	if err != nil {
		return false, fmt.Errorf("risk manager: %w", err)
	}
	traderPlan, err := state.TraderPlan()
	if err != nil {
		return false, fmt.Errorf("risk manager: %w", err)
	}
	situation := SituationSummary(reports)

	lessons, degraded, err := m.mem.Retrieve(ctx, memory.CollectionRisk, situation, m.retrievalK)
	if err != nil {
		return false, fmt.Errorf("risk manager: %w", err)
	}

	prompt := fmt.Sprintf(
		"Company: %s\nTrade date: %s\n\nTrader's proposal:\n%s\n\n"+
			"Risk debate transcript:\n%s\n\n"+
			"Your past mistakes on similar situations:\n%s\n\n"+
			"Deliver the binding decision: Buy, Sell or Hold, with the refined plan.",
		state.Ticker, state.TradeDate, traderPlan,
		renderTranscript(state.RiskTranscript()),
		renderLessons(lessons))

	decision, err := m.llm.Generate(ctx, riskManagerContext, prompt)
	if err != nil {
		return degraded, fmt.Errorf("risk manager: %w", err)
	}
	return degraded, state.SetFinalDecision(decision)
}
