// Package agents implements the reasoning roles of the pipeline: analysts,
// researchers, trader, risk debaters and the two manager judges. Each agent
// reads from the shared run state and writes its contribution back exactly
// once; orchestration order is owned by the graph package.
package agents

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"tradecouncil/internal/dataflows"
	"tradecouncil/internal/llm"
	"tradecouncil/internal/models"
)

// Analyst produces one of the four first-stage reports from its data
// snapshot.
type Analyst struct {
	role    string
	llm     llm.Client
	toolkit dataflows.Toolkit
	logger  *zap.Logger
}

// NewAnalyst creates an analyst for one of the four roles.
func NewAnalyst(role string, client llm.Client, toolkit dataflows.Toolkit, logger *zap.Logger) *Analyst {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyst{role: role, llm: client, toolkit: toolkit, logger: logger}
}

// Role returns the analyst's role name.
func (a *Analyst) Role() string { return a.role }

// Analyze fetches the role's data snapshot, reasons over it and records the
// report in state. The returned provenance declares whether the report was
// built from live, cached or fallback data, so the orchestrator can put it
// on the audit trail. Safe to call concurrently with the other analysts.
func (a *Analyst) Analyze(ctx context.Context, state *models.AnalysisState) (dataflows.Provenance, error) {
	date, err := time.Parse("2006-01-02", state.TradeDate)
	if err != nil {
		return "", models.Permanent("analyst "+a.role, fmt.Errorf("bad trade date %q: %w", state.TradeDate, err))
	}

	snapshot, err := a.snapshot(ctx, state.Ticker, date)
	if err != nil {
		return "", fmt.Errorf("analyst %s: fetching data: %w", a.role, err)
	}
	a.logger.Debug("analyst snapshot fetched",
		zap.String("role", a.role),
		zap.String("provenance", string(snapshot.Provenance)))

	prompt := fmt.Sprintf(
		"Company: %s\nTrade date: %s\n\nData:\n%s\n\nWrite your report for the trading team.",
		state.Ticker, state.TradeDate, snapshot.Text)

	report, err := a.llm.Generate(ctx, analystContext(a.role), prompt)
	if err != nil {
		return snapshot.Provenance, fmt.Errorf("analyst %s: %w", a.role, err)
	}

	return snapshot.Provenance, state.SetAnalystReport(a.role, report)
}

func (a *Analyst) snapshot(ctx context.Context, symbol string, date time.Time) (*dataflows.Snapshot, error) {
	switch a.role {
	case models.RoleMarket:
		return a.toolkit.MarketSnapshot(ctx, symbol, date)
	case models.RoleSentiment:
		return a.toolkit.SentimentSnapshot(ctx, symbol, date)
	case models.RoleNews:
		return a.toolkit.NewsSnapshot(ctx, symbol, date)
	case models.RoleFundamentals:
		return a.toolkit.FundamentalsSnapshot(ctx, symbol, date)
	default:
		return nil, models.Permanent("analyst", fmt.Errorf("unknown role %q", a.role))
	}
}
