package agents

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"tradecouncil/internal/llm"
	"tradecouncil/internal/models"
)

// RiskDebater argues one stance in the three-way risk discussion. Unlike the
// researchers, risk debaters carry no memory of their own; the lessons enter
// the discussion through the risk manager's judgment.
type RiskDebater struct {
	speaker string
	llm     llm.Client
	logger  *zap.Logger
}

// NewAggressiveDebater creates the high-reward advocate.
func NewAggressiveDebater(client llm.Client, logger *zap.Logger) *RiskDebater {
	return newRiskDebater(models.SpeakerAggressive, client, logger)
}

// NewConservativeDebater creates the capital-preservation advocate.
func NewConservativeDebater(client llm.Client, logger *zap.Logger) *RiskDebater {
	return newRiskDebater(models.SpeakerConservative, client, logger)
}

// NewNeutralDebater creates the balanced-view advocate.
func NewNeutralDebater(client llm.Client, logger *zap.Logger) *RiskDebater {
	return newRiskDebater(models.SpeakerNeutral, client, logger)
}

func newRiskDebater(speaker string, client llm.Client, logger *zap.Logger) *RiskDebater {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RiskDebater{speaker: speaker, llm: client, logger: logger}
}

// Speaker returns this debater's stance.
func (d *RiskDebater) Speaker() string { return d.speaker }

func (d *RiskDebater) roleContext() string {
	switch d.speaker {
	case models.SpeakerAggressive:
		return aggressiveDebaterContext
	case models.SpeakerConservative:
		return conservativeDebaterContext
	default:
		return neutralDebaterContext
	}
}

// Argue produces the next utterance for this stance. round is the
// utterance's index in the risk transcript.
func (d *RiskDebater) Argue(ctx context.Context, state *models.AnalysisState, round int) (models.DebateRound, error) {
	reports, err := state.AnalystReports()
	if err != nil {
		return models.DebateRound{}, fmt.Errorf("%s debater: %w", d.speaker, err)
	}
	traderPlan, err := state.TraderPlan()
	if err != nil {
		return models.DebateRound{}, fmt.Errorf("%s debater: %w", d.speaker, err)
	}

	prompt := fmt.Sprintf(
		"Company: %s\nTrade date: %s\n\nAnalyst reports:\n%s\n\n"+
			"Trader's proposal under review:\n%s\n\n"+
			"Discussion so far:\n%s\n\n"+
			"Deliver your next argument.",
		state.Ticker, state.TradeDate, SituationSummary(reports), traderPlan,
		renderTranscript(state.RiskTranscript()))

	text, err := d.llm.Generate(ctx, d.roleContext(), prompt)
	if err != nil {
		return models.DebateRound{}, fmt.Errorf("%s debater: %w", d.speaker, err)
	}

	return models.DebateRound{Round: round, Speaker: d.speaker, Text: text}, nil
}
