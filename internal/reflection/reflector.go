// Package reflection closes the learning loop: after a trade's outcome is
// known, each role's contribution to the run is reviewed against it and the
// distilled lesson is written back to that role's memory collection.
package reflection

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"tradecouncil/internal/agents"
	"tradecouncil/internal/llm"
	"tradecouncil/internal/memory"
	"tradecouncil/internal/models"
)

const reflectorContext = `You are an expert financial analyst reviewing one completed trading ` +
	`decision against its realized outcome. Decide whether the contribution under review pushed the ` +
	`decision in the right direction, which of its factors mattered most, and what it should do ` +
	`differently. Condense the insight into a concise lesson, one paragraph at most, usable as ` +
	`guidance in similar future situations.`

// Reflector generates per-role lessons from a finished run and its realized
// outcome.
type Reflector struct {
	llm    llm.Client
	mem    *memory.Memory
	logger *zap.Logger
}

// New creates a reflector. client should be the deep-thinking model.
func New(client llm.Client, mem *memory.Memory, logger *zap.Logger) *Reflector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reflector{llm: client, mem: mem, logger: logger}
}

// Reflect reviews every role's contribution in the snapshot against the
// realized outcome (e.g. "+4.2% over 7 trading days") and stores one lesson
// per role collection. The snapshot must come from a completed run.
func (r *Reflector) Reflect(ctx context.Context, snapshot models.StateSnapshot, outcome string) error {
	if snapshot.FinalDecision == "" {
		return fmt.Errorf("reflection: %w", models.ErrIncompleteState)
	}
	situation := agents.SituationSummary(snapshot.Reports)

	for _, c := range contributions(snapshot) {
		if strings.TrimSpace(c.text) == "" {
			continue
		}
		lesson, err := r.lesson(ctx, situation, c.label, c.text, outcome)
		if err != nil {
			return fmt.Errorf("reflection: %s: %w", c.collection, err)
		}
		if err := r.mem.Store(ctx, c.collection, situation, outcome, lesson); err != nil {
			return err
		}
		r.logger.Info("lesson stored",
			zap.String("collection", c.collection),
			zap.String("run_id", snapshot.RunID))
	}
	return nil
}

type contribution struct {
	collection string
	label      string
	text       string
}

func contributions(s models.StateSnapshot) []contribution {
	return []contribution{
		{memory.CollectionBull, "bull researcher's arguments", sideArguments(s.Debate, models.SpeakerBull)},
		{memory.CollectionBear, "bear researcher's arguments", sideArguments(s.Debate, models.SpeakerBear)},
		{memory.CollectionJudge, "research manager's investment plan", s.InvestmentPlan},
		{memory.CollectionTrader, "trader's proposal", s.TraderPlan},
		{memory.CollectionRisk, "risk manager's final decision", s.FinalDecision},
	}
}

func sideArguments(transcript []models.DebateRound, speaker string) string {
	var b strings.Builder
	for _, round := range transcript {
		if round.Speaker == speaker {
			b.WriteString(round.Text)
			b.WriteString("\n\n")
		}
	}
	return strings.TrimSpace(b.String())
}

func (r *Reflector) lesson(ctx context.Context, situation, label, text, outcome string) (string, error) {
	prompt := fmt.Sprintf(
		"Market situation at decision time:\n%s\n\n"+
			"Contribution under review (%s):\n%s\n\n"+
			"Realized outcome: %s\n\n"+
			"Write the lesson.",
		situation, label, text, outcome)
	return r.llm.Generate(ctx, reflectorContext, prompt)
}
