package graph

import (
	"context"
	"fmt"

	"tradecouncil/internal/agents"
	"tradecouncil/internal/models"
)

// ConvergencePolicy decides whether a debate may stop before its round cap.
// The default policy never stops early; the cap alone bounds the debate.
type ConvergencePolicy interface {
	Converged(transcript []models.DebateRound) bool
}

type neverConverge struct{}

func (neverConverge) Converged([]models.DebateRound) bool { return false }

// NeverConverge returns the default policy: debates always run to their
// round cap.
func NeverConverge() ConvergencePolicy { return neverConverge{} }

// Investment debate states. The machine starts awaiting the bull and
// alternates strictly; it terminates only through converged or the round cap.
type debatePhase int

const (
	awaitingBull debatePhase = iota
	awaitingBear
	debateConverged
	debateCapReached
)

// InvestmentDebate runs the bull/bear exchange. The bull always opens, the
// sides alternate strictly, and the transcript never exceeds 2*maxRounds
// utterances.
type InvestmentDebate struct {
	bull      *agents.Researcher
	bear      *agents.Researcher
	policy    ConvergencePolicy
	maxRounds int
}

// NewInvestmentDebate wires the two researchers into the debate machine.
func NewInvestmentDebate(bull, bear *agents.Researcher, policy ConvergencePolicy, maxRounds int) *InvestmentDebate {
	if policy == nil {
		policy = NeverConverge()
	}
	return &InvestmentDebate{bull: bull, bear: bear, policy: policy, maxRounds: maxRounds}
}

// Run drives the debate to termination, appending every utterance to state.
// warn receives non-fatal degradations (memory unavailable).
func (d *InvestmentDebate) Run(ctx context.Context, state *models.AnalysisState, warn func(msg string)) error {
	limit := 2 * d.maxRounds
	phase := awaitingBull

	for phase == awaitingBull || phase == awaitingBear {
		round := len(state.DebateTranscript())
		if round >= limit {
			phase = debateCapReached
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		speaker := d.bull
		if phase == awaitingBear {
			speaker = d.bear
		}

		utterance, degraded, err := speaker.Argue(ctx, state, round)
		if err != nil {
			return err
		}
		if degraded && warn != nil {
			warn(fmt.Sprintf("%s memory retrieval degraded, arguing without lessons", speaker.Speaker()))
		}
		if err := state.AppendDebateRound(utterance); err != nil {
			return err
		}

		switch {
		case d.policy.Converged(state.DebateTranscript()):
			phase = debateConverged
		case phase == awaitingBull:
			phase = awaitingBear
		default:
			phase = awaitingBull
		}
	}

	return nil
}

// RiskDebate runs the three-way risk discussion in fixed round-robin order:
// aggressive, then conservative, then neutral. The transcript never exceeds
// 3*maxRounds utterances.
type RiskDebate struct {
	debaters  []*agents.RiskDebater
	policy    ConvergencePolicy
	maxRounds int
}

// NewRiskDebate wires the three stance debaters into the round-robin machine.
// debaters must be in speaking order.
func NewRiskDebate(aggressive, conservative, neutral *agents.RiskDebater, policy ConvergencePolicy, maxRounds int) *RiskDebate {
	if policy == nil {
		policy = NeverConverge()
	}
	return &RiskDebate{
		debaters:  []*agents.RiskDebater{aggressive, conservative, neutral},
		policy:    policy,
		maxRounds: maxRounds,
	}
}

// Run drives the discussion to termination, appending every utterance to
// state.
func (d *RiskDebate) Run(ctx context.Context, state *models.AnalysisState) error {
	limit := len(d.debaters) * d.maxRounds

	for {
		round := len(state.RiskTranscript())
		if round >= limit {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		speaker := d.debaters[round%len(d.debaters)]
		utterance, err := speaker.Argue(ctx, state, round)
		if err != nil {
			return err
		}
		if err := state.AppendRiskRound(utterance); err != nil {
			return err
		}
		if d.policy.Converged(state.RiskTranscript()) {
			return nil
		}
	}
}
