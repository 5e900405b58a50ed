package models

import (
	"fmt"
	"sync"
)

// Analyst roles. Each role writes exactly one report into the state.
const (
	RoleMarket       = "market"
	RoleSentiment    = "sentiment"
	RoleNews         = "news"
	RoleFundamentals = "fundamentals"
)

// Debate speakers.
const (
	SpeakerBull         = "bull"
	SpeakerBear         = "bear"
	SpeakerAggressive   = "aggressive"
	SpeakerConservative = "conservative"
	SpeakerNeutral      = "neutral"
)

// AnalystRoles returns the four analyst roles in pipeline order.
func AnalystRoles() []string {
	return []string{RoleMarket, RoleSentiment, RoleNews, RoleFundamentals}
}

// DebateRound is a single utterance in a debate transcript. Round i's prompt
// context always includes all rounds < i.
type DebateRound struct {
	Round      int      `json:"round"`
	Speaker    string   `json:"speaker"`
	Text       string   `json:"text"`
	MemoryRefs []string `json:"memory_refs,omitempty"`
}

// AnalysisState is the shared record threaded through one (ticker, date) run.
// Every field is write-once: setters reject rewrites with ErrFieldAlreadySet,
// getters for required upstream fields fail with ErrIncompleteState until the
// field is present. The state is owned by a single orchestrator run; the
// mutex only covers the analyst fan-out, where four goroutines write their
// reports concurrently.
type AnalysisState struct {
	Ticker    string
	TradeDate string
	RunID     string

	mu             sync.Mutex
	reports        map[string]string
	debate         []DebateRound
	riskDebate     []DebateRound
	investmentPlan string
	traderPlan     string
	finalDecision  string
	signal         *TradingSignal
}

// NewAnalysisState creates an empty state for one run.
func NewAnalysisState(ticker, tradeDate, runID string) *AnalysisState {
	return &AnalysisState{
		Ticker:    ticker,
		TradeDate: tradeDate,
		RunID:     runID,
		reports:   make(map[string]string),
	}
}

// SetAnalystReport records one analyst's report. Each role may write at most
// once; a second write for the same role is rejected.
func (s *AnalysisState) SetAnalystReport(role, report string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reports[role]; ok {
		return fmt.Errorf("analyst report %q: %w", role, ErrFieldAlreadySet)
	}
	s.reports[role] = report
	return nil
}

// AnalystReport returns the report written by role.
func (s *AnalysisState) AnalystReport(role string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	report, ok := s.reports[role]
	if !ok {
		return "", fmt.Errorf("analyst report %q: %w", role, ErrIncompleteState)
	}
	return report, nil
}

// AnalystReports returns all four reports keyed by role, failing fast if any
// is missing. Downstream stages must not run on partial analyst output.
func (s *AnalysisState) AnalystReports() (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(AnalystRoles()))
	for _, role := range AnalystRoles() {
		report, ok := s.reports[role]
		if !ok {
			return nil, fmt.Errorf("analyst report %q: %w", role, ErrIncompleteState)
		}
		out[role] = report
	}
	return out, nil
}

// AppendDebateRound appends one utterance to the bull/bear transcript.
// Rounds must arrive in order.
func (s *AnalysisState) AppendDebateRound(r DebateRound) error {
	if r.Round != len(s.debate) {
		return fmt.Errorf("debate round %d out of order (have %d rounds)", r.Round, len(s.debate))
	}
	s.debate = append(s.debate, r)
	return nil
}

// DebateTranscript returns the bull/bear transcript recorded so far.
func (s *AnalysisState) DebateTranscript() []DebateRound {
	return append([]DebateRound(nil), s.debate...)
}

// AppendRiskRound appends one utterance to the risk transcript.
func (s *AnalysisState) AppendRiskRound(r DebateRound) error {
	if r.Round != len(s.riskDebate) {
		return fmt.Errorf("risk round %d out of order (have %d rounds)", r.Round, len(s.riskDebate))
	}
	s.riskDebate = append(s.riskDebate, r)
	return nil
}

// RiskTranscript returns the risk debate transcript recorded so far.
func (s *AnalysisState) RiskTranscript() []DebateRound {
	return append([]DebateRound(nil), s.riskDebate...)
}

// SetInvestmentPlan records the research manager's recommendation.
func (s *AnalysisState) SetInvestmentPlan(plan string) error {
	if s.investmentPlan != "" {
		return fmt.Errorf("investment plan: %w", ErrFieldAlreadySet)
	}
	s.investmentPlan = plan
	return nil
}

// InvestmentPlan returns the research manager's recommendation.
func (s *AnalysisState) InvestmentPlan() (string, error) {
	if s.investmentPlan == "" {
		return "", fmt.Errorf("investment plan: %w", ErrIncompleteState)
	}
	return s.investmentPlan, nil
}

// SetTraderPlan records the trader's proposal.
func (s *AnalysisState) SetTraderPlan(plan string) error {
	if s.traderPlan != "" {
		return fmt.Errorf("trader plan: %w", ErrFieldAlreadySet)
	}
	s.traderPlan = plan
	return nil
}

// TraderPlan returns the trader's proposal.
func (s *AnalysisState) TraderPlan() (string, error) {
	if s.traderPlan == "" {
		return "", fmt.Errorf("trader plan: %w", ErrIncompleteState)
	}
	return s.traderPlan, nil
}

// SetFinalDecision records the risk manager's binding decision.
func (s *AnalysisState) SetFinalDecision(decision string) error {
	if s.finalDecision != "" {
		return fmt.Errorf("final decision: %w", ErrFieldAlreadySet)
	}
	s.finalDecision = decision
	return nil
}

// FinalDecision returns the risk manager's binding decision.
func (s *AnalysisState) FinalDecision() (string, error) {
	if s.finalDecision == "" {
		return "", fmt.Errorf("final decision: %w", ErrIncompleteState)
	}
	return s.finalDecision, nil
}

// SetSignal records the extracted signal.
func (s *AnalysisState) SetSignal(sig *TradingSignal) error {
	if s.signal != nil {
		return fmt.Errorf("signal: %w", ErrFieldAlreadySet)
	}
	s.signal = sig
	return nil
}

// Signal returns the extracted signal.
func (s *AnalysisState) Signal() (*TradingSignal, error) {
	if s.signal == nil {
		return nil, fmt.Errorf("signal: %w", ErrIncompleteState)
	}
	return s.signal, nil
}

// StateSnapshot is the serializable view of a finished (or failed) run.
type StateSnapshot struct {
	RunID          string            `json:"run_id"`
	Ticker         string            `json:"ticker"`
	TradeDate      string            `json:"trade_date"`
	Reports        map[string]string `json:"reports"`
	Debate         []DebateRound     `json:"debate"`
	RiskDebate     []DebateRound     `json:"risk_debate"`
	InvestmentPlan string            `json:"investment_plan,omitempty"`
	TraderPlan     string            `json:"trader_plan,omitempty"`
	FinalDecision  string            `json:"final_trade_decision,omitempty"`
	Signal         *TradingSignal    `json:"signal,omitempty"`
}

// Snapshot returns a copy of the state for audit export and display.
func (s *AnalysisState) Snapshot() StateSnapshot {
	s.mu.Lock()
	reports := make(map[string]string, len(s.reports))
	for role, report := range s.reports {
		reports[role] = report
	}
	s.mu.Unlock()

	return StateSnapshot{
		RunID:          s.RunID,
		Ticker:         s.Ticker,
		TradeDate:      s.TradeDate,
		Reports:        reports,
		Debate:         s.DebateTranscript(),
		RiskDebate:     s.RiskTranscript(),
		InvestmentPlan: s.investmentPlan,
		TraderPlan:     s.traderPlan,
		FinalDecision:  s.finalDecision,
		Signal:         s.signal,
	}
}
