package models

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalystReportWriteOnce(t *testing.T) {
	s := NewAnalysisState("AAPL", "2025-09-10", "run-1")

	require.NoError(t, s.SetAnalystReport(RoleMarket, "first"))

	err := s.SetAnalystReport(RoleMarket, "second")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFieldAlreadySet))

	report, err := s.AnalystReport(RoleMarket)
	require.NoError(t, err)
	assert.Equal(t, "first", report)
}

func TestAnalystReportsRequiresAllRoles(t *testing.T) {
	s := NewAnalysisState("AAPL", "2025-09-10", "run-1")

	for _, role := range []string{RoleMarket, RoleSentiment, RoleNews} {
		require.NoError(t, s.SetAnalystReport(role, "report for "+role))
	}

	_, err := s.AnalystReports()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIncompleteState))

	require.NoError(t, s.SetAnalystReport(RoleFundamentals, "report"))
	reports, err := s.AnalystReports()
	require.NoError(t, err)
	assert.Len(t, reports, 4)
}

func TestConcurrentAnalystWrites(t *testing.T) {
	s := NewAnalysisState("AAPL", "2025-09-10", "run-1")

	var wg sync.WaitGroup
	for _, role := range AnalystRoles() {
		wg.Add(1)
		go func(role string) {
			defer wg.Done()
			assert.NoError(t, s.SetAnalystReport(role, "report for "+role))
		}(role)
	}
	wg.Wait()

	reports, err := s.AnalystReports()
	require.NoError(t, err)
	for _, role := range AnalystRoles() {
		assert.Equal(t, "report for "+role, reports[role])
	}
}

func TestWriteOnceFields(t *testing.T) {
	s := NewAnalysisState("AAPL", "2025-09-10", "run-1")

	_, err := s.InvestmentPlan()
	assert.True(t, errors.Is(err, ErrIncompleteState))

	require.NoError(t, s.SetInvestmentPlan("plan"))
	assert.True(t, errors.Is(s.SetInvestmentPlan("other"), ErrFieldAlreadySet))

	require.NoError(t, s.SetTraderPlan("trade"))
	assert.True(t, errors.Is(s.SetTraderPlan("other"), ErrFieldAlreadySet))

	require.NoError(t, s.SetFinalDecision("buy it"))
	assert.True(t, errors.Is(s.SetFinalDecision("other"), ErrFieldAlreadySet))

	require.NoError(t, s.SetSignal(&TradingSignal{Action: ActionBuy}))
	assert.True(t, errors.Is(s.SetSignal(&TradingSignal{Action: ActionSell}), ErrFieldAlreadySet))
}

func TestDebateRoundsMustArriveInOrder(t *testing.T) {
	s := NewAnalysisState("AAPL", "2025-09-10", "run-1")

	require.NoError(t, s.AppendDebateRound(DebateRound{Round: 0, Speaker: SpeakerBull, Text: "up"}))
	require.NoError(t, s.AppendDebateRound(DebateRound{Round: 1, Speaker: SpeakerBear, Text: "down"}))

	err := s.AppendDebateRound(DebateRound{Round: 5, Speaker: SpeakerBull, Text: "skip"})
	require.Error(t, err)

	transcript := s.DebateTranscript()
	require.Len(t, transcript, 2)
	assert.Equal(t, SpeakerBull, transcript[0].Speaker)
	assert.Equal(t, SpeakerBear, transcript[1].Speaker)
}

func TestSnapshotCopiesState(t *testing.T) {
	s := NewAnalysisState("NVDA", "2025-09-10", "run-9")
	for _, role := range AnalystRoles() {
		require.NoError(t, s.SetAnalystReport(role, "r"))
	}
	require.NoError(t, s.AppendDebateRound(DebateRound{Round: 0, Speaker: SpeakerBull, Text: "x"}))
	require.NoError(t, s.SetInvestmentPlan("plan"))

	snap := s.Snapshot()
	assert.Equal(t, "NVDA", snap.Ticker)
	assert.Equal(t, "run-9", snap.RunID)
	assert.Len(t, snap.Reports, 4)
	assert.Equal(t, "plan", snap.InvestmentPlan)

	// Mutating the snapshot must not affect the state.
	snap.Reports[RoleMarket] = "mutated"
	report, err := s.AnalystReport(RoleMarket)
	require.NoError(t, err)
	assert.Equal(t, "r", report)
}
