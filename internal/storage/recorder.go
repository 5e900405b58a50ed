// Package storage persists finished runs for audit: one JSON run record
// holding the decision, the final state and the full execution trace, plus
// per-section markdown reports for human review.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"tradecouncil/internal/models"
	"tradecouncil/internal/trace"
)

// Recorder writes run artifacts under resultsDir/<ticker>/<date>/.
type Recorder struct {
	resultsDir string
	logger     *zap.Logger
}

// NewRecorder creates a recorder rooted at resultsDir.
func NewRecorder(resultsDir string, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{resultsDir: resultsDir, logger: logger}
}

// RunRecord is the persisted audit document for one run.
type RunRecord struct {
	Decision *models.TradingDecision `json:"decision,omitempty"`
	State    models.StateSnapshot    `json:"state"`
	Trace    struct {
		Summary trace.Summary `json:"summary"`
		Steps   []trace.Step  `json:"steps"`
	} `json:"trace"`
}

// SaveRun writes the JSON run record and the markdown reports, returning the
// run directory.
func (r *Recorder) SaveRun(snapshot models.StateSnapshot, tracer *trace.Tracer, decision *models.TradingDecision) (string, error) {
	runDir := filepath.Join(r.resultsDir, snapshot.Ticker, snapshot.TradeDate)
	if err := os.MkdirAll(filepath.Join(runDir, "reports"), 0755); err != nil {
		return "", fmt.Errorf("storage: creating run dir: %w", err)
	}

	record := RunRecord{Decision: decision, State: snapshot}
	record.Trace.Summary = tracer.Summarize()
	record.Trace.Steps = tracer.Steps()

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return "", fmt.Errorf("storage: encoding run record: %w", err)
	}
	recordPath := filepath.Join(runDir, fmt.Sprintf("run_%s.json", snapshot.RunID))
	if err := os.WriteFile(recordPath, data, 0644); err != nil {
		return "", fmt.Errorf("storage: writing run record: %w", err)
	}

	if err := r.writeReports(runDir, snapshot); err != nil {
		return "", err
	}

	r.logger.Info("run persisted",
		zap.String("run_id", snapshot.RunID),
		zap.String("dir", runDir))
	return runDir, nil
}

func (r *Recorder) writeReports(runDir string, s models.StateSnapshot) error {
	sections := []struct {
		file  string
		title string
		body  string
	}{
		{"market_report.md", "Market Report", s.Reports[models.RoleMarket]},
		{"sentiment_report.md", "Sentiment Report", s.Reports[models.RoleSentiment]},
		{"news_report.md", "News Report", s.Reports[models.RoleNews]},
		{"fundamentals_report.md", "Fundamentals Report", s.Reports[models.RoleFundamentals]},
		{"investment_debate.md", "Investment Debate", renderRounds(s.Debate)},
		{"investment_plan.md", "Investment Plan", s.InvestmentPlan},
		{"trader_plan.md", "Trader Plan", s.TraderPlan},
		{"risk_debate.md", "Risk Debate", renderRounds(s.RiskDebate)},
		{"final_decision.md", "Final Trade Decision", s.FinalDecision},
	}

	for _, section := range sections {
		if strings.TrimSpace(section.body) == "" {
			continue
		}
		content := fmt.Sprintf("# %s: %s (%s)\n\n%s\n", section.title, s.Ticker, s.TradeDate, section.body)
		path := filepath.Join(runDir, "reports", section.file)
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			return fmt.Errorf("storage: writing %s: %w", section.file, err)
		}
	}
	return nil
}

func renderRounds(rounds []models.DebateRound) string {
	var b strings.Builder
	for _, round := range rounds {
		fmt.Fprintf(&b, "## Round %d: %s\n\n%s\n\n", round.Round, round.Speaker, round.Text)
	}
	return strings.TrimSpace(b.String())
}

// LoadRun reads a persisted run record back.
func LoadRun(path string) (*RunRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("storage: reading run record: %w", err)
	}
	var record RunRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("storage: decoding run record: %w", err)
	}
	return &record, nil
}

// FindRun locates the run record for a (ticker, date) pair. When several
// runs exist for the pair the most recently written wins.
func FindRun(resultsDir, ticker, date string) (*RunRecord, error) {
	pattern := filepath.Join(resultsDir, strings.ToUpper(ticker), date, "run_*.json")
	matches, err := filepath.Glob(pattern)
	if err != nil || len(matches) == 0 {
		return nil, fmt.Errorf("storage: no run record for %s on %s", ticker, date)
	}

	latest := matches[0]
	var latestMod int64
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			continue
		}
		if mod := info.ModTime().UnixNano(); mod > latestMod {
			latestMod = mod
			latest = m
		}
	}
	return LoadRun(latest)
}

// TraceFileSink streams trace steps to a JSON-lines file as they happen, so
// a crashed run still leaves a partial audit trail on disk.
type TraceFileSink struct {
	f *os.File
}

// NewTraceFileSink opens (or creates) the sink file for appending.
func NewTraceFileSink(path string) (*TraceFileSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("storage: creating trace dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("storage: opening trace sink: %w", err)
	}
	return &TraceFileSink{f: f}, nil
}

// Write appends one step as a JSON line.
func (s *TraceFileSink) Write(step trace.Step) error {
	data, err := json.Marshal(step)
	if err != nil {
		return err
	}
	_, err = s.f.Write(append(data, '\n'))
	return err
}

// Close releases the sink file.
func (s *TraceFileSink) Close() error { return s.f.Close() }
