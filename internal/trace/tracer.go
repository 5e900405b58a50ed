// Package trace records an append-only, totally ordered audit log of every
// orchestration stage's start, success and failure. The tracer observes the
// pipeline; it never aborts it. Sink failures are logged and discarded.
package trace

import (
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Status of a recorded step.
type Status string

const (
	StatusStarted   Status = "started"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Step is one entry in the execution trace. Seq is monotonically increasing
// within a run and defines the total order of the audit record.
type Step struct {
	Seq       int       `json:"seq"`
	Stage     string    `json:"stage"`
	Timestamp time.Time `json:"timestamp"`
	Status    Status    `json:"status"`
	Summary   string    `json:"summary,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// Sink receives steps as they are recorded, e.g. for live display or
// persistence. A sink returning an error does not affect the run.
type Sink interface {
	Write(Step) error
}

// Tracer serializes all writes through one mutex so sequence numbers form a
// single total order even while analyst stages run concurrently.
type Tracer struct {
	mu       sync.Mutex
	runID    string
	steps    []Step
	warnings []string
	seq      int
	start    time.Time
	logger   *zap.Logger
	sinks    []Sink
	now      func() time.Time
}

// New creates a tracer for one run. A nil logger is replaced with a no-op.
func New(runID string, logger *zap.Logger, sinks ...Sink) *Tracer {
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &Tracer{
		runID:  runID,
		logger: logger,
		sinks:  sinks,
		now:    time.Now,
	}
	t.start = t.now()
	return t
}

func (t *Tracer) record(stage string, status Status, summary, errDetail string) {
	t.mu.Lock()
	t.seq++
	step := Step{
		Seq:       t.seq,
		Stage:     stage,
		Timestamp: t.now(),
		Status:    status,
		Summary:   summary,
		Error:     errDetail,
	}
	t.steps = append(t.steps, step)

	// Sinks are fed under the lock so they observe steps in sequence order
	// even while analyst stages record concurrently.
	for _, sink := range t.sinks {
		if err := sink.Write(step); err != nil {
			// Observability must not take the run down with it.
			t.logger.Warn("trace sink write failed", zap.Error(err))
		}
	}
	t.mu.Unlock()

	switch status {
	case StatusFailed:
		t.logger.Error("stage failed", zap.String("run_id", t.runID), zap.String("stage", stage), zap.String("error", errDetail))
	default:
		t.logger.Info("stage "+string(status), zap.String("run_id", t.runID), zap.String("stage", stage), zap.String("summary", summary))
	}
}

// StageStarted records entry into a stage.
func (t *Tracer) StageStarted(stage, summary string) {
	t.record(stage, StatusStarted, summary, "")
}

// StageSucceeded records normal completion of a stage.
func (t *Tracer) StageSucceeded(stage, summary string) {
	t.record(stage, StatusSucceeded, summary, "")
}

// StageFailed records a stage failure. The caller still propagates the error.
func (t *Tracer) StageFailed(stage string, err error) {
	detail := ""
	if err != nil {
		detail = err.Error()
	}
	t.record(stage, StatusFailed, "", detail)
}

// Warn records a non-fatal degradation (e.g. memory retrieval unavailable)
// without adding a step to the stage order. Warnings are kept for the audit
// summary and logged immediately.
func (t *Tracer) Warn(stage, msg string) {
	t.mu.Lock()
	t.warnings = append(t.warnings, stage+": "+msg)
	t.mu.Unlock()
	t.logger.Warn(msg, zap.String("run_id", t.runID), zap.String("stage", stage))
}

// Steps returns a copy of the recorded steps in sequence order.
func (t *Tracer) Steps() []Step {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Step(nil), t.steps...)
}

// Warnings returns the non-fatal degradations recorded during the run.
func (t *Tracer) Warnings() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.warnings...)
}

// Summary aggregates the trace for the audit record.
type Summary struct {
	RunID        string         `json:"run_id"`
	TotalSteps   int            `json:"total_steps"`
	StatusCounts map[Status]int `json:"status_counts"`
	StageSteps   map[string]int `json:"stage_steps"`
	Warnings     []string       `json:"warnings,omitempty"`
	StartedAt    time.Time      `json:"started_at"`
	Duration     time.Duration  `json:"duration"`
}

// Summarize computes aggregate counts over the recorded steps.
func (t *Tracer) Summarize() Summary {
	t.mu.Lock()
	defer t.mu.Unlock()

	statusCounts := make(map[Status]int)
	stageSteps := make(map[string]int)
	for _, step := range t.steps {
		statusCounts[step.Status]++
		stageSteps[step.Stage]++
	}
	return Summary{
		RunID:        t.runID,
		TotalSteps:   len(t.steps),
		StatusCounts: statusCounts,
		StageSteps:   stageSteps,
		Warnings:     append([]string(nil), t.warnings...),
		StartedAt:    t.start,
		Duration:     t.now().Sub(t.start),
	}
}

// Export serializes the summary and full step sequence as JSON.
func (t *Tracer) Export() ([]byte, error) {
	record := struct {
		Summary Summary `json:"summary"`
		Steps   []Step  `json:"steps"`
	}{
		Summary: t.Summarize(),
		Steps:   t.Steps(),
	}
	return json.MarshalIndent(record, "", "  ")
}
