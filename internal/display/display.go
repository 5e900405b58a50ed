// Package display renders run progress and results for the terminal.
package display

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"tradecouncil/internal/models"
	"tradecouncil/internal/trace"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")).
			Border(lipgloss.RoundedBorder()).Padding(0, 2)
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))

	buyStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")).Padding(0, 1)
	sellStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")).Padding(0, 1)
	holdStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214")).Padding(0, 1)
)

func actionStyle(a models.Action) lipgloss.Style {
	switch a {
	case models.ActionBuy:
		return buyStyle
	case models.ActionSell:
		return sellStyle
	default:
		return holdStyle
	}
}

// Banner renders the program header.
func Banner(w io.Writer) {
	fmt.Fprintln(w, titleStyle.Render("TradeCouncil"))
	fmt.Fprintln(w, dimStyle.Render("multi-agent trading analysis"))
	fmt.Fprintln(w)
}

// Result renders the outcome of one run: the signal, its confidence and the
// trace summary.
func Result(w io.Writer, snapshot models.StateSnapshot, signal *models.TradingSignal, summary trace.Summary, runDir string) {
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%s on %s", snapshot.Ticker, snapshot.TradeDate)))
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Signal:     %s\n", actionStyle(signal.Action).Render(string(signal.Action)))
	fmt.Fprintf(w, "Confidence: %.0f%%\n", signal.Confidence*100)
	if signal.LowConfidence {
		fmt.Fprintln(w, warnStyle.Render("low confidence: no explicit decision found in the final text"))
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, headerStyle.Render("Run summary"))
	fmt.Fprintf(w, "steps: %d  succeeded: %d  failed: %d  duration: %s\n",
		summary.TotalSteps,
		summary.StatusCounts[trace.StatusSucceeded],
		summary.StatusCounts[trace.StatusFailed],
		summary.Duration.Round(time.Millisecond))
	for _, warning := range summary.Warnings {
		fmt.Fprintln(w, warnStyle.Render("warn: "+warning))
	}
	if runDir != "" {
		fmt.Fprintln(w, dimStyle.Render("artifacts: "+runDir))
	}
	fmt.Fprintln(w)

	if snapshot.FinalDecision != "" {
		fmt.Fprintln(w, headerStyle.Render("Final decision"))
		fmt.Fprintln(w, strings.TrimSpace(snapshot.FinalDecision))
	}
}

// ProgressSink streams trace steps to the terminal as the run advances.
// It implements trace.Sink.
type ProgressSink struct {
	w io.Writer
}

// NewProgressSink creates a sink writing to w.
func NewProgressSink(w io.Writer) *ProgressSink {
	return &ProgressSink{w: w}
}

// Write renders one step.
func (p *ProgressSink) Write(step trace.Step) error {
	var line string
	switch step.Status {
	case trace.StatusStarted:
		line = dimStyle.Render(fmt.Sprintf("[%02d] %s ...", step.Seq, step.Stage))
	case trace.StatusSucceeded:
		line = successStyle.Render(fmt.Sprintf("[%02d] %s done", step.Seq, step.Stage))
	case trace.StatusFailed:
		line = errStyle.Render(fmt.Sprintf("[%02d] %s failed: %s", step.Seq, step.Stage, step.Error))
	}
	if step.Summary != "" && step.Status == trace.StatusStarted {
		line += dimStyle.Render(" " + step.Summary)
	}
	_, err := fmt.Fprintln(p.w, line)
	return err
}
