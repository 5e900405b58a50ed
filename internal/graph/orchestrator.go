// Package graph drives one complete analysis run: analyst fan-out, the two
// debates, the manager judgments, the trade proposal and signal extraction.
// The orchestrator owns the stage order and reports every transition to the
// execution tracer.
package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"tradecouncil/internal/agents"
	"tradecouncil/internal/config"
	"tradecouncil/internal/dataflows"
	"tradecouncil/internal/llm"
	"tradecouncil/internal/memory"
	"tradecouncil/internal/models"
	"tradecouncil/internal/processing"
	"tradecouncil/internal/trace"
)

// Stage names as they appear in the execution trace.
const (
	StageAnalysts        = "analysts"
	StageDebate          = "investment_debate"
	StageResearchManager = "research_manager"
	StageTrader          = "trader"
	StageRiskDebate      = "risk_debate"
	StageRiskManager     = "risk_manager"
	StageSignal          = "signal_extraction"
)

// AnalystStage returns the trace stage name for one analyst role.
func AnalystStage(role string) string { return "analyst." + role }

// Orchestrator runs the full pipeline for one (ticker, date) request.
type Orchestrator struct {
	cfg *config.Config

	analysts        []*agents.Analyst
	debate          *InvestmentDebate
	researchManager *agents.ResearchManager
	trader          *agents.Trader
	riskDebate      *RiskDebate
	riskManager     *agents.RiskManager
	extractor       *processing.SignalExtractor

	logger *zap.Logger
}

// New assembles the pipeline. quick serves analysts, researchers, the trader
// and the risk debaters; deep serves the two manager judgments. policy may
// be nil for the default run-to-cap behavior.
func New(cfg *config.Config, quick, deep llm.Client, toolkit dataflows.Toolkit,
	mem *memory.Memory, policy ConvergencePolicy, logger *zap.Logger) *Orchestrator {

	if logger == nil {
		logger = zap.NewNop()
	}

	analysts := make([]*agents.Analyst, 0, len(models.AnalystRoles()))
	for _, role := range models.AnalystRoles() {
		analysts = append(analysts, agents.NewAnalyst(role, quick, toolkit, logger))
	}

	bull := agents.NewBullResearcher(quick, mem, cfg.RetrievalK, logger)
	bear := agents.NewBearResearcher(quick, mem, cfg.RetrievalK, logger)

	return &Orchestrator{
		cfg:             cfg,
		analysts:        analysts,
		debate:          NewInvestmentDebate(bull, bear, policy, cfg.MaxDebateRounds),
		researchManager: agents.NewResearchManager(deep, mem, cfg.RetrievalK, logger),
		trader:          agents.NewTrader(quick, mem, cfg.RetrievalK, logger),
		riskDebate: NewRiskDebate(
			agents.NewAggressiveDebater(quick, logger),
			agents.NewConservativeDebater(quick, logger),
			agents.NewNeutralDebater(quick, logger),
			policy, cfg.MaxRiskDiscussRounds),
		riskManager: agents.NewRiskManager(deep, mem, cfg.RetrievalK, logger),
		extractor:   processing.NewSignalExtractor(logger),
		logger:      logger,
	}
}

// RunResult is everything one run produced: the final state, the normalized
// signal and decision, and the tracer holding the audit record.
type RunResult struct {
	RunID    string
	State    models.StateSnapshot
	Signal   *models.TradingSignal
	Decision *models.TradingDecision
	Tracer   *trace.Tracer
}

// Run executes the pipeline for ticker on tradeDate (YYYY-MM-DD). Sinks
// receive trace steps live. On stage failure the run stops; the partial
// state and trace are still returned with the error so the failure can be
// audited.
func (o *Orchestrator) Run(ctx context.Context, ticker, tradeDate string, sinks ...trace.Sink) (*RunResult, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if err := dataflows.ValidateSymbol(ticker); err != nil {
		return nil, models.Permanent("run", err)
	}

	runID := uuid.NewString()
	tracer := trace.New(runID, o.logger, sinks...)
	state := models.NewAnalysisState(ticker, tradeDate, runID)
	result := &RunResult{RunID: runID, Tracer: tracer}

	if o.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.RunTimeout)
		defer cancel()
	}

	o.logger.Info("analysis run starting",
		zap.String("run_id", runID),
		zap.String("ticker", ticker),
		zap.String("trade_date", tradeDate))

	err := o.pipeline(ctx, state, tracer, result)
	result.State = state.Snapshot()
	if err != nil {
		return result, err
	}

	o.logger.Info("analysis run complete",
		zap.String("run_id", runID),
		zap.String("action", string(result.Signal.Action)))
	return result, nil
}

func (o *Orchestrator) pipeline(ctx context.Context, state *models.AnalysisState, tracer *trace.Tracer, result *RunResult) error {
	if err := o.runAnalysts(ctx, state, tracer); err != nil {
		return err
	}

	if err := o.stage(tracer, StageDebate, fmt.Sprintf("bull/bear, max %d rounds", o.cfg.MaxDebateRounds), func() error {
		return o.debate.Run(ctx, state, func(msg string) { tracer.Warn(StageDebate, msg) })
	}); err != nil {
		return err
	}

	if err := o.stage(tracer, StageResearchManager, "judging debate", func() error {
		degraded, err := o.researchManager.Decide(ctx, state)
		if degraded {
			tracer.Warn(StageResearchManager, "memory retrieval degraded, judging without lessons")
		}
		return err
	}); err != nil {
		return err
	}

	if err := o.stage(tracer, StageTrader, "drafting trade proposal", func() error {
		degraded, err := o.trader.Plan(ctx, state)
		if degraded {
			tracer.Warn(StageTrader, "memory retrieval degraded, planning without lessons")
		}
		return err
	}); err != nil {
		return err
	}

	if err := o.stage(tracer, StageRiskDebate, fmt.Sprintf("three-way, max %d rounds", o.cfg.MaxRiskDiscussRounds), func() error {
		return o.riskDebate.Run(ctx, state)
	}); err != nil {
		return err
	}

	if err := o.stage(tracer, StageRiskManager, "binding decision", func() error {
		degraded, err := o.riskManager.Decide(ctx, state)
		if degraded {
			tracer.Warn(StageRiskManager, "memory retrieval degraded, judging without lessons")
		}
		return err
	}); err != nil {
		return err
	}

	return o.stage(tracer, StageSignal, "extracting signal", func() error {
		decision, err := state.FinalDecision()
		if err != nil {
			return err
		}
		signal := o.extractor.Extract(decision)
		if signal.LowConfidence {
			tracer.Warn(StageSignal, "no explicit decision found, defaulted to HOLD")
		}
		if err := state.SetSignal(signal); err != nil {
			return err
		}
		result.Signal = signal
		result.Decision = &models.TradingDecision{
			Symbol:     state.Ticker,
			Action:     signal.Action,
			Confidence: signal.Confidence,
			Reasoning:  signal.Reasoning,
			TradeDate:  state.TradeDate,
		}
		return nil
	})
}

// runAnalysts fans the four analysts out concurrently and joins before any
// downstream stage may start. A plain errgroup (no shared cancellation) lets
// the healthy analysts finish even when one fails, so the trace records
// every outcome.
func (o *Orchestrator) runAnalysts(ctx context.Context, state *models.AnalysisState, tracer *trace.Tracer) error {
	tracer.StageStarted(StageAnalysts, fmt.Sprintf("fanning out %d analysts", len(o.analysts)))

	var g errgroup.Group
	for _, analyst := range o.analysts {
		analyst := analyst
		g.Go(func() error {
			stage := AnalystStage(analyst.Role())
			tracer.StageStarted(stage, "")
			provenance, err := analyst.Analyze(ctx, state)
			if err != nil {
				tracer.StageFailed(stage, err)
				return err
			}
			// The audit record must show whether this report came from
			// live, cached or fallback data.
			tracer.StageSucceeded(stage, "data: "+string(provenance))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		joined := fmt.Errorf("analyst stage incomplete: %w", err)
		tracer.StageFailed(StageAnalysts, joined)
		return joined
	}

	tracer.StageSucceeded(StageAnalysts, "all reports in")
	return nil
}

func (o *Orchestrator) stage(tracer *trace.Tracer, name, summary string, fn func() error) error {
	tracer.StageStarted(name, summary)
	if err := fn(); err != nil {
		tracer.StageFailed(name, err)
		return err
	}
	tracer.StageSucceeded(name, "")
	return nil
}
