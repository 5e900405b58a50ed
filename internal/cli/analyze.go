package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tradecouncil/internal/config"
	"tradecouncil/internal/dataflows"
	"tradecouncil/internal/display"
	"tradecouncil/internal/graph"
	"tradecouncil/internal/llm"
	"tradecouncil/internal/memory"
	"tradecouncil/internal/storage"
)

type analyzeOptions struct {
	ticker  string
	date    string
	offline bool
	rounds  int
	debug   bool
}

func newAnalyzeCmd() *cobra.Command {
	opts := &analyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run the full analysis pipeline for one ticker and date",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ticker, "ticker", "t", "", "stock symbol to analyze")
	cmd.Flags().StringVarP(&opts.date, "date", "d", "", "trade date (YYYY-MM-DD, default today)")
	cmd.Flags().BoolVar(&opts.offline, "offline", false, "use canned fixture data instead of live sources")
	cmd.Flags().IntVar(&opts.rounds, "rounds", 0, "override max debate rounds")
	cmd.Flags().BoolVar(&opts.debug, "debug", false, "verbose logging")

	return cmd
}

func runAnalyze(cmd *cobra.Command, opts *analyzeOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if opts.rounds > 0 {
		cfg.MaxDebateRounds = opts.rounds
		cfg.MaxRiskDiscussRounds = opts.rounds
	}
	if opts.debug {
		cfg.Debug = true
	}

	logger, err := newLogger(cfg.Debug)
	if err != nil {
		return err
	}
	defer logger.Sync()

	display.Banner(cmd.OutOrStdout())

	if opts.ticker == "" || opts.date == "" {
		if err := promptForRun(opts); err != nil {
			return err
		}
	}
	if opts.date == "" {
		opts.date = time.Now().Format("2006-01-02")
	}
	if _, err := time.Parse("2006-01-02", opts.date); err != nil {
		return fmt.Errorf("invalid date %q, want YYYY-MM-DD", opts.date)
	}

	orchestrator, err := buildPipeline(cmd, cfg, opts.offline, logger)
	if err != nil {
		return err
	}

	tracePath := filepath.Join(cfg.ResultsDir, "trace", fmt.Sprintf("%s_%s.jsonl", opts.ticker, opts.date))
	fileSink, err := storage.NewTraceFileSink(tracePath)
	if err != nil {
		return err
	}
	defer fileSink.Close()

	result, runErr := orchestrator.Run(cmd.Context(), opts.ticker, opts.date,
		display.NewProgressSink(cmd.OutOrStdout()), fileSink)
	if runErr != nil && result == nil {
		return runErr
	}

	recorder := storage.NewRecorder(cfg.ResultsDir, logger)
	runDir, saveErr := recorder.SaveRun(result.State, result.Tracer, result.Decision)
	if saveErr != nil {
		logger.Warn("failed to persist run", zap.Error(saveErr))
	}

	if runErr != nil {
		return fmt.Errorf("analysis failed: %w", runErr)
	}

	fmt.Fprintln(cmd.OutOrStdout())
	display.Result(cmd.OutOrStdout(), result.State, result.Signal, result.Tracer.Summarize(), runDir)
	return nil
}

func openMemory(cfg *config.Config, offline bool, logger *zap.Logger) (*memory.Memory, error) {
	embed := memory.NewLocalEmbedding()
	if cfg.OnlineTools && !offline && cfg.OpenAIAPIKey != "" {
		embed = memory.NewOpenAIEmbedding(cfg.OpenAIAPIKey)
	}
	return memory.New(cfg.MemoryDir, embed, logger)
}

func buildPipeline(cmd *cobra.Command, cfg *config.Config, offline bool, logger *zap.Logger) (*graph.Orchestrator, error) {
	mem, err := openMemory(cfg, offline, logger)
	if err != nil {
		return nil, err
	}

	var toolkit dataflows.Toolkit
	if cfg.OnlineTools && !offline {
		toolkit = dataflows.NewLiveToolkit(cfg.FinnhubAPIKey, cfg.DataCacheDir, cfg.CacheEnabled, logger)
	} else {
		fmt.Fprintln(os.Stderr, "running offline: analysis uses fixture data")
		toolkit = dataflows.NewFixtureToolkit()
	}

	quick, err := llm.NewFromConfig(cmd.Context(), cfg, false, logger)
	if err != nil {
		return nil, err
	}
	deep, err := llm.NewFromConfig(cmd.Context(), cfg, true, logger)
	if err != nil {
		return nil, err
	}

	return graph.New(cfg, quick, deep, toolkit, mem, nil, logger), nil
}
