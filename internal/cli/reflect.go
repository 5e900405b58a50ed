package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"tradecouncil/internal/llm"
	"tradecouncil/internal/reflection"
	"tradecouncil/internal/storage"
)

type reflectOptions struct {
	ticker  string
	date    string
	outcome string
	debug   bool
}

func newReflectCmd() *cobra.Command {
	opts := &reflectOptions{}

	cmd := &cobra.Command{
		Use:   "reflect",
		Short: "Review a past run against its realized outcome and store lessons",
		Long: `Reflect loads a persisted run, reviews each role's contribution against
the realized outcome you provide, and writes the distilled lessons back into
that role's memory. Future runs retrieve those lessons when facing similar
situations.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReflect(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ticker, "ticker", "t", "", "stock symbol of the past run")
	cmd.Flags().StringVarP(&opts.date, "date", "d", "", "trade date of the past run (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&opts.outcome, "outcome", "o", "", "realized outcome, e.g. \"+4.2% over 7 trading days\"")
	cmd.Flags().BoolVar(&opts.debug, "debug", false, "verbose logging")

	return cmd
}

func runReflect(cmd *cobra.Command, opts *reflectOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if opts.debug {
		cfg.Debug = true
	}

	logger, err := newLogger(cfg.Debug)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if opts.ticker == "" || opts.date == "" || opts.outcome == "" {
		if err := promptForReflection(opts); err != nil {
			return err
		}
	}

	record, err := storage.FindRun(cfg.ResultsDir, opts.ticker, opts.date)
	if err != nil {
		return err
	}

	mem, err := openMemory(cfg, false, logger)
	if err != nil {
		return err
	}
	deep, err := llm.NewFromConfig(cmd.Context(), cfg, true, logger)
	if err != nil {
		return err
	}

	reflector := reflection.New(deep, mem, logger)
	if err := reflector.Reflect(cmd.Context(), record.State, opts.outcome); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "lessons stored for %s on %s\n", record.State.Ticker, record.State.TradeDate)
	return nil
}
