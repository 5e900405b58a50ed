// Package cli wires the command-line surface: the analyze pipeline command
// and the reflect command that feeds realized outcomes back into memory.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tradecouncil/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "tradecouncil",
	Short: "Multi-agent trading analysis",
	Long: `TradeCouncil runs a team of specialized agents over one stock and one
trade date: four analysts gather evidence, bull and bear researchers debate
it, managers judge, a trader proposes the position and a risk debate refines
it into a final BUY/SELL/HOLD signal. Every step is recorded in an audit
trace, and realized outcomes can be reflected back into per-role memory.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI.
func Execute() {
	rootCmd.AddCommand(newAnalyzeCmd())
	rootCmd.AddCommand(newReflectCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}
