package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"barfeed/config"
	"barfeed/internal/logger"
	"barfeed/internal/model"
)

// app carries the configuration shared by every subcommand.
type app struct {
	cfg *config.Config
	log *slog.Logger

	logLevel   string
	strategies string
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "barfeed",
		Short: "OHLCV bar store and indicator runner",

		SilenceUsage: true,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			a.cfg = cfg
			level := cfg.LogLevel
			if a.logLevel != "" {
				level = a.logLevel
			}
			a.log = logger.Init("barfeed", logger.ParseLevel(level)).With("command", cmd.Name())
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (DEBUG, INFO, WARN, ERROR); overrides LOG_LEVEL")
	root.PersistentFlags().StringVar(&a.strategies, "strategy", "", "comma-separated strategies to attach; overrides STRATEGIES")

	root.AddCommand(newReplayCmd(a), newLiveCmd(a), newImportCmd(a))
	return root
}

// strategyNames prefers the --strategy flag over STRATEGIES.
func (a *app) strategyNames() []string {
	if a.strategies != "" {
		return config.SplitList(a.strategies)
	}
	return a.cfg.StrategyNames()
}

// period resolves flag, then fallback.
func resolvePeriod(flag string, fallback model.Period) (model.Period, error) {
	if flag == "" {
		return fallback, nil
	}
	p, err := model.ParsePeriod(flag)
	if err != nil {
		return "", fmt.Errorf("--period: %w", err)
	}
	return p, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
