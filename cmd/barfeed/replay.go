package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"barfeed/internal/marketdata/csvfile"
	"barfeed/internal/marketdata/replay"
	"barfeed/internal/model"
	sqlitestore "barfeed/internal/store/sqlite"
)

type replayOpts struct {
	datasrc string
	sqlite  string
	symbol  string
	period  string
	delay   time.Duration
}

func newReplayCmd(a *app) *cobra.Command {
	o := &replayOpts{}
	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay a CSV file or SQLite series through the pipeline",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runReplay(cmd.Context(), o)
		},
	}
	cmd.Flags().StringVar(&o.datasrc, "datasrc", "", "CSV file with timestamp,open,high,low,close,volume rows")
	cmd.Flags().StringVar(&o.sqlite, "sqlite", "", "SQLite database to replay instead of a CSV file")
	cmd.Flags().StringVar(&o.symbol, "symbol", "", "symbol to read from SQLite; defaults to FEED_SYMBOL")
	cmd.Flags().StringVar(&o.period, "period", "", "period the bars are stored under; defaults to FEED_PERIOD")
	cmd.Flags().DurationVar(&o.delay, "delay", 0, "pause between bars")
	cmd.MarkFlagsMutuallyExclusive("datasrc", "sqlite")
	cmd.MarkFlagsOneRequired("datasrc", "sqlite")
	return cmd
}

func (a *app) runReplay(ctx context.Context, o *replayOpts) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	period, err := resolvePeriod(o.period, a.cfg.Period)
	if err != nil {
		return err
	}
	rt, err := a.newRuntime("replay")
	if err != nil {
		return err
	}
	defer rt.close()

	symbol := firstNonEmpty(o.symbol, a.cfg.Symbol)
	if err := a.attachRedis(ctx, rt, symbol); err != nil {
		return err
	}

	var loader model.BarLoader
	source := "csv"
	if o.sqlite != "" {
		source = "sqlite"
		r, err := sqlitestore.NewReader(o.sqlite)
		if err != nil {
			return err
		}
		defer r.Close()
		rt.health.SetSQLiteEnabled(true)
		rt.health.CheckSQLite(ctx, r.DB())
		loader = &sqlitestore.Loader{Reader: r, Symbol: symbol, Period: period}
	} else {
		csv := csvfile.NewReader(o.datasrc)
		csv.OnMalformed = func(int, error) {
			rt.metrics.MalformedRecords.WithLabelValues("csv").Inc()
		}
		loader = csv
	}

	replayer := &replay.Replayer{Loader: loader, Period: period, Delay: o.delay}
	res, err := replayer.Run(ctx, rt.pipe)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	a.log.Info("replay finished",
		"source", source,
		"period", period,
		"loaded", res.Loaded,
		"appended", res.Appended,
		"elapsed", res.Elapsed,
		"status", rt.health.Status())
	return nil
}
