package main

import (
	"context"

	"github.com/spf13/cobra"

	"barfeed/internal/marketdata/csvfile"
	sqlitestore "barfeed/internal/store/sqlite"
)

type importOpts struct {
	datasrc string
	sqlite  string
	symbol  string
	period  string
}

func newImportCmd(a *app) *cobra.Command {
	o := &importOpts{}
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Copy a CSV file of bars into a SQLite database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runImport(cmd.Context(), o)
		},
	}
	cmd.Flags().StringVar(&o.datasrc, "datasrc", "", "CSV file to import")
	cmd.Flags().StringVar(&o.sqlite, "sqlite", "", "target database; defaults to SQLITE_PATH")
	cmd.Flags().StringVar(&o.symbol, "symbol", "", "symbol to store the bars under; defaults to FEED_SYMBOL")
	cmd.Flags().StringVar(&o.period, "period", "", "period to store the bars under; defaults to FEED_PERIOD")
	_ = cmd.MarkFlagRequired("datasrc")
	return cmd
}

func (a *app) runImport(ctx context.Context, o *importOpts) error {
	period, err := resolvePeriod(o.period, a.cfg.Period)
	if err != nil {
		return err
	}
	symbol := firstNonEmpty(o.symbol, a.cfg.Symbol)
	path := firstNonEmpty(o.sqlite, a.cfg.SQLitePath)

	src := csvfile.NewReader(o.datasrc)
	bars, err := src.Load(ctx)
	if err != nil {
		return err
	}

	w, err := sqlitestore.NewWriter(sqlitestore.WriterConfig{DBPath: path})
	if err != nil {
		return err
	}
	defer w.Close()

	n, err := w.WriteBars(ctx, symbol, period, bars)
	if err != nil {
		return err
	}
	a.log.Info("import finished",
		"datasrc", o.datasrc,
		"sqlite", path,
		"symbol", symbol,
		"period", period,
		"written", n,
		"skipped", src.Skipped())
	return nil
}
