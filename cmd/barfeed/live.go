package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"barfeed/internal/marketdata/ws"
	"barfeed/internal/metrics"
	"barfeed/internal/model"
	sqlitestore "barfeed/internal/store/sqlite"
)

type liveOpts struct {
	url    string
	apiKey string
	symbol string
	period string
	record bool
}

func newLiveCmd(a *app) *cobra.Command {
	o := &liveOpts{}
	cmd := &cobra.Command{
		Use:   "live",
		Short: "Stream trades from a websocket feed through the pipeline",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runLive(cmd.Context(), o)
		},
	}
	cmd.Flags().StringVar(&o.url, "url", "", "feed URL; defaults to FEED_URL")
	cmd.Flags().StringVar(&o.apiKey, "api-key", "", "feed API key; defaults to FEED_API_KEY")
	cmd.Flags().StringVar(&o.symbol, "symbol", "", "symbol to subscribe to")
	cmd.Flags().StringVar(&o.period, "period", "", "period to store trades under")
	cmd.Flags().BoolVar(&o.record, "record", false, "record every bar to SQLITE_PATH")
	return cmd
}

func (a *app) runLive(ctx context.Context, o *liveOpts) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := a.newRuntime("live")
	if err != nil {
		return err
	}
	defer rt.close()

	// Flags win, then the first strategy, then the environment.
	symbol, period := a.cfg.Symbol, a.cfg.Period
	if s := rt.primary(); s != nil {
		symbol, period = s.Symbol(), s.Period()
	}
	symbol = firstNonEmpty(o.symbol, symbol)
	if period, err = resolvePeriod(o.period, period); err != nil {
		return err
	}

	adapter, err := ws.New(ws.Config{
		URL:    firstNonEmpty(o.url, a.cfg.FeedURL),
		APIKey: firstNonEmpty(o.apiKey, a.cfg.FeedAPIKey),
		Symbol: symbol,
		Period: period,
	})
	if err != nil {
		return err
	}
	adapter.OnConnect = func() {
		rt.metrics.FeedConnected.Set(1)
		rt.health.SetFeedConnected(true)
	}
	adapter.OnDisconnect = func(error) {
		rt.metrics.FeedConnected.Set(0)
		rt.metrics.FeedDisconnects.Inc()
		rt.health.SetFeedConnected(false)
	}
	adapter.OnMalformed = func(error) {
		rt.metrics.MalformedRecords.WithLabelValues("ws").Inc()
	}
	adapter.OnTrade = func(ws.Trade) {
		rt.metrics.TradesReceived.Inc()
	}

	if err := a.attachRedis(ctx, rt, symbol); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	if o.record {
		w, err := sqlitestore.NewWriter(sqlitestore.WriterConfig{DBPath: a.cfg.SQLitePath})
		if err != nil {
			return err
		}
		rt.closers = append(rt.closers, w.Close)
		rt.health.SetSQLiteEnabled(true)

		ticks := make(chan model.Tick, 5000)
		rt.pipe.Subscribe("sqlite", recorder(ticks, a.log))
		g.Go(func() error {
			w.Run(ctx, symbol, ticks)
			return nil
		})
		rt.sqlDB = w.DB()
	}

	if rt.redis != nil || rt.sqlDB != nil {
		g.Go(func() error {
			rt.health.RunLivenessChecker(ctx, rt.redisClient(), rt.sqlDB, 15*time.Second)
			return nil
		})
	}

	if a.cfg.MetricsAddr != "" {
		srv := metrics.NewServer(a.cfg.MetricsAddr, rt.health, rt.reg)
		g.Go(func() error { return srv.Run(ctx) })
	}

	g.Go(func() error {
		a.log.Info("connecting to feed", "symbol", symbol, "period", period)
		err := adapter.Run(ctx, rt.pipe)
		// The feed ending stops the rest of the group.
		stop()
		return err
	})

	err = g.Wait()
	bars, _ := rt.pipe.All(period)
	a.log.Info("live session ended", "bars", len(bars), "status", rt.health.Status())
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
