// Command tradeserver is a local staging feed. It loads a CSV file of bars and
// broadcasts each close as a trade message over a websocket, so barfeed live
// can run without a real feed.
//
// Trade JSON shape matches the live feed:
//
//	{"type":"trade","data":[{"s":"AUDUSD","p":0.6612,"v":120,"t":1704153600000}]}
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"barfeed/internal/logger"
	"barfeed/internal/marketdata/csvfile"
)

func main() {
	if err := newCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newCmd() *cobra.Command {
	var (
		datasrc  string
		addr     string
		symbol   string
		interval time.Duration
		loop     bool
		level    string
	)
	cmd := &cobra.Command{
		Use:          "tradeserver",
		Short:        "Replay a CSV file as websocket trade messages",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger.Init("tradeserver", logger.ParseLevel(level))

			bars, err := csvfile.NewReader(datasrc).Load(cmd.Context())
			if err != nil {
				return err
			}
			srv := newServer(symbol, bars, interval, loop)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, addr, srv)
		},
	}
	cmd.Flags().StringVar(&datasrc, "datasrc", "", "CSV file with timestamp,open,high,low,close,volume rows")
	cmd.Flags().StringVar(&addr, "addr", ":9001", "listen address")
	cmd.Flags().StringVar(&symbol, "symbol", "AUDUSD", "symbol stamped on every trade")
	cmd.Flags().DurationVar(&interval, "interval", 200*time.Millisecond, "pause between trades")
	cmd.Flags().BoolVar(&loop, "loop", false, "start over after the last bar")
	cmd.Flags().StringVar(&level, "log-level", "INFO", "log level")
	_ = cmd.MarkFlagRequired("datasrc")
	return cmd
}

func serve(ctx context.Context, addr string, srv *server) error {
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("listening", "component", "tradeserver", "addr", addr, "ws", "ws://localhost"+addr+"/ws")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		srv.run(ctx)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
