package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"github.com/vango-dev/vroute/internal/errors"
	"github.com/vango-dev/vroute/pkg/inspect"
	"github.com/vango-dev/vroute/pkg/router"
	"github.com/vango-dev/vroute/pkg/telemetry"
)

func serveCmd(g *globals) *cobra.Command {
	var (
		addr  string
		start string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the route inspector",
		Long: `Start an HTTP server that lists, matches and resolves the routes of
the manifest, drives navigation and streams the current route over a
WebSocket at /ws.

Examples:
  vroute serve
  vroute serve --addr=0.0.0.0:7070 --start=/users`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, g, addr, start)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from the manifest)")
	cmd.Flags().StringVar(&start, "start", "", "URL of the initial navigation")

	return cmd
}

func runServe(ctx context.Context, g *globals, addr, start string) error {
	logger := g.logger(os.Stderr)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	observer := telemetry.Multi(
		telemetry.NewMetrics(telemetry.WithRegistry(reg)),
		telemetry.NewTracing(telemetry.WithTracerProvider(otel.GetTracerProvider())),
	)

	cfg, r, err := g.load(ctx, logger, router.WithObserver(observer))
	if err != nil {
		return err
	}
	if addr == "" {
		addr = cfg.Inspect.Addr
	}

	if start != "" {
		if _, err := r.Start(ctx, start); err != nil {
			return err
		}
	}

	opts := []inspect.Option{inspect.WithLogger(logger)}
	if cfg.Inspect.MetricsEnabled() {
		opts = append(opts, inspect.WithGatherer(reg))
	}
	srv := inspect.New(r, opts...)
	defer srv.Close()

	fmt.Fprintf(os.Stderr, "  Inspecting %d routes at http://%s\n", len(r.Routes()), addr)
	if err := srv.ListenAndServe(ctx, addr); err != nil {
		return errors.New("E141").Wrap(err)
	}
	return nil
}
