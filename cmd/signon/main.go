package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/platinummonkey/signon/pkg/cli"
	"github.com/platinummonkey/signon/pkg/config"
	"github.com/platinummonkey/signon/pkg/observability"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string) int {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	logger := observability.NewLogger(cfg.Observability.Level(), os.Stderr).
		WithField("version", version)
	ctx = observability.WithLogger(ctx, logger)

	env := &cli.Env{
		Config: cfg,
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}

	if cfg.Observability.MetricsEnabled {
		registry := prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		env.Registry = registry
		env.Metrics = observability.NewMetrics(registry)
	}

	shutdown := observability.NewShutdownManager(logger, 5*time.Second)
	defer shutdown.Shutdown(ctx)

	tp, err := observability.InitTracing(ctx, cfg.Observability.Tracing(version), logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if tp != nil {
		env.TracerProvider = tp
		shutdown.Register("tracing", func(ctx context.Context) error {
			return observability.ShutdownTracing(ctx, tp, logger)
		})
	}

	if err := cli.NewRootCommand(env).Execute(ctx, args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
