// Package observability provides structured logging, Prometheus metrics,
// OpenTelemetry tracing, health checks and graceful shutdown.
//
// # Structured Logging
//
// Create logger:
//
//	logger := observability.NewLogger(observability.InfoLevel, os.Stderr)
//	logger.WithField("strategy", "live").Info("Authentication strategy selected")
//
// Carry it in a context:
//
//	ctx = observability.WithLogger(ctx, logger)
//	observability.FromContext(ctx).WithError(err).Warn("Sign-out failed")
//
// # Prometheus Metrics
//
//	registry := prometheus.NewRegistry()
//	metrics := observability.NewMetrics(registry)
//	metrics.RecordAuthOperation("sign_out", "live", elapsed, err)
//	router.Handle("/metrics", observability.MetricsHandler(registry))
//
// Recorders are no-ops on a nil *Metrics.
//
// # OpenTelemetry
//
//	tp, err := observability.InitTracing(ctx, observability.TracingConfig{
//		Enabled:     true,
//		Endpoint:    "otel-collector:4317",
//		ServiceName: "signon",
//	}, logger)
//	defer observability.ShutdownTracing(ctx, tp, logger)
//
// # Health Checks
//
//	checker := observability.NewHealthChecker(version)
//	checker.AddCheck("redis", true, observability.RedisCheck(client))
//	status := checker.Check(ctx)
//
// # Related Packages
//
//   - pkg/config: Observability configuration
//   - pkg/auth: Records facade spans and metrics
package observability
