package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kirillkom/academic-standing/internal/adapters/worker"
	"github.com/kirillkom/academic-standing/internal/bootstrap"
	"github.com/kirillkom/academic-standing/internal/config"
	"github.com/kirillkom/academic-standing/internal/observability/logging"
	"github.com/kirillkom/academic-standing/internal/observability/metrics"
)

const (
	serviceName  = "standing-worker"
	batchTimeout = 2 * time.Minute
)

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger(serviceName, cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	workerMetrics := metrics.NewWorkerMetrics(serviceName)
	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{
		Observer:     workerMetrics.Standing(),
		RequireQueue: true,
	})
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	mux := http.NewServeMux()
	mux.Handle("/metrics", workerMetrics.Handler())
	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		slog.Info("worker_metrics_listening", "addr", metricsServer.Addr)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("worker_metrics_failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	handler := worker.NewHandler(app.ProcessUC, workerMetrics, batchTimeout)
	slog.Info("worker_subscribed", "subject", cfg.StandingNATSSubject, "queue_group", cfg.NATSQueueGroup)
	if err := app.Queue.ServeBatches(ctx, handler.Handle); err != nil {
		slog.Error("worker_serve_failed", "error", err)
	}
}
