package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kirillkom/docuscan/internal/bootstrap"
	"github.com/kirillkom/docuscan/internal/config"
	"github.com/kirillkom/docuscan/internal/observability/logging"
	"github.com/kirillkom/docuscan/internal/observability/metrics"
)

const serviceName = "worker"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(serviceName, cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	workerMetrics := metrics.NewWorkerMetrics(serviceName)
	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{
		Role:       bootstrap.RoleWorker,
		Logger:     logger,
		Registerer: workerMetrics.Registry(),
	})
	if err != nil {
		logger.Fatal("bootstrap_failed", zap.Error(err))
	}
	defer app.Close()

	metricsServer := startMetricsServer(cfg.Worker.MetricsPort, workerMetrics, app, logger)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	logger.Info("worker_subscribed", zap.String("subject", cfg.NATS.Subject))
	err = app.Queue.SubscribeDocumentIngested(ctx, func(handlerCtx context.Context, documentID string) error {
		if doc, err := app.Repo.GetByID(handlerCtx, documentID); err == nil {
			workerMetrics.ObserveQueueLag(doc.CreatedAt)
		}

		processCtx, cancel := context.WithTimeout(handlerCtx, cfg.Worker.ProcessTimeout)
		defer cancel()

		start := time.Now()
		finish := workerMetrics.Track()
		err := app.ProcessUC.ProcessByID(processCtx, documentID)
		outcome := finish(err)
		if err == nil {
			logger.Info("document_processed",
				zap.String("document_id", documentID),
				zap.Duration("duration", time.Since(start)),
			)
		} else {
			logger.Debug("document_outcome", zap.String("document_id", documentID), zap.String("outcome", outcome))
		}
		return err
	})
	if err != nil {
		logger.Fatal("worker_subscribe_failed", zap.Error(err))
	}
	logger.Info("worker_stopped")
}

func startMetricsServer(port string, workerMetrics *metrics.WorkerMetrics, app *bootstrap.App, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", workerMetrics.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		status := http.StatusOK
		open := app.Executor.OpenBreakers()
		if len(open) > 0 {
			status = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]any{"breakers": app.Executor.Snapshot(), "open": open})
	})

	server := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("worker_metrics_listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("worker_metrics_server_failed", zap.Error(err))
		}
	}()
	return server
}
