package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	httpadapter "github.com/kirillkom/docuscan/internal/adapters/http"
	"github.com/kirillkom/docuscan/internal/bootstrap"
	"github.com/kirillkom/docuscan/internal/config"
	"github.com/kirillkom/docuscan/internal/observability/logging"
	"github.com/kirillkom/docuscan/internal/observability/metrics"
)

const serviceName = "api"

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

	httpMetrics := metrics.NewHTTPServerMetrics(serviceName)
	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{
		Role:       bootstrap.RoleAPI,
		Logger:     logger,
		Registerer: httpMetrics.Registry(),
	})
	if err != nil {
		logger.Fatal("bootstrap_failed", zap.Error(err))
	}
	defer app.Close()

	syncDone := make(chan struct{})
	go func() {
		defer close(syncDone)
		if err := app.SyncIndex(ctx); err != nil {
			logger.Error("index_sync_failed", zap.Error(err))
		}
	}()

	router := httpadapter.NewRouter(app.IngestUC, app.QueryUC, app.ExportUC, app.Classifier, httpadapter.Options{
		MaxUploadBytes:   cfg.HTTP.MaxUploadBytes,
		RateLimitRPS:     cfg.HTTP.RateLimitRPS,
		RateLimitBurst:   cfg.HTTP.RateLimitBurst,
		MaxInFlight:      cfg.HTTP.MaxInFlight,
		BackpressureWait: cfg.HTTP.BackpressureWait,
		Metrics:          httpMetrics,
		Logger:           logger,
	}).Handler()
	server := &http.Server{
		Addr:              ":" + cfg.HTTP.Port,
		Handler:           router,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("api_listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("api_server_failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("api_shutdown_failed", zap.Error(err))
	}
	<-syncDone
	logger.Info("api_stopped")
}
