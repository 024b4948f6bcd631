package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"wabridge/internal/config"
	"wabridge/internal/httpapi"
	"wabridge/internal/ingest"
	"wabridge/internal/logging"
	"wabridge/internal/observability"
	"wabridge/internal/store/sqlite"
)

func main() {
	cfg := config.LoadWebhook()
	logging.Init("webhookd", cfg.LogFormat, cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		slog.Error("webhookd db open failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := sqlite.Migrate(ctx, db); err != nil {
		slog.Error("webhookd db migrate failed", "err", err)
		os.Exit(1)
	}

	observability.Register(prometheus.DefaultRegisterer)

	handler := &ingest.Handler{
		Processor:   &ingest.Processor{Store: sqlite.New(db)},
		VerifyToken: cfg.VerifyToken,
	}

	router := mux.NewRouter()
	handler.Register(router)
	router.HandleFunc("/healthz", httpapi.Healthz())
	router.HandleFunc("/readyz", httpapi.Readyz(2*time.Second, httpapi.ReadyzCheck{
		Name:  "sqlite",
		Check: func(c context.Context) error { return db.PingContext(c) },
	}))

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: httpapi.Logging(router),
	}
	metricsSrv := &http.Server{
		Addr:    ":" + cfg.MetricsPort,
		Handler: promhttp.Handler(),
	}

	metricsErrCh := make(chan error, 1)
	go func() {
		slog.Info("webhookd metrics listening", "port", cfg.MetricsPort)
		metricsErrCh <- metricsSrv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigCh:
			slog.Info("webhookd shutdown", "signal", sig.String())
		case err := <-metricsErrCh:
			if err != nil && err != http.ErrServerClosed {
				slog.Error("webhookd metrics server failed", "err", err)
			}
		}
		cancel()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
		_ = metricsSrv.Shutdown(shutdownCtx)
	}()

	slog.Info("webhookd listening", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("webhookd server failed", "err", err)
		os.Exit(1)
	}
}
