package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"github.com/rs/cors"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"wabridge/internal/config"
	"wabridge/internal/dispatch"
	"wabridge/internal/httpapi"
	"wabridge/internal/logging"
	"wabridge/internal/observability"
	"wabridge/internal/service"
	"wabridge/internal/store/sqlite"
	"wabridge/internal/whatsapp"
	"wabridge/internal/woo"
)

func main() {
	cfg := config.LoadBridge()
	logging.Init("bridged", cfg.LogFormat, cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		slog.Error("bridged db open failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := sqlite.Migrate(ctx, db); err != nil {
		slog.Error("bridged db migrate failed", "err", err)
		os.Exit(1)
	}
	store := sqlite.New(db)

	observability.Register(prometheus.DefaultRegisterer)

	feed := &woo.Client{
		BaseURL:        cfg.WCBaseURL,
		ConsumerKey:    cfg.WCConsumerKey,
		ConsumerSecret: cfg.WCConsumerSecret,
		HTTP:           &http.Client{Timeout: 10 * time.Second},
	}
	wa := &whatsapp.Client{
		AccessToken: cfg.WAAccessToken,
		PhoneID:     cfg.WAPhoneID,
		BaseURL:     cfg.WABaseURL,
		APIVersion:  cfg.WAAPIVersion,
		HTTP:        &http.Client{Timeout: 30 * time.Second},
	}
	dispatcher := &dispatch.Dispatcher{
		Sender:   wa,
		Attempts: cfg.WARetryAttempts,
		Limiter:  rate.NewLimiter(rate.Limit(cfg.WASendRPS), cfg.WASendBurst),
	}
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "whatsapp",
		MaxRequests: 3,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(c gobreaker.Counts) bool { return c.ConsecutiveFailures >= 5 },
	})

	svc := &service.BridgeService{
		Store:      store,
		Feed:       feed,
		Dispatcher: dispatcher,
		PageSize:   cfg.WCPageSize,
		Breaker:    breaker,
	}

	// Background resync of the first feed page, same cadence as the UI's
	// order-refresh timer.
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.SyncSchedule, func() {
		syncCtx, syncCancel := context.WithTimeout(ctx, time.Minute)
		defer syncCancel()
		orders, err := svc.SyncOrders(syncCtx, 1)
		if err != nil {
			slog.Error("scheduled order sync failed", "err", err)
			return
		}
		slog.Info("scheduled order sync done", "orders", len(orders))
	}); err != nil {
		slog.Error("bridged sync schedule invalid", "schedule", cfg.SyncSchedule, "err", err)
		os.Exit(1)
	}
	scheduler.Start()

	s := httpapi.New()
	api := &httpapi.API{Svc: svc}
	api.Register(s.Mux)

	s.Mux.HandleFunc("/healthz", httpapi.Healthz())
	s.Mux.HandleFunc("/readyz", httpapi.Readyz(2*time.Second, httpapi.ReadyzCheck{
		Name:  "sqlite",
		Check: func(c context.Context) error { return db.PingContext(c) },
	}))

	// The desktop UI is a local browser shell; it needs CORS to talk to us.
	handler := cors.AllowAll().Handler(
		httpapi.Logging(httpapi.Metrics(observability.APIRequests)(s.Mux)))

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		slog.Info("bridged shutdown", "signal", sig.String())
		cancel()
		scheduler.Stop()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("bridged listening", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("bridged server failed", "err", err)
		os.Exit(1)
	}
}
