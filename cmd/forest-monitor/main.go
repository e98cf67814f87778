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

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/andreeap/go-forest-watch/internal/alerts"
	"github.com/andreeap/go-forest-watch/internal/api"
	"github.com/andreeap/go-forest-watch/internal/config"
	"github.com/andreeap/go-forest-watch/internal/evidence"
	"github.com/andreeap/go-forest-watch/internal/imagery"
	"github.com/andreeap/go-forest-watch/internal/ledger"
	"github.com/andreeap/go-forest-watch/internal/logging"
	"github.com/andreeap/go-forest-watch/internal/metrics"
	"github.com/andreeap/go-forest-watch/internal/monitor"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logging.Setup(cfg.Logging.Level)

	regions, err := config.LoadRegions(cfg.Monitor.RegionsPath)
	if err != nil {
		logging.Fatalf("Failed to load regions: %v", err)
	}
	slog.Info("monitor starting", "regions", len(regions), "interval", cfg.Monitor.Interval)

	store, err := alerts.NewSQLiteStore(cfg.DB.Path)
	if err != nil {
		logging.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	reg := prometheus.NewRegistry()
	if err := metrics.Register(reg); err != nil {
		logging.Fatalf("Failed to register metrics: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// External collaborators. Each degrades on missing credentials rather
	// than failing startup.
	fetcher := imagery.NewFetcher(imagery.Config{
		BaseURL:      cfg.Imagery.BaseURL,
		ClientID:     cfg.Imagery.ClientID,
		ClientSecret: cfg.Imagery.ClientSecret,
		Timeout:      cfg.Imagery.Timeout,
	})
	if !fetcher.Configured() {
		slog.Warn("imagery credentials missing, all runs will abort on fetch")
	}

	publisher := evidence.NewPublisher(evidence.Config{
		BaseURL:   cfg.Evidence.BaseURL,
		APIKey:    cfg.Evidence.APIKey,
		SecretKey: cfg.Evidence.SecretKey,
		Timeout:   cfg.Evidence.Timeout,
	})
	if !publisher.Configured() {
		slog.Warn("pinning credentials missing, evidence publication disabled")
	}

	ledgerClient := ledger.NewClient(ledger.Config{
		GatewayURL:      cfg.Ledger.GatewayURL,
		SigningKey:      cfg.Ledger.SigningKey,
		ReporterAddress: cfg.Ledger.ReporterAddress,
		Timeout:         cfg.Ledger.Timeout,
	})
	if !ledgerClient.CanWrite() {
		slog.Warn("ledger signing key missing, events will not be notarized")
	}

	notifier := alerts.NewNotifier(cfg.Alerts.CallbackURL, 10*time.Second)
	dispatcher := alerts.NewDispatcher(notifier, cfg.Alerts.Workers, cfg.Alerts.BufferSize)
	dispatcher.Start(ctx)

	orch := monitor.NewOrchestrator(fetcher, publisher, ledgerClient, dispatcher, monitor.Params{
		ChangeThreshold:     cfg.Monitor.ChangeThreshold,
		SignificancePercent: cfg.Monitor.SignificancePercent,
		ToleranceDegrees:    cfg.Monitor.ToleranceDegrees,
	})

	sched := monitor.NewScheduler(orch, store, regions, cfg.Monitor.Interval, cfg.Monitor.LookbackDays)
	sched.Start(ctx)

	// Dashboard router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
	}))
	router.Use(api.RateLimitMiddleware(5))

	handler := api.NewHandler(store)
	handler.RegisterRoutes(router, reg)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	go func() {
		slog.Info("dashboard listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down...")

	cancel()
	sched.Stop()
	dispatcher.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
}
