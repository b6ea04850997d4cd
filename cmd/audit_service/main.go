package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chi_middleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	auditHTTP "github.com/relayops/syncaudit/internal/audit_service/adapters/http"
	"github.com/relayops/syncaudit/internal/audit_service/adapters/twilioapi"
	"github.com/relayops/syncaudit/internal/audit_service/app"
	"github.com/relayops/syncaudit/internal/audit_service/domain"
	"github.com/relayops/syncaudit/internal/audit_service/repository/postgres"
	"github.com/relayops/syncaudit/internal/platform/config"
	"github.com/relayops/syncaudit/internal/platform/database"
	"github.com/relayops/syncaudit/internal/platform/logger"
)

const (
	serviceName     = "audit_service"
	shutdownTimeout = 15 * time.Second
)

func main() {
	mainCtx, mainCancel := context.WithCancel(context.Background())
	defer mainCancel()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "service", serviceName, "error", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.LogLevel)
	appLogger = appLogger.With("service", serviceName)
	appLogger.Info("Starting service...")

	appLogger.Info("Configuration loaded",
		"log_level", cfg.LogLevel,
		"postgres_dsn_present", cfg.PostgresDSN != "",
		"twilio_account_sid_present", cfg.TwilioAccountSID != "",
		"main_number", cfg.TwilioMainNumber,
		"channel", cfg.TwilioChannel,
		"audit_cron", cfg.AuditCron,
		"auto_clean", cfg.AuditAutoClean,
	)

	dbPool, err := database.NewDBPool(mainCtx, cfg.PostgresDSN)
	if err != nil {
		appLogger.Error("Failed to initialize database connection pool", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()
	appLogger.Info("Database connection pool initialized")

	numberRepo := postgres.NewPgRelayNumberRepository(dbPool, appLogger)
	serviceRepo := postgres.NewPgMessagingServiceRepository(dbPool, appLogger)
	fetcher := twilioapi.NewFetcher(cfg.TwilioAccountSID, cfg.TwilioAuthToken, appLogger)

	policy := domain.SyncPolicy{
		MainNumber:               cfg.TwilioMainNumber,
		NumberChannel:            cfg.TwilioChannel,
		MainNumberChannel:        cfg.TwilioMainNumberChannel,
		ServiceOptionalCountries: cfg.ServiceOptionalCountries,
	}

	// Checkers are single-use by design: one instance is one point-in-time
	// snapshot of both inventories.
	newChecker := func() *app.SyncChecker {
		return app.NewSyncChecker(numberRepo, serviceRepo, fetcher, policy, appLogger)
	}

	runAudit := func(ctx context.Context) {
		runLogger := appLogger.With("run_id", uuid.New().String())
		checker := newChecker()

		issues, err := checker.Issues(ctx)
		if err != nil {
			runLogger.ErrorContext(ctx, "Reconciliation run failed", "error", err)
			return
		}
		if issues == 0 {
			runLogger.InfoContext(ctx, "Inventories fully synced")
			return
		}
		runLogger.WarnContext(ctx, "Reconciliation found issues", "issues", issues)

		if cfg.AuditAutoClean {
			fixed, err := checker.Clean(ctx)
			if err != nil {
				runLogger.ErrorContext(ctx, "Auto-clean failed", "error", err)
			} else {
				runLogger.InfoContext(ctx, "Auto-clean finished", "fixed", fixed)
			}
		}

		report, err := checker.MarkdownReport(ctx)
		if err != nil {
			runLogger.ErrorContext(ctx, "Failed to render report", "error", err)
			return
		}
		runLogger.InfoContext(ctx, "Reconciliation report", "report", report)
	}

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.AuditCron, func() { runAudit(mainCtx) }); err != nil {
		appLogger.Error("Invalid audit cron expression", "cron", cfg.AuditCron, "error", err)
		os.Exit(1)
	}

	reportHandler := auditHTTP.NewReportHandler(
		func() auditHTTP.SyncAuditor { return newChecker() },
		appLogger,
	)

	router := chi.NewRouter()
	router.Use(chi_middleware.RequestID)
	router.Use(chi_middleware.Recoverer)
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	reportHandler.RegisterRoutes(router)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: router,
	}

	g, gCtx := errgroup.WithContext(mainCtx)

	g.Go(func() error {
		appLogger.Info("HTTP server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		scheduler.Start()
		appLogger.Info("Audit scheduler started", "cron", cfg.AuditCron)
		<-gCtx.Done()
		cronCtx := scheduler.Stop()
		// Let an in-flight audit finish before tearing down the pool.
		select {
		case <-cronCtx.Done():
		case <-time.After(shutdownTimeout):
			appLogger.Warn("Timed out waiting for in-flight audit run")
		}
		return nil
	})

	g.Go(func() error {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		select {
		case sig := <-sigCh:
			appLogger.Info("Received shutdown signal", "signal", sig.String())
			mainCancel()
		case <-gCtx.Done():
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		appLogger.Error("Service exited with error", "error", err)
		os.Exit(1)
	}
	appLogger.Info("Service stopped")
}
