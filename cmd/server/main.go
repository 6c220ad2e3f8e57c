package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/kevin07696/recharge-gateway/internal/adapters/postgres"
	"github.com/kevin07696/recharge-gateway/internal/auth"
	"github.com/kevin07696/recharge-gateway/internal/bootstrap"
	"github.com/kevin07696/recharge-gateway/internal/config"
	"github.com/kevin07696/recharge-gateway/internal/db/migrations"
	"github.com/kevin07696/recharge-gateway/internal/handlers"
	cronHandler "github.com/kevin07696/recharge-gateway/internal/handlers/cron"
	rechargeHandler "github.com/kevin07696/recharge-gateway/internal/handlers/recharge"
	reportHandler "github.com/kevin07696/recharge-gateway/internal/handlers/report"
	"github.com/kevin07696/recharge-gateway/internal/middleware"
	"github.com/kevin07696/recharge-gateway/internal/services/account"
	"github.com/kevin07696/recharge-gateway/internal/services/purchase"
	"github.com/kevin07696/recharge-gateway/internal/services/report"
	pkgmw "github.com/kevin07696/recharge-gateway/pkg/middleware"
	"github.com/kevin07696/recharge-gateway/pkg/observability"
	"github.com/kevin07696/recharge-gateway/pkg/shutdown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := bootstrap.NewLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Recharge gateway stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.Info("Starting recharge gateway",
		zap.String("environment", cfg.Server.Environment),
		zap.Int("port", cfg.Server.Port),
		zap.Int("metrics_port", cfg.Server.MetricsPort),
	)

	if cfg.Database.RunMigrations {
		if err := migrations.Up(cfg.Database.ConnectionString()); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		logger.Info("Database migrations applied")
	}

	db, err := bootstrap.Database(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	db.StartPoolMonitoring(ctx, 30*time.Second)

	shutdownMgr := shutdown.NewManager(logger, cfg.Server.ShutdownTimeout)
	// Registered first so it closes last
	shutdownMgr.RegisterNoErr("database", db.Close)

	carrierDeps, err := bootstrap.NewCarrier(ctx, cfg, logger)
	if err != nil {
		_ = shutdownMgr.Shutdown()
		return fmt.Errorf("carrier: %w", err)
	}
	shutdownMgr.RegisterNoErr("token-store", func() { _ = carrierDeps.Close() })

	ledger := postgres.NewLedgerRepository(db.Pool(), db, logger)
	offers := postgres.NewOfferRepository(db.Pool(), db)

	timeouts := bootstrap.Timeouts(cfg)
	purchases := purchase.NewService(offers, carrierDeps.Gateway, carrierDeps.Tokens, ledger, logger,
		purchase.WithTimeouts(timeouts),
	)
	accounts := account.NewService(carrierDeps.Gateway, carrierDeps.Tokens, logger)

	sinks, err := bootstrap.ReportSinks(ctx, cfg, logger)
	if err != nil {
		_ = shutdownMgr.Shutdown()
		return fmt.Errorf("report sinks: %w", err)
	}
	generator := report.NewGenerator(ledger, bootstrap.ReportConfig(cfg), logger, sinks...)
	job := report.NewJob(generator, logger,
		report.WithRetrySchedule(cfg.Report.RetryDelays),
		report.WithAttemptTimeouts(timeouts),
	)

	if cfg.Report.SchedulerEnabled {
		scheduler := report.NewScheduler(job, cfg.Report.ScheduleHour, logger)
		scheduler.Start(ctx)
		shutdownMgr.RegisterNoErr("report-scheduler", scheduler.Stop)
	}

	var validator middleware.TokenValidator
	if cfg.Auth.JWTSecret != "" {
		jwtManager, err := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, time.Hour)
		if err != nil {
			_ = shutdownMgr.Shutdown()
			return fmt.Errorf("jwt: %w", err)
		}
		validator = jwtManager
	} else {
		logger.Warn("JWT_SECRET not set - client authentication is DISABLED")
	}

	var rateLimiter *pkgmw.RateLimiter
	if cfg.Server.RateLimitRPS > 0 {
		rateLimiter = pkgmw.NewRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst)
		shutdownMgr.RegisterNoErr("rate-limiter", rateLimiter.Shutdown)
	}

	router := handlers.NewRouter(handlers.RouterConfig{
		Recharge:      rechargeHandler.NewHandler(purchases, accounts, offers, logger),
		Reports:       reportHandler.NewHandler(generator, logger),
		Cron:          cronHandler.NewReportHandler(job, logger, cfg.Auth.CronSecret),
		Auth:          middleware.NewJWTAuth(validator, logger),
		RateLimiter:   rateLimiter,
		CORSOrigins:   cfg.Server.CORSOrigins,
		IsDevelopment: cfg.IsDevelopment(),
		Logger:        logger,
	})

	healthChecker := observability.NewHealthChecker(db.Pool())
	healthChecker.AddCheck("carrier_breaker", carrierDeps.Gateway.HealthCheck)
	readiness := observability.NewReadiness()
	metricsServer := observability.StartMetricsServer(strconv.Itoa(cfg.Server.MetricsPort), healthChecker, readiness, logger)
	shutdownMgr.Register("metrics-server", func(ctx context.Context) error {
		return observability.ShutdownMetricsServer(ctx, metricsServer)
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      timeouts.WriteTimeout(),
		IdleTimeout:       60 * time.Second,
	}
	shutdownMgr.RegisterHTTPServer("http-server", httpServer)
	// registered last so /ready reports draining before the listener closes
	shutdownMgr.RegisterNoErr("readiness", func() { readiness.SetReady(false) })

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	waitCtx, stopWaiting := context.WithCancel(ctx)
	defer stopWaiting()
	go func() {
		if err, ok := <-serverErr; ok {
			logger.Error("HTTP server failed", zap.Error(err))
			stopWaiting()
		}
	}()

	return shutdownMgr.WaitForShutdown(waitCtx)
}
