package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/auth"
	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/cache"
	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/config"
	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/healthcheck"
	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/observer"
	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/router"
	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/storage"
	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/upstream"
	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/usecase"
	"gitlab.com/timkado/api/lead-onboarding-gateway/pkg/logger"
	"gitlab.com/timkado/api/lead-onboarding-gateway/pkg/utils"
)

var version = "dev"

func main() {
	// Set timezone to UTC
	time.Local = time.UTC

	// A missing .env is normal outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Printf("Failed to load .env: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.LoadConfig("")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Initialize(cfg.LogLevel); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Log.Fatal("Invalid configuration", zap.Error(err))
	}

	observer.InitMetrics(cfg.Metrics.Enabled)

	logger.Log.Info("Starting Lead Onboarding Gateway",
		zap.String("environment", cfg.Environment),
		zap.String("version", version),
		zap.Int("port", cfg.Server.Port),
		zap.String("path", cfg.Server.Path),
	)

	postgresRepo, err := initPostgresRepo(cfg.Database.PostgresDSN, cfg.Database.PostgresAutoMigrate)
	if err != nil {
		logger.Log.Fatal("Failed to initialize Postgres repository", zap.Error(err))
	}

	onboardingRepo := storage.NewOnboardingRepoAdapter(postgresRepo)
	contactRepo := storage.NewContactFormRepoAdapter(postgresRepo)
	conversionRepo := storage.NewConversionRepoAdapter(postgresRepo)

	conversionWorker, err := usecase.NewConversionWorker(cfg.WorkerPools.Conversion, conversionRepo, logger.Log)
	if err != nil {
		logger.Log.Fatal("Failed to initialize conversion worker pool", zap.Error(err))
	}

	submissions := cache.NewSubmissionCache(cfg.Idempotency.ExpectedSubmissions, cfg.Idempotency.FalsePositiveRate)
	leads := usecase.NewLeadService(onboardingRepo, contactRepo, conversionRepo, submissions, conversionWorker)

	httpClient := upstream.NewHTTPClient(cfg.Upstream.Timeout)
	handlers := &router.Handlers{
		Leads:     leads,
		Siterelic: upstream.NewSiterelicClient(cfg.Upstream.Siterelic.URL, cfg.Upstream.Siterelic.APIKey, httpClient),
		Jenkins:   upstream.NewJenkinsClient(cfg.Upstream.Jenkins.URL, cfg.Upstream.Jenkins.Username, cfg.Upstream.Jenkins.Token, httpClient),
		GoogleDNS: upstream.NewGoogleDNSClient(cfg.Upstream.GoogleDNS.URL, httpClient),
	}
	// Unconfigured relays stay registered and answer as a failed downstream call.
	if cfg.Upstream.Siterelic.URL == "" {
		logger.Log.Warn("Siterelic URL not configured, siterelic requests will fail")
	}
	if cfg.Upstream.Jenkins.URL == "" {
		logger.Log.Warn("Jenkins URL not configured, ansible requests will fail")
	}

	var authenticator router.Authenticator
	if cfg.Admin.Enabled {
		a := auth.NewAuthenticator(cfg.Admin)
		handlers.Auth = a
		authenticator = a
	}

	serviceRouter := router.NewRouter()
	handlers.RegisterAll(serviceRouter)
	logger.Log.Info("Registered services", zap.Strings("services", serviceRouter.Services()))

	var limiter *router.IPRateLimiter
	if cfg.RateLimit.Enabled {
		limiter = router.NewIPRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	}

	proxyServer, err := router.NewServer(cfg, serviceRouter, authenticator, limiter)
	if err != nil {
		logger.Log.Fatal("Failed to build proxy server", zap.Error(err))
	}

	healthServer := healthcheck.NewServer(cfg.Health.Port, postgresRepo, version, logger.Log)
	if cfg.Metrics.Enabled {
		healthServer.RegisterMetricsHandler(promhttp.Handler())
		logger.Log.Info("Metrics endpoint enabled", zap.String("path", "/metrics"), zap.Int("port", cfg.Health.Port))
	} else {
		logger.Log.Info("Metrics endpoint disabled", zap.String("environment", cfg.Environment))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(proxyServer.ListenAndServe)
	g.Go(healthServer.ListenAndServe)
	if limiter != nil {
		g.Go(func() error {
			limiter.Run(gctx)
			return nil
		})
	}

	logger.Log.Info("Health check endpoints available",
		zap.String("health", fmt.Sprintf("http://localhost:%d/health", cfg.Health.Port)),
		zap.String("readiness", fmt.Sprintf("http://localhost:%d/ready", cfg.Health.Port)),
	)

	// Wait for a signal or a server failure
	<-gctx.Done()
	if ctx.Err() != nil {
		logger.Log.Info("Received termination signal")
	} else {
		logger.Log.Error("Server stopped unexpectedly, initiating shutdown")
	}

	shutdownTimeout := cfg.Server.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 30 * time.Second
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	logger.Log.Info("Starting graceful shutdown", zap.Duration("timeout", shutdownTimeout))
	shutdown(shutdownCtx, proxyServer, healthServer, conversionWorker, postgresRepo)

	if err := g.Wait(); err != nil {
		logger.Log.Error("Server error", zap.Error(err))
	}
	logger.Log.Info("Lead Onboarding Gateway shutdown complete")
}

// shutdown stops the HTTP servers first so no new leads arrive, then drains
// the conversion pool and closes the database.
func shutdown(ctx context.Context, proxy *router.Server, health *healthcheck.Server, worker *usecase.ConversionWorker, repo *storage.PostgresRepo) {
	var servers errgroup.Group
	stopComponent(&servers, "proxy server", func() error { return proxy.Shutdown(ctx) })
	stopComponent(&servers, "health check server", func() error { return health.Stop(ctx) })
	_ = servers.Wait()

	var rest errgroup.Group
	stopComponent(&rest, "conversion worker pool", func() error {
		worker.Stop()
		return nil
	})
	_ = rest.Wait()

	waitCh := make(chan struct{})
	go func() {
		logger.Log.Info("[shutdown] Closing PostgreSQL connection")
		if err := repo.Close(ctx); err != nil {
			logger.Log.Error("[shutdown] Failed to close PostgreSQL connection", zap.Error(err))
		}
		close(waitCh)
	}()

	select {
	case <-waitCh:
		logger.Log.Info("[shutdown] All components stopped gracefully")
	case <-ctx.Done():
		logger.Log.Warn("[shutdown] Graceful shutdown timed out, forcing exit")
	}
}

// stopComponent runs stop in g with panic recovery and timing logs.
func stopComponent(g *errgroup.Group, name string, stop func() error) {
	g.Go(func() error {
		done := make(chan struct{})
		utils.SafeGo(func() {
			defer close(done)
			logger.Log.Info("[shutdown] Stopping " + name)
			start := time.Now()
			if err := stop(); err != nil {
				logger.Log.Error("[shutdown] Error stopping "+name, zap.Error(err))
				return
			}
			logger.Log.Info("[shutdown] Stopped "+name, zap.Duration("duration", time.Since(start)))
		}, func(r interface{}, stack []byte) {
			logger.Log.Error("[shutdown] Panic while stopping "+name,
				zap.Any("panic", r),
				zap.ByteString("stack", stack),
			)
			close(done)
		})
		<-done
		return nil
	})
}

// initPostgresRepo opens the database and migrates it when enabled.
func initPostgresRepo(dsn string, autoMigrate bool) (*storage.PostgresRepo, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}

	repo, err := storage.NewPostgresRepo(dsn, autoMigrate)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize postgres repository: %w", err)
	}

	logger.Log.Info("Initialized PostgreSQL repository")
	return repo, nil
}
