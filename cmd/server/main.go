package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clinid/internal/identity/cache"
	"clinid/internal/identity/handler"
	"clinid/internal/identity/metrics"
	"clinid/internal/identity/service"
	"clinid/internal/identity/session"
	"clinid/internal/identity/store"
	"clinid/internal/jwtauth"
	"clinid/internal/platform/config"
	"clinid/internal/platform/httpserver"
	"clinid/internal/platform/logger"
	"clinid/internal/platform/middleware"
	platformredis "clinid/internal/platform/redis"
	"clinid/pkg/platform/audit"
	auditworker "clinid/pkg/platform/audit/worker"
)

// main wires the resolution engine's dependencies and owns the server
// lifecycle. Business logic lives in internal/identity.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	healthChecks := map[string]handler.HealthCheck{}

	// Backing store: Postgres when configured, in-memory otherwise.
	var patients store.PatientStore
	if cfg.Database.Enabled() {
		pool, err := store.Connect(ctx, cfg.Database.DSN())
		if err != nil {
			log.Error("database connection failed", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		if err := store.Migrate(ctx, pool); err != nil {
			log.Error("database migration failed", "error", err)
			os.Exit(1)
		}
		patients = store.NewPostgres(pool)
		healthChecks["database"] = func(ctx context.Context) error { return pool.Ping(ctx) }
		log.Info("using postgres patient store", "host", cfg.Database.Host)
	} else {
		patients = store.NewMemory()
		log.Warn("no database configured, using in-memory patient store")
	}

	// Resolution cache: Redis when configured, in-memory otherwise.
	var resolutionCache cache.ResolutionCache
	redisClient, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		resolutionCache = cache.NewRedis(redisClient.Client, cfg.Resolver.CacheTTL, log)
		healthChecks["redis"] = redisClient.Health
		log.Info("using redis resolution cache", "ttl", cfg.Resolver.CacheTTL.String())
	} else {
		resolutionCache = cache.NewMemory(cfg.Resolver.CacheTTL, cfg.Resolver.CacheMaxEntries)
		log.Info("using in-memory resolution cache",
			"ttl", cfg.Resolver.CacheTTL.String(), "max_entries", cfg.Resolver.CacheMaxEntries)
	}

	// Audit trail: buffered publisher drained by a background worker.
	publisher := audit.NewPublisher(256, log)
	worker := auditworker.New(audit.NewMemoryStore(), publisher.Inbox())
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		if err := worker.Run(ctx); err != nil {
			log.Error("audit worker stopped", "error", err)
		}
	}()

	svc := service.New(patients, resolutionCache, session.NewManager(),
		service.WithLogger(log),
		service.WithAuditPublisher(publisher),
		service.WithMetrics(metrics.New()),
		service.WithStoreTimeout(cfg.Resolver.StoreTimeout),
	)

	var validator middleware.JWTValidator
	if cfg.Auth.JWTSigningKey != "" {
		validator = jwtauth.NewService(cfg.Auth.JWTSigningKey, cfg.Auth.Issuer, cfg.Auth.Audience)
	} else {
		log.Warn("no JWT signing key configured, auth disabled")
	}

	router := handler.NewRouter(handler.New(svc, log), handler.RouterConfig{
		Logger:         log,
		Validator:      validator,
		RateLimiter:    middleware.NewIPRateLimiter(cfg.Server.RateLimitPerSec, cfg.Server.RateLimitBurst),
		RequestTimeout: cfg.Server.RequestTimeout,
		HealthChecks:   healthChecks,
	})

	srv := httpserver.New(cfg.Server.Addr, router)
	log.Info("starting clinid", "addr", cfg.Server.Addr)

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		log.Error("server error", "error", err)
		os.Exit(1)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}

	publisher.Close()
	<-workerDone
	log.Info("shutdown complete")
}
