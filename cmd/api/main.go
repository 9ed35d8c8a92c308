// Package main is the entry point for the campground booking API server.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx" driver for database/sql
	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/afk-bro/watershed-campground-sub004/internal/audit"
	"github.com/afk-bro/watershed-campground-sub004/internal/billing"
	"github.com/afk-bro/watershed-campground-sub004/internal/config"
	"github.com/afk-bro/watershed-campground-sub004/internal/handler"
	"github.com/afk-bro/watershed-campground-sub004/internal/middleware"
	"github.com/afk-bro/watershed-campground-sub004/internal/ratelimit"
	"github.com/afk-bro/watershed-campground-sub004/internal/repo"
	"github.com/afk-bro/watershed-campground-sub004/internal/service"
	"github.com/afk-bro/watershed-campground-sub004/migrations"
	"github.com/afk-bro/watershed-campground-sub004/spec"
)

func main() {
	// --- Config -----------------------------------------------------------
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		// Use plain stderr before the logger is configured.
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// --- Database ---------------------------------------------------------
	if cfg.MigrateOnStart {
		if err := migrate(context.Background(), cfg.DatabaseURL); err != nil {
			slog.Error("failed to apply migrations", "error", err)
			os.Exit(1)
		}
	}

	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Verify the DB is reachable before accepting traffic.
	if err := pool.Ping(context.Background()); err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	slog.Info("database connection established")

	store := repo.NewStore(pool)

	// --- Rate limiter and audit sink --------------------------------------
	limiter, closeLimiter := newLimiter(cfg, logger)
	defer closeLimiter()

	auditLog, closeAudit := newAuditLogger(cfg, logger)
	defer closeAudit()

	// --- Services ---------------------------------------------------------
	cal := service.NewCalendar(cfg.Location)
	var intents service.PaymentIntents
	if cfg.StripeSecretKey != "" {
		intents = billing.NewStripeIntents(cfg.StripeSecretKey, nil, logger)
	} else {
		logger.Warn("STRIPE_SECRET_KEY not set; guest bookings will not collect deposits online")
	}
	tenants := service.NewTenantResolver(store.Repos().Organizations, cfg.BaseDomain)

	srv := handler.NewServer(handler.Deps{
		Availability:  service.NewAvailabilityService(store, cal),
		Reservations:  service.NewReservationService(store, auditLog, cal, intents),
		Campsites:     service.NewCampsiteService(store.Repos().Campsites, auditLog),
		Blackouts:     service.NewBlackoutService(store, auditLog),
		Payments:      service.NewPaymentReconciler(store, auditLog, logger),
		Export:        service.NewExportService(store.Repos().Reservations, store.Repos().Campsites),
		WebhookSecret: cfg.StripeWebhookSecret,
		Log:           logger,
	})

	// --- Router -----------------------------------------------------------
	// Middleware is applied in order: RequestID → RealIP → Logger → Recoverer
	// → CORS → body limit.
	// RealIP sets r.RemoteAddr from X-Forwarded-For / X-Real-IP, which the
	// per-IP rate limits key on.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(cfg.MaxBodyBytes))

	srv.Routes(r, handler.Middlewares{
		PublicTenant: middleware.NewPublicTenant(tenants, logger),
		AdminAuth:    middleware.NewJWTAuth([]byte(cfg.JWTSecret)),
		AdminTenant:  middleware.NewAdminTenant(tenants, logger),
		SearchLimit:  middleware.NewRateLimit(limiter, "search", cfg.SearchLimit, cfg.SearchWindow),
		BookingLimit: middleware.NewRateLimit(limiter, "booking", cfg.BookingLimit, cfg.BookingWindow),
	})

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/openapi.yaml", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(spec.OpenAPI)
	})

	// --- HTTP Server ------------------------------------------------------
	httpSrv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown: wait for OS signal, then give in-flight requests
	// up to 15 seconds to complete before forcefully closing.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	slog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// migrate applies the embedded goose migrations through database/sql.
func migrate(ctx context.Context, dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		return err
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return err
	}
	slog.Info("migrations applied", "count", len(results))
	return nil
}

// newLimiter returns the Redis limiter when REDIS_ADDR is set, otherwise an
// in-process one. The returned func releases the client.
func newLimiter(cfg config.Config, log *slog.Logger) (ratelimit.Limiter, func()) {
	if cfg.RedisAddr == "" {
		slog.Info("rate limiter: in-memory")
		return ratelimit.NewMemoryLimiter(), func() {}
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	slog.Info("rate limiter: redis", "addr", cfg.RedisAddr)
	return ratelimit.NewRedisLimiter(rdb, "ratelimit", log), func() { _ = rdb.Close() }
}

// newAuditLogger publishes audit events to AMQP_URL when set and reachable,
// otherwise writes them to the application log.
func newAuditLogger(cfg config.Config, log *slog.Logger) (audit.Logger, func()) {
	if cfg.AMQPURL == "" {
		return audit.NewSlogLogger(log), func() {}
	}
	pub, conn, err := audit.DialAMQP(cfg.AMQPURL, cfg.AuditQueue, log)
	if err != nil {
		slog.Warn("audit broker unavailable, logging audit events instead", "error", err)
		return audit.NewSlogLogger(log), func() {}
	}
	return pub, func() { _ = conn.Close() }
}
