package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/shiva/chauffeur/config"
	"github.com/shiva/chauffeur/internal/handler"
	"github.com/shiva/chauffeur/internal/middleware"
	"github.com/shiva/chauffeur/internal/pricing"
	"github.com/shiva/chauffeur/internal/repository"
	"github.com/shiva/chauffeur/internal/service"
	"github.com/shiva/chauffeur/pkg/cache"
	"github.com/shiva/chauffeur/pkg/db"
	"github.com/shiva/chauffeur/pkg/logger"
	"github.com/shiva/chauffeur/pkg/metrics"
)

func main() {
	// ── Load configuration ──────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logg, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logg.Sync()

	loc, err := cfg.Pricing.Location()
	if err != nil {
		logg.Fatal("invalid pricing timezone", zap.Error(err))
	}

	metrics.RegisterDefault()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Reference data source ───────────────────────────
	var (
		source      service.ReferenceSource
		pgPool      *pgxpool.Pool
		redisClient *redis.Client
	)
	switch cfg.Pricing.RefDataSource {
	case config.SourceFile:
		source = repository.NewFileRepository(cfg.Pricing.RefDataFile, logg)
		logg.Info("reference data from file", zap.String("path", cfg.Pricing.RefDataFile))

	default:
		pgPool, err = db.NewPostgresPool(ctx, cfg.Postgres)
		if err != nil {
			logg.Fatal("failed to connect to PostgreSQL", zap.Error(err))
		}
		defer pgPool.Close()
		logg.Info("PostgreSQL connected")

		// Redis is optional: without it every reload reads PostgreSQL and
		// invalidations stay local.
		redisClient, err = cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			logg.Warn("Redis unavailable, running without reference cache", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close()
			logg.Info("Redis connected")
		}

		source = repository.NewPricingRepository(pgPool, redisClient,
			cfg.Pricing.CacheTTL, cfg.Pricing.InvalidationChannel, logg)
	}

	// ── Initialize layers ───────────────────────────────
	engine := pricing.NewEngine(pricing.Config{
		ParisZone: cfg.Pricing.ParisZone,
		Location:  loc,
	})
	pricingSvc := service.NewPricingService(source, engine, service.ServiceConfig{
		UrgentWindow: cfg.Pricing.UrgentWindow,
	}, logg)

	// A failed initial load is not fatal; the first quote retries it.
	if _, err := pricingSvc.Reload(ctx); err != nil {
		logg.Warn("initial reference data load failed", zap.Error(err))
	}
	if err := pricingSvc.WatchInvalidations(ctx); err != nil {
		logg.Warn("invalidation watcher not started", zap.Error(err))
	}

	pricingHandler := handler.NewPricingHandler(pricingSvc, logg)

	// ── Setup router ────────────────────────────────────
	router := mux.NewRouter()
	router.Use(middleware.Recoverer(logg.Named("http")), middleware.Metrics)
	// Router middleware only runs on matched routes.
	router.NotFoundHandler = middleware.Metrics(http.NotFoundHandler())
	router.MethodNotAllowedHandler = middleware.Metrics(middleware.MethodNotAllowed())

	router.HandleFunc("/health", healthHandler(pgPool, redisClient, pricingSvc)).Methods(http.MethodGet)
	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	// API v1 routes.
	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(
		middleware.RequestLogger(logg.Named("http")),
		middleware.RateLimit(middleware.NewLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)),
	)
	api.HandleFunc("/fare/quote", pricingHandler.Quote).Methods(http.MethodPost)
	api.HandleFunc("/fare/reload", pricingHandler.Reload).Methods(http.MethodPost)
	api.HandleFunc("/fare/snapshot", pricingHandler.Snapshot).Methods(http.MethodGet)

	// Wrap with CORS so browser clients can call the API.
	handler := middleware.CORS(router)

	// ── Start HTTP server ───────────────────────────────
	srv := &http.Server{
		Addr:         cfg.Server.ServerAddr(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in a goroutine so we can listen for shutdown signals.
	go func() {
		logg.Info("server listening", zap.String("addr", cfg.Server.ServerAddr()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Fatal("server error", zap.Error(err))
		}
	}()

	// ── Graceful shutdown ───────────────────────────────
	<-ctx.Done()
	logg.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logg.Error("server forced to shutdown", zap.Error(err))
		return
	}

	logg.Info("server gracefully stopped")
}

// HealthResponse represents the /health endpoint response.
type HealthResponse struct {
	Status          string            `json:"status"`
	Services        map[string]string `json:"services"`
	SnapshotVersion uint64            `json:"snapshot_version"`
}

// healthHandler reports PG, Redis and snapshot state. Nil clients are
// skipped (file source, or Redis disabled).
func healthHandler(pgPool *pgxpool.Pool, redisClient *redis.Client, pricingSvc *service.PricingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := HealthResponse{
			Status:   "ok",
			Services: make(map[string]string),
		}

		if pgPool != nil {
			if err := db.HealthCheck(r.Context(), pgPool); err != nil {
				resp.Status = "degraded"
				resp.Services["postgres"] = "unhealthy: " + err.Error()
			} else {
				resp.Services["postgres"] = "healthy"
			}
		}

		if redisClient != nil {
			if err := cache.HealthCheck(r.Context(), redisClient); err != nil {
				resp.Status = "degraded"
				resp.Services["redis"] = "unhealthy: " + err.Error()
			} else {
				resp.Services["redis"] = "healthy"
			}
		}

		if snap := pricingSvc.Snapshot(); snap != nil {
			resp.SnapshotVersion = snap.Version()
			resp.Services["pricing"] = "healthy"
		} else {
			resp.Status = "degraded"
			resp.Services["pricing"] = "no reference data loaded"
		}

		w.Header().Set("Content-Type", "application/json")
		if resp.Status != "ok" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(resp)
	}
}
