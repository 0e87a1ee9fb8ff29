package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cohortd/internal/allocation"
	allocationhandler "cohortd/internal/allocation/handler"
	"cohortd/internal/distribution"
	distributionhandler "cohortd/internal/distribution/handler"
	"cohortd/internal/exception"
	"cohortd/internal/participant"
	"cohortd/internal/platform/config"
	"cohortd/internal/platform/httpserver"
	"cohortd/internal/platform/logger"
	"cohortd/internal/platform/metrics"
	"cohortd/internal/platform/postgres"
	platformredis "cohortd/internal/platform/redis"
	"cohortd/internal/transform"
	"cohortd/internal/validation"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err.Error())
		os.Exit(1)
	}

	db, err := postgres.Open(cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to connect to postgres", "error", err.Error())
		os.Exit(1)
	}
	defer db.Close()

	redisClient, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		log.Error("failed to connect to redis", "error", err.Error())
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	entries, err := allocation.LoadConfig(cfg.AllocationConfigPath)
	if err != nil {
		log.Error("failed to load allocation config", "error", err.Error())
		os.Exit(1)
	}

	m := metrics.New()

	exceptions := exception.NewService(exception.NewPostgres(db), log, m)

	var lookups transform.LookupFacade = transform.NewPostgresLookups(db)
	if redisClient != nil {
		lookups = transform.NewCachedLookups(lookups, redisClient.Client)
	}

	allocator := allocation.NewService(allocation.NewStaticSource(entries), exceptions, m)
	transformer := transform.NewService(lookups, exceptions)
	validator := validation.NewService(exceptions)

	participants := participant.NewPostgres(db)
	auditStore := distribution.NewPostgresAudit(db)
	tx := newDistributionPostgresTx(db, cfg.ExtractionTimeout)

	distributor := distribution.NewService(
		participants,
		auditStore,
		tx,
		allocator,
		transformer,
		validator,
		log,
		m,
		cfg.MaxExtractionRows,
	)

	router := newRouter(log, db, redisClient,
		distributionhandler.New(distributor, log),
		allocationhandler.New(allocator, log),
	)

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting cohortd", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err.Error())
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err.Error())
		os.Exit(1)
	}
}

type registrar interface {
	Register(r chi.Router)
}

func newRouter(log *slog.Logger, db interface{ PingContext(context.Context) error }, redisClient *platformredis.Client, handlers ...registrar) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		ctx := req.Context()
		if err := db.PingContext(ctx); err != nil {
			log.ErrorContext(ctx, "health check failed", "error", err.Error())
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		if redisClient != nil {
			if err := redisClient.Health(ctx); err != nil {
				log.ErrorContext(ctx, "redis health check failed", "error", err.Error())
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})

	for _, h := range handlers {
		h.Register(r)
	}
	return r
}
