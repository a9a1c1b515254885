// Command server exposes the document audit pipeline over HTTP. The
// enrollment backend triggers runs with POST /audit/runs; health and metrics
// are served unauthenticated for the platform.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"docaudit/internal/adjudicator"
	"docaudit/internal/adjudicator/openai"
	"docaudit/internal/adjudicator/rules"
	"docaudit/internal/audit/handler"
	"docaudit/internal/audit/metrics"
	"docaudit/internal/audit/orchestrator"
	postgresstore "docaudit/internal/audit/store/postgres"
	"docaudit/internal/platform/config"
	"docaudit/internal/platform/httpserver"
	"docaudit/internal/platform/logger"
	"docaudit/internal/platform/postgres"
	"docaudit/internal/platform/redis"
	httptransport "docaudit/internal/transport/http"
)

func main() {
	cfg := config.ServerFromEnv()
	log := logger.New()

	db, err := postgres.Open(cfg.Postgres)
	if err != nil {
		log.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	adj, err := buildAdjudicator(cfg.Adjudicator, log)
	if err != nil {
		log.Error("failed to build adjudicator", "error", err)
		os.Exit(1)
	}

	m := metrics.New()
	orch := orchestrator.New(postgresstore.New(db), adj, cfg.Audit,
		orchestrator.WithLogger(log),
		orchestrator.WithMetrics(m),
	)

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:        log,
		Audit:         handler.New(orch, log, m),
		JWTSigningKey: cfg.JWTSigningKey,
		DB:            db,
		Redis:         redisClient,
		Timeout:       cfg.Audit.FetchTimeout + cfg.Audit.AdjudicateTimeout + 10*time.Second,
	})

	srv := httpserver.New(cfg.Addr, router)

	go func() {
		log.Info("server listening", "addr", cfg.Addr, "adjudicator", cfg.Adjudicator.Provider)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}

func buildAdjudicator(cfg config.Adjudicator, log *slog.Logger) (adjudicator.Adjudicator, error) {
	switch cfg.Provider {
	case "openai":
		return openai.New(cfg.OpenAI, openai.WithLogger(log))
	default:
		return rules.New(), nil
	}
}
