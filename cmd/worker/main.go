// Command worker consumes audit run requests from Kafka and executes them
// against the same pipeline the HTTP server exposes. A metrics endpoint runs
// alongside the consumer loop.
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

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"docaudit/internal/adjudicator"
	"docaudit/internal/adjudicator/openai"
	"docaudit/internal/adjudicator/rules"
	"docaudit/internal/audit/metrics"
	"docaudit/internal/audit/orchestrator"
	postgresstore "docaudit/internal/audit/store/postgres"
	"docaudit/internal/platform/config"
	"docaudit/internal/platform/httpserver"
	"docaudit/internal/platform/kafka/consumer"
	"docaudit/internal/platform/logger"
	"docaudit/internal/platform/postgres"
	"docaudit/internal/platform/redis"
	"docaudit/internal/worker"
)

const consumerRestartDelay = 5 * time.Second

func main() {
	cfg := config.WorkerFromEnv()
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
	locker := worker.NewRunLocker(redisClient, cfg.Audit.RunLockTTL)
	w := worker.New(orch, locker, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	metricsSrv := httpserver.New(cfg.MetricsAddr, metricsRouter())
	g.Go(func() error {
		log.Info("metrics listening", "addr", cfg.MetricsAddr)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return metricsSrv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		return consumeLoop(ctx, cfg.Kafka, w, log)
	})

	log.Info("worker started",
		"topic", cfg.Kafka.Topic,
		"group", cfg.Kafka.Group,
		"adjudicator", cfg.Adjudicator.Provider,
	)
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("worker stopped", "error", err)
		os.Exit(1)
	}
}

// consumeLoop keeps a consumer alive until shutdown. A retryable pipeline
// failure tears the consumer down and rebuilds it after a delay, resuming
// from the last committed offset.
func consumeLoop(ctx context.Context, cfg config.Kafka, handler consumer.Handler, log *slog.Logger) error {
	for {
		c, err := consumer.New(cfg, handler, consumer.WithLogger(log))
		if err != nil {
			return err
		}
		if err := c.EnsureTopic(ctx, 3); err != nil {
			log.Warn("failed to ensure topic", "topic", cfg.Topic, "error", err)
		}

		err = c.Run(ctx)
		c.Close()
		if ctx.Err() != nil {
			return nil
		}
		log.Error("consumer stopped, restarting", "error", err)

		select {
		case <-time.After(consumerRestartDelay):
		case <-ctx.Done():
			return nil
		}
	}
}

func metricsRouter() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

func buildAdjudicator(cfg config.Adjudicator, log *slog.Logger) (adjudicator.Adjudicator, error) {
	switch cfg.Provider {
	case "openai":
		return openai.New(cfg.OpenAI, openai.WithLogger(log))
	default:
		return rules.New(), nil
	}
}
