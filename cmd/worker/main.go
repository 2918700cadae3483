// Command worker consumes queued turns from Redpanda and processes them.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	ai "github.com/danielgaio/moto-advisor/internal/adapter/ai"
	"github.com/danielgaio/moto-advisor/internal/adapter/observability"
	"github.com/danielgaio/moto-advisor/internal/adapter/queue/redpanda"
	"github.com/danielgaio/moto-advisor/internal/adapter/repo/postgres"
	"github.com/danielgaio/moto-advisor/internal/adapter/vector"
	qdrantcli "github.com/danielgaio/moto-advisor/internal/adapter/vector/qdrant"
	"github.com/danielgaio/moto-advisor/internal/config"
	"github.com/danielgaio/moto-advisor/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)
	observability.InitMetrics()

	// Dedicated /metrics endpoint so Prometheus can scrape queue metrics.
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(":9090", mux); err != nil {
			slog.Error("worker metrics server error", slog.Any("error", err))
		}
	}()

	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	slog.Info("starting worker", slog.String("env", cfg.AppEnv))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DBURL)
	if err != nil {
		slog.Error("database connection failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	jobRepo := postgres.NewTurnJobRepo(pool)
	recordRepo := postgres.NewTurnRecordRepo(pool)

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer func() { _ = rdb.Close() }()

	model, embedder, err := ai.NewFromConfig(cfg, rdb, logger)
	if err != nil {
		slog.Error("model client init failed", slog.Any("error", err))
		os.Exit(1)
	}

	qcli := qdrantcli.New(cfg.QdrantURL, cfg.QdrantAPIKey)
	retriever := vector.NewRetriever(qcli, embedder, cfg.QdrantCollection, cfg.RetrieveTopK, logger)
	turns := usecase.NewTurnService(model, retriever, logger)

	consumer, err := redpanda.NewConsumer(cfg.KafkaBrokers, "moto-advisor-workers", jobRepo, recordRepo, turns, cfg.ConsumerMaxConcurrency)
	if err != nil {
		slog.Error("consumer init failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = consumer.Close() }()

	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("consumer stopped", slog.Any("error", err))
		os.Exit(1)
	}
	slog.Info("worker shut down cleanly")
}
