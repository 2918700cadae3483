// Command server starts the moto-advisor HTTP API.
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

	"github.com/redis/go-redis/v9"

	ai "github.com/danielgaio/moto-advisor/internal/adapter/ai"
	httpserver "github.com/danielgaio/moto-advisor/internal/adapter/httpserver"
	"github.com/danielgaio/moto-advisor/internal/adapter/observability"
	"github.com/danielgaio/moto-advisor/internal/adapter/queue/redpanda"
	"github.com/danielgaio/moto-advisor/internal/adapter/repo/postgres"
	"github.com/danielgaio/moto-advisor/internal/adapter/vector"
	qdrantcli "github.com/danielgaio/moto-advisor/internal/adapter/vector/qdrant"
	"github.com/danielgaio/moto-advisor/internal/app"
	"github.com/danielgaio/moto-advisor/internal/config"
	"github.com/danielgaio/moto-advisor/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)
	observability.InitMetrics()

	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DBURL)
	if err != nil {
		slog.Error("db connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	sessionRepo := postgres.NewSessionRepo(pool)
	jobRepo := postgres.NewTurnJobRepo(pool)
	recordRepo := postgres.NewTurnRecordRepo(pool)

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer func() { _ = rdb.Close() }()

	queue, err := redpanda.NewProducer(cfg.KafkaBrokers)
	if err != nil {
		slog.Error("redpanda producer connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := queue.Close(); err != nil {
			slog.Error("failed to close queue client", slog.Any("error", err))
		}
	}()

	model, embedder, err := ai.NewFromConfig(cfg, rdb, logger)
	if err != nil {
		slog.Error("model client init failed", slog.Any("error", err))
		os.Exit(1)
	}

	qcli := qdrantcli.New(cfg.QdrantURL, cfg.QdrantAPIKey)
	retriever := vector.NewRetriever(qcli, embedder, cfg.QdrantCollection, cfg.RetrieveTopK, logger)

	turns := usecase.NewTurnService(model, retriever, logger)

	dbCheck, redisCheck, qdrantCheck := app.BuildReadinessChecks(cfg, pool, redisAdapter{rdb})
	srv := httpserver.NewServer(cfg, sessionRepo, jobRepo, recordRepo, queue, turns, dbCheck, redisCheck, qdrantCheck)
	handler := app.BuildRouter(cfg, srv)

	srvHTTP := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server starting", slog.Int("port", cfg.Port))
		errCh <- srvHTTP.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", slog.Any("error", err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
	defer cancel()
	_ = srvHTTP.Shutdown(shutdownCtx)
}

// redisAdapter narrows *redis.Client to the readiness interface.
type redisAdapter struct{ c *redis.Client }

func (r redisAdapter) Ping(ctx context.Context) app.RedisPingResult { return r.c.Ping(ctx) }
