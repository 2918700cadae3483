package ai

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/danielgaio/moto-advisor/internal/adapter/ai/mock"
	"github.com/danielgaio/moto-advisor/internal/adapter/ai/ollama"
	"github.com/danielgaio/moto-advisor/internal/adapter/ai/openai"
	"github.com/danielgaio/moto-advisor/internal/config"
	"github.com/danielgaio/moto-advisor/internal/domain"
)

// NewFromConfig selects the provider once at startup and returns the model
// client (wrapped with output cleaning) and the embedder (wrapped with the
// Redis cache when a client is supplied).
func NewFromConfig(cfg config.Config, rdb *redis.Client, log *slog.Logger) (domain.ModelClient, domain.Embedder, error) {
	var (
		model    domain.ModelClient
		embedder domain.Embedder
	)
	switch cfg.ModelProvider {
	case "ollama":
		cl := ollama.New(cfg)
		model, embedder = cl, cl
	case "openai":
		cl := openai.New(cfg)
		model, embedder = cl, cl
	case "mock":
		cl := mock.New()
		model, embedder = cl, cl
	default:
		return nil, nil, fmt.Errorf("%w: unknown MODEL_PROVIDER %q", domain.ErrInvalidArgument, cfg.ModelProvider)
	}
	if log != nil {
		log.Info("model provider selected", slog.String("provider", cfg.ModelProvider))
	}

	model = NewCleaningClient(model)
	ttl := cfg.EmbedCacheTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	embedder = NewEmbedCache(embedder, rdb, ttl, log)
	return model, embedder, nil
}
