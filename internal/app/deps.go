package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"github.com/openai/openai-go/v3"

	"newsrec/internal/cache"
	"newsrec/internal/config"
	"newsrec/internal/embeddings"
	"newsrec/internal/logger"
	"newsrec/internal/retry"
)

// Deps bundles common runtime dependencies for the service.
type Deps struct {
	Config   config.Config
	Log      *slog.Logger
	Embedder embeddings.Embedder
	Cache    *cache.EmbeddingCache
}

// Build loads env, config, and shared components.
func Build(ctx context.Context) (Deps, error) {
	// A missing .env file is fine; real env vars still apply.
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.New(cfg.LogLevel)

	embedder, err := buildEmbedder(cfg, log)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize embedder: %w", err)
	}
	store, err := buildStore(cfg, log)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize cache store: %w", err)
	}
	c, err := cache.New(ctx, embedder, store, log)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize embedding cache: %w", err)
	}
	return Deps{
		Config:   cfg,
		Log:      log,
		Embedder: embedder,
		Cache:    c,
	}, nil
}

func buildStore(cfg config.Config, log *slog.Logger) (cache.Store, error) {
	switch cfg.CacheProvider {
	case "file":
		s, err := cache.NewFileStore(cfg.CachePath, cache.FileOptions{Atomic: cfg.CacheAtomic})
		if err != nil {
			return nil, err
		}
		log.Info("using file cache store", "path", cfg.CachePath, "atomic", cfg.CacheAtomic)
		return s, nil
	case "redis":
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("REDIS_ADDR is required when CACHE_PROVIDER=redis")
		}
		s, err := cache.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize redis store: %w", err)
		}
		log.Info("using redis cache store", "addr", cfg.RedisAddr)
		return s, nil
	case "postgres":
		if cfg.DBURL == "" {
			return nil, fmt.Errorf("DB_URL is required when CACHE_PROVIDER=postgres")
		}
		s, err := cache.NewPostgres(cfg.DBURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Postgres store: %w", err)
		}
		log.Info("using Postgres cache store")
		return s, nil
	default:
		return nil, fmt.Errorf("invalid CACHE_PROVIDER: %s (valid options: file, redis, postgres)", cfg.CacheProvider)
	}
}

func buildEmbedder(cfg config.Config, log *slog.Logger) (embeddings.Embedder, error) {
	switch cfg.EmbedderProvider {
	case "openai":
		if cfg.OpenAIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required when EMBEDDER_PROVIDER=openai")
		}
		embedder, err := embeddings.NewOpenAIEmbedder(cfg.OpenAIKey, openai.EmbeddingModel(cfg.EmbeddingModel))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize OpenAI embedder: %w", err)
		}
		log.Info("using OpenAI embedder", "model", cfg.EmbeddingModel)
		if cfg.EmbedRetries > 0 {
			return retry.WrapEmbedder(embedder, cfg.EmbedRetries+1, time.Second), nil
		}
		return embedder, nil
	default:
		return nil, fmt.Errorf("invalid EMBEDDER_PROVIDER: %s (valid option: openai)", cfg.EmbedderProvider)
	}
}
