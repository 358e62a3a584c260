package config

import (
	"log/slog"

	"github.com/caarlos0/env/v10"
)

// Config holds minimal runtime configuration. Extend as needed.
type Config struct {
	// Server
	Port     int    `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Corpus
	CorpusPath   string `env:"CORPUS_PATH"`
	CorpusSample int    `env:"CORPUS_SAMPLE" envDefault:"0"` // 0 = whole corpus
	CorpusSeed   int64  `env:"CORPUS_SEED" envDefault:"1"`

	// Embedding cache
	CacheProvider string `env:"CACHE_PROVIDER" envDefault:"file"` // "file", "redis" or "postgres"
	CachePath     string `env:"CACHE_PATH" envDefault:"embeddings.json"`
	CacheAtomic   bool   `env:"CACHE_ATOMIC_WRITE" envDefault:"false"`
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	DBURL         string `env:"DB_URL"`

	// Embeddings
	EmbedderProvider string `env:"EMBEDDER_PROVIDER" envDefault:"openai"` // "openai" (uses OpenAI API)
	OpenAIKey        string `env:"OPENAI_API_KEY"`
	EmbeddingModel   string `env:"EMBEDDING_MODEL" envDefault:"text-embedding-3-small"`
	EmbedRetries     int    `env:"EMBED_RETRIES" envDefault:"0"` // 0 = no retry wrapper

	// Recommendations
	DefaultTopK int `env:"DEFAULT_TOP_K" envDefault:"5"`
}

// Load reads configuration from environment variables with defaults.
func Load() Config {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		slog.Warn("failed to parse env; using defaults where set", "err", err)
	}
	return cfg
}
