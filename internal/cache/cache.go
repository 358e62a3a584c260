package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"newsrec/internal/embeddings"
)

var (
	// ErrCompute wraps failures of the external embedding call, including
	// vectors of unexpected shape.
	ErrCompute = errors.New("embedding computation failed")

	// ErrPersist wraps failures reading or writing the durable store. An
	// absent store is not a persistence error; it starts the cache empty.
	ErrPersist = errors.New("cache persistence failed")
)

// Key identifies one embedding computation. Two texts embedded under
// different models are distinct entries.
type Key struct {
	Text  string
	Model string
}

// Store persists cache entries between runs.
type Store interface {
	// Load returns all persisted entries. A store with no prior state
	// returns an empty map, not an error.
	Load(ctx context.Context) (map[Key]embeddings.Vector, error)

	// Put persists a single entry.
	Put(ctx context.Context, key Key, vec embeddings.Vector) error

	// Close releases the store's resources.
	Close() error
}

// EmbeddingCache memoizes embedding computations across runs. Each distinct
// (text, model) pair is computed at most once for the lifetime of the backing
// store: hits are served from memory, misses call the embedder exactly once
// and persist the result before returning it.
//
// The cache assumes a single goroutine; concurrent access needs external
// coordination.
type EmbeddingCache struct {
	embedder embeddings.Embedder
	store    Store
	log      *slog.Logger
	entries  map[Key]embeddings.Vector
	dim      int
}

// New loads prior entries from the store and returns a ready cache.
func New(ctx context.Context, embedder embeddings.Embedder, store Store, log *slog.Logger) (*EmbeddingCache, error) {
	entries, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: load: %v", ErrPersist, err)
	}
	if entries == nil {
		entries = make(map[Key]embeddings.Vector)
	}
	c := &EmbeddingCache{
		embedder: embedder,
		store:    store,
		log:      log,
		entries:  entries,
	}
	for k, v := range entries {
		if k.Model == embedder.Model() {
			c.dim = len(v)
			break
		}
	}
	log.Debug("embedding cache loaded", "entries", len(entries), "model", embedder.Model())
	return c, nil
}

// Len reports the number of cached entries.
func (c *EmbeddingCache) Len() int {
	return len(c.entries)
}

// GetOrCompute returns the embedding for text under the cache's model,
// computing and persisting it on first sight. The in-memory entry survives a
// persistence failure; only the durable copy goes stale.
func (c *EmbeddingCache) GetOrCompute(ctx context.Context, text string) (embeddings.Vector, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: empty text", ErrCompute)
	}
	key := Key{Text: text, Model: c.embedder.Model()}
	if vec, ok := c.entries[key]; ok {
		return vec, nil
	}

	vec, err := c.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: model %s: %v", ErrCompute, key.Model, err)
	}
	if len(vec) == 0 {
		return nil, fmt.Errorf("%w: model %s returned an empty vector", ErrCompute, key.Model)
	}
	if c.dim != 0 && len(vec) != c.dim {
		return nil, fmt.Errorf("%w: model %s returned %d dimensions, cache holds %d", ErrCompute, key.Model, len(vec), c.dim)
	}

	c.entries[key] = vec
	c.dim = len(vec)
	if err := c.store.Put(ctx, key, vec); err != nil {
		return nil, fmt.Errorf("%w: put: %v", ErrPersist, err)
	}
	c.log.Debug("embedding cached", "model", key.Model, "dim", len(vec), "entries", len(c.entries))
	return vec, nil
}

// Close closes the backing store.
func (c *EmbeddingCache) Close() error {
	return c.store.Close()
}
