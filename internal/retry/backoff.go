package retry

import (
	"context"
	"time"

	"newsrec/internal/embeddings"
)

// ExponentialBackoff returns delay based on attempt number.
// The delay doubles with each attempt: base * 2^attempt
func ExponentialBackoff(attempt int, base time.Duration) time.Duration {
	return base * (1 << attempt)
}

// Embedder retries a wrapped embedder with exponential backoff. The
// embedding cache itself never retries; this wrapper is an integration-edge
// policy, applied around the provider before it reaches the cache.
type Embedder struct {
	inner    embeddings.Embedder
	attempts int
	base     time.Duration
}

// WrapEmbedder decorates e with up to attempts tries per call.
func WrapEmbedder(e embeddings.Embedder, attempts int, base time.Duration) *Embedder {
	if attempts <= 0 {
		attempts = 1
	}
	return &Embedder{inner: e, attempts: attempts, base: base}
}

func (r *Embedder) Model() string {
	return r.inner.Model()
}

func (r *Embedder) Embed(ctx context.Context, text string) (embeddings.Vector, error) {
	var lastErr error
	for attempt := 0; attempt < r.attempts; attempt++ {
		vec, err := r.inner.Embed(ctx, text)
		if err == nil {
			return vec, nil
		}
		lastErr = err
		if attempt == r.attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(ExponentialBackoff(attempt, r.base)):
		}
	}
	return nil, lastErr
}
