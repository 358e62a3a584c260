package embeddings

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// Vector is a simple float32 slice wrapper.
type Vector []float32

// Embedder defines the embedding interface.
type Embedder interface {
	// Embed turns text into its embedding vector.
	Embed(ctx context.Context, text string) (Vector, error)
	// Model returns the identifier of the model producing the vectors.
	Model() string
}

// ErrDegenerateVector is returned when a zero-norm vector reaches a
// similarity computation. Cosine similarity is undefined there; callers get
// the error instead of a NaN score.
var ErrDegenerateVector = errors.New("zero-norm vector")

// CosineSimilarity computes dot(a,b) / (|a| * |b|) in float64.
func CosineSimilarity(a, b Vector) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("dimension mismatch: %d vs %d", len(a), len(b))
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, ErrDegenerateVector
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}
