package embeddings

import (
	"errors"
	"math"
	"testing"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Vector
		expected float64
	}{
		{
			name:     "identical vectors",
			a:        Vector{1, 0, 0},
			b:        Vector{1, 0, 0},
			expected: 1.0,
		},
		{
			name:     "orthogonal vectors",
			a:        Vector{1, 0},
			b:        Vector{0, 1},
			expected: 0.0,
		},
		{
			name:     "opposite vectors",
			a:        Vector{1, 0},
			b:        Vector{-1, 0},
			expected: -1.0,
		},
		{
			name:     "normalized vectors 45 degrees",
			a:        Vector{1, 0},
			b:        Vector{0.707, 0.707},
			expected: 0.707,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := CosineSimilarity(tt.a, tt.b)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(result-tt.expected) > 0.01 {
				t.Errorf("got %f, want %f", result, tt.expected)
			}
		})
	}
}

func TestCosineSimilaritySelf(t *testing.T) {
	v := Vector{0.3, -1.2, 4.5, 0.01}
	got, err := CosineSimilarity(v, v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(got-1.0) > 1e-9 {
		t.Errorf("self-similarity = %v, want 1.0", got)
	}
}

func TestCosineSimilaritySymmetry(t *testing.T) {
	a := Vector{1, 2, 3}
	b := Vector{-4, 0.5, 9}
	ab, err := CosineSimilarity(a, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ba, err := CosineSimilarity(b, a)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ab != ba {
		t.Errorf("similarity not symmetric: %v vs %v", ab, ba)
	}
}

func TestCosineSimilarityErrors(t *testing.T) {
	if _, err := CosineSimilarity(Vector{1, 2}, Vector{1, 2, 3}); err == nil {
		t.Error("expected error for mismatched dimensions")
	}
	if _, err := CosineSimilarity(Vector{0, 0}, Vector{1, 1}); !errors.Is(err, ErrDegenerateVector) {
		t.Errorf("expected ErrDegenerateVector, got %v", err)
	}
	if _, err := CosineSimilarity(Vector{1, 1}, Vector{0, 0}); !errors.Is(err, ErrDegenerateVector) {
		t.Errorf("expected ErrDegenerateVector, got %v", err)
	}
}
