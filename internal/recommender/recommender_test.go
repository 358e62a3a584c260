package recommender

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/mock"

	"newsrec/internal/cache"
	"newsrec/internal/corpus"
	"newsrec/internal/embeddings"
	"newsrec/internal/ranker"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// buildIndex wires a cache over a mock embedder that returns a fixed vector
// per cleaned text.
func buildIndex(t *testing.T, articles []corpus.Article, vectors map[string]embeddings.Vector) *Index {
	t.Helper()
	ctx := context.Background()

	e := &embeddings.MockEmbedder{}
	e.On("Model").Return("test-model")
	for text, vec := range vectors {
		e.On("Embed", mock.Anything, text).Return(vec, nil)
	}

	store := &cache.MockStore{}
	store.On("Load", mock.Anything).Return(map[cache.Key]embeddings.Vector{}, nil)
	store.On("Put", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	c, err := cache.New(ctx, e, store, testLogger())
	if err != nil {
		t.Fatalf("cache.New: %v", err)
	}
	ix, err := Build(ctx, c, articles, testLogger())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return ix
}

func TestRecommendEndToEnd(t *testing.T) {
	articles := []corpus.Article{
		{Title: "cat dog"},
		{Title: "dog cat"},
		{Title: "ocean wave"},
	}
	ix := buildIndex(t, articles, map[string]embeddings.Vector{
		"cat dog":    {0.99, 0.01},
		"dog cat":    {0.98, 0.02},
		"ocean wave": {0, 1},
	})

	recs, err := ix.Recommend(0, 1)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(recs) != 1 || recs[0].Index != 1 {
		t.Fatalf("recommendations = %+v, want index 1", recs)
	}
	if recs[0].Score <= 0.9 {
		t.Errorf("near-identical vectors should score high, got %v", recs[0].Score)
	}
}

func TestRecommendSkipsDuplicateText(t *testing.T) {
	// Articles 0 and 1 clean to the same text and therefore share one cache
	// entry and one vector; recommending for 0 must skip 1.
	articles := []corpus.Article{
		{Title: "Breaking News!"},
		{Title: "breaking news"},
		{Title: "weather report"},
	}
	ix := buildIndex(t, articles, map[string]embeddings.Vector{
		"breaking news":  {1, 0},
		"weather report": {0.6, 0.8},
	})

	recs, err := ix.Recommend(0, 2)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(recs) != 1 || recs[0].Index != 2 {
		t.Fatalf("recommendations = %+v, want only index 2", recs)
	}
}

func TestRecommendShortResult(t *testing.T) {
	articles := []corpus.Article{
		{Title: "alpha"},
		{Title: "beta"},
	}
	ix := buildIndex(t, articles, map[string]embeddings.Vector{
		"alpha": {1, 0},
		"beta":  {0.5, 0.5},
	})

	recs, err := ix.Recommend(0, 5)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(recs) != 1 {
		t.Errorf("got %d recommendations, want 1", len(recs))
	}
}

func TestRankingsIncludeQuery(t *testing.T) {
	articles := []corpus.Article{
		{Title: "alpha"},
		{Title: "beta"},
	}
	ix := buildIndex(t, articles, map[string]embeddings.Vector{
		"alpha": {1, 0},
		"beta":  {0, 1},
	})

	ranked, err := ix.Rankings(1)
	if err != nil {
		t.Fatalf("Rankings: %v", err)
	}
	if len(ranked) != 2 || ranked[0].Index != 1 {
		t.Errorf("ranked = %+v, want query index 1 first", ranked)
	}
}

func TestRecommendIndexOutOfRange(t *testing.T) {
	articles := []corpus.Article{{Title: "solo"}}
	ix := buildIndex(t, articles, map[string]embeddings.Vector{
		"solo": {1, 0},
	})
	if _, err := ix.Recommend(3, 1); !errors.Is(err, ranker.ErrIndexOutOfRange) {
		t.Errorf("expected ErrIndexOutOfRange, got %v", err)
	}
}

func TestBuildSurfacesEmbedFailure(t *testing.T) {
	ctx := context.Background()
	e := &embeddings.MockEmbedder{}
	e.On("Model").Return("test-model")
	e.On("Embed", mock.Anything, mock.Anything).Return(nil, errors.New("provider down"))

	store := &cache.MockStore{}
	store.On("Load", mock.Anything).Return(map[cache.Key]embeddings.Vector{}, nil)

	c, err := cache.New(ctx, e, store, testLogger())
	if err != nil {
		t.Fatalf("cache.New: %v", err)
	}
	if _, err := Build(ctx, c, []corpus.Article{{Title: "x"}}, testLogger()); !errors.Is(err, cache.ErrCompute) {
		t.Errorf("expected ErrCompute, got %v", err)
	}
}
