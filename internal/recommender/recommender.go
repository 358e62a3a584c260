// Package recommender ties the embedding cache and the ranker together: it
// embeds a corpus once, then answers similar-article queries against the
// resulting in-memory index.
package recommender

import (
	"context"
	"fmt"
	"log/slog"

	"newsrec/internal/cache"
	"newsrec/internal/corpus"
	"newsrec/internal/embeddings"
	"newsrec/internal/ranker"
)

// Recommendation is one recommended article with its similarity to the query.
type Recommendation struct {
	Index   int
	Article corpus.Article
	Score   float64
}

// Index holds the embedded corpus. It is immutable after Build; queries are
// pure computation over it.
type Index struct {
	articles []corpus.Article
	texts    []string
	vecs     []embeddings.Vector
}

// Build embeds every article through the cache, sequentially, one external
// call per cache miss. The cleaned article content is what gets embedded and
// what duplicate exclusion compares.
func Build(ctx context.Context, c *cache.EmbeddingCache, articles []corpus.Article, log *slog.Logger) (*Index, error) {
	ix := &Index{
		articles: articles,
		texts:    make([]string, len(articles)),
		vecs:     make([]embeddings.Vector, len(articles)),
	}
	for i, a := range articles {
		text := corpus.Clean(a.Content())
		vec, err := c.GetOrCompute(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embed article %d (%s): %w", i, a.ID, err)
		}
		ix.texts[i] = text
		ix.vecs[i] = vec
	}
	log.Info("index built", "articles", len(articles), "cached", c.Len())
	return ix, nil
}

// Len reports the number of indexed articles.
func (ix *Index) Len() int {
	return len(ix.articles)
}

// Article returns the indexed article at i.
func (ix *Index) Article(i int) corpus.Article {
	return ix.articles[i]
}

// Rankings returns the full descending similarity ranking for a query index,
// including the query itself and any duplicate-text entries.
func (ix *Index) Rankings(queryIndex int) ([]ranker.Ranked, error) {
	return ranker.Rank(ix.vecs, queryIndex)
}

// Recommend returns up to k articles most similar to the one at queryIndex,
// excluding the query itself and any article with identical cleaned text.
func (ix *Index) Recommend(queryIndex, k int) ([]Recommendation, error) {
	ranked, err := ix.Rankings(queryIndex)
	if err != nil {
		return nil, err
	}

	scores := make([]float64, len(ranked))
	for _, r := range ranked {
		scores[r.Index] = r.Score
	}

	picked := ranker.TopK(ranked, ix.texts, queryIndex, k)
	recs := make([]Recommendation, len(picked))
	for i, idx := range picked {
		recs[i] = Recommendation{
			Index:   idx,
			Article: ix.articles[idx],
			Score:   scores[idx],
		}
	}
	return recs, nil
}
