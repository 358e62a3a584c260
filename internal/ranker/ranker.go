// Package ranker implements exact brute-force cosine ranking over a corpus
// of embeddings. O(n) similarity computations plus an O(n log n) sort per
// query; this is the reference ground truth, not an approximate index.
package ranker

import (
	"errors"
	"fmt"
	"sort"

	"newsrec/internal/embeddings"
)

var (
	ErrNoEmbeddings    = errors.New("no embeddings to rank")
	ErrIndexOutOfRange = errors.New("query index out of range")
)

// Ranked is one entry of a full ranking.
type Ranked struct {
	Index int
	Score float64
}

// Rank scores every embedding against the one at queryIndex and returns the
// full list sorted by descending similarity. Ties keep the original order,
// so among equal scores the lower index comes first. The query index itself
// is included (self-similarity 1.0).
//
// Any zero-norm vector in the input surfaces embeddings.ErrDegenerateVector
// rather than a NaN score.
func Rank(vecs []embeddings.Vector, queryIndex int) ([]Ranked, error) {
	if len(vecs) == 0 {
		return nil, ErrNoEmbeddings
	}
	if queryIndex < 0 || queryIndex >= len(vecs) {
		return nil, fmt.Errorf("%w: %d with %d embeddings", ErrIndexOutOfRange, queryIndex, len(vecs))
	}

	query := vecs[queryIndex]
	ranked := make([]Ranked, len(vecs))
	for i, v := range vecs {
		score, err := embeddings.CosineSimilarity(query, v)
		if err != nil {
			return nil, fmt.Errorf("similarity of %d and %d: %w", queryIndex, i, err)
		}
		ranked[i] = Ranked{Index: i, Score: score}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked, nil
}

// TopK walks a full ranking and collects up to k recommendation indices,
// skipping every entry whose corpus text equals the query's text byte for
// byte. That drops the query itself and any exact duplicates of it. Fewer
// than k qualifying entries is not an error; the short list is returned.
//
// The corpus must parallel the embeddings the ranking was computed over.
func TopK(ranked []Ranked, corpus []string, queryIndex, k int) []int {
	if k <= 0 || queryIndex < 0 || queryIndex >= len(corpus) {
		return nil
	}
	queryText := corpus[queryIndex]

	var picked []int
	for _, r := range ranked {
		if r.Index < 0 || r.Index >= len(corpus) {
			continue
		}
		if corpus[r.Index] == queryText {
			continue
		}
		picked = append(picked, r.Index)
		if len(picked) == k {
			break
		}
	}
	return picked
}
