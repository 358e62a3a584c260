package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"newsrec/internal/app"
	"newsrec/internal/corpus"
	"newsrec/internal/httputil"
	"newsrec/internal/ranker"
	"newsrec/internal/recommender"
)

type recommendRequest struct {
	Index int `json:"index" validate:"min=0"`
	K     int `json:"k" validate:"omitempty,min=1,max=50"`
}

type recommendation struct {
	Index   int     `json:"index"`
	ID      string  `json:"id"`
	Title   string  `json:"title"`
	Score   float64 `json:"score"`
	Preview string  `json:"preview"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := app.Build(ctx)
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}
	defer deps.Cache.Close()

	ix, err := buildIndex(ctx, deps)
	if err != nil {
		deps.Log.Error("failed to build index", "err", err)
		os.Exit(1)
	}

	r := httputil.NewRouter(deps.Log)
	r.Post("/api/recommend", recommendHandler(deps, ix))
	r.Get("/api/rankings/{index}", rankingsHandler(deps, ix))
	r.Get("/healthz", httputil.HealthHandler(deps.Log))

	addr := fmt.Sprintf(":%d", deps.Config.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		deps.Log.Info("recommend service listening", "addr", addr, "articles", ix.Len())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		deps.Log.Info("shutting down")
		return srv.Shutdown(context.Background())
	})
	if err := g.Wait(); err != nil {
		deps.Log.Error("recommend service stopped", "err", err)
	}
}

// buildIndex loads the corpus file and embeds it through the cache. Warm
// caches make this a pure replay; cold ones call the provider once per
// distinct article text.
func buildIndex(ctx context.Context, deps app.Deps) (*recommender.Index, error) {
	if deps.Config.CorpusPath == "" {
		return nil, fmt.Errorf("CORPUS_PATH is required")
	}
	f, err := os.Open(deps.Config.CorpusPath)
	if err != nil {
		return nil, fmt.Errorf("open corpus: %w", err)
	}
	defer f.Close()

	articles, err := corpus.Load(f)
	if err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}
	if deps.Config.CorpusSample > 0 {
		articles = corpus.Sample(articles, deps.Config.CorpusSample, deps.Config.CorpusSeed)
	}
	deps.Log.Info("corpus loaded", "path", deps.Config.CorpusPath, "articles", len(articles))

	return recommender.Build(ctx, deps.Cache, articles, deps.Log)
}

func recommendHandler(deps app.Deps, ix *recommender.Index) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req recommendRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.Fail(deps.Log, w, "invalid payload", err, http.StatusBadRequest)
			return
		}

		// Validate request
		if err := httputil.Validator.Struct(&req); err != nil {
			httputil.ValidationError(deps.Log, w, err)
			return
		}

		if req.K == 0 {
			req.K = deps.Config.DefaultTopK
		}

		recs, err := ix.Recommend(req.Index, req.K)
		if err != nil {
			if errors.Is(err, ranker.ErrIndexOutOfRange) || errors.Is(err, ranker.ErrNoEmbeddings) {
				httputil.Fail(deps.Log, w, "invalid query index", err, http.StatusBadRequest)
				return
			}
			httputil.Fail(deps.Log, w, "recommendation failed", err, http.StatusInternalServerError)
			return
		}

		query := ix.Article(req.Index)
		httputil.WriteJSON(w, http.StatusOK, map[string]any{
			"query": recommendation{
				Index:   req.Index,
				ID:      query.ID.String(),
				Title:   query.Title,
				Score:   1.0,
				Preview: truncate(query.Content(), 150),
			},
			"recommendations": buildRecommendations(recs),
		})
	}
}

func rankingsHandler(deps app.Deps, ix *recommender.Index) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		idx, err := strconv.Atoi(chi.URLParam(r, "index"))
		if err != nil {
			httputil.Fail(deps.Log, w, "invalid index", err, http.StatusBadRequest)
			return
		}

		ranked, err := ix.Rankings(idx)
		if err != nil {
			if errors.Is(err, ranker.ErrIndexOutOfRange) || errors.Is(err, ranker.ErrNoEmbeddings) {
				httputil.Fail(deps.Log, w, "invalid query index", err, http.StatusBadRequest)
				return
			}
			httputil.Fail(deps.Log, w, "ranking failed", err, http.StatusInternalServerError)
			return
		}

		out := make([]map[string]any, len(ranked))
		for i, rk := range ranked {
			out[i] = map[string]any{
				"index": rk.Index,
				"score": rk.Score,
				"title": ix.Article(rk.Index).Title,
			}
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]any{
			"query_index": idx,
			"rankings":    out,
		})
	}
}

func buildRecommendations(recs []recommender.Recommendation) []recommendation {
	out := make([]recommendation, len(recs))
	for i, rec := range recs {
		out[i] = recommendation{
			Index:   rec.Index,
			ID:      rec.Article.ID.String(),
			Title:   rec.Article.Title,
			Score:   rec.Score,
			Preview: truncate(rec.Article.Content(), 150),
		}
	}
	return out
}

// truncate limits text to maxLen characters, cutting at word boundary.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	for i := maxLen; i > 0; i-- {
		if s[i] == ' ' {
			return s[:i] + "..."
		}
	}
	return s[:maxLen] + "..."
}
