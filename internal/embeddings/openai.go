package embeddings

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// OpenAIEmbedder calls OpenAI's embeddings API.
type OpenAIEmbedder struct {
	model  openai.EmbeddingModel
	client *openai.Client
}

const defaultEmbeddingTimeout = 30 * time.Second

// NewOpenAIEmbedder creates a new OpenAI embedder.
func NewOpenAIEmbedder(apiKey string, model openai.EmbeddingModel) (*OpenAIEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key required")
	}
	if model == "" {
		model = openai.EmbeddingModelTextEmbedding3Small
	}
	cli := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIEmbedder{
		model:  model,
		client: &cli,
	}, nil
}

func (e *OpenAIEmbedder) Model() string {
	return string(e.model)
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) (Vector, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultEmbeddingTimeout)
	defer cancel()

	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{
			OfString: openai.String(text),
		},
		Model: e.model,
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings call: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("openai embeddings call: empty response for model %s", e.model)
	}
	// Convert []float64 to []float32
	embedding := resp.Data[0].Embedding
	vec := make(Vector, len(embedding))
	for i, v := range embedding {
		vec[i] = float32(v)
	}
	return vec, nil
}
