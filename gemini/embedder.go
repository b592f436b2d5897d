package gemini

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/datar-psa/summeval/api"
)

// semanticSimilarityTask tunes embeddings for comparing texts with each other
const semanticSimilarityTask = "SEMANTIC_SIMILARITY"

// readinessText is the text sent by Prepare calls
const readinessText = "summeval readiness check"

// Embedder wraps a genai.Client to implement the api.Embedder and api.BatchEmbedder interfaces
type Embedder struct {
	client    *genai.Client
	modelName string
}

// NewEmbedder creates a new Gemini embedder
// client: genai.Client from google.golang.org/genai
// modelName: the embedding model to use (e.g., "text-embedding-005")
func NewEmbedder(client *genai.Client, modelName string) *Embedder {
	return &Embedder{
		client:    client,
		modelName: modelName,
	}
}

// Embed implements api.Embedder.Embed
func (e *Embedder) Embed(ctx context.Context, text string) ([]float64, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch implements api.BatchEmbedder.EmbedBatch with a single EmbedContent call
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	if e.client == nil {
		return nil, fmt.Errorf("genai client is required")
	}
	if len(texts) == 0 {
		return nil, nil
	}

	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = &genai.Content{
			Parts: []*genai.Part{
				{Text: text},
			},
		}
	}

	result, err := e.client.Models.EmbedContent(ctx, e.modelName, contents, &genai.EmbedContentConfig{
		TaskType: semanticSimilarityTask,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}

	if len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(result.Embeddings))
	}

	vectors := make([][]float64, len(result.Embeddings))
	for i, emb := range result.Embeddings {
		if emb == nil || len(emb.Values) == 0 {
			return nil, fmt.Errorf("empty embedding vector at index %d", i)
		}
		vectors[i] = toFloat64(emb.Values)
	}

	return vectors, nil
}

// Prepare embeds a short text to check credentials and model availability
func (e *Embedder) Prepare(ctx context.Context) error {
	if _, err := e.Embed(ctx, readinessText); err != nil {
		return fmt.Errorf("gemini embedder %s not ready: %w", e.modelName, err)
	}
	return nil
}

// toFloat64 converts []float32 to []float64
func toFloat64(values []float32) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out
}

// Verify that Embedder implements the api interfaces
var (
	_ api.BatchEmbedder = (*Embedder)(nil)
	_ api.Preparer      = (*Embedder)(nil)
)
