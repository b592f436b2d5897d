// Package ollama provides an api.Embedder backed by a local Ollama server,
// for running BERTScore without cloud credentials.
package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	ollamaapi "github.com/ollama/ollama/api"

	"github.com/datar-psa/summeval/api"
)

const (
	// DefaultHost is the address of a locally running Ollama server
	DefaultHost = "http://localhost:11434"
	// DefaultModel is a small English embedding model available in the Ollama library
	DefaultModel = "nomic-embed-text"
)

// Embedder implements api.BatchEmbedder using the Ollama /api/embed endpoint
type Embedder struct {
	client    *ollamaapi.Client
	model     string
	keepAlive time.Duration
}

// Option configures the Embedder
type Option func(*options)

type options struct {
	host       string
	model      string
	httpClient *http.Client
	keepAlive  time.Duration
}

// WithHost sets the Ollama server address, e.g. "http://localhost:11434"
func WithHost(host string) Option {
	return func(o *options) {
		if host != "" {
			o.host = host
		}
	}
}

// WithModel sets the embedding model
func WithModel(model string) Option {
	return func(o *options) {
		if model != "" {
			o.model = model
		}
	}
}

// WithHTTPClient sets the HTTP client used to reach the server
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithKeepAlive sets how long the server keeps the model loaded after a request
func WithKeepAlive(d time.Duration) Option {
	return func(o *options) {
		o.keepAlive = d
	}
}

// NewEmbedder creates an Ollama embedder
func NewEmbedder(opts ...Option) (*Embedder, error) {
	o := &options{
		host:       DefaultHost,
		model:      DefaultModel,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(o)
	}

	host := strings.TrimSpace(o.host)
	if !strings.Contains(host, "://") {
		host = "http://" + host
	}
	base, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama host %q: %w", o.host, err)
	}

	return &Embedder{
		client:    ollamaapi.NewClient(base, o.httpClient),
		model:     o.model,
		keepAlive: o.keepAlive,
	}, nil
}

// Embed implements api.Embedder.Embed
func (e *Embedder) Embed(ctx context.Context, text string) ([]float64, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch implements api.BatchEmbedder.EmbedBatch
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	req := &ollamaapi.EmbedRequest{
		Model: e.model,
		Input: texts,
	}
	if e.keepAlive > 0 {
		req.KeepAlive = &ollamaapi.Duration{Duration: e.keepAlive}
	}

	resp, err := e.client.Embed(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}

	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Embeddings))
	}

	vectors := make([][]float64, len(resp.Embeddings))
	for i, emb := range resp.Embeddings {
		if len(emb) == 0 {
			return nil, fmt.Errorf("empty embedding vector at index %d", i)
		}
		vec := make([]float64, len(emb))
		for j, v := range emb {
			vec[j] = float64(v)
		}
		vectors[i] = vec
	}
	return vectors, nil
}

// Prepare checks that the server is up and the model can embed.
func (e *Embedder) Prepare(ctx context.Context) error {
	if err := e.client.Heartbeat(ctx); err != nil {
		return fmt.Errorf("ollama server not reachable: %w", err)
	}
	if _, err := e.Embed(ctx, "summeval readiness check"); err != nil {
		return fmt.Errorf("ollama model %s not ready: %w", e.model, err)
	}
	return nil
}

// Verify that Embedder implements the api interfaces
var (
	_ api.BatchEmbedder = (*Embedder)(nil)
	_ api.Preparer      = (*Embedder)(nil)
)
