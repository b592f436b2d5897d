// Package summeval scores generated summaries against human references with
// ROUGE-1/2/L, BLEU and BERTScore.
package summeval

import (
	language "cloud.google.com/go/language/apiv1"
	"google.golang.org/genai"

	"github.com/datar-psa/summeval/accuracy"
	"github.com/datar-psa/summeval/api"
	"github.com/datar-psa/summeval/embedding"
	"github.com/datar-psa/summeval/gemini"
	"github.com/datar-psa/summeval/heuristic"
	"github.com/datar-psa/summeval/ollama"
)

// Heuristic exposes constructors for the n-gram overlap scorers.
type Heuristic struct {
	lemmatizer api.Lemmatizer
}

// HeuristicOptions configures Heuristic creation
type HeuristicOptions struct {
	lemmatizer api.Lemmatizer
}

// WithLemmatizer normalizes ROUGE tokens through a lemmatizer instead of the stemmer
func WithLemmatizer(l api.Lemmatizer) func(*HeuristicOptions) {
	return func(opts *HeuristicOptions) {
		opts.lemmatizer = l
	}
}

// NewHeuristic creates a new Heuristic.
func NewHeuristic(opts ...func(*HeuristicOptions)) *Heuristic {
	options := &HeuristicOptions{}
	for _, opt := range opts {
		opt(options)
	}
	return &Heuristic{lemmatizer: options.lemmatizer}
}

// GeminiOptions configures the Google backed constructors
type GeminiOptions struct {
	genaiClient *genai.Client
	modelName   string
	langClient  *language.Client
	lang        string
}

// WithGenaiClient sets the Gemini client used for embeddings
func WithGenaiClient(client *genai.Client) func(*GeminiOptions) {
	return func(opts *GeminiOptions) {
		opts.genaiClient = client
	}
}

// WithModelName sets the embedding model name
func WithModelName(modelName string) func(*GeminiOptions) {
	return func(opts *GeminiOptions) {
		opts.modelName = modelName
	}
}

// WithLanguageClient sets the Google Cloud Natural Language client used for lemmatization
func WithLanguageClient(langClient *language.Client) func(*GeminiOptions) {
	return func(opts *GeminiOptions) {
		opts.langClient = langClient
	}
}

// WithLanguage sets the document language passed to the Natural Language API (default "en")
func WithLanguage(lang string) func(*GeminiOptions) {
	return func(opts *GeminiOptions) {
		opts.lang = lang
	}
}

func newGeminiOptions(opts []func(*GeminiOptions)) *GeminiOptions {
	options := &GeminiOptions{lang: "en"}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// NewGeminiHeuristic creates a Heuristic whose ROUGE scorers lemmatize through the Natural Language API.
func NewGeminiHeuristic(opts ...func(*GeminiOptions)) *Heuristic {
	options := newGeminiOptions(opts)

	var heuristicOptions []func(*HeuristicOptions)
	// Only add lemmatizer if langClient is provided
	if options.langClient != nil {
		heuristicOptions = append(heuristicOptions, WithLemmatizer(gemini.NewGoogleLanguageLemmatizer(options.langClient, options.lang)))
	}
	return NewHeuristic(heuristicOptions...)
}

type RougeOptions = heuristic.RougeOptions
type RougeType = heuristic.RougeType
type Stemmer = heuristic.Stemmer

const (
	Rouge1 = heuristic.Rouge1
	Rouge2 = heuristic.Rouge2
	RougeL = heuristic.RougeL

	StemmerPorter   = heuristic.StemmerPorter
	StemmerSnowball = heuristic.StemmerSnowball
)

// Rouge returns a ROUGE-N or ROUGE-L F-measure scorer of Output against Expected.
func (h *Heuristic) Rouge(opts RougeOptions) api.Scorer {
	if opts.Lemmatizer == nil {
		opts.Lemmatizer = h.lemmatizer
	}
	return heuristic.Rouge(opts)
}

type BleuOptions = heuristic.BleuOptions
type Smoothing = heuristic.Smoothing

const (
	SmoothingMethod4    = heuristic.SmoothingMethod4
	SmoothingNone       = heuristic.SmoothingNone
	SmoothingAddEpsilon = heuristic.SmoothingAddEpsilon
	SmoothingAddOne     = heuristic.SmoothingAddOne
)

// Bleu returns a sentence BLEU scorer of Output against the single reference Expected.
func (h *Heuristic) Bleu(opts BleuOptions) api.Scorer {
	return heuristic.Bleu(opts)
}

// Embedding wraps an embedder and exposes constructors for embedding-based scorers.
type Embedding struct{ embedder api.Embedder }

// EmbeddingOptions configures Embedding creation
type EmbeddingOptions struct {
	embedder api.Embedder
}

// WithEmbedder sets the embedder for the embedding scorer
func WithEmbedder(embedder api.Embedder) func(*EmbeddingOptions) {
	return func(opts *EmbeddingOptions) {
		opts.embedder = embedder
	}
}

// NewEmbedding creates a new Embedding wrapper using functional options.
func NewEmbedding(opts ...func(*EmbeddingOptions)) *Embedding {
	options := &EmbeddingOptions{}
	for _, opt := range opts {
		opt(options)
	}
	return &Embedding{embedder: options.embedder}
}

// NewGeminiEmbedding creates an Embedding using Gemini client and model name.
// Example model: "text-embedding-005".
func NewGeminiEmbedding(opts ...func(*GeminiOptions)) *Embedding {
	options := newGeminiOptions(opts)

	var embeddingOptions []func(*EmbeddingOptions)
	// Only add embedder if genaiClient and modelName are provided
	if options.genaiClient != nil && options.modelName != "" {
		embeddingOptions = append(embeddingOptions, WithEmbedder(gemini.NewEmbedder(options.genaiClient, options.modelName)))
	}
	return NewEmbedding(embeddingOptions...)
}

// NewOllamaEmbedding creates an Embedding backed by a local Ollama server.
func NewOllamaEmbedding(opts ...ollama.Option) (*Embedding, error) {
	e, err := ollama.NewEmbedder(opts...)
	if err != nil {
		return nil, err
	}
	return NewEmbedding(WithEmbedder(e)), nil
}

// Embedder returns the wrapped embedder
func (e *Embedding) Embedder() api.Embedder {
	return e.embedder
}

type BERTScoreOptions = embedding.BERTScoreOptions

// BERTScore returns a scorer reporting the BERTScore F1 of Output against Expected.
func (e *Embedding) BERTScore(opts BERTScoreOptions) api.Scorer {
	return embedding.BERTScore(e.embedder, opts)
}

type Calculator = accuracy.Calculator
type Metrics = accuracy.Metrics
type ProviderOptions = accuracy.ProviderOptions

// DefaultProviderOptions enables stemming for ROUGE and method4 smoothing for BLEU
func DefaultProviderOptions() ProviderOptions {
	return accuracy.DefaultProviderOptions()
}

// NewCalculator returns a calculator computing all five summary metrics with e's embedder.
func (e *Embedding) NewCalculator(opts ProviderOptions) *Calculator {
	return accuracy.NewCalculator(accuracy.NewScorerProvider(e.embedder, opts))
}
