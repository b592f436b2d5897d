// Package app wires configuration into a ready-to-use accuracy calculator.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	language "cloud.google.com/go/language/apiv1"
	"google.golang.org/api/option"
	"google.golang.org/genai"

	"github.com/datar-psa/summeval/accuracy"
	"github.com/datar-psa/summeval/api"
	"github.com/datar-psa/summeval/embedding"
	"github.com/datar-psa/summeval/gemini"
	"github.com/datar-psa/summeval/heuristic"
	"github.com/datar-psa/summeval/internal/config"
	"github.com/datar-psa/summeval/internal/logger"
	"github.com/datar-psa/summeval/ollama"
)

const defaultGeminiModel = "text-embedding-005"

// App holds the calculator and the clients it owns
type App struct {
	Calculator *accuracy.Calculator

	closers []io.Closer
}

// New builds the scorers and backends named by cfg. It does not contact any backend;
// call Calculator.Prepare for that.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{}

	embedder, err := a.embedder(ctx, cfg.Embedding)
	if err != nil {
		return nil, err
	}

	opts, err := ProviderOptions(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Rouge.Lemmatize {
		lemmatizer, err := a.lemmatizer(ctx, cfg)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		opts.Rouge.Lemmatizer = lemmatizer
	}

	a.Calculator = accuracy.NewCalculator(accuracy.NewScorerProvider(embedder, opts))

	logger.Log.Info("Scorers configured",
		"embedding_backend", cfg.Embedding.Backend,
		"embedding_model", cfg.Embedding.Model,
		"rouge_use_stemmer", cfg.Rouge.UseStemmer,
		"rouge_stemmer", cfg.Rouge.Stemmer,
		"rouge_lemmatize", cfg.Rouge.Lemmatize,
		"bleu_smoothing", cfg.Bleu.Smoothing,
		"bert_lang", cfg.BERT.Lang,
	)
	return a, nil
}

// ProviderOptions translates the scorer sections of cfg
func ProviderOptions(cfg *config.Config) (accuracy.ProviderOptions, error) {
	smoothing, err := heuristic.ParseSmoothing(cfg.Bleu.Smoothing)
	if err != nil {
		return accuracy.ProviderOptions{}, fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
	}
	stemmer, err := heuristic.ParseStemmer(cfg.Rouge.Stemmer)
	if err != nil {
		return accuracy.ProviderOptions{}, fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
	}
	return accuracy.ProviderOptions{
		Rouge: heuristic.RougeOptions{
			UseStemmer: cfg.Rouge.UseStemmer,
			Stemmer:    stemmer,
		},
		Bleu: heuristic.BleuOptions{
			MaxN:      cfg.Bleu.MaxN,
			Smoothing: smoothing,
		},
		BERTScore: embedding.BERTScoreOptions{
			Lang:      cfg.BERT.Lang,
			Window:    cfg.BERT.Window,
			BatchSize: cfg.BERT.BatchSize,
		},
	}, nil
}

func (a *App) embedder(ctx context.Context, cfg config.EmbeddingConfig) (api.Embedder, error) {
	switch cfg.Backend {
	case config.BackendOllama:
		e, err := ollama.NewEmbedder(ollama.WithHost(cfg.OllamaHost), ollama.WithModel(cfg.Model))
		if err != nil {
			return nil, fmt.Errorf("ollama embedder: %w", err)
		}
		return e, nil
	case config.BackendGemini:
		clientCfg := &genai.ClientConfig{
			Backend: genai.BackendGeminiAPI,
			APIKey:  cfg.APIKey,
		}
		if cfg.Project != "" {
			clientCfg = &genai.ClientConfig{
				Backend:  genai.BackendVertexAI,
				Project:  cfg.Project,
				Location: cfg.Location,
			}
		}
		client, err := genai.NewClient(ctx, clientCfg)
		if err != nil {
			return nil, fmt.Errorf("genai client: %w", err)
		}
		model := cfg.Model
		if model == "" {
			model = defaultGeminiModel
		}
		return gemini.NewEmbedder(client, model), nil
	default:
		return nil, fmt.Errorf("%w: unknown embedding backend %q", config.ErrInvalidConfig, cfg.Backend)
	}
}

func (a *App) lemmatizer(ctx context.Context, cfg *config.Config) (api.Lemmatizer, error) {
	client, err := language.NewRESTClient(ctx, option.WithQuotaProject(cfg.Embedding.Project))
	if err != nil {
		return nil, fmt.Errorf("language client: %w", err)
	}
	a.closers = append(a.closers, client)
	return gemini.NewGoogleLanguageLemmatizer(client, cfg.BERT.Lang), nil
}

// Close releases the backend clients
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
