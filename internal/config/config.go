// Package config loads the summeval settings from defaults, an optional YAML file and
// SUMMEVAL_* environment variables.
package config

import (
	"fmt"

	"github.com/datar-psa/summeval/heuristic"
)

// Embedding backends
const (
	BackendGemini = "gemini"
	BackendOllama = "ollama"
)

// Config is the full application configuration
type Config struct {
	LogLevel  string `koanf:"log_level"`
	LogFormat string `koanf:"log_format"`
	Addr      string `koanf:"addr"`

	Rouge     RougeConfig     `koanf:"rouge"`
	Bleu      BleuConfig      `koanf:"bleu"`
	BERT      BERTConfig      `koanf:"bert"`
	Embedding EmbeddingConfig `koanf:"embedding"`
}

// RougeConfig controls ROUGE tokenization
type RougeConfig struct {
	UseStemmer bool `koanf:"use_stemmer"`
	// Stemmer is "porter" (matches rouge_score) or "snowball"
	Stemmer string `koanf:"stemmer"`
	// Lemmatize normalizes tokens through the Google Cloud Natural Language API
	Lemmatize bool `koanf:"lemmatize"`
}

// BleuConfig controls BLEU n-gram order and smoothing
type BleuConfig struct {
	MaxN      int    `koanf:"max_n"`
	Smoothing string `koanf:"smoothing"`
}

// BERTConfig controls the BERTScore scorer
type BERTConfig struct {
	Lang      string `koanf:"lang"`
	Window    int    `koanf:"window"`
	BatchSize int    `koanf:"batch_size"`
}

// EmbeddingConfig selects and configures the embedding backend
type EmbeddingConfig struct {
	Backend    string `koanf:"backend"`
	Model      string `koanf:"model"`
	Project    string `koanf:"project"`
	Location   string `koanf:"location"`
	APIKey     string `koanf:"api_key"`
	OllamaHost string `koanf:"ollama_host"`
}

// New returns the defaults
func New() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: "console",
		Addr:      ":8080",
		Rouge: RougeConfig{
			UseStemmer: true,
			Stemmer:    string(heuristic.StemmerPorter),
		},
		Bleu: BleuConfig{
			MaxN:      4,
			Smoothing: heuristic.SmoothingMethod4.String(),
		},
		BERT: BERTConfig{
			Lang:      "en",
			Window:    2,
			BatchSize: 64,
		},
		Embedding: EmbeddingConfig{
			Backend:    BackendOllama,
			Location:   "us-central1",
			OllamaHost: "http://localhost:11434",
		},
	}
}

// Validate checks value ranges and backend requirements
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.Bleu.MaxN < 1 {
		return fmt.Errorf("%w: bleu.max_n must be at least 1, got %d", ErrInvalidConfig, c.Bleu.MaxN)
	}
	if _, err := heuristic.ParseSmoothing(c.Bleu.Smoothing); err != nil {
		return fmt.Errorf("%w: bleu.smoothing: %v", ErrInvalidConfig, err)
	}
	if c.BERT.Lang == "" {
		return fmt.Errorf("%w: bert.lang must not be empty", ErrInvalidConfig)
	}
	if c.BERT.Window < 0 {
		return fmt.Errorf("%w: bert.window must not be negative", ErrInvalidConfig)
	}
	if c.BERT.BatchSize < 1 {
		return fmt.Errorf("%w: bert.batch_size must be at least 1", ErrInvalidConfig)
	}

	switch c.Embedding.Backend {
	case BackendOllama:
		if c.Embedding.OllamaHost == "" {
			return fmt.Errorf("%w: embedding.ollama_host must not be empty", ErrInvalidConfig)
		}
	case BackendGemini:
		if c.Embedding.Project == "" && c.Embedding.APIKey == "" {
			return fmt.Errorf("%w: gemini backend needs embedding.project or embedding.api_key", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown embedding.backend %q", ErrInvalidConfig, c.Embedding.Backend)
	}

	if _, err := heuristic.ParseStemmer(c.Rouge.Stemmer); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Rouge.Lemmatize && c.Embedding.Project == "" {
		return fmt.Errorf("%w: rouge.lemmatize needs embedding.project for the Natural Language API", ErrInvalidConfig)
	}
	return nil
}
