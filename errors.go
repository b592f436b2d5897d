package summeval

import (
	"github.com/datar-psa/summeval/accuracy"
	"github.com/datar-psa/summeval/api"
	"github.com/datar-psa/summeval/embedding"
)

var (
	// ErrNoExpectedValue is returned when the reference summary is missing
	ErrNoExpectedValue = api.ErrNoExpectedValue
	// ErrNoOutputValue is returned when the generated summary has no tokens
	ErrNoOutputValue = api.ErrNoOutputValue
	// ErrNoEmbedder is returned by BERTScore without an embedder
	ErrNoEmbedder = api.ErrNoEmbedder
	// ErrEmptyInput is returned by the calculator for empty or whitespace-only input
	ErrEmptyInput = accuracy.ErrEmptyInput
	// ErrUnsupportedLanguage is returned by BERTScore for languages other than English
	ErrUnsupportedLanguage = embedding.ErrUnsupportedLanguage
)
