package api

import "errors"

var (
	// ErrNoExpectedValue is returned when an expected value is required but not provided
	ErrNoExpectedValue = errors.New("expected value is required for this scorer")
	// ErrNoOutputValue is returned when the scored output is empty
	ErrNoOutputValue = errors.New("output value is required for this scorer")
	// ErrNoEmbedder is returned when an embedding-based scorer has no embedder configured
	ErrNoEmbedder = errors.New("embedder is required")
)
