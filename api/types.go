package api

import "context"

// Embedder generates vector embeddings for text
type Embedder interface {
	// Embed generates an embedding vector for the given text
	Embed(ctx context.Context, text string) ([]float64, error)
}

// BatchEmbedder is implemented by embedders that can embed several texts in one call.
// Scorers that embed many short strings (BERTScore token contexts) use it when available.
type BatchEmbedder interface {
	Embedder
	// EmbedBatch returns one vector per text, in input order
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)
}

// Lemmatizer maps running text to a sequence of normalized word forms.
// A Google Cloud Natural Language implementation is provided in the gemini subpackage
type Lemmatizer interface {
	// Lemmatize returns the lemma of every word token in text, in order
	Lemmatize(ctx context.Context, text string) ([]string, error)
}

// Preparer is implemented by backends that need one-time setup (model load, connectivity
// check) before the first evaluation. Prepare must be safe to call more than once.
type Preparer interface {
	Prepare(ctx context.Context) error
}

// Score represents the result of an evaluation
type Score struct {
	// Name identifies the scorer that produced this result
	Name string
	// Score is a value between 0 and 1, where 1 is the best possible score
	Score float64
	// Metadata contains additional information about the scoring process
	Metadata map[string]any
	// Error contains any error that occurred during scoring
	Error error
}

// ScoreInputs carries inputs for scoring across different scorers.
//
// Fields usage conventions:
// - Output:   the generated text being evaluated (candidate / prediction)
// - Expected: the human reference text (target)
// - Input:    the source document the summary was produced from (optional, unused by overlap scorers)
type ScoreInputs struct {
	Output   string
	Expected string
	Input    string
}

// Scorer evaluates the quality of an output
type Scorer interface {
	// Score evaluates the output and returns a score
	// in: container for output/expected/input depending on scorer needs
	Score(ctx context.Context, in ScoreInputs) Score
}
