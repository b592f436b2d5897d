package accuracy

import (
	"context"
	"errors"
	"fmt"

	"github.com/datar-psa/summeval/api"
	"github.com/datar-psa/summeval/embedding"
	"github.com/datar-psa/summeval/heuristic"
)

// RougeScores holds the ROUGE F-measures of one evaluation
type RougeScores struct {
	Rouge1 float64
	Rouge2 float64
	RougeL float64
}

// Provider computes each metric family. Implementations may call external
// models; tests substitute fakes.
type Provider interface {
	Rouge(ctx context.Context, generated, reference string) (RougeScores, error)
	Bleu(ctx context.Context, generated, reference string) (float64, error)
	BERTScore(ctx context.Context, generated, reference string) (float64, error)
}

// ProviderOptions configures the scorers of a ScorerProvider
type ProviderOptions struct {
	Rouge     heuristic.RougeOptions
	Bleu      heuristic.BleuOptions
	BERTScore embedding.BERTScoreOptions
}

// DefaultProviderOptions enables Porter stemming for ROUGE and method4 smoothing for BLEU
func DefaultProviderOptions() ProviderOptions {
	return ProviderOptions{
		Rouge: heuristic.RougeOptions{UseStemmer: true, Stemmer: heuristic.StemmerPorter},
		Bleu:  heuristic.BleuOptions{Smoothing: heuristic.SmoothingMethod4},
	}
}

// ScorerProvider is the Provider built from the heuristic and embedding scorers
type ScorerProvider struct {
	rouge     *heuristic.RougeSuite
	bleu      api.Scorer
	bertScore api.Scorer
	preparers []api.Preparer
}

// NewScorerProvider wires the five scorers. The embedder backs BERTScore; when it or the
// ROUGE lemmatizer implements api.Preparer it takes part in Prepare.
func NewScorerProvider(embedder api.Embedder, opts ProviderOptions) *ScorerProvider {
	p := &ScorerProvider{
		rouge:     heuristic.NewRougeSuite(opts.Rouge, heuristic.Rouge1, heuristic.Rouge2, heuristic.RougeL),
		bleu:      heuristic.Bleu(opts.Bleu),
		bertScore: embedding.BERTScore(embedder, opts.BERTScore),
	}
	if pr, ok := embedder.(api.Preparer); ok {
		p.preparers = append(p.preparers, pr)
	}
	if pr, ok := opts.Rouge.Lemmatizer.(api.Preparer); ok {
		p.preparers = append(p.preparers, pr)
	}
	return p
}

// Rouge implements Provider.Rouge. Each text is tokenized once for all three variants.
func (p *ScorerProvider) Rouge(ctx context.Context, generated, reference string) (RougeScores, error) {
	results := p.rouge.Score(ctx, api.ScoreInputs{Output: generated, Expected: reference})

	values := make([]float64, len(results))
	for i, result := range results {
		v, err := unwrap(result)
		if err != nil {
			return RougeScores{}, err
		}
		values[i] = v
	}
	return RougeScores{Rouge1: values[0], Rouge2: values[1], RougeL: values[2]}, nil
}

// Bleu implements Provider.Bleu
func (p *ScorerProvider) Bleu(ctx context.Context, generated, reference string) (float64, error) {
	return run(ctx, p.bleu, api.ScoreInputs{Output: generated, Expected: reference})
}

// BERTScore implements Provider.BERTScore
func (p *ScorerProvider) BERTScore(ctx context.Context, generated, reference string) (float64, error) {
	return run(ctx, p.bertScore, api.ScoreInputs{Output: generated, Expected: reference})
}

// Prepare runs every backend's one-time setup
func (p *ScorerProvider) Prepare(ctx context.Context) error {
	var errs []error
	for _, pr := range p.preparers {
		if err := pr.Prepare(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func run(ctx context.Context, scorer api.Scorer, in api.ScoreInputs) (float64, error) {
	return unwrap(scorer.Score(ctx, in))
}

func unwrap(result api.Score) (float64, error) {
	if result.Error != nil {
		return 0, fmt.Errorf("%s: %w", result.Name, result.Error)
	}
	return result.Score, nil
}

// Verify that ScorerProvider implements the interfaces
var (
	_ Provider     = (*ScorerProvider)(nil)
	_ api.Preparer = (*ScorerProvider)(nil)
)
