package heuristic

import (
	"context"
	"fmt"

	"github.com/datar-psa/summeval/api"
)

// RougeType selects the ROUGE variant computed by the Rouge scorer
type RougeType string

const (
	// Rouge1 measures unigram overlap
	Rouge1 RougeType = "rouge1"
	// Rouge2 measures bigram overlap
	Rouge2 RougeType = "rouge2"
	// RougeL measures the longest common subsequence
	RougeL RougeType = "rougeL"
)

// RougeOptions configures the Rouge scorer
type RougeOptions struct {
	// Type selects ROUGE-1, ROUGE-2 or ROUGE-L (defaults to ROUGE-1)
	Type RougeType
	// UseStemmer stems tokens longer than three characters
	UseStemmer bool
	// Stemmer selects the stemming algorithm (defaults to StemmerPorter)
	Stemmer Stemmer
	// Lemmatizer, when set, replaces stemming with lemmas from an external analyzer
	Lemmatizer api.Lemmatizer
}

// Rouge returns a scorer computing the ROUGE F-measure of Output against Expected.
// Expected is the reference (target), Output is the generated text (prediction).
func Rouge(opts RougeOptions) api.Scorer {
	if opts.Type == "" {
		opts.Type = Rouge1
	}
	return &rougeScorer{
		opts:      opts,
		tokenizer: newOverlapTokenizer(opts),
	}
}

func newOverlapTokenizer(opts RougeOptions) overlapTokenizer {
	stemmer := opts.Stemmer
	if stemmer == "" {
		stemmer = StemmerPorter
	}
	return overlapTokenizer{
		stem:       opts.UseStemmer,
		stemmer:    stemmer,
		lemmatizer: opts.Lemmatizer,
	}
}

type rougeScorer struct {
	opts      RougeOptions
	tokenizer overlapTokenizer
}

func (s *rougeScorer) Score(ctx context.Context, in api.ScoreInputs) api.Score {
	target, prediction, err := tokenizePair(ctx, s.tokenizer, in)
	if err != nil {
		return api.Score{Name: rougeName(s.opts.Type), Metadata: make(map[string]any), Error: err}
	}
	return scoreRouge(s.opts, s.opts.Type, target, prediction)
}

// tokenizePair tokenizes the reference (target) and the generated text (prediction)
func tokenizePair(ctx context.Context, tokenizer overlapTokenizer, in api.ScoreInputs) (target, prediction []string, err error) {
	if in.Expected == "" {
		return nil, nil, api.ErrNoExpectedValue
	}
	target, err = tokenizer.tokenize(ctx, in.Expected)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to tokenize expected: %w", err)
	}
	prediction, err = tokenizer.tokenize(ctx, in.Output)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to tokenize output: %w", err)
	}
	return target, prediction, nil
}

func scoreRouge(opts RougeOptions, rougeType RougeType, target, prediction []string) api.Score {
	result := api.Score{
		Name:     rougeName(rougeType),
		Metadata: make(map[string]any),
	}

	var f fmeasure
	switch rougeType {
	case Rouge1:
		f = rougeN(target, prediction, 1)
	case Rouge2:
		f = rougeN(target, prediction, 2)
	case RougeL:
		f = rougeLCS(target, prediction)
	default:
		result.Error = fmt.Errorf("unknown rouge type %q", rougeType)
		return result
	}

	result.Score = f.fmeasure
	result.Metadata["precision"] = f.precision
	result.Metadata["recall"] = f.recall
	result.Metadata["fmeasure"] = f.fmeasure
	result.Metadata["target_tokens"] = len(target)
	result.Metadata["prediction_tokens"] = len(prediction)
	result.Metadata["use_stemmer"] = opts.UseStemmer
	result.Metadata["lemmatized"] = opts.Lemmatizer != nil

	return result
}

// RougeSuite computes several ROUGE variants from a single tokenization of each text,
// so a lemmatizer is called once per text rather than once per variant.
type RougeSuite struct {
	opts      RougeOptions
	types     []RougeType
	tokenizer overlapTokenizer
}

// NewRougeSuite returns a suite scoring types in order; opts.Type is ignored.
// Without types it scores ROUGE-1, ROUGE-2 and ROUGE-L.
func NewRougeSuite(opts RougeOptions, types ...RougeType) *RougeSuite {
	if len(types) == 0 {
		types = []RougeType{Rouge1, Rouge2, RougeL}
	}
	return &RougeSuite{
		opts:      opts,
		types:     types,
		tokenizer: newOverlapTokenizer(opts),
	}
}

// Score returns one result per configured type. A tokenization failure is reported on every result.
func (s *RougeSuite) Score(ctx context.Context, in api.ScoreInputs) []api.Score {
	results := make([]api.Score, len(s.types))

	target, prediction, err := tokenizePair(ctx, s.tokenizer, in)
	for i, t := range s.types {
		if err != nil {
			results[i] = api.Score{Name: rougeName(t), Metadata: make(map[string]any), Error: err}
			continue
		}
		results[i] = scoreRouge(s.opts, t, target, prediction)
	}
	return results
}

func rougeName(t RougeType) string {
	switch t {
	case Rouge2:
		return "ROUGE-2"
	case RougeL:
		return "ROUGE-L"
	default:
		return "ROUGE-1"
	}
}

type fmeasure struct {
	precision float64
	recall    float64
	fmeasure  float64
}

func newFmeasure(precision, recall float64) fmeasure {
	f := fmeasure{precision: precision, recall: recall}
	if precision+recall > 0 {
		f.fmeasure = 2 * precision * recall / (precision + recall)
	}
	return f
}

// rougeN computes clipped n-gram overlap between target and prediction.
func rougeN(target, prediction []string, n int) fmeasure {
	targetGrams := ngrams(target, n)
	predictionGrams := ngrams(prediction, n)

	overlap := 0
	for gram, count := range predictionGrams {
		overlap += min(count, targetGrams[gram])
	}

	precision := float64(overlap) / float64(max(countTotal(predictionGrams), 1))
	recall := float64(overlap) / float64(max(countTotal(targetGrams), 1))
	return newFmeasure(precision, recall)
}

// rougeLCS scores the longest common subsequence of target and prediction.
func rougeLCS(target, prediction []string) fmeasure {
	if len(target) == 0 || len(prediction) == 0 {
		return fmeasure{}
	}
	lcs := lcsLength(target, prediction)
	return newFmeasure(float64(lcs)/float64(len(prediction)), float64(lcs)/float64(len(target)))
}

// lcsLength runs the classic dynamic program keeping only two rows.
func lcsLength(a, b []string) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else {
				curr[j] = max(prev[j], curr[j-1])
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
