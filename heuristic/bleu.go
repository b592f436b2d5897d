package heuristic

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/datar-psa/summeval/api"
)

// Smoothing selects how BLEU handles n-gram orders without any match
type Smoothing int

const (
	// SmoothingMethod4 scales zero-count precisions by the hypothesis length,
	// which keeps short texts from collapsing to zero
	SmoothingMethod4 Smoothing = iota
	// SmoothingNone leaves zero-count precisions as is; any of them yields a zero score
	SmoothingNone
	// SmoothingAddEpsilon adds 0.1 to zero-count numerators
	SmoothingAddEpsilon
	// SmoothingAddOne adds one to numerator and denominator of orders above unigrams
	SmoothingAddOne
)

const (
	defaultMaxN     = 4
	smoothEpsilon   = 0.1
	method4Constant = 5.0
)

// String returns the configuration name of the smoothing method
func (s Smoothing) String() string {
	switch s {
	case SmoothingNone:
		return "none"
	case SmoothingAddEpsilon:
		return "add-epsilon"
	case SmoothingAddOne:
		return "add-one"
	default:
		return "method4"
	}
}

// ParseSmoothing maps a configuration name to a Smoothing method
func ParseSmoothing(name string) (Smoothing, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "method4":
		return SmoothingMethod4, nil
	case "none", "method0":
		return SmoothingNone, nil
	case "add-epsilon", "method1":
		return SmoothingAddEpsilon, nil
	case "add-one", "method2":
		return SmoothingAddOne, nil
	default:
		return 0, fmt.Errorf("unknown bleu smoothing %q", name)
	}
}

// BleuOptions configures the Bleu scorer
type BleuOptions struct {
	// MaxN is the highest n-gram order, weighted uniformly (defaults to 4)
	MaxN int
	// Smoothing is applied to orders without matches (defaults to SmoothingMethod4)
	Smoothing Smoothing
}

// Bleu returns a scorer computing sentence BLEU of Output against the single reference Expected.
// Both texts are split on whitespace; case and punctuation are preserved.
// The raw score is reported unclamped.
func Bleu(opts BleuOptions) api.Scorer {
	if opts.MaxN <= 0 {
		opts.MaxN = defaultMaxN
	}
	return &bleuScorer{opts: opts}
}

type bleuScorer struct {
	opts BleuOptions
}

// precision is an unreduced fraction; smoothing needs the original denominator.
type precision struct {
	numerator   float64
	denominator float64
}

func (p precision) value() float64 {
	return p.numerator / p.denominator
}

func (s *bleuScorer) Score(_ context.Context, in api.ScoreInputs) api.Score {
	result := api.Score{
		Name:     "BLEU",
		Metadata: make(map[string]any),
	}

	if in.Expected == "" {
		result.Error = api.ErrNoExpectedValue
		result.Score = 0
		return result
	}

	reference := strings.Fields(in.Expected)
	hypothesis := strings.Fields(in.Output)

	precisions := make([]precision, s.opts.MaxN)
	for n := 1; n <= s.opts.MaxN; n++ {
		precisions[n-1] = modifiedPrecision(reference, hypothesis, n)
	}
	bp := brevityPenalty(len(reference), len(hypothesis))

	result.Metadata["brevity_penalty"] = bp
	result.Metadata["hypothesis_length"] = len(hypothesis)
	result.Metadata["reference_length"] = len(reference)
	result.Metadata["smoothing"] = s.opts.Smoothing.String()
	result.Metadata["precisions"] = precisionValues(precisions)

	// No unigram match means no higher-order match either.
	if precisions[0].numerator == 0 {
		result.Score = 0
		return result
	}

	smoothed := smooth(s.opts.Smoothing, precisions, len(hypothesis))
	weight := 1.0 / float64(s.opts.MaxN)
	logSum := 0.0
	for _, p := range smoothed {
		if p.numerator <= 0 {
			result.Score = 0
			return result
		}
		logSum += weight * math.Log(p.value())
	}

	result.Score = bp * math.Exp(logSum)
	return result
}

// modifiedPrecision clips hypothesis n-gram counts by their count in the reference.
func modifiedPrecision(reference, hypothesis []string, n int) precision {
	hypothesisGrams := ngrams(hypothesis, n)
	referenceGrams := ngrams(reference, n)

	clipped := 0
	for gram, count := range hypothesisGrams {
		clipped += min(count, referenceGrams[gram])
	}
	return precision{
		numerator:   float64(clipped),
		denominator: float64(max(1, countTotal(hypothesisGrams))),
	}
}

func brevityPenalty(referenceLength, hypothesisLength int) float64 {
	if hypothesisLength > referenceLength {
		return 1
	}
	if hypothesisLength == 0 {
		return 0
	}
	return math.Exp(1 - float64(referenceLength)/float64(hypothesisLength))
}

func smooth(method Smoothing, precisions []precision, hypothesisLength int) []precision {
	out := make([]precision, len(precisions))
	copy(out, precisions)

	switch method {
	case SmoothingAddEpsilon:
		for i, p := range out {
			if p.numerator == 0 {
				out[i].numerator = smoothEpsilon
			}
		}
	case SmoothingAddOne:
		for i := 1; i < len(out); i++ {
			out[i].numerator++
			out[i].denominator++
		}
	case SmoothingMethod4:
		if hypothesisLength <= 1 {
			return out
		}
		k := 1.0
		for i, p := range out {
			if p.numerator == 0 {
				out[i].numerator = 1 / (math.Pow(2, k) * method4Constant / math.Log(float64(hypothesisLength)))
				k++
			}
		}
	}
	return out
}

func precisionValues(precisions []precision) []float64 {
	values := make([]float64, len(precisions))
	for i, p := range precisions {
		values[i] = p.value()
	}
	return values
}
