package embedding

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/datar-psa/summeval/api"
)

// ErrUnsupportedLanguage is returned for a BERTScore language without a configured model
var ErrUnsupportedLanguage = errors.New("unsupported BERTScore language")

const (
	defaultLang      = "en"
	defaultWindow    = 2
	defaultBatchSize = 64
)

// BERTScoreOptions configures the BERTScore scorer
type BERTScoreOptions struct {
	// Lang is the language of both texts. Only "en" is supported (default).
	Lang string
	// Window is the number of neighbouring tokens on each side embedded with a token (default 2)
	Window int
	// BatchSize caps the number of texts per EmbedBatch call (default 64)
	BatchSize int
}

// BERTScore returns a scorer that greedily matches contextual token embeddings of Output
// and Expected by cosine similarity and reports the F1 of the matching precision and recall.
func BERTScore(embedder api.Embedder, opts BERTScoreOptions) api.Scorer {
	if opts.Lang == "" {
		opts.Lang = defaultLang
	}
	if opts.Window <= 0 {
		opts.Window = defaultWindow
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	return &bertScorer{
		opts:     opts,
		embedder: embedder,
	}
}

type bertScorer struct {
	opts     BERTScoreOptions
	embedder api.Embedder
}

func (s *bertScorer) Score(ctx context.Context, in api.ScoreInputs) api.Score {
	result := api.Score{
		Name:     "BERTScore",
		Metadata: make(map[string]any),
	}

	if in.Expected == "" {
		result.Error = api.ErrNoExpectedValue
		result.Score = 0
		return result
	}

	if s.embedder == nil {
		result.Error = api.ErrNoEmbedder
		result.Score = 0
		return result
	}

	if s.opts.Lang != defaultLang {
		result.Error = fmt.Errorf("%w: %q", ErrUnsupportedLanguage, s.opts.Lang)
		return result
	}

	candidate := wordTokens(in.Output)
	reference := wordTokens(in.Expected)
	if len(candidate) == 0 {
		result.Error = api.ErrNoOutputValue
		return result
	}
	if len(reference) == 0 {
		result.Error = api.ErrNoExpectedValue
		return result
	}

	candidateContexts := tokenContexts(candidate, s.opts.Window)
	referenceContexts := tokenContexts(reference, s.opts.Window)

	vectors, err := s.embedAll(ctx, append(append([]string{}, candidateContexts...), referenceContexts...))
	if err != nil {
		result.Error = fmt.Errorf("failed to embed tokens: %w", err)
		return result
	}

	candidateVecs := lookup(vectors, candidateContexts)
	referenceVecs := lookup(vectors, referenceContexts)

	precision, recall := greedyMatch(candidateVecs, referenceVecs)
	f1 := 0.0
	if precision+recall > 0 {
		f1 = 2 * precision * recall / (precision + recall)
	}

	result.Score = clamp01(f1)
	result.Metadata["precision"] = precision
	result.Metadata["recall"] = recall
	result.Metadata["f1"] = f1
	result.Metadata["candidate_tokens"] = len(candidate)
	result.Metadata["reference_tokens"] = len(reference)
	result.Metadata["embedding_dim"] = len(candidateVecs[0])
	result.Metadata["lang"] = s.opts.Lang

	return result
}

// embedAll embeds every distinct text once and returns the vectors keyed by text.
func (s *bertScorer) embedAll(ctx context.Context, texts []string) (map[string][]float64, error) {
	unique := make([]string, 0, len(texts))
	vectors := make(map[string][]float64, len(texts))
	for _, t := range texts {
		if _, ok := vectors[t]; ok {
			continue
		}
		vectors[t] = nil
		unique = append(unique, t)
	}

	batcher, ok := s.embedder.(api.BatchEmbedder)
	if !ok {
		for _, t := range unique {
			vec, err := s.embedder.Embed(ctx, t)
			if err != nil {
				return nil, err
			}
			vectors[t] = vec
		}
		return vectors, nil
	}

	for start := 0; start < len(unique); start += s.opts.BatchSize {
		end := min(start+s.opts.BatchSize, len(unique))
		batch, err := batcher.EmbedBatch(ctx, unique[start:end])
		if err != nil {
			return nil, err
		}
		if len(batch) != end-start {
			return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(batch), end-start)
		}
		for i, vec := range batch {
			vectors[unique[start+i]] = vec
		}
	}
	return vectors, nil
}

func lookup(vectors map[string][]float64, keys []string) [][]float64 {
	out := make([][]float64, len(keys))
	for i, k := range keys {
		out[i] = vectors[k]
	}
	return out
}

// greedyMatch pairs every token with its most similar token on the other side.
// Precision averages over candidate tokens, recall over reference tokens.
func greedyMatch(candidate, reference [][]float64) (precision, recall float64) {
	bestForReference := make([]float64, len(reference))
	for j := range bestForReference {
		bestForReference[j] = math.Inf(-1)
	}

	for _, c := range candidate {
		best := math.Inf(-1)
		for j, r := range reference {
			sim := cosineSimilarity(c, r)
			if sim > best {
				best = sim
			}
			if sim > bestForReference[j] {
				bestForReference[j] = sim
			}
		}
		precision += best
	}
	for _, b := range bestForReference {
		recall += b
	}

	return precision / float64(len(candidate)), recall / float64(len(reference))
}

var wordTokenRe = regexp.MustCompile(`[\p{L}\p{N}]+(?:['’][\p{L}]+)*|[^\s\p{L}\p{N}]`)

// wordTokens splits text into words and single punctuation marks, preserving case.
func wordTokens(text string) []string {
	return wordTokenRe.FindAllString(text, -1)
}

// tokenContexts renders each token inside its neighbourhood, bracketing the focus token,
// so that equal words in different positions receive different embeddings.
func tokenContexts(tokens []string, window int) []string {
	contexts := make([]string, len(tokens))
	var b strings.Builder
	for i := range tokens {
		b.Reset()
		lo := max(0, i-window)
		hi := min(len(tokens), i+window+1)
		for j := lo; j < hi; j++ {
			if j > lo {
				b.WriteByte(' ')
			}
			if j == i {
				b.WriteString("[" + tokens[j] + "]")
			} else {
				b.WriteString(tokens[j])
			}
		}
		contexts[i] = b.String()
	}
	return contexts
}

// cosineSimilarity computes the cosine similarity between two vectors
// Returns a value between -1 and 1, where 1 means identical direction
func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	normA = math.Sqrt(normA)
	normB = math.Sqrt(normB)

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (normA * normB)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
