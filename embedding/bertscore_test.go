package embedding

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"regexp"
	"testing"

	"github.com/datar-psa/summeval/api"
)

var focusRe = regexp.MustCompile(`\[(.*?)\]`)

// mockEmbedder embeds the bracketed focus token of a context through a fixed table
type mockEmbedder struct {
	embeddings map[string][]float64
	err        error
	calls      int
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	focus := text
	if match := focusRe.FindStringSubmatch(text); match != nil {
		focus = match[1]
	}
	if emb, ok := m.embeddings[focus]; ok {
		return emb, nil
	}
	// Return a default embedding if not found
	return []float64{1.0, 0.0, 0.0}, nil
}

// trigramEmbedder hashes character trigrams of the whole context into a fixed-size vector
type trigramEmbedder struct{}

func (trigramEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	vec := make([]float64, 256)
	runes := []rune(text)
	for i := 0; i+3 <= len(runes); i++ {
		h := fnv.New32a()
		h.Write([]byte(string(runes[i : i+3])))
		vec[h.Sum32()%uint32(len(vec))]++
	}
	return vec, nil
}

// mockBatchEmbedder records batch sizes
type mockBatchEmbedder struct {
	trigramEmbedder
	batches []int
	short   bool
}

func (m *mockBatchEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	m.batches = append(m.batches, len(texts))
	out := make([][]float64, 0, len(texts))
	for _, t := range texts {
		v, _ := m.Embed(ctx, t)
		out = append(out, v)
	}
	if m.short {
		return out[:len(out)-1], nil
	}
	return out, nil
}

func TestBERTScore_Unit(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name         string
		embedder     api.Embedder
		opts         BERTScoreOptions
		output       string
		expected     string
		wantErr      error
		wantAnyErr   bool
		wantMinScore float64
		wantMaxScore float64
	}{
		{
			name:         "identical text",
			embedder:     trigramEmbedder{},
			output:       "The cat sat on the mat.",
			expected:     "The cat sat on the mat.",
			wantMinScore: 0.999999,
			wantMaxScore: 1.0,
		},
		{
			name:         "disjoint text",
			embedder:     trigramEmbedder{},
			output:       "Quantum entanglement defies locality.",
			expected:     "The cat sat on the mat.",
			wantMinScore: 0.0,
			wantMaxScore: 0.8,
		},
		{
			name: "half matching tokens",
			embedder: &mockEmbedder{embeddings: map[string][]float64{
				"a": {1.0, 0.0, 0.0},
				"b": {0.0, 1.0, 0.0},
				"c": {0.0, 0.0, 1.0},
			}},
			output:       "a b",
			expected:     "a c",
			wantMinScore: 0.5 - 1e-9,
			wantMaxScore: 0.5 + 1e-9,
		},
		{
			name: "opposite embeddings clamp to zero",
			embedder: &mockEmbedder{embeddings: map[string][]float64{
				"a": {1.0, 0.0, 0.0},
				"b": {-1.0, 0.0, 0.0},
			}},
			output:       "a",
			expected:     "b",
			wantMinScore: 0.0,
			wantMaxScore: 0.0,
		},
		{
			name:         "no expected value",
			embedder:     trigramEmbedder{},
			output:       "hello",
			expected:     "",
			wantErr:      api.ErrNoExpectedValue,
			wantMinScore: 0.0,
			wantMaxScore: 0.0,
		},
		{
			name:         "whitespace output",
			embedder:     trigramEmbedder{},
			output:       "   ",
			expected:     "hello",
			wantErr:      api.ErrNoOutputValue,
			wantMinScore: 0.0,
			wantMaxScore: 0.0,
		},
		{
			name:         "no embedder",
			embedder:     nil,
			output:       "hello",
			expected:     "world",
			wantErr:      api.ErrNoEmbedder,
			wantMinScore: 0.0,
			wantMaxScore: 0.0,
		},
		{
			name:         "embedder error",
			embedder:     &mockEmbedder{err: fmt.Errorf("API error")},
			output:       "hello",
			expected:     "world",
			wantAnyErr:   true,
			wantMinScore: 0.0,
			wantMaxScore: 0.0,
		},
		{
			name:         "unsupported language",
			embedder:     trigramEmbedder{},
			opts:         BERTScoreOptions{Lang: "de"},
			output:       "hallo",
			expected:     "welt",
			wantErr:      ErrUnsupportedLanguage,
			wantMinScore: 0.0,
			wantMaxScore: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scorer := BERTScore(tt.embedder, tt.opts)

			result := scorer.Score(ctx, api.ScoreInputs{Output: tt.output, Expected: tt.expected})

			switch {
			case tt.wantErr != nil:
				if !errors.Is(result.Error, tt.wantErr) {
					t.Errorf("BERTScore.Score() error = %v, wantErr %v", result.Error, tt.wantErr)
				}
			case tt.wantAnyErr:
				if result.Error == nil {
					t.Error("BERTScore.Score() expected error but got none")
				}
			default:
				if result.Error != nil {
					t.Errorf("BERTScore.Score() unexpected error = %v", result.Error)
				}
			}

			if result.Score < tt.wantMinScore || result.Score > tt.wantMaxScore {
				t.Errorf("BERTScore.Score() score = %v, want between %v and %v", result.Score, tt.wantMinScore, tt.wantMaxScore)
			}

			if result.Name != "BERTScore" {
				t.Errorf("BERTScore.Score() name = %v, want 'BERTScore'", result.Name)
			}
		})
	}
}

func TestBERTScore_Metadata(t *testing.T) {
	scorer := BERTScore(trigramEmbedder{}, BERTScoreOptions{})
	result := scorer.Score(context.Background(), api.ScoreInputs{Output: "a quick fox", Expected: "the quick brown fox"})

	if result.Error != nil {
		t.Fatalf("BERTScore.Score() unexpected error = %v", result.Error)
	}
	for _, key := range []string{"precision", "recall", "f1", "embedding_dim"} {
		if result.Metadata[key] == nil {
			t.Errorf("BERTScore.Score() missing %s in metadata", key)
		}
	}
	if result.Metadata["candidate_tokens"] != 3 {
		t.Errorf("candidate_tokens = %v, want 3", result.Metadata["candidate_tokens"])
	}
	if result.Metadata["reference_tokens"] != 4 {
		t.Errorf("reference_tokens = %v, want 4", result.Metadata["reference_tokens"])
	}
}

func TestBERTScore_EmbedsDistinctContextsOnce(t *testing.T) {
	embedder := &mockEmbedder{}
	scorer := BERTScore(embedder, BERTScoreOptions{})

	result := scorer.Score(context.Background(), api.ScoreInputs{Output: "one two three", Expected: "one two three"})
	if result.Error != nil {
		t.Fatalf("BERTScore.Score() unexpected error = %v", result.Error)
	}
	if embedder.calls != 3 {
		t.Errorf("Embed called %d times, want 3", embedder.calls)
	}
}

func TestBERTScore_Batching(t *testing.T) {
	embedder := &mockBatchEmbedder{}
	scorer := BERTScore(embedder, BERTScoreOptions{BatchSize: 2})

	result := scorer.Score(context.Background(), api.ScoreInputs{Output: "a b c", Expected: "d e"})
	if result.Error != nil {
		t.Fatalf("BERTScore.Score() unexpected error = %v", result.Error)
	}
	want := []int{2, 2, 1}
	if fmt.Sprint(embedder.batches) != fmt.Sprint(want) {
		t.Errorf("batches = %v, want %v", embedder.batches, want)
	}

	short := BERTScore(&mockBatchEmbedder{short: true}, BERTScoreOptions{})
	result = short.Score(context.Background(), api.ScoreInputs{Output: "a b", Expected: "c"})
	if result.Error == nil {
		t.Error("BERTScore.Score() expected error for short batch")
	}
}

func TestBERTScore_Deterministic(t *testing.T) {
	scorer := BERTScore(trigramEmbedder{}, BERTScoreOptions{})
	in := api.ScoreInputs{Output: "The cat sat.", Expected: "A cat was sitting."}

	first := scorer.Score(context.Background(), in)
	second := scorer.Score(context.Background(), in)
	if first.Score != second.Score {
		t.Errorf("BERTScore.Score() not deterministic: %v != %v", first.Score, second.Score)
	}
}

func TestWordTokens(t *testing.T) {
	got := wordTokens("The cat's mat, isn't it?")
	want := []string{"The", "cat's", "mat", ",", "isn't", "it", "?"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("wordTokens() = %q, want %q", got, want)
	}
}

func TestTokenContexts(t *testing.T) {
	got := tokenContexts([]string{"a", "b", "c", "d"}, 1)
	want := []string{"[a] b", "a [b] c", "b [c] d", "c [d]"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("tokenContexts() = %q, want %q", got, want)
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name    string
		a       []float64
		b       []float64
		wantSim float64
		epsilon float64
	}{
		{
			name:    "identical vectors",
			a:       []float64{1.0, 0.0, 0.0},
			b:       []float64{1.0, 0.0, 0.0},
			wantSim: 1.0,
			epsilon: 0.001,
		},
		{
			name:    "orthogonal vectors",
			a:       []float64{1.0, 0.0, 0.0},
			b:       []float64{0.0, 1.0, 0.0},
			wantSim: 0.0,
			epsilon: 0.001,
		},
		{
			name:    "opposite vectors",
			a:       []float64{1.0, 0.0, 0.0},
			b:       []float64{-1.0, 0.0, 0.0},
			wantSim: -1.0,
			epsilon: 0.001,
		},
		{
			name:    "different lengths",
			a:       []float64{1.0, 0.0},
			b:       []float64{1.0, 0.0, 0.0},
			wantSim: 0.0,
			epsilon: 0.001,
		},
		{
			name:    "zero vector",
			a:       []float64{0.0, 0.0, 0.0},
			b:       []float64{1.0, 0.0, 0.0},
			wantSim: 0.0,
			epsilon: 0.001,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim := cosineSimilarity(tt.a, tt.b)
			if math.Abs(sim-tt.wantSim) > tt.epsilon {
				t.Errorf("cosineSimilarity() = %v, want %v (±%v)", sim, tt.wantSim, tt.epsilon)
			}
		})
	}
}
