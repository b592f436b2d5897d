package heuristic

import (
	"context"
	"fmt"
	"strings"

	"github.com/kljensen/snowball/english"
	porterstemmer "github.com/reiver/go-porterstemmer"

	"github.com/datar-psa/summeval/api"
)

// minStemLength is the shortest token that gets stemmed; shorter tokens are kept as is.
const minStemLength = 4

// Stemmer selects the stemming algorithm applied to ROUGE tokens
type Stemmer string

const (
	// StemmerPorter is the original Porter algorithm
	StemmerPorter Stemmer = "porter"
	// StemmerSnowball is the English Snowball (Porter2) algorithm
	StemmerSnowball Stemmer = "snowball"
)

// ParseStemmer maps a configuration name to a Stemmer; empty means Porter
func ParseStemmer(name string) (Stemmer, error) {
	switch Stemmer(strings.ToLower(strings.TrimSpace(name))) {
	case "", StemmerPorter:
		return StemmerPorter, nil
	case StemmerSnowball:
		return StemmerSnowball, nil
	default:
		return "", fmt.Errorf("unknown rouge stemmer %q", name)
	}
}

func (s Stemmer) stem(tok string) string {
	if s == StemmerSnowball {
		return english.Stem(tok, true)
	}
	return porterstemmer.StemString(tok)
}

// overlapTokenizer splits text into the lowercase alphanumeric tokens used by ROUGE.
type overlapTokenizer struct {
	stem       bool
	stemmer    Stemmer
	lemmatizer api.Lemmatizer
}

// tokenize lowercases text, treats every run of characters outside [a-z0-9] as a separator
// and optionally stems the resulting tokens.
func (t overlapTokenizer) tokenize(ctx context.Context, text string) ([]string, error) {
	if t.lemmatizer != nil {
		lemmas, err := t.lemmatizer.Lemmatize(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("failed to lemmatize: %w", err)
		}
		return splitAlphanumeric(strings.Join(lemmas, " ")), nil
	}

	tokens := splitAlphanumeric(text)
	if !t.stem {
		return tokens, nil
	}
	for i, tok := range tokens {
		if len(tok) >= minStemLength {
			tokens[i] = t.stemmer.stem(tok)
		}
	}
	return tokens, nil
}

// splitAlphanumeric returns the lowercase [a-z0-9] runs of text.
func splitAlphanumeric(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
}

// ngrams counts the n-grams of tokens. The key joins the tokens with a unit separator.
func ngrams(tokens []string, n int) map[string]int {
	counts := make(map[string]int)
	for i := 0; i+n <= len(tokens); i++ {
		counts[strings.Join(tokens[i:i+n], "\x1f")]++
	}
	return counts
}

func countTotal(counts map[string]int) int {
	total := 0
	for _, c := range counts {
		total += c
	}
	return total
}
