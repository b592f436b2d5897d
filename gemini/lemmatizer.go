package gemini

import (
	"context"
	"fmt"

	language "cloud.google.com/go/language/apiv1"
	languagepb "cloud.google.com/go/language/apiv1/languagepb"

	"github.com/datar-psa/summeval/api"
)

// GoogleLanguageLemmatizer implements api.Lemmatizer using the Google Cloud Natural Language
// syntax analysis. Punctuation tokens are dropped.
type GoogleLanguageLemmatizer struct {
	client *language.Client
	lang   string
}

// NewGoogleLanguageLemmatizer creates a new lemmatizer using a preconfigured *language.Client (auth handled by caller)
// lang is the BCP-47 document language, e.g. "en"
func NewGoogleLanguageLemmatizer(client *language.Client, lang string) *GoogleLanguageLemmatizer {
	return &GoogleLanguageLemmatizer{client: client, lang: lang}
}

// Lemmatize returns the lemma of each non-punctuation token of text
func (l *GoogleLanguageLemmatizer) Lemmatize(ctx context.Context, text string) ([]string, error) {
	if l.client == nil {
		return nil, fmt.Errorf("language client is required")
	}

	req := &languagepb.AnalyzeSyntaxRequest{
		Document: &languagepb.Document{
			Type:     languagepb.Document_PLAIN_TEXT,
			Language: l.lang,
			Source: &languagepb.Document_Content{
				Content: text,
			},
		},
		EncodingType: languagepb.EncodingType_UTF8,
	}

	resp, err := l.client.AnalyzeSyntax(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("analyze syntax failed: %w", err)
	}

	return lemmas(resp.GetTokens()), nil
}

// Prepare checks that the syntax analysis endpoint answers.
func (l *GoogleLanguageLemmatizer) Prepare(ctx context.Context) error {
	if _, err := l.Lemmatize(ctx, readinessText); err != nil {
		return fmt.Errorf("google language lemmatizer not ready: %w", err)
	}
	return nil
}

// lemmas keeps the lemma of every word token, falling back to the surface text
func lemmas(tokens []*languagepb.Token) []string {
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if tok.GetPartOfSpeech().GetTag() == languagepb.PartOfSpeech_PUNCT {
			continue
		}
		lemma := tok.GetLemma()
		if lemma == "" {
			lemma = tok.GetText().GetContent()
		}
		out = append(out, lemma)
	}
	return out
}

// Verify that GoogleLanguageLemmatizer implements the api interfaces
var (
	_ api.Lemmatizer = (*GoogleLanguageLemmatizer)(nil)
	_ api.Preparer   = (*GoogleLanguageLemmatizer)(nil)
)
