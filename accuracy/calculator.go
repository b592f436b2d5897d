// Package accuracy computes the summary accuracy metrics (ROUGE-1/2/L, BLEU and BERTScore F1)
// of a generated summary against a human reference.
package accuracy

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/datar-psa/summeval/api"
)

// ErrEmptyInput is returned when the generated or the reference summary is empty
var ErrEmptyInput = errors.New("both generated and reference summaries are required")

// Validate rejects empty or whitespace-only inputs. Callers run it before Calculate.
func Validate(generated, reference string) error {
	if strings.TrimSpace(generated) == "" || strings.TrimSpace(reference) == "" {
		return ErrEmptyInput
	}
	return nil
}

// Calculator evaluates a generated summary against a reference through a Provider
type Calculator struct {
	provider Provider

	ready atomic.Bool
	group singleflight.Group
}

// NewCalculator creates a Calculator over provider
func NewCalculator(provider Provider) *Calculator {
	return &Calculator{provider: provider}
}

// Prepare ensures the provider's one-time resources are present. It is idempotent:
// after one success further calls return immediately, concurrent calls share a
// single attempt and a failed attempt is retried by the next call.
//
// The shared attempt is detached from any single caller's cancellation; each caller
// stops waiting when its own ctx is done while the attempt carries on for the rest.
func (c *Calculator) Prepare(ctx context.Context) error {
	if c.ready.Load() {
		return nil
	}
	preparer, ok := c.provider.(api.Preparer)
	if !ok {
		c.ready.Store(true)
		return nil
	}

	ch := c.group.DoChan("prepare", func() (any, error) {
		if c.ready.Load() {
			return nil, nil
		}
		if err := preparer.Prepare(context.WithoutCancel(ctx)); err != nil {
			return nil, err
		}
		c.ready.Store(true)
		return nil, nil
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Ready reports whether Prepare has succeeded
func (c *Calculator) Ready() bool {
	return c.ready.Load()
}

// Calculate returns the five metrics or the first failure; there are no partial results.
func (c *Calculator) Calculate(ctx context.Context, generated, reference string) (Metrics, error) {
	if err := Validate(generated, reference); err != nil {
		return nil, err
	}
	if err := c.Prepare(ctx); err != nil {
		return nil, fmt.Errorf("prepare scorers: %w", err)
	}

	rouge, err := c.provider.Rouge(ctx, generated, reference)
	if err != nil {
		return nil, fmt.Errorf("rouge: %w", err)
	}
	bleu, err := c.provider.Bleu(ctx, generated, reference)
	if err != nil {
		return nil, fmt.Errorf("bleu: %w", err)
	}
	bert, err := c.provider.BERTScore(ctx, generated, reference)
	if err != nil {
		return nil, fmt.Errorf("bertscore: %w", err)
	}

	return newMetrics(map[string]float64{
		MetricRouge1: rouge.Rouge1,
		MetricRouge2: rouge.Rouge2,
		MetricRougeL: rouge.RougeL,
		MetricBleu:   bleu,
		MetricBERT:   bert,
	}), nil
}
