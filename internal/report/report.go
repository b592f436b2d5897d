// Package report formats evaluation results for the web and terminal shells.
package report

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/datar-psa/summeval/accuracy"
)

// Messages shown by both shells
const (
	Title          = "Summary Accuracy Evaluation Dashboard"
	Description    = "Evaluate the accuracy of generated summaries using ROUGE, BLEU, and BERTScore."
	GeneratedLabel = "Model Generated Summary:"
	ReferenceLabel = "Human Reference Summary:"
	ResultsHeading = "Evaluation Results"
	SuccessMessage = "Accuracy evaluation complete!"
	EmptyInputMsg  = "Please enter both generated and reference summaries."
	FailurePrefix  = "Evaluation failed: "
)

const defaultBarWidth = 30

// Row is one rendered metric. Display is the value bounded to [0,1] and is
// used for both the number and the progress indicator.
type Row struct {
	Name    string
	Label   string
	Raw     float64
	Display float64
}

// Formatted returns the display value with four decimals
func (r Row) Formatted() string {
	return fmt.Sprintf("%.4f", r.Display)
}

// Rows converts metrics into display rows, preserving order
func Rows(metrics accuracy.Metrics) []Row {
	rows := make([]Row, 0, len(metrics))
	for _, m := range metrics {
		rows = append(rows, Row{
			Name:    m.Name,
			Label:   m.Label,
			Raw:     m.Value,
			Display: Clamp(m.Value),
		})
	}
	return rows
}

// Clamp bounds v to [0,1]; NaN maps to 0
func Clamp(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}

// Bar renders v as a fixed-width text progress bar
func Bar(v float64, width int) string {
	if width <= 0 {
		width = defaultBarWidth
	}
	filled := int(math.Round(Clamp(v) * float64(width)))
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", width-filled) + "]"
}

// FailureMessage is the user-visible text for a failed evaluation
func FailureMessage(err error) string {
	return FailurePrefix + err.Error()
}

// WriteText prints the results page for a terminal
func WriteText(w io.Writer, metrics accuracy.Metrics) error {
	rows := Rows(metrics)

	width := 0
	for _, r := range rows {
		width = max(width, len(r.Label))
	}

	var b strings.Builder
	b.WriteString(ResultsHeading + "\n")
	b.WriteString(strings.Repeat("=", len(ResultsHeading)) + "\n")
	for _, r := range rows {
		fmt.Fprintf(&b, "%-*s  %s  %s\n", width, r.Label, r.Formatted(), Bar(r.Display, defaultBarWidth))
	}
	b.WriteString("\n" + SuccessMessage + "\n")

	_, err := io.WriteString(w, b.String())
	return err
}
