package accuracy

// Metric names, in display order
const (
	MetricRouge1 = "rouge1"
	MetricRouge2 = "rouge2"
	MetricRougeL = "rougeL"
	MetricBleu   = "bleu"
	MetricBERT   = "bert"
)

// Names lists every metric name in the order the calculator returns them
var Names = []string{MetricRouge1, MetricRouge2, MetricRougeL, MetricBleu, MetricBERT}

var labels = map[string]string{
	MetricRouge1: "ROUGE-1 Score",
	MetricRouge2: "ROUGE-2 Score",
	MetricRougeL: "ROUGE-L Score",
	MetricBleu:   "BLEU Score",
	MetricBERT:   "BERTScore F1",
}

// Label returns the human readable label of a metric name
func Label(name string) string {
	if l, ok := labels[name]; ok {
		return l
	}
	return name
}

// Metric is one named score
type Metric struct {
	Name  string  `json:"name"`
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Metrics is the ordered result of one evaluation
type Metrics []Metric

// Get returns the value of the named metric
func (m Metrics) Get(name string) (float64, bool) {
	for _, metric := range m {
		if metric.Name == name {
			return metric.Value, true
		}
	}
	return 0, false
}

// Map returns the metrics keyed by name
func (m Metrics) Map() map[string]float64 {
	out := make(map[string]float64, len(m))
	for _, metric := range m {
		out[metric.Name] = metric.Value
	}
	return out
}

func newMetrics(values map[string]float64) Metrics {
	out := make(Metrics, 0, len(Names))
	for _, name := range Names {
		out = append(out, Metric{Name: name, Label: Label(name), Value: values[name]})
	}
	return out
}
