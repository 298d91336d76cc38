package extraction

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the extraction outcome counters.
type Metrics struct {
	runs *prometheus.CounterVec
}

// NewMetrics creates and registers the extraction counters.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "extraction_runs_total",
				Help: "Total number of document extraction runs by engine and outcome.",
			},
			[]string{"engine", "outcome"},
		),
	}
	if err := reg.Register(m.runs); err != nil {
		return nil, err
	}
	return m, nil
}
