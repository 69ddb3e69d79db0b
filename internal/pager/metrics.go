package pager

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Tile results recorded by Metrics.
const (
	ResultBuilt         = "built"
	ResultEmpty         = "empty"
	ResultMisconfigured = "misconfigured"
	ResultFailed        = "failed"
)

// Metrics counts tile outcomes. A nil *Metrics records nothing.
type Metrics struct {
	Tiles     *prometheus.CounterVec
	Buildings prometheus.Counter
	Duration  prometheus.Histogram
}

// NewMetrics creates the pager metrics and registers them with reg when it
// is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Tiles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bldgen",
			Subsystem: "pager",
			Name:      "tiles_total",
			Help:      "Tile node requests by result.",
		}, []string{"result"}),
		Buildings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bldgen",
			Subsystem: "pager",
			Name:      "buildings_total",
			Help:      "Buildings generated across all tiles.",
		}),
		Duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "bldgen",
			Subsystem: "pager",
			Name:      "create_node_seconds",
			Help:      "Time spent creating a tile node.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Tiles, m.Buildings, m.Duration)
	}
	return m
}

func (m *Metrics) tile(result string) {
	if m == nil {
		return
	}
	m.Tiles.WithLabelValues(result).Inc()
}

func (m *Metrics) buildings(n int) {
	if m == nil {
		return
	}
	m.Buildings.Add(float64(n))
}

func (m *Metrics) observe(seconds float64) {
	if m == nil {
		return
	}
	m.Duration.Observe(seconds)
}
