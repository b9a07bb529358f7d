package converter

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	conversions *prometheus.CounterVec
	duration    prometheus.Histogram
	inFlight    prometheus.Gauge
}

// NewMetrics registers the conversion metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		conversions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "quizjson_conversions_total",
			Help: "Image conversions by outcome (ok or failure kind)",
		}, []string{"outcome"}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "quizjson_conversion_duration_seconds",
			Help:    "Wall time of a conversion from encoding to formatted output",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 90, 180},
		}),
		inFlight: f.NewGauge(prometheus.GaugeOpts{
			Name: "quizjson_conversions_in_flight",
			Help: "Conversions currently running",
		}),
	}
}

func (m *Metrics) start() {
	if m != nil {
		m.inFlight.Inc()
	}
}

func (m *Metrics) finish(kind FailureKind, d time.Duration) {
	if m == nil {
		return
	}
	m.inFlight.Dec()
	outcome := "ok"
	if kind != "" {
		outcome = string(kind)
	}
	m.conversions.WithLabelValues(outcome).Inc()
	m.duration.Observe(d.Seconds())
}
