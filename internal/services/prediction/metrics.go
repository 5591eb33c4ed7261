package prediction

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the prediction service collectors. They are registered on the
// registry passed to NewMetrics so tests can use a private one.
type Metrics struct {
	requests    *prometheus.CounterVec
	severities  *prometheus.CounterVec
	latency     prometheus.Histogram
	modelLoaded prometheus.Gauge
	events      *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agripredict", Subsystem: "prediction", Name: "requests_total",
			Help: "Prediction requests by outcome.",
		}, []string{"outcome"}),
		severities: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agripredict", Subsystem: "prediction", Name: "severity_total",
			Help: "Successful predictions by severity tier.",
		}, []string{"tier"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "agripredict", Subsystem: "prediction", Name: "duration_seconds",
			Help:    "Time spent evaluating the model.",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1},
		}),
		modelLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "agripredict", Subsystem: "prediction", Name: "model_loaded",
			Help: "1 when a model artifact is loaded.",
		}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agripredict", Subsystem: "prediction", Name: "events_published_total",
			Help: "Prediction events handed to the broker, by result.",
		}, []string{"result"}),
	}
	if reg != nil {
		reg.MustRegister(m.requests, m.severities, m.latency, m.modelLoaded, m.events)
	}
	return m
}

func (m *Metrics) observe(outcome, tier string, d time.Duration) {
	m.requests.WithLabelValues(outcome).Inc()
	if tier != "" {
		m.severities.WithLabelValues(tier).Inc()
	}
	m.latency.Observe(d.Seconds())
}

func (m *Metrics) setModelLoaded(ok bool) {
	if ok {
		m.modelLoaded.Set(1)
	} else {
		m.modelLoaded.Set(0)
	}
}
