package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "kycsbt"

	labelNetwork = "network"
	unknownLabel = "unknown"
)

// PrometheusRecorder counts events and observes latencies per network.
type PrometheusRecorder struct {
	events  *prometheus.CounterVec
	latency *prometheus.HistogramVec
}

// NewPrometheusRecorder registers the kycsbt collectors with reg. A nil reg
// uses the default registerer.
func NewPrometheusRecorder(reg prometheus.Registerer) (Recorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	p := &PrometheusRecorder{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Reconciler, ledger and API events by type.",
		}, []string{"type", labelNetwork}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "latency_seconds",
			Help:      "Registry call, write and HTTP request latency.",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"operation", labelNetwork}),
	}

	for _, c := range []prometheus.Collector{p.events, p.latency} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *PrometheusRecorder) IncCounter(name string, labels map[string]string) {
	p.events.WithLabelValues(name, networkOf(labels)).Inc()
}

func (p *PrometheusRecorder) ObserveLatency(name string, d time.Duration, labels map[string]string) {
	p.latency.WithLabelValues(name, networkOf(labels)).Observe(d.Seconds())
}

func networkOf(labels map[string]string) string {
	if n := labels[labelNetwork]; n != "" {
		return n
	}
	return unknownLabel
}
