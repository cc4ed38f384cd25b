package feedback

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for the request counter.
const (
	OutcomeAccepted         = "accepted"
	OutcomeInvalid          = "invalid"
	OutcomeUpstreamError    = "upstream_error"
	OutcomeMethodNotAllowed = "method_not_allowed"
	OutcomePreflight        = "preflight"
	OutcomeInternalError    = "internal_error"
)

// Metrics are the proxy's only process-wide values. They are written by
// handlers and read only by the scrape endpoint.
type Metrics struct {
	Requests       *prometheus.CounterVec
	TrackerLatency prometheus.Histogram
}

// NewMetrics creates the proxy metrics and registers them on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "permitindex",
			Subsystem: "feedback",
			Name:      "requests_total",
			Help:      "Feedback requests by outcome.",
		}, []string{"outcome"}),
		TrackerLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "permitindex",
			Subsystem: "feedback",
			Name:      "tracker_request_seconds",
			Help:      "Latency of issue tracker calls.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	for _, c := range []prometheus.Collector{m.Requests, m.TrackerLatency} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observe(outcome string) {
	if m != nil {
		m.Requests.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) observeLatency(seconds float64) {
	if m != nil {
		m.TrackerLatency.Observe(seconds)
	}
}
