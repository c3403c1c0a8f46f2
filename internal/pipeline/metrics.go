package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors of the pipeline. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	pulled   prometheus.Counter
	accepted prometheus.Counter
	batches  *prometheus.CounterVec
	failures prometheus.Counter
	duration prometheus.Histogram
	inflight prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		pulled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sampass_records_pulled_total",
			Help: "Records read from the alignment source.",
		}),
		accepted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sampass_records_accepted_total",
			Help: "Records placed into a batch for delivery.",
		}),
		batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sampass_batches_total",
			Help: "Batches dispatched, by mode (async or sync).",
		}, []string{"mode"}),
		failures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sampass_batch_failures_total",
			Help: "Pooled batches that returned an error or panicked.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sampass_batch_duration_seconds",
			Help:    "Time spent delivering one batch to all consumers.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sampass_batches_in_flight",
			Help: "Pooled batches submitted and not yet finished.",
		}),
	}
	for _, c := range []prometheus.Collector{m.pulled, m.accepted, m.batches, m.failures, m.duration, m.inflight} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) recordPulled() {
	if m != nil {
		m.pulled.Inc()
	}
}

func (m *Metrics) recordAccepted() {
	if m != nil {
		m.accepted.Inc()
	}
}

func (m *Metrics) batch(mode string) {
	if m != nil {
		m.batches.WithLabelValues(mode).Inc()
	}
}

func (m *Metrics) batchFailed() {
	if m != nil {
		m.failures.Inc()
	}
}

func (m *Metrics) observe(d time.Duration) {
	if m != nil {
		m.duration.Observe(d.Seconds())
	}
}

func (m *Metrics) inFlight(delta float64) {
	if m != nil {
		m.inflight.Add(delta)
	}
}
