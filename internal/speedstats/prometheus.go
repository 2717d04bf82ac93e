package speedstats

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes codec timings and payload sizes as Prometheus series, so
// a run can be dumped to a node_exporter textfile.
type Metrics struct {
	Registry *prometheus.Registry
	seconds  *prometheus.HistogramVec
	bytes    *prometheus.CounterVec
}

// NewMetrics creates a private registry with the jpegbench collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		seconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "jpegbench",
			Name:      "codec_seconds",
			Help:      "Elapsed codec time per call.",
			Buckets:   prometheus.ExponentialBuckets(1e-4, 2, 18),
		}, []string{"codec", "op"}),
		bytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "jpegbench",
			Name:      "compressed_bytes_total",
			Help:      "Compressed payload bytes produced.",
		}, []string{"codec"}),
	}
	m.Registry.MustRegister(m.seconds, m.bytes)
	return m
}

// Sink returns a sink observing samples for codec and op ("encode" or "decode").
func (m *Metrics) Sink(codec, op string) Sink {
	return observerSink{m.seconds.WithLabelValues(codec, op)}
}

// AddBytes counts compressed output for codec.
func (m *Metrics) AddBytes(codec string, n int) {
	m.bytes.WithLabelValues(codec).Add(float64(n))
}

// WriteTextfile writes the registry in text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}

type observerSink struct {
	obs prometheus.Observer
}

func (o observerSink) NotifyElapsed(seconds float64) {
	o.obs.Observe(seconds)
}
