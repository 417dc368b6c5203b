package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// AnswerMetrics tracks the AI answer cache and the upstream model calls
type AnswerMetrics struct {
	registry *prometheus.Registry

	answerRequestsTotal  *prometheus.CounterVec
	upstreamCallsTotal   *prometheus.CounterVec
	upstreamCallDuration prometheus.Histogram
	answerLength         prometheus.Histogram
}

// NewAnswerMetrics creates and registers the answer service metrics
func NewAnswerMetrics(registry *prometheus.Registry) (*AnswerMetrics, error) {
	m := &AnswerMetrics{registry: registry}
	if err := m.initMetrics(); err != nil {
		return nil, err
	}
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *AnswerMetrics) initMetrics() error {
	m.answerRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edulearn_answer_requests_total",
			Help: "Total number of answer requests by cache result",
		},
		[]string{"result"}, // result: hit, miss, shared, error
	)

	m.upstreamCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edulearn_answer_upstream_calls_total",
			Help: "Total number of calls to the generative model",
		},
		[]string{"status"},
	)

	m.upstreamCallDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "edulearn_answer_upstream_duration_seconds",
			Help:    "Time taken by generative model calls",
			Buckets: prometheus.ExponentialBuckets(BucketStart100ms, BucketFactor2, BucketCount10), // 100ms to ~51s
		},
	)

	m.answerLength = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "edulearn_answer_length_bytes",
			Help:    "Length of generated answers in bytes",
			Buckets: prometheus.ExponentialBuckets(BucketStart100B, BucketFactor2, BucketCount10),
		},
	)

	return nil
}

func (m *AnswerMetrics) getCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.answerRequestsTotal,
		m.upstreamCallsTotal,
		m.upstreamCallDuration,
		m.answerLength,
	}
}

// Describe implements the Collector interface
func (m *AnswerMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, collector := range m.getCollectors() {
		collector.Describe(ch)
	}
}

// Collect implements the Collector interface
func (m *AnswerMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, collector := range m.getCollectors() {
		collector.Collect(ch)
	}
}

// RecordAnswer counts one answer request under its cache result
func (m *AnswerMetrics) RecordAnswer(result string) {
	switch result {
	case ResultHit, ResultMiss, ResultShared, ResultError:
	default:
		result = ResultError
	}
	m.answerRequestsTotal.WithLabelValues(result).Inc()
}

// RecordUpstreamCall records one generative model call and its duration
func (m *AnswerMetrics) RecordUpstreamCall(duration float64, err error) {
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	m.upstreamCallsTotal.WithLabelValues(status).Inc()
	m.upstreamCallDuration.Observe(duration)
}

// RecordAnswerLength observes the size of a freshly generated answer
func (m *AnswerMetrics) RecordAnswerLength(length int) {
	m.answerLength.Observe(float64(length))
}
