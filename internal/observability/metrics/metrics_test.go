package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAnswer(t *testing.T) {
	registry := prometheus.NewRegistry()
	m, err := NewAnswerMetrics(registry)
	require.NoError(t, err)

	testCases := []struct {
		name     string
		result   string
		expected string
	}{
		{"cache hit", ResultHit, ResultHit},
		{"cache miss", ResultMiss, ResultMiss},
		{"joined in-flight call", ResultShared, ResultShared},
		{"failure", ResultError, ResultError},
		{"unknown result folds into error", "bogus", ResultError},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			before := testutil.ToFloat64(m.answerRequestsTotal.WithLabelValues(tc.expected))
			m.RecordAnswer(tc.result)
			after := testutil.ToFloat64(m.answerRequestsTotal.WithLabelValues(tc.expected))
			assert.InDelta(t, 1, after-before, 0)
		})
	}
}

func TestRecordUpstreamCall(t *testing.T) {
	registry := prometheus.NewRegistry()
	m, err := NewAnswerMetrics(registry)
	require.NoError(t, err)

	m.RecordUpstreamCall(0.25, nil)
	m.RecordUpstreamCall(1.5, errors.New("quota exceeded"))
	m.RecordUpstreamCall(0.5, nil)

	assert.InDelta(t, 2, testutil.ToFloat64(m.upstreamCallsTotal.WithLabelValues(StatusSuccess)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.upstreamCallsTotal.WithLabelValues(StatusError)), 0)

	metric := &dto.Metric{}
	require.NoError(t, m.upstreamCallDuration.Write(metric))
	require.NotNil(t, metric.Histogram)
	assert.Equal(t, uint64(3), metric.Histogram.GetSampleCount())
	assert.InDelta(t, 2.25, metric.Histogram.GetSampleSum(), 1e-9)
}

func TestRecordHTTPRequest(t *testing.T) {
	registry := prometheus.NewRegistry()
	m, err := NewHTTPMetrics(registry)
	require.NoError(t, err)

	m.RecordHTTPRequest("GET", "/api/subject/:subject_name", 200, 0.01)
	m.RecordHTTPRequest("GET", "/api/subject/:subject_name", 404, 0.002)
	m.RecordHTTPRequestError("GET", "/api/subject/:subject_name", "not-found")
	m.RecordHTTPResponseSize("GET", "/api/subject/:subject_name", 512)

	assert.InDelta(t, 1, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("GET", "/api/subject/:subject_name", "200")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("GET", "/api/subject/:subject_name", "404")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.httpRequestErrors.WithLabelValues("GET", "/api/subject/:subject_name", "not-found")), 0)
}

func TestDuplicateRegistrationFails(t *testing.T) {
	registry := prometheus.NewRegistry()
	_, err := NewHTTPMetrics(registry)
	require.NoError(t, err)

	_, err = NewHTTPMetrics(registry)
	assert.Error(t, err, "registering the same collectors twice must fail")
}

func TestCollectorsGather(t *testing.T) {
	registry := prometheus.NewRegistry()
	answer, err := NewAnswerMetrics(registry)
	require.NoError(t, err)
	_, err = NewHTTPMetrics(registry)
	require.NoError(t, err)

	answer.RecordAnswer(ResultHit)
	answer.RecordAnswerLength(420)

	families, err := registry.Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, family := range families {
		names[family.GetName()] = true
	}
	assert.True(t, names["edulearn_answer_requests_total"])
	assert.True(t, names["edulearn_answer_length_bytes"])
}
