package observability

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewMetricsConcurrency verifies that NewMetrics can be called concurrently
// without causing race conditions
func TestNewMetricsConcurrency(t *testing.T) {
	const numGoroutines = 50

	var wg sync.WaitGroup
	errs := make(chan error, numGoroutines)

	for range numGoroutines {
		wg.Go(func() {
			m, err := NewMetrics()
			if err != nil {
				errs <- err
				return
			}
			if m.registry == nil || m.HTTP == nil || m.Answer == nil {
				errs <- assert.AnError
			}
		})
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("NewMetrics failed: %v", err)
	}
}

func TestHandlerServesRegisteredMetrics(t *testing.T) {
	m, err := NewMetrics()
	require.NoError(t, err)

	m.Answer.RecordAnswer("hit")
	m.HTTP.RecordHTTPRequest(http.MethodPost, "/api/ai", http.StatusOK, 0.2)

	req := httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `edulearn_answer_requests_total{result="hit"} 1`)
	assert.Contains(t, body, `edulearn_http_requests_total{method="POST",route="/api/ai",status_code="200"} 1`)
	assert.Contains(t, body, "go_goroutines")
}
