package answer

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/edulearn/edulearn-api/internal/errors"
	"github.com/edulearn/edulearn-api/internal/observability/metrics"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeStore is an in-memory cache.Store driven by a manual clock
type fakeStore struct {
	mu      sync.Mutex
	now     time.Time
	entries map[string]fakeEntry
	sets    int
}

type fakeEntry struct {
	value   string
	expires time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		now:     time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
		entries: make(map[string]fakeEntry),
	}
}

func (f *fakeStore) Get(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.entries[key]
	if !ok || !f.now.Before(e.expires) {
		return "", false
	}
	return e.value, true
}

func (f *fakeStore) Set(key, value string, ttl time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[key] = fakeEntry{value: value, expires: f.now.Add(ttl)}
	f.sets++
}

func (f *fakeStore) advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func (f *fakeStore) expiry(key string) (time.Time, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.entries[key]
	return e.expires, ok
}

// fakeGenerator counts calls and answers with a numbered reply
type fakeGenerator struct {
	calls   atomic.Int32
	err     error
	release chan struct{} // when non-nil, Generate blocks until closed
	prompts chan string
}

func (g *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	n := g.calls.Add(1)
	if g.prompts != nil {
		g.prompts <- prompt
	}
	if g.release != nil {
		<-g.release
	}
	if g.err != nil {
		return "", g.err
	}
	return fmt.Sprintf("  answer #%d  ", n), nil
}

func TestCacheKey(t *testing.T) {
	t.Parallel()

	base := CacheKey("What is photosynthesis?")
	assert.True(t, strings.HasPrefix(base, KeyPrefix))
	assert.Len(t, strings.TrimPrefix(base, KeyPrefix), 64)

	tests := []struct {
		name     string
		question string
		same     bool
	}{
		{"identical", "What is photosynthesis?", true},
		{"case folded", "what is photosynthesis?", true},
		{"upper case", "WHAT IS PHOTOSYNTHESIS?", true},
		{"surrounding whitespace trimmed", "\t What is photosynthesis?  \n", true},
		{"inner whitespace kept", "What  is photosynthesis?", false},
		{"punctuation kept", "What is photosynthesis", false},
		{"different question", "What is osmosis?", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if tt.same {
				assert.Equal(t, base, CacheKey(tt.question))
			} else {
				assert.NotEqual(t, base, CacheKey(tt.question))
			}
		})
	}
}

func TestBuildPrompt(t *testing.T) {
	t.Parallel()

	prompt := BuildPrompt("  Why is the sky blue? ")
	assert.True(t, strings.HasPrefix(prompt, "You are an educational AI assistant for EduLearn"))
	assert.True(t, strings.HasSuffix(prompt, "where applicable: Why is the sky blue?"))
}

func TestAnswerBlankQuestion(t *testing.T) {
	t.Parallel()

	for _, q := range []string{"", " ", "\t\n", "   \r\n  "} {
		t.Run(fmt.Sprintf("%q", q), func(t *testing.T) {
			t.Parallel()
			store := newFakeStore()
			gen := &fakeGenerator{}
			svc := NewService(store, gen)

			res, err := svc.Answer(t.Context(), q)
			require.Error(t, err)
			assert.Nil(t, res)
			assert.True(t, errors.IsValidation(err))
			assert.Equal(t, "Question is required", err.Error())
			assert.Zero(t, gen.calls.Load())
			assert.Zero(t, store.sets)
		})
	}
}

func TestAnswerCachesWithinTTL(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	gen := &fakeGenerator{}
	svc := NewService(store, gen)

	first, err := svc.Answer(t.Context(), "What is photosynthesis?")
	require.NoError(t, err)
	assert.Equal(t, "answer #1", first.Answer, "answers are trimmed")
	assert.False(t, first.Cached)

	expires, ok := store.expiry(first.Key)
	require.True(t, ok)
	assert.Equal(t, store.now.Add(time.Hour), expires)

	store.advance(59 * time.Minute)

	second, err := svc.Answer(t.Context(), "what is photosynthesis?")
	require.NoError(t, err)
	assert.Equal(t, first.Answer, second.Answer)
	assert.Equal(t, first.Key, second.Key)
	assert.True(t, second.Cached)
	assert.Equal(t, int32(1), gen.calls.Load())
}

func TestAnswerRequeriesAfterExpiry(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	gen := &fakeGenerator{}
	svc := NewService(store, gen)

	_, err := svc.Answer(t.Context(), "Define gravity")
	require.NoError(t, err)

	store.advance(time.Hour)

	res, err := svc.Answer(t.Context(), "Define gravity")
	require.NoError(t, err)
	assert.False(t, res.Cached)
	assert.Equal(t, "answer #2", res.Answer)
	assert.Equal(t, int32(2), gen.calls.Load())
}

func TestAnswerUpstreamFailureNotCached(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	upstream := errors.Newf("Gemini API error: quota exceeded").
		Component("genai").
		Category(errors.CategoryUpstream).
		Build()
	gen := &fakeGenerator{err: upstream}
	svc := NewService(store, gen)

	for range 2 {
		res, err := svc.Answer(t.Context(), "Explain tides")
		require.Error(t, err)
		assert.Nil(t, res)
		assert.True(t, errors.IsUpstream(err))
		assert.Contains(t, err.Error(), "quota exceeded")
	}
	assert.Zero(t, store.sets)
	assert.Equal(t, int32(2), gen.calls.Load(), "failures must not be cached")
}

func TestAnswerPlainGeneratorErrorIsUpstream(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{err: errors.NewStd("connection reset by peer")}
	svc := NewService(newFakeStore(), gen)

	_, err := svc.Answer(t.Context(), "Explain tides")
	require.Error(t, err)
	assert.True(t, errors.IsUpstream(err))
	assert.Contains(t, err.Error(), "connection reset by peer")
}

func TestAnswerCollapsesConcurrentMisses(t *testing.T) {
	store := newFakeStore()
	gen := &fakeGenerator{release: make(chan struct{}), prompts: make(chan string, 1)}
	svc := NewService(store, gen)

	const callers = 20
	var wg sync.WaitGroup
	results := make(chan *Result, callers)

	for range callers {
		wg.Go(func() {
			res, err := svc.Answer(t.Context(), "What causes seasons?")
			if assert.NoError(t, err) {
				results <- res
			}
		})
	}

	// Wait for the single upstream call to start, then let it finish
	prompt := <-gen.prompts
	assert.Contains(t, prompt, "What causes seasons?")
	close(gen.release)
	wg.Wait()
	close(results)

	for res := range results {
		assert.Equal(t, "answer #1", res.Answer)
	}
	assert.Equal(t, int32(1), gen.calls.Load())
	assert.Equal(t, 1, store.sets)
}

func TestAnswerCallerCancellation(t *testing.T) {
	store := newFakeStore()
	gen := &fakeGenerator{release: make(chan struct{}), prompts: make(chan string, 1)}
	svc := NewService(store, gen)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() {
		_, err := svc.Answer(ctx, "Slow question")
		done <- err
	}()

	<-gen.prompts
	cancel()

	err := <-done
	require.Error(t, err)
	assert.True(t, errors.IsUpstream(err))
	assert.ErrorIs(t, err, context.Canceled)

	// The shared call still completes and fills the cache for later callers
	close(gen.release)
	require.Eventually(t, func() bool {
		_, ok := store.Get(CacheKey("Slow question"))
		return ok
	}, time.Second, 5*time.Millisecond)
}

func TestAnswerCustomTTL(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	svc := NewService(store, &fakeGenerator{}, WithTTL(10*time.Minute), WithTTL(0))

	res, err := svc.Answer(t.Context(), "Short lived")
	require.NoError(t, err)

	expires, ok := store.expiry(res.Key)
	require.True(t, ok)
	assert.Equal(t, store.now.Add(10*time.Minute), expires)
}

func TestAnswerRecordsMetrics(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	m, err := metrics.NewAnswerMetrics(registry)
	require.NoError(t, err)

	svc := NewService(newFakeStore(), &fakeGenerator{}, WithMetrics(m))

	_, err = svc.Answer(t.Context(), "What is a prime number?")
	require.NoError(t, err)
	_, err = svc.Answer(t.Context(), "What is a prime number?")
	require.NoError(t, err)
	_, err = svc.Answer(t.Context(), " ")
	require.Error(t, err)

	expected := `
# HELP edulearn_answer_requests_total Total number of answer requests by cache result
# TYPE edulearn_answer_requests_total counter
edulearn_answer_requests_total{result="error"} 1
edulearn_answer_requests_total{result="hit"} 1
edulearn_answer_requests_total{result="miss"} 1
`
	require.NoError(t, testutil.GatherAndCompare(registry, strings.NewReader(expected), "edulearn_answer_requests_total"))
}
