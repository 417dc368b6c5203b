// Package answer serves AI answers to student questions through a shared
// cache so repeated questions never reach the model twice within the TTL.
package answer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/edulearn/edulearn-api/internal/cache"
	"github.com/edulearn/edulearn-api/internal/errors"
	"github.com/edulearn/edulearn-api/internal/genai"
	"github.com/edulearn/edulearn-api/internal/logger"
	"github.com/edulearn/edulearn-api/internal/observability/metrics"
)

const (
	// DefaultTTL is how long a generated answer stays cached
	DefaultTTL = 3600 * time.Second

	// KeyPrefix namespaces answer entries in the cache
	KeyPrefix = "ai_response:"

	// Preamble is prepended to every question sent to the model
	Preamble = "You are an educational AI assistant for EduLearn, providing clear, concise, and accurate " +
		"step-by-step answers for students across all subjects (math, science, history, literature, " +
		"languages, etc.). Answer the following question with detailed steps and explanations where applicable: "
)

// Result is a served answer
type Result struct {
	Answer string
	Cached bool   // served from the cache without an upstream call
	Key    string // cache key the answer lives under
}

// Service answers questions, consulting the cache before the model
type Service struct {
	store     cache.Store
	generator genai.Generator
	ttl       time.Duration
	metrics   *metrics.AnswerMetrics
	group     singleflight.Group
}

// Option configures a Service
type Option func(*Service)

// WithTTL overrides the answer lifetime
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithMetrics records cache results and upstream timings
func WithMetrics(m *metrics.AnswerMetrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// NewService creates an answer service over store and generator
func NewService(store cache.Store, generator genai.Generator, opts ...Option) *Service {
	s := &Service{
		store:     store,
		generator: generator,
		ttl:       DefaultTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetLogger returns the answer module logger
func GetLogger() logger.Logger {
	return logger.Global().Module("answer")
}

// CacheKey derives the cache key for question. Surrounding whitespace is
// trimmed and case is folded; inner whitespace and punctuation are kept as is.
func CacheKey(question string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(question))))
	return KeyPrefix + hex.EncodeToString(sum[:])
}

// BuildPrompt returns the text sent to the model for question
func BuildPrompt(question string) string {
	return Preamble + strings.TrimSpace(question)
}

// Answer returns the answer to question, from the cache when possible.
// Concurrent misses for the same key share one upstream call.
func (s *Service) Answer(ctx context.Context, question string) (*Result, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		s.record(metrics.ResultError)
		return nil, errors.Newf("Question is required").
			Component("answer").
			Category(errors.CategoryValidation).
			Context("operation", "answer").
			Build()
	}

	key := CacheKey(question)
	log := GetLogger().WithContext(ctx).With(logger.String("cache_key", key))

	if cached, ok := s.store.Get(key); ok {
		s.record(metrics.ResultHit)
		log.Debug("answer served from cache")
		return &Result{Answer: cached, Cached: true, Key: key}, nil
	}

	ch := s.group.DoChan(key, func() (any, error) {
		// Another caller may have filled the entry while this one waited
		if cached, ok := s.store.Get(key); ok {
			return cached, nil
		}
		// The shared call outlives any single caller; the client timeout bounds it
		return s.generate(context.WithoutCancel(ctx), key, question)
	})

	select {
	case <-ctx.Done():
		s.record(metrics.ResultError)
		return nil, errors.New(ctx.Err()).
			Component("answer").
			Category(errors.CategoryUpstream).
			Context("operation", "answer").
			Context("cache_key", key).
			Build()
	case res := <-ch:
		if res.Err != nil {
			s.record(metrics.ResultError)
			log.Error("answer generation failed",
				logger.String("question", question),
				logger.Error(res.Err))
			return nil, res.Err
		}
		if res.Shared {
			s.record(metrics.ResultShared)
		} else {
			s.record(metrics.ResultMiss)
		}
		return &Result{Answer: res.Val.(string), Key: key}, nil
	}
}

// generate calls the model and caches a successful answer. Failures are
// never cached.
func (s *Service) generate(ctx context.Context, key, question string) (string, error) {
	start := time.Now()
	text, err := s.generator.Generate(ctx, BuildPrompt(question))
	elapsed := time.Since(start)
	if s.metrics != nil {
		s.metrics.RecordUpstreamCall(elapsed.Seconds(), err)
	}
	if err != nil {
		return "", errors.New(err).
			Component("answer").
			Category(errors.CategoryUpstream).
			Context("operation", "generate").
			Context("cache_key", key).
			Timing("generate", elapsed).
			Build()
	}

	text = strings.TrimSpace(text)
	s.store.Set(key, text, s.ttl)
	if s.metrics != nil {
		s.metrics.RecordAnswerLength(len(text))
	}

	GetLogger().Info("answer generated and cached",
		logger.String("cache_key", key),
		logger.Duration("elapsed", elapsed),
		logger.Duration("ttl", s.ttl))
	return text, nil
}

func (s *Service) record(result string) {
	if s.metrics != nil {
		s.metrics.RecordAnswer(result)
	}
}
