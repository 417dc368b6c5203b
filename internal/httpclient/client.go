// Package httpclient provides the outbound HTTP transport shared by clients
// of external APIs: User-Agent injection plus request and response hooks for
// logging and metrics.
package httpclient

import (
	"net/http"
	"time"
)

// DefaultUserAgent is sent when Config.UserAgent is empty
const DefaultUserAgent = "EduLearn-API"

// Config holds transport settings
type Config struct {
	// UserAgent is added to requests that do not set one
	UserAgent string

	// Base performs the request. Nil resolves http.DefaultTransport on every
	// request so test doubles installed there are honoured.
	Base http.RoundTripper

	// BeforeRequest runs on the outgoing clone before it is sent
	BeforeRequest func(*http.Request)

	// AfterResponse runs once the round trip completes
	AfterResponse func(req *http.Request, resp *http.Response, err error, elapsed time.Duration)
}

// Transport is an http.RoundTripper applying Config to each request.
// Safe for concurrent use.
type Transport struct {
	cfg Config
}

// NewTransport creates a Transport from cfg
func NewTransport(cfg Config) *Transport {
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	return &Transport{cfg: cfg}
}

// New returns an http.Client using a Transport built from cfg. Deadlines
// come from request contexts, so the client itself has no timeout.
func New(cfg Config) *http.Client {
	return &http.Client{Transport: NewTransport(cfg)}
}

// RoundTrip implements http.RoundTripper
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.cfg.Base
	if base == nil {
		base = http.DefaultTransport
	}

	// RoundTrippers must not modify the caller's request
	out := req.Clone(req.Context())
	if out.Header.Get("User-Agent") == "" {
		out.Header.Set("User-Agent", t.cfg.UserAgent)
	}

	if t.cfg.BeforeRequest != nil {
		t.cfg.BeforeRequest(out)
	}

	start := time.Now()
	resp, err := base.RoundTrip(out)

	if t.cfg.AfterResponse != nil {
		t.cfg.AfterResponse(out, resp, err, time.Since(start))
	}
	return resp, err
}

// CloseIdleConnections forwards to the base transport when it supports it
func (t *Transport) CloseIdleConnections() {
	base := t.cfg.Base
	if base == nil {
		base = http.DefaultTransport
	}
	if closer, ok := base.(interface{ CloseIdleConnections() }); ok {
		closer.CloseIdleConnections()
	}
}
