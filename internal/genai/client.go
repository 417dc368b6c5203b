// Package genai is the client for the Gemini generative language API.
package genai

import (
	"context"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/edulearn/edulearn-api/internal/errors"
	"github.com/edulearn/edulearn-api/internal/httpclient"
	"github.com/edulearn/edulearn-api/internal/logger"
)

// Generator produces a text completion for a prompt
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Config holds client settings
type Config struct {
	APIKey    string
	Model     string        // model id without the "models/" prefix
	BaseURL   string        // API root
	Timeout   time.Duration // per-call deadline
	RateLimit float64       // requests per second, 0 disables limiting
	Burst     int
	UserAgent string // sent with every request
}

// DefaultConfig returns the settings used for unset fields
func DefaultConfig() Config {
	return Config{
		Model:     "gemini-1.5-flash",
		BaseURL:   "https://generativelanguage.googleapis.com/",
		Timeout:   30 * time.Second,
		RateLimit: 5,
		Burst:     10,
	}
}

// GetLogger returns the genai module logger
func GetLogger() logger.Logger {
	return logger.Global().Module("genai")
}

// Client calls models.generateContent
type Client struct {
	config  Config
	models  *genai.Models
	limiter *rate.Limiter
}

// NewClient creates a Gemini client. A missing API key is a configuration
// error; the SDK's own environment fallback is never consulted.
func NewClient(ctx context.Context, config Config) (*Client, error) {
	if strings.TrimSpace(config.APIKey) == "" {
		return nil, errors.Newf("Gemini API key is required").
			Category(errors.CategoryConfiguration).
			Component("genai").
			Build()
	}

	defaults := DefaultConfig()
	if config.Model == "" {
		config.Model = defaults.Model
	}
	if config.BaseURL == "" {
		config.BaseURL = defaults.BaseURL
	}
	if !strings.HasSuffix(config.BaseURL, "/") {
		config.BaseURL += "/"
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	if config.Burst <= 0 {
		config.Burst = defaults.Burst
	}
	if config.UserAgent == "" {
		config.UserAgent = httpclient.DefaultUserAgent
	}

	// The SDK appends its own label to User-Agent, so ours goes in first
	headers := http.Header{}
	headers.Set("User-Agent", config.UserAgent)

	sdk, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
		HTTPClient: httpclient.New(httpclient.Config{
			UserAgent:     config.UserAgent,
			AfterResponse: logRoundTrip,
		}),
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    config.BaseURL,
			APIVersion: "v1beta",
			Headers:    headers,
		},
	})
	if err != nil {
		return nil, errors.Newf("failed to create Gemini client: %s", logger.RedactSensitiveData(err.Error())).
			Category(errors.CategoryConfiguration).
			Component("genai").
			Build()
	}

	limit := rate.Inf
	if config.RateLimit > 0 {
		limit = rate.Limit(config.RateLimit)
	}

	GetLogger().Info("Gemini client initialized",
		logger.String("model", config.Model),
		logger.String("base_url", config.BaseURL),
		logger.Duration("timeout", config.Timeout),
		logger.Float64("rate_limit", config.RateLimit))

	return &Client{
		config:  config,
		models:  sdk.Models,
		limiter: rate.NewLimiter(limit, config.Burst),
	}, nil
}

// logRoundTrip records each HTTP exchange with the API. URLs are logged
// without their query string.
func logRoundTrip(req *http.Request, resp *http.Response, err error, elapsed time.Duration) {
	fields := []logger.Field{
		logger.String("method", req.Method),
		logger.String("path", req.URL.Path),
		logger.Duration("elapsed", elapsed),
	}
	if err != nil {
		GetLogger().Debug("Gemini request failed", append(fields, logger.Error(err))...)
		return
	}
	GetLogger().Debug("Gemini request completed", append(fields, logger.Int("status", resp.StatusCode))...)
}

// Model returns the configured model id
func (c *Client) Model() string {
	return c.config.Model
}

// Generate sends prompt as a single user turn and returns the concatenated
// text of the first candidate. Every failure is an upstream error.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return "", upstreamError(err, "rate_limit_wait", c.config.Model)
	}

	start := time.Now()
	resp, err := c.models.GenerateContent(ctx, c.config.Model, genai.Text(prompt), nil)
	if err != nil {
		return "", upstreamError(err, "generate_content", c.config.Model)
	}

	text, err := responseText(resp)
	if err != nil {
		return "", upstreamError(err, "parse_response", c.config.Model)
	}

	GetLogger().Debug("Gemini response received",
		logger.String("model", c.config.Model),
		logger.Duration("elapsed", time.Since(start)),
		logger.Int("answer_length", len(text)))

	return text, nil
}

// responseText extracts the answer from the first candidate
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", errors.NewStd("empty response")
	}
	if len(resp.Candidates) == 0 {
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return "", errors.NewStd("prompt blocked: " + string(resp.PromptFeedback.BlockReason))
		}
		return "", errors.NewStd("response contained no candidates")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil {
		if candidate.FinishReason != "" {
			return "", errors.NewStd("no content, finish reason " + string(candidate.FinishReason))
		}
		return "", errors.NewStd("candidate contained no content")
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", errors.NewStd("response contained no text")
	}
	return text, nil
}

// upstreamError wraps a failed call. The message keeps the upstream wording
// with credentials scrubbed.
func upstreamError(err error, operation, model string) error {
	message := err.Error()
	statusCode := 0

	var apiErr genai.APIError
	switch {
	case errors.As(err, &apiErr):
		statusCode = apiErr.Code
		if apiErr.Message != "" {
			message = apiErr.Message
		}
	case errors.Is(err, context.DeadlineExceeded):
		message = "request timed out"
	case errors.Is(err, context.Canceled):
		message = "request canceled"
	}
	message = logger.RedactSensitiveData(message)

	return errors.Newf("Gemini API error: %s", message).
		Component("genai").
		Category(errors.CategoryUpstream).
		Context("operation", operation).
		Context("model", model).
		Context("status_code", statusCode).
		Build()
}
