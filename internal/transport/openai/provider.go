package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/talentrag/internal/domain"
	"github.com/kailas-cloud/talentrag/internal/metrics"
	"github.com/kailas-cloud/talentrag/internal/retry"
)

// DefaultTimeout bounds a single provider attempt.
const DefaultTimeout = 30 * time.Second

// Provider talks to an OpenAI-compatible API for embeddings and chat completions.
type Provider struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	chatModel  string
	dimensions int
	user       string
	provider   string
	timeout    time.Duration
	retry      retry.Config
	rates      domain.RateTable
	logger     *zap.Logger
}

// Config holds the provider settings.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	ChatModel  string
	Dimensions int
	User       string
	Provider   string
	Timeout    time.Duration
	Retry      retry.Config
	Rates      domain.RateTable
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// NewProvider creates an OpenAI-compatible provider.
func NewProvider(cfg *Config) *Provider {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.HTTPClient != nil {
		clientCfg.HTTPClient = cfg.HTTPClient
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	rates := cfg.Rates
	if rates == nil {
		rates = domain.DefaultRates()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Provider{
		client:     openai.NewClientWithConfig(clientCfg),
		model:      openai.EmbeddingModel(cfg.Model),
		chatModel:  cfg.ChatModel,
		dimensions: cfg.Dimensions,
		user:       cfg.User,
		provider:   cfg.Provider,
		timeout:    timeout,
		retry:      cfg.Retry,
		rates:      rates,
		logger:     logger,
	}
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (p *Provider) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if _, err := p.client.ListModels(ctx); err != nil {
		return p.providerError("health", "", err)
	}
	return nil
}

// call runs one provider operation with a per-attempt timeout and bounded retry.
func call[T any](
	ctx context.Context, p *Provider, op, model string,
	fn func(ctx context.Context) (T, error),
) (T, error) {
	onRetry := func(attempt int, err error, delay time.Duration) {
		metrics.EmbeddingRetriesTotal.WithLabelValues(p.provider, op).Inc()
		p.logger.Warn("Provider request failed, retrying",
			zap.String("provider", p.provider),
			zap.String("model", model),
			zap.String("op", op),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", delay),
			zap.Error(err),
		)
	}

	start := time.Now()
	res, err := retry.Do(ctx, p.retry, isRetryable, onRetry, func(ctx context.Context) (T, error) {
		attemptCtx, cancel := context.WithTimeout(ctx, p.timeout)
		defer cancel()
		return fn(attemptCtx)
	})
	duration := time.Since(start)

	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(p.provider, model, op, "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(p.provider, model, errorType(err)).Inc()
		return res, p.providerError(op, model, err)
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues(p.provider, model, op, "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(p.provider, model, op).Observe(duration.Seconds())
	return res, nil
}

func (p *Provider) recordUsage(model string, prompt, completion, total int, cost float64) {
	if prompt > 0 {
		metrics.EmbeddingTokensTotal.WithLabelValues(p.provider, model, "prompt").Add(float64(prompt))
	}
	if completion > 0 {
		metrics.EmbeddingTokensTotal.WithLabelValues(p.provider, model, "completion").Add(float64(completion))
	}
	if total > 0 {
		metrics.EmbeddingTokensTotal.WithLabelValues(p.provider, model, "total").Add(float64(total))
	}
	if cost > 0 {
		metrics.EmbeddingCostUSDTotal.WithLabelValues(p.provider, model).Add(cost)
	}
}

// isRetryable accepts transport errors, attempt timeouts, 408, 429 and 5xx.
// Anything else, including an undecodable response, fails fast.
func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if code := statusCode(err); code != 0 {
		return code == http.StatusRequestTimeout || code == http.StatusTooManyRequests || code >= 500
	}
	return isTransportError(err)
}

func isTransportError(err error) bool {
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func statusCode(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}

func errorType(err error) string {
	code := statusCode(err)
	var empty *emptyResponseError
	switch {
	case errors.As(err, &empty):
		return "bad_response"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case code == http.StatusTooManyRequests:
		return "rate_limited"
	case code >= 500:
		return "server_error"
	case code >= 400:
		return "client_error"
	case isTransportError(err):
		return "network"
	default:
		return "bad_response"
	}
}

// providerError converts a client error into *domain.ProviderError with a readable message.
func (p *Provider) providerError(op, model string, err error) error {
	pe := &domain.ProviderError{Provider: p.provider, Model: model, Op: op, StatusCode: statusCode(err), Err: err}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractDetail(reqErr.Body)
		if detail == "" {
			detail = string(reqErr.Body)
		}
		pe.Err = fmt.Errorf("%s: %w", detail, err)
	}
	if pe.StatusCode == http.StatusTooManyRequests {
		pe.Err = fmt.Errorf("%w: %w", domain.ErrRateLimited, pe.Err)
	}
	return pe
}

// extractDetail extracts the "detail" field from a JSON error body (Nebius error format).
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}

// emptyResponseError is a well-formed response without usable data. Not retried.
type emptyResponseError struct {
	msg string
}

func (e *emptyResponseError) Error() string { return e.msg }
