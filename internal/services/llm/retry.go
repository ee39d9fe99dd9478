package llm

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/pinta-partners/maggid/internal/interfaces"
)

// RetryConfig defines retry behavior for transient LLM API failures, chiefly
// provider rate limiting.
type RetryConfig struct {
	// MaxRetries is the maximum number of retry attempts (default: 3)
	MaxRetries int

	// InitialBackoff is the initial wait time before first retry (default: 30s)
	InitialBackoff time.Duration

	// MaxBackoff is the maximum wait time between retries (default: 90s)
	MaxBackoff time.Duration

	// BackoffMultiplier is applied to backoff on each retry (default: 1.5)
	BackoffMultiplier float64
}

// Default retry constants, sized for provider quota windows of ~60 seconds.
const (
	DefaultMaxRetries        = 3
	DefaultInitialBackoff    = 30 * time.Second
	DefaultMaxBackoff        = 90 * time.Second
	DefaultBackoffMultiplier = 1.5
)

// NewDefaultRetryConfig returns a RetryConfig with sensible defaults.
func NewDefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:        DefaultMaxRetries,
		InitialBackoff:    DefaultInitialBackoff,
		MaxBackoff:        DefaultMaxBackoff,
		BackoffMultiplier: DefaultBackoffMultiplier,
	}
}

// IsTransientError checks if an error is worth retrying: rate limits,
// overload, and server-side failures. Context cancellation is never transient.
func IsTransientError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	if strings.Contains(errStr, "context canceled") {
		return false
	}
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "RESOURCE_EXHAUSTED") ||
		strings.Contains(errStr, "quota") ||
		strings.Contains(errStr, "overloaded") ||
		strings.Contains(errStr, "503") ||
		strings.Contains(errStr, "502") ||
		strings.Contains(errStr, "500")
}

// retryDelayRegex matches "Please retry in Xs" or "retryDelay:Xs" patterns
var retryDelayRegex = regexp.MustCompile(`(?i)(?:Please retry in |retryDelay[:\s]+)(\d+(?:\.\d+)?)\s*s`)

// ExtractRetryDelay parses the API-suggested retry delay from a provider
// error message. Returns 0 if no delay is found.
//
// Example error message:
// "Error 429, Message: ... Please retry in 45.387061394s., Status: RESOURCE_EXHAUSTED"
func ExtractRetryDelay(err error) time.Duration {
	if err == nil {
		return 0
	}

	matches := retryDelayRegex.FindStringSubmatch(err.Error())
	if len(matches) < 2 {
		return 0
	}

	seconds, parseErr := strconv.ParseFloat(matches[1], 64)
	if parseErr != nil {
		return 0
	}

	return time.Duration(seconds * float64(time.Second))
}

// CalculateBackoff computes the backoff duration for a given attempt.
// If apiDelay > 0 (from ExtractRetryDelay), it's used as the base.
// Otherwise, InitialBackoff is used. The result is capped at MaxBackoff.
func (c *RetryConfig) CalculateBackoff(attempt int, apiDelay time.Duration) time.Duration {
	base := c.InitialBackoff
	if apiDelay > 0 {
		// Use API-provided delay plus small buffer
		base = apiDelay + 5*time.Second
	}

	multiplier := 1.0
	for i := 0; i < attempt; i++ {
		multiplier *= c.BackoffMultiplier
	}

	backoff := time.Duration(float64(base) * multiplier)
	if backoff > c.MaxBackoff {
		backoff = c.MaxBackoff
	}

	return backoff
}

// RetryingService decorates an LLMService with transient-error retry on Chat.
type RetryingService struct {
	inner  interfaces.LLMService
	config *RetryConfig
	logger arbor.ILogger
}

// WithRetry wraps service so that transient Chat failures are retried with
// exponential backoff.
func WithRetry(service interfaces.LLMService, config *RetryConfig, logger arbor.ILogger) *RetryingService {
	if config == nil {
		config = NewDefaultRetryConfig()
	}
	return &RetryingService{
		inner:  service,
		config: config,
		logger: logger,
	}
}

// Chat delegates to the wrapped service, retrying transient failures up to
// MaxRetries times. Non-transient failures and context cancellation return
// immediately.
func (s *RetryingService) Chat(ctx context.Context, messages []interfaces.Message) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= s.config.MaxRetries; attempt++ {
		response, err := s.inner.Chat(ctx, messages)
		if err == nil {
			return response, nil
		}
		lastErr = err

		if !IsTransientError(err) || attempt == s.config.MaxRetries {
			break
		}

		backoff := s.config.CalculateBackoff(attempt, ExtractRetryDelay(err))
		s.logger.Warn().
			Err(err).
			Int("attempt", attempt+1).
			Int("max_retries", s.config.MaxRetries).
			Dur("backoff", backoff).
			Msg("Transient LLM error, backing off before retry")

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(backoff):
		}
	}
	return "", lastErr
}

func (s *RetryingService) HealthCheck(ctx context.Context) error {
	return s.inner.HealthCheck(ctx)
}

func (s *RetryingService) Close() error {
	return s.inner.Close()
}
