package llm

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/pinta-partners/maggid/internal/interfaces"
)

// RateLimitedService decorates an LLMService with a client-side request rate
// limit. Pipeline stages share a single *rate.Limiter so the combined request
// rate stays inside provider quotas regardless of enrichment concurrency.
type RateLimitedService struct {
	inner   interfaces.LLMService
	limiter *rate.Limiter
}

// NewSharedLimiter builds a limiter allowing requestsPerSecond sustained
// requests with a burst of one. A non-positive rate disables limiting.
func NewSharedLimiter(requestsPerSecond float64) *rate.Limiter {
	if requestsPerSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
}

// WithRateLimit wraps service so every Chat call first waits on limiter.
func WithRateLimit(service interfaces.LLMService, limiter *rate.Limiter) *RateLimitedService {
	return &RateLimitedService{
		inner:   service,
		limiter: limiter,
	}
}

// Chat blocks until the limiter grants a slot, then delegates. Returns the
// context error if ctx is cancelled while waiting.
func (s *RateLimitedService) Chat(ctx context.Context, messages []interfaces.Message) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return s.inner.Chat(ctx, messages)
}

func (s *RateLimitedService) HealthCheck(ctx context.Context) error {
	return s.inner.HealthCheck(ctx)
}

func (s *RateLimitedService) Close() error {
	return s.inner.Close()
}
