package llm

import (
	"fmt"
	"sync"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/pinta-partners/maggid/internal/common"
	"github.com/pinta-partners/maggid/internal/interfaces"
)

// Pipeline stages that each resolve to a configured LLM provider.
const (
	StageEnrichment = "enrichment"
	StageRetrieval  = "retrieval"
	StageSynthesis  = "synthesis"
)

// Factory builds per-stage LLM services from configuration. Provider clients
// are constructed lazily and cached, so two stages configured for the same
// provider share one client. Every returned service is wrapped with the
// shared rate limiter and transient-error retry.
type Factory struct {
	config  *common.Config
	logger  arbor.ILogger
	limiter *rate.Limiter
	retry   *RetryConfig

	mu        sync.Mutex
	providers map[string]interfaces.LLMService
}

// NewFactory creates an LLM service factory from the application config.
func NewFactory(config *common.Config, logger arbor.ILogger) *Factory {
	retry := NewDefaultRetryConfig()
	if config.LLM.MaxRetries > 0 {
		retry.MaxRetries = config.LLM.MaxRetries
	}

	return &Factory{
		config:    config,
		logger:    logger,
		limiter:   NewSharedLimiter(config.LLM.RequestsPerSecond),
		retry:     retry,
		providers: make(map[string]interfaces.LLMService),
	}
}

// ServiceForStage returns the LLM service for a pipeline stage, honoring the
// stage's provider override and falling back to the default provider.
func (f *Factory) ServiceForStage(stage string) (interfaces.LLMService, error) {
	provider := f.providerForStage(stage)
	if provider == "" {
		return nil, fmt.Errorf("no LLM provider configured for stage %s", stage)
	}

	base, err := f.providerService(provider)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s service for stage %s: %w", provider, stage, err)
	}

	return WithRetry(WithRateLimit(base, f.limiter), f.retry, f.logger), nil
}

// Close shuts down every provider client the factory has built.
func (f *Factory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var firstErr error
	for name, service := range f.providers {
		if err := service.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close %s service: %w", name, err)
		}
	}
	f.providers = make(map[string]interfaces.LLMService)
	return firstErr
}

func (f *Factory) providerForStage(stage string) string {
	var override string
	switch stage {
	case StageEnrichment:
		override = f.config.LLM.EnrichmentProvider
	case StageRetrieval:
		override = f.config.LLM.RetrievalProvider
	case StageSynthesis:
		override = f.config.LLM.SynthesisProvider
	}
	if override != "" {
		return override
	}
	return f.config.LLM.DefaultProvider
}

func (f *Factory) providerService(provider string) (interfaces.LLMService, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if service, ok := f.providers[provider]; ok {
		return service, nil
	}

	var (
		service interfaces.LLMService
		err     error
	)
	switch provider {
	case common.LLMProviderClaude:
		service, err = NewClaudeService(&f.config.Claude, f.logger)
	case common.LLMProviderGemini:
		service, err = NewGeminiService(&f.config.Gemini, f.logger)
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s", provider)
	}
	if err != nil {
		return nil, err
	}

	f.providers[provider] = service
	return service, nil
}
