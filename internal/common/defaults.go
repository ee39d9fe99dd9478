// Package common provides shared configuration, logging, and identifier utilities.
package common

// NewDefaultConfig returns the default configuration. File values, environment
// variables, and CLI flags layer on top of these in that order.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8085,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path:           "./data/runs",
				ResetOnStartup: false,
			},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout"},
			TimeFormat: "15:04:05",
		},
		Corpus: CorpusConfig{
			EnrichedDir:    "./data/enriched",
			GuiderFile:     "./data/guider/corpus.txt",
			ReloadEnabled:  false,
			ReloadSchedule: "0 * * * *", // hourly
		},
		Enrichment: EnrichmentConfig{
			Concurrency:      10,
			FailureThreshold: 0.25,
		},
		Retrieval: RetrievalConfig{
			Mode:         "lexical",
			K:            15,
			MinScore:     0,
			ChunkTokens:  6800, // sized for one guider chunk per judge call
			ChunkOverlap: 1300,
		},
		Synthesis: SynthesisConfig{
			MaxTokens: 1500,
		},
		Claude: ClaudeConfig{
			APIKey:      "", // User must provide API key (ANTHROPIC_API_KEY or config)
			Model:       "claude-sonnet-4-20250514",
			Timeout:     "2m",
			MaxTokens:   8192,
			Temperature: 0.2,
		},
		Gemini: GeminiConfig{
			APIKey:      "", // User must provide API key (GEMINI_API_KEY or config)
			Model:       "gemini-3-flash-preview",
			Timeout:     "2m",
			Temperature: 0.2,
		},
		LLM: LLMConfig{
			DefaultProvider:   LLMProviderClaude,
			RequestsPerSecond: 5,
			MaxRetries:        3,
		},
	}
}
