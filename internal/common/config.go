package common

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// LLM provider identifiers used in LLMConfig.
const (
	LLMProviderClaude = "claude"
	LLMProviderGemini = "gemini"
)

// Config represents the application configuration
type Config struct {
	Environment string           `toml:"environment"` // "development" or "production"
	Server      ServerConfig     `toml:"server"`
	Storage     StorageConfig    `toml:"storage"`
	Logging     LoggingConfig    `toml:"logging"`
	Corpus      CorpusConfig     `toml:"corpus"`
	Enrichment  EnrichmentConfig `toml:"enrichment"`
	Retrieval   RetrievalConfig  `toml:"retrieval"`
	Synthesis   SynthesisConfig  `toml:"synthesis"`
	Claude      ClaudeConfig     `toml:"claude"`
	Gemini      GeminiConfig     `toml:"gemini"`
	LLM         LLMConfig        `toml:"llm"`
}

type ServerConfig struct {
	Port int    `toml:"port" validate:"gte=0,lte=65535"`
	Host string `toml:"host"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration for the run store
type BadgerConfig struct {
	Path           string `toml:"path" validate:"required"` // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"`         // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs (default: "15:04:05")
}

// CorpusConfig describes where enriched passage CSVs live and how the
// in-memory corpus is refreshed.
type CorpusConfig struct {
	EnrichedDir    string `toml:"enriched_dir"`    // Directory of enriched passage CSVs, merged in sorted filename order
	GuiderFile     string `toml:"guider_file"`     // Where the serialized guider text is written (empty = not written)
	ReloadEnabled  bool   `toml:"reload_enabled"`  // Enable scheduled corpus reloads
	ReloadSchedule string `toml:"reload_schedule"` // Cron schedule for corpus reloads (e.g. "0 * * * *")
}

// EnrichmentConfig controls the passage enrichment batch stage.
type EnrichmentConfig struct {
	Concurrency      int     `toml:"concurrency" validate:"gte=1"`             // Max in-flight passages
	FailureThreshold float64 `toml:"failure_threshold" validate:"gte=0,lte=1"` // Fraction of failed records that makes the batch exit non-zero
}

// RetrievalConfig controls evidence selection.
type RetrievalConfig struct {
	Mode         string  `toml:"mode" validate:"oneof=lexical llm"` // Scoring strategy
	K            int     `toml:"k" validate:"gte=1"`                // Evidence cap per query
	MinScore     float64 `toml:"min_score"`                        // Passages scoring below this are never returned
	ChunkTokens  int     `toml:"chunk_tokens" validate:"gte=1"`    // Guider chunk size for the LLM-judged scorer
	ChunkOverlap int     `toml:"chunk_overlap" validate:"gte=0"`   // Token overlap between consecutive chunks
}

// SynthesisConfig controls grounded answer generation.
type SynthesisConfig struct {
	MaxTokens int `toml:"max_tokens" validate:"gte=1"` // Answer budget
}

// ClaudeConfig contains Anthropic Claude API settings
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	Timeout     string  `toml:"timeout"` // Per-call timeout, e.g. "2m"
	MaxTokens   int     `toml:"max_tokens"`
	Temperature float32 `toml:"temperature"`
}

// GeminiConfig contains Google Gemini API settings
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	Timeout     string  `toml:"timeout"`
	Temperature float32 `toml:"temperature"`
}

// LLMConfig selects the provider per pipeline stage and bounds outbound calls.
// Empty stage values fall back to DefaultProvider.
type LLMConfig struct {
	DefaultProvider    string  `toml:"default_provider" validate:"oneof=claude gemini"`
	EnrichmentProvider string  `toml:"enrichment_provider"`
	RetrievalProvider  string  `toml:"retrieval_provider"`
	SynthesisProvider  string  `toml:"synthesis_provider"`
	RequestsPerSecond  float64 `toml:"requests_per_second" validate:"gt=0"` // Shared rate limit across all stages
	MaxRetries         int     `toml:"max_retries" validate:"gte=0"`        // Retry ceiling for transient failures
}

// LoadFromFiles loads configuration with priority: defaults -> file1 -> file2 -> ... -> env.
// Later files override earlier files; environment variables override all files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks the configuration against its struct tags.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("MAGGID_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration
	if port := os.Getenv("MAGGID_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("MAGGID_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Storage configuration
	if badgerPath := os.Getenv("MAGGID_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	// Logging configuration
	if level := os.Getenv("MAGGID_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	// Corpus configuration
	if dir := os.Getenv("MAGGID_CORPUS_DIR"); dir != "" {
		config.Corpus.EnrichedDir = dir
	}

	// API keys: provider-native variables take precedence over config values
	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey
	}
	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	}
}
