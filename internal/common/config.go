package common

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"

	"github.com/ternarybob/suadeo/internal/interfaces"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment" validate:"oneof=development production"`
	Storage     StorageConfig   `toml:"storage"`
	Logging     LoggingConfig   `toml:"logging"`
	Retrieval   RetrievalConfig `toml:"retrieval"`
	Recommend   RecommendConfig `toml:"recommend"`
	Indexing    IndexingConfig  `toml:"indexing"`
	Memory      MemoryConfig    `toml:"memory"`
	Gemini      GeminiConfig    `toml:"gemini"`
	Claude      ClaudeConfig    `toml:"claude"`
	LLM         LLMConfig       `toml:"llm"`
}

type StorageConfig struct {
	Badger  BadgerConfig `toml:"badger"`
	Indexes string       `toml:"indexes"` // Directory holding per-platform vector index snapshots
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs
}

// RetrievalConfig holds the hybrid fusion knobs. Weights are independent
// scaling factors and need not sum to 1.
type RetrievalConfig struct {
	LexicalWeight       float64 `toml:"lexical_weight" validate:"gte=0"`
	VectorWeight        float64 `toml:"vector_weight" validate:"gte=0"`
	PopularityWeight    float64 `toml:"popularity_weight" validate:"gte=0"`
	RelevanceThreshold  float64 `toml:"relevance_threshold" validate:"gte=0"`
	TopK                int     `toml:"top_k" validate:"gt=0"`
	CandidateMultiplier int     `toml:"candidate_multiplier" validate:"gt=0"` // Oversampling factor per index
}

// RecommendConfig holds item-scoring weights for the aggregator.
type RecommendConfig struct {
	RatingWeight     float64 `toml:"rating_weight" validate:"gte=0"`
	PopularityWeight float64 `toml:"popularity_weight" validate:"gte=0"`
	MentionsWeight   float64 `toml:"mentions_weight" validate:"gte=0"`
	TopK             int     `toml:"top_k" validate:"gt=0"`
	// DebugFallback substitutes a canned extraction response when the model
	// output cannot be parsed. Ignored in production.
	DebugFallback bool `toml:"debug_fallback"`
}

type IndexingConfig struct {
	Enabled    bool   `toml:"enabled"`
	Schedule   string `toml:"schedule"`    // Cron schedule for incremental runs
	BatchLimit int    `toml:"batch_limit"` // Max documents embedded per run
}

type MemoryConfig struct {
	RecentLimit int `toml:"recent_limit"` // Conversation turns included in prompts
}

type GeminiConfig struct {
	APIKey             string  `toml:"api_key"`
	Model              string  `toml:"model"`
	EmbeddingModel     string  `toml:"embedding_model"`
	EmbeddingDimension int     `toml:"embedding_dimension" validate:"gt=0"`
	Temperature        float32 `toml:"temperature"`
}

type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	MaxTokens   int     `toml:"max_tokens"`
	Temperature float32 `toml:"temperature"`
}

type LLMConfig struct {
	DefaultProvider string        `toml:"default_provider" validate:"oneof=gemini claude"`
	Timeout         time.Duration `toml:"timeout"`        // Per-call deadline for completions
	MaxConcurrent   int           `toml:"max_concurrent"` // Bounded worker pool size
	RateLimit       time.Duration `toml:"rate_limit"`     // Minimum interval between calls
	MaxRetries      int           `toml:"max_retries"`
}

// NewDefaultConfig returns the configuration defaults. File values, env
// overrides, and CLI flags layer on top.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path:           "./data/suadeo",
				ResetOnStartup: false,
			},
			Indexes: "./data/indexes",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout"},
			TimeFormat: "15:04:05",
		},
		Retrieval: RetrievalConfig{
			// Lexical and vector signals dominate; popularity is a weak
			// quality proxy with capped influence.
			LexicalWeight:       0.55,
			VectorWeight:        0.35,
			PopularityWeight:    0.10,
			RelevanceThreshold:  0.30,
			TopK:                5,
			CandidateMultiplier: 3,
		},
		Recommend: RecommendConfig{
			// Rating and popularity dominate raw mention count so a single
			// viral post cannot eclipse well-regarded items.
			RatingWeight:     0.40,
			PopularityWeight: 0.35,
			MentionsWeight:   0.25,
			TopK:             5,
			DebugFallback:    false,
		},
		Indexing: IndexingConfig{
			Enabled:    false,
			Schedule:   "0 */6 * * *", // Every 6 hours
			BatchLimit: 1000,
		},
		Memory: MemoryConfig{
			RecentLimit: 5,
		},
		Gemini: GeminiConfig{
			APIKey:             "",
			Model:              "gemini-3-flash-preview",
			EmbeddingModel:     "gemini-embedding-001",
			EmbeddingDimension: 768,
			Temperature:        0.7,
		},
		Claude: ClaudeConfig{
			APIKey:      "",
			Model:       "claude-haiku-3-5-20241022",
			MaxTokens:   4096,
			Temperature: 0.7,
		},
		LLM: LLMConfig{
			DefaultProvider: "gemini",
			Timeout:         2 * time.Minute,
			MaxConcurrent:   5,
			RateLimit:       time.Second,
			MaxRetries:      3,
		},
	}
}

// LoadFromFiles loads configuration with layered precedence:
// defaults -> file1 -> file2 -> ... -> environment variables.
// Later files override earlier ones.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks the configuration against struct constraints.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// IsProduction reports whether the environment is production. The aggregator
// uses this to refuse the debug extraction fallback in production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// applyEnvOverrides applies environment variable overrides to the config
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("SUADEO_ENVIRONMENT"); v != "" {
		config.Environment = v
	}
	if v := os.Getenv("SUADEO_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	if v := os.Getenv("SUADEO_BADGER_PATH"); v != "" {
		config.Storage.Badger.Path = v
	}
	if v := os.Getenv("SUADEO_INDEX_DIR"); v != "" {
		config.Storage.Indexes = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		config.Gemini.APIKey = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		config.Claude.APIKey = v
	}
	if v := os.Getenv("SUADEO_LLM_PROVIDER"); v != "" {
		config.LLM.DefaultProvider = v
	}
	if v := os.Getenv("SUADEO_LLM_MAX_CONCURRENT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			config.LLM.MaxConcurrent = n
		}
	}
	if v := os.Getenv("SUADEO_INDEXING_ENABLED"); v != "" {
		config.Indexing.Enabled = strings.EqualFold(v, "true") || v == "1"
	}
}

// ResolveAPIKey resolves an API key by name.
// Resolution order: environment variable -> KV store -> config fallback -> error.
func ResolveAPIKey(ctx context.Context, kvStorage interfaces.KeyValueStorage, name string, configFallback string) (string, error) {
	keyToEnv := map[string]string{
		"gemini_api_key":    "GEMINI_API_KEY",
		"anthropic_api_key": "ANTHROPIC_API_KEY",
	}

	if envName, ok := keyToEnv[name]; ok {
		if envValue := os.Getenv(envName); envValue != "" {
			return envValue, nil
		}
	}

	if kvStorage != nil {
		apiKey, err := kvStorage.Get(ctx, name)
		if err == nil && apiKey != "" {
			return apiKey, nil
		}
	}

	if configFallback != "" {
		return configFallback, nil
	}

	return "", fmt.Errorf("API key '%s' not found in environment, KV store, or config", name)
}
