package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Server      ServerConfig    `toml:"server"`
	Logging     LoggingConfig   `toml:"logging"`
	Storage     StorageConfig   `toml:"storage"`
	WordPress   WordPressConfig `toml:"wordpress"`
	Claude      ClaudeConfig    `toml:"claude"`
	Gemini      GeminiConfig    `toml:"gemini"`
	LLM         LLMConfig       `toml:"llm"`
	Search      SearchConfig    `toml:"search"`
	NLP         NLPConfig       `toml:"nlp"`
	Optimizer   OptimizerConfig `toml:"optimizer"`
	Scheduler   SchedulerConfig `toml:"scheduler"`
}

type ServerConfig struct {
	Port int    `toml:"port" validate:"gte=0,lte=65535"`
	Host string `toml:"host"`
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Output []string `toml:"output"` // "stdout", "file"
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

// WordPressConfig holds the remote content-store connection settings
type WordPressConfig struct {
	SiteURL     string `toml:"site_url" validate:"omitempty,url"` // e.g. "https://example.com"
	Username    string `toml:"username"`                          // Application-password user
	AppPassword string `toml:"app_password"`                      // WordPress application password
	OAuthToken  string `toml:"oauth_token"`                       // Bearer token for WordPress.com sites (used instead of app password)
	Timeout     string `toml:"timeout"`                           // HTTP timeout as duration string (default: "30s")
}

// ClaudeConfig contains Anthropic Claude API configuration for content synthesis
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`     // Anthropic API key
	Model       string  `toml:"model"`       // Model for synthesis (default: "claude-sonnet-4-20250514")
	MaxTokens   int     `toml:"max_tokens"`  // Maximum tokens in response (default: 8192)
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string (default: "5m")
	RateLimit   string  `toml:"rate_limit"`  // Minimum interval between requests (default: "1s")
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.7)
}

// GeminiConfig contains Google Gemini API configuration for content synthesis
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`     // Google Gemini API key
	Model       string  `toml:"model"`       // Model for synthesis (default: "gemini-3-flash-preview")
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string (default: "5m")
	RateLimit   string  `toml:"rate_limit"`  // Minimum interval between requests (default: "4s")
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.7)
}

// LLMProvider represents the AI provider type
type LLMProvider string

const (
	// LLMProviderClaude uses Anthropic Claude API
	LLMProviderClaude LLMProvider = "claude"
	// LLMProviderGemini uses Google Gemini API
	LLMProviderGemini LLMProvider = "gemini"
)

// LLMConfig contains unified configuration for AI providers
type LLMConfig struct {
	DefaultProvider LLMProvider `toml:"default_provider"` // "claude" or "gemini" (default: "claude")
}

// SearchConfig contains configuration for the optional SERP / video discovery service
type SearchConfig struct {
	APIKey         string `toml:"api_key"`         // Search service API key (empty disables entity gap analysis)
	Endpoint       string `toml:"endpoint"`        // Search API endpoint
	RequestTimeout string `toml:"request_timeout"` // HTTP timeout as duration string (default: "20s")
}

// NLPConfig contains configuration for the optional term-analysis service
type NLPConfig struct {
	APIKey   string `toml:"api_key"`  // NLP service API key (empty disables neuron analysis)
	Project  string `toml:"project"`  // NLP project identifier (required alongside api_key)
	Endpoint string `toml:"endpoint"` // NLP API endpoint
}

// OptimizerConfig contains the orchestration core tuning knobs
type OptimizerConfig struct {
	MinWordCount       int    `toml:"min_word_count" validate:"gt=0"`    // Hard quality gate on synthesized content size
	QualityThreshold   int    `toml:"quality_threshold" validate:"gte=0,lte=100"` // Bulk success gate on content score
	BulkConcurrency    int    `toml:"bulk_concurrency" validate:"gte=1"` // Default wave size N
	WaveCooldown       string `toml:"wave_cooldown"`                     // Delay between waves as duration string (default: "5s")
	JobTimeout         string `toml:"job_timeout"`                       // Per-job wall-clock timeout (default: "10m")
	MaxLinkTargets     int    `toml:"max_link_targets"`                  // Cap on internal link candidates (default: 50)
	PreserveCategories bool   `toml:"preserve_categories"`               // Reapply preserved categories on update
	PreserveTags       bool   `toml:"preserve_tags"`                     // Reapply preserved tags on update
	PreserveMedia      bool   `toml:"preserve_media"`                    // Reapply preserved featured media on update
}

// SchedulerConfig contains configuration for scheduled bulk optimization runs
type SchedulerConfig struct {
	Enabled   bool   `toml:"enabled"`
	Schedule  string `toml:"schedule"`   // Cron schedule (default: "0 3 * * *")
	BatchSize int    `toml:"batch_size"` // Lowest-health pages per scheduled run (default: 5)
}

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for production stability;
// only user-facing settings should appear in scribo.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8085,
			Host: "localhost",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout", "file"},
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		WordPress: WordPressConfig{
			Timeout: "30s",
		},
		Claude: ClaudeConfig{
			Model:       "claude-sonnet-4-20250514",
			MaxTokens:   8192,
			Timeout:     "5m",
			RateLimit:   "1s",
			Temperature: 0.7,
		},
		Gemini: GeminiConfig{
			Model:       "gemini-3-flash-preview",
			Timeout:     "5m",
			RateLimit:   "4s", // 15 RPM for free tier
			Temperature: 0.7,
		},
		LLM: LLMConfig{
			DefaultProvider: LLMProviderClaude,
		},
		Search: SearchConfig{
			Endpoint:       "https://serpapi.com/search",
			RequestTimeout: "20s",
		},
		NLP: NLPConfig{
			Endpoint: "https://app.neuronwriter.com/neuron-api/0.5/writer",
		},
		Optimizer: OptimizerConfig{
			MinWordCount:       300,
			QualityThreshold:   50,
			BulkConcurrency:    2,
			WaveCooldown:       "5s",
			JobTimeout:         "10m",
			MaxLinkTargets:     50,
			PreserveCategories: true,
			PreserveTags:       true,
			PreserveMedia:      true,
		},
		Scheduler: SchedulerConfig{
			Enabled:   false,
			Schedule:  "0 3 * * *",
			BatchSize: 5,
		},
	}
}

// LoadFromFile loads configuration with priority: defaults -> file -> env
func LoadFromFile(path string) (*Config, error) {
	config := NewDefaultConfig()

	if path != "" {
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

// Validate checks structural constraints on the configuration
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// ApplyFlagOverrides applies command-line flag overrides (highest priority)
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port != 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// ParseDurationOr parses a duration string, returning fallback on empty or invalid input
func ParseDurationOr(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("SCRIBO_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration
	if port := os.Getenv("SCRIBO_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("SCRIBO_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Logging configuration
	if level := os.Getenv("SCRIBO_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	// Storage configuration
	if badgerPath := os.Getenv("SCRIBO_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	// WordPress configuration
	if siteURL := os.Getenv("SCRIBO_WP_SITE_URL"); siteURL != "" {
		config.WordPress.SiteURL = siteURL
	}
	if username := os.Getenv("SCRIBO_WP_USERNAME"); username != "" {
		config.WordPress.Username = username
	}
	if appPassword := os.Getenv("SCRIBO_WP_APP_PASSWORD"); appPassword != "" {
		config.WordPress.AppPassword = appPassword
	}
	if token := os.Getenv("SCRIBO_WP_OAUTH_TOKEN"); token != "" {
		config.WordPress.OAuthToken = token
	}

	// AI provider keys
	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey
	}
	if apiKey := os.Getenv("SCRIBO_CLAUDE_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey
	}
	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	}
	if provider := os.Getenv("SCRIBO_LLM_PROVIDER"); provider != "" {
		config.LLM.DefaultProvider = LLMProvider(provider)
	}

	// Optional enrichment services
	if apiKey := os.Getenv("SCRIBO_SEARCH_API_KEY"); apiKey != "" {
		config.Search.APIKey = apiKey
	}
	if apiKey := os.Getenv("SCRIBO_NLP_API_KEY"); apiKey != "" {
		config.NLP.APIKey = apiKey
	}
	if project := os.Getenv("SCRIBO_NLP_PROJECT"); project != "" {
		config.NLP.Project = project
	}
}
