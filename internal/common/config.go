package common

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Operational OperationalConfig `toml:"operational_parameters" json:"operational_parameters"`
	Discovery   DiscoveryConfig   `toml:"discovery_settings" json:"discovery_settings"`
	Crawler     CrawlerConfig     `toml:"crawler_settings" json:"crawler_settings"`
	Maintenance MaintenanceConfig `toml:"maintenance_settings" json:"maintenance_settings"`
	LLM         LLMConfig         `toml:"llm_settings" json:"llm_settings"`
	Search      SearchConfig      `toml:"search_settings" json:"search_settings"`
	Classifier  ClassifierConfig  `toml:"classifier" json:"classifier"`
	Storage     StorageConfig     `toml:"storage" json:"storage"`
	Reports     ReportsConfig     `toml:"reports" json:"reports"`
	Engine      EngineConfig      `toml:"engine" json:"engine"`
	Logging     LoggingConfig     `toml:"logging" json:"logging"`
}

// OperationalConfig holds the hunter inputs. SeedQueries is only the
// startup default; the planner overrides it every cycle.
type OperationalConfig struct {
	AggregatorURLs   []string `toml:"aggregator_urls" json:"aggregator_urls"`
	PermutationBases []string `toml:"permutation_bases" json:"permutation_bases"`
	PermutationTLDs  []string `toml:"permutation_tlds" json:"permutation_tlds"`
	SeedQueries      []string `toml:"seed_queries" json:"seed_queries"`
}

type DiscoveryConfig struct {
	MaxConcurrentVerifications      int `toml:"max_concurrent_verifications" json:"max_concurrent_verifications" validate:"gte=1"`
	RequestTimeout                  int `toml:"request_timeout" json:"request_timeout" validate:"gte=1"` // Seconds
	VerificationConfidenceThreshold int `toml:"verification_confidence_threshold" json:"verification_confidence_threshold" validate:"gte=0,lte=100"`
}

type CrawlerConfig struct {
	AIConfidenceThreshold    float64 `toml:"ai_confidence_threshold" json:"ai_confidence_threshold" validate:"gte=0,lte=1"`
	MaxCrawlDepth            int     `toml:"max_crawl_depth" json:"max_crawl_depth" validate:"gte=0"`
	RelevancyThreshold       float64 `toml:"relevancy_threshold" json:"relevancy_threshold" validate:"gte=0,lte=1"`
	EnableAutonomousFeedback bool    `toml:"enable_autonomous_feedback" json:"enable_autonomous_feedback"`
	StrictCognitive          bool    `toml:"strict_cognitive" json:"strict_cognitive"` // Analyzer verdict becomes a veto
	Workers                  int     `toml:"workers" json:"workers" validate:"gte=1"`
	PerHostConcurrency       int     `toml:"per_host_concurrency" json:"per_host_concurrency" validate:"gte=1"`
	MaxPages                 int     `toml:"max_pages" json:"max_pages" validate:"gte=1"`
	MaxLinksPerPage          int     `toml:"max_links_per_page" json:"max_links_per_page" validate:"gte=1"`
	CycleTimeout             string  `toml:"cycle_timeout" json:"cycle_timeout"` // e.g. "10m"
	UserAgent                string  `toml:"user_agent" json:"user_agent"`
	EnableJavaScript         bool    `toml:"enable_javascript" json:"enable_javascript"`
	JavaScriptWaitTime       string  `toml:"javascript_wait_time" json:"javascript_wait_time"` // Quiet period after DOMContentLoaded
	PendingBufferLimit       int     `toml:"pending_buffer_limit" json:"pending_buffer_limit" validate:"gte=1"`
}

type MaintenanceConfig struct {
	DeactivationHours int `toml:"deactivation_hours" json:"deactivation_hours" validate:"gte=1"`
	MaxFailedAttempts int `toml:"max_failed_attempts" json:"max_failed_attempts" validate:"gte=1"`
}

type LLMConfig struct {
	Endpoint    string  `toml:"endpoint" json:"endpoint"`
	Model       string  `toml:"model" json:"model"`
	APIKeyEnv   string  `toml:"api_key_env" json:"api_key_env"`
	MaxTokens   int     `toml:"max_tokens" json:"max_tokens" validate:"gte=1"`
	Temperature float64 `toml:"temperature" json:"temperature" validate:"gte=0,lte=2"`
	Timeout     int     `toml:"timeout" json:"timeout" validate:"gte=1"` // Seconds
}

type SearchConfig struct {
	Endpoint           string `toml:"endpoint" json:"endpoint"`
	MaxResults         int    `toml:"max_results" json:"max_results" validate:"gte=1"`
	MinQueryInterval   string `toml:"min_query_interval" json:"min_query_interval"`
	BackoffInterval    string `toml:"backoff_interval" json:"backoff_interval"`
	MaxBackoffInterval string `toml:"max_backoff_interval" json:"max_backoff_interval"`
}

type ClassifierConfig struct {
	ModelPath string `toml:"model_path" json:"model_path"`
}

type StorageConfig struct {
	SQLite SQLiteConfig `toml:"sqlite" json:"sqlite"`
}

// SQLiteConfig represents SQLite-specific configuration
type SQLiteConfig struct {
	Path          string `toml:"path" json:"path" validate:"required"`
	WALMode       bool   `toml:"wal_mode" json:"wal_mode"`
	BusyTimeoutMS int    `toml:"busy_timeout_ms" json:"busy_timeout_ms"`
	CacheSizeMB   int    `toml:"cache_size_mb" json:"cache_size_mb"`
}

type ReportsConfig struct {
	Dir string `toml:"dir" json:"dir" validate:"required"`
}

type EngineConfig struct {
	Schedule     string `toml:"schedule" json:"schedule"` // Cron expression for serve mode
	TrainCommand string `toml:"train_command" json:"train_command"`
}

type LoggingConfig struct {
	Level  string   `toml:"level" json:"level"`
	Output []string `toml:"output" json:"output"`
}

// DefaultConfig returns the configuration defaults. Values mirror the
// documented defaults of the discovery loop.
func DefaultConfig() *Config {
	return &Config{
		Operational: OperationalConfig{
			AggregatorURLs:   []string{},
			PermutationBases: []string{"streameast", "sportssurge", "freestreams", "watchseries", "moviehd"},
			PermutationTLDs:  []string{".app", ".io", ".live", ".gg", ".net", ".org", ".tv", ".me", ".co", ".cc"},
			SeedQueries:      []string{},
		},
		Discovery: DiscoveryConfig{
			MaxConcurrentVerifications:      10,
			RequestTimeout:                  5,
			VerificationConfidenceThreshold: 50,
		},
		Crawler: CrawlerConfig{
			AIConfidenceThreshold:    0.7,
			MaxCrawlDepth:            3,
			RelevancyThreshold:       0.6,
			EnableAutonomousFeedback: true,
			StrictCognitive:          false,
			Workers:                  5,
			PerHostConcurrency:       2,
			MaxPages:                 100,
			MaxLinksPerPage:          10,
			CycleTimeout:             "15m",
			UserAgent:                "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36",
			EnableJavaScript:         true,
			JavaScriptWaitTime:       "2s",
			PendingBufferLimit:       100,
		},
		Maintenance: MaintenanceConfig{
			DeactivationHours: 24,
			MaxFailedAttempts: 3,
		},
		LLM: LLMConfig{
			Endpoint:    "http://localhost:1234/v1",
			Model:       "local-model",
			APIKeyEnv:   "SIDELINE_LLM_API_KEY",
			MaxTokens:   1000,
			Temperature: 0.3,
			Timeout:     30,
		},
		Search: SearchConfig{
			Endpoint:           "https://html.duckduckgo.com/html/",
			MaxResults:         5,
			MinQueryInterval:   "3s",
			BackoffInterval:    "10s",
			MaxBackoffInterval: "2m",
		},
		Classifier: ClassifierConfig{
			ModelPath: "./data/scout_model.json",
		},
		Storage: StorageConfig{
			SQLite: SQLiteConfig{
				Path:          "./data/sites.db",
				WALMode:       true,
				BusyTimeoutMS: 5000,
				CacheSizeMB:   32,
			},
		},
		Reports: ReportsConfig{
			Dir: "./reports",
		},
		Engine: EngineConfig{
			Schedule:     "",
			TrainCommand: "",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout"},
		},
	}
}

// LoadConfig builds the configuration by layering defaults, then each
// config file in order, then environment overrides. File format is chosen
// by extension: .toml or .json.
func LoadConfig(paths ...string) (*Config, error) {
	config := DefaultConfig()

	for _, path := range paths {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		switch strings.ToLower(filepath.Ext(path)) {
		case ".json":
			if err := json.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("invalid JSON in config file %s: %w", path, err)
			}
		case ".toml":
			if err := toml.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("invalid TOML in config file %s: %w", path, err)
			}
		default:
			return nil, fmt.Errorf("unsupported config file extension: %s", path)
		}
	}

	applyEnvironmentOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// applyEnvironmentOverrides applies SIDELINE_* environment variables on top
// of file configuration.
func applyEnvironmentOverrides(config *Config) {
	if v := os.Getenv("SIDELINE_DB_PATH"); v != "" {
		config.Storage.SQLite.Path = v
	}
	if v := os.Getenv("SIDELINE_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	if v := os.Getenv("SIDELINE_LLM_ENDPOINT"); v != "" {
		config.LLM.Endpoint = v
	}
	if v := os.Getenv("SIDELINE_LLM_MODEL"); v != "" {
		config.LLM.Model = v
	}
	if v := os.Getenv("SIDELINE_REPORTS_DIR"); v != "" {
		config.Reports.Dir = v
	}
	if v := os.Getenv("SIDELINE_MODEL_PATH"); v != "" {
		config.Classifier.ModelPath = v
	}
	if v := os.Getenv("SIDELINE_MAX_PAGES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			config.Crawler.MaxPages = n
		}
	}
}

// Validate checks the configuration and reports the first invalid field.
// Configuration errors are fatal at startup.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
			first := errs[0]
			return fmt.Errorf("invalid configuration field %s: failed %s validation (value: %v)",
				first.Namespace(), first.Tag(), first.Value())
		}
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	for _, field := range []struct {
		name  string
		value string
	}{
		{"crawler_settings.cycle_timeout", c.Crawler.CycleTimeout},
		{"crawler_settings.javascript_wait_time", c.Crawler.JavaScriptWaitTime},
		{"search_settings.min_query_interval", c.Search.MinQueryInterval},
		{"search_settings.backoff_interval", c.Search.BackoffInterval},
		{"search_settings.max_backoff_interval", c.Search.MaxBackoffInterval},
	} {
		if _, err := time.ParseDuration(field.value); err != nil {
			return fmt.Errorf("invalid configuration field %s: %q is not a duration", field.name, field.value)
		}
	}
	return nil
}

// ParseDurationOr parses a duration string, falling back to def when the
// value is empty or malformed.
func ParseDurationOr(value string, def time.Duration) time.Duration {
	if value == "" {
		return def
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return d
}

// LLMAPIKey resolves the analyzer API key from the environment variable
// named in config. An empty result means the cognitive stages run degraded.
func (c *Config) LLMAPIKey() string {
	if c.LLM.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.LLM.APIKeyEnv)
}
