package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	UPCItemDB UPCItemDBConfig
	Search    SearchConfig
	Scrape    ScrapeConfig
	OpenAI    OpenAIConfig
	Pipeline  PipelineConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// UPCItemDBConfig holds the identifier-lookup API configuration.
// An empty API key disables the adapter.
type UPCItemDBConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// SearchConfig holds the web-search API configuration.
// An empty API key disables the adapter.
type SearchConfig struct {
	APIKey       string        `mapstructure:"api_key"`
	BaseURL      string        `mapstructure:"base_url"`
	GoogleDomain string        `mapstructure:"google_domain"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// ScrapeConfig holds the generic page-scrape configuration
type ScrapeConfig struct {
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`
}

// OpenAIConfig holds the refinement collaborator configuration.
// An empty API key disables the collaborator; the pipeline then skips
// brand override and short-description generation.
type OpenAIConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// PipelineConfig holds pipeline behavior switches
type PipelineConfig struct {
	// DisableExternal turns off every outbound call; the pipeline returns
	// the seeded record. Meant for offline and deterministic testing.
	DisableExternal bool `mapstructure:"disable_external"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/eanfill/")

	// Environment variable settings
	v.SetEnvPrefix("AUTOFILL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using environment variables and defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"*"})

	// Identifier lookup defaults. API keys default to empty, which runs
	// the adapter disabled; registering the key also makes the env
	// variable visible to Unmarshal.
	v.SetDefault("upcitemdb.api_key", "")
	v.SetDefault("upcitemdb.base_url", "https://api.upcitemdb.com")
	v.SetDefault("upcitemdb.timeout", "6s")

	// Web search defaults
	v.SetDefault("search.api_key", "")
	v.SetDefault("search.base_url", "https://serpapi.com")
	v.SetDefault("search.google_domain", "google.com.br")
	v.SetDefault("search.timeout", "7s")

	// Scrape defaults
	v.SetDefault("scrape.timeout", "8s")
	v.SetDefault("scrape.user_agent", "Mozilla/5.0")

	// Refinement defaults
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", "https://api.openai.com")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.timeout", "20s")

	// Pipeline defaults
	v.SetDefault("pipeline.disable_external", false)
}

// validate validates the configuration. Missing API keys are not an error:
// each keyless adapter simply runs disabled and answers "no result".
func validate(config *Config) error {
	if config.Server.Port == "" {
		return fmt.Errorf("server port must not be empty")
	}

	for _, timeout := range []struct {
		name  string
		value time.Duration
	}{
		{"upcitemdb.timeout", config.UPCItemDB.Timeout},
		{"search.timeout", config.Search.Timeout},
		{"scrape.timeout", config.Scrape.Timeout},
		{"openai.timeout", config.OpenAI.Timeout},
	} {
		if timeout.value <= 0 {
			return fmt.Errorf("%s must be positive, got: %s", timeout.name, timeout.value)
		}
	}

	return nil
}
