package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	v *viper.Viper
}

// New creates a new configuration instance
func New() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/mail-triage/")
	v.AddConfigPath("$HOME/.mail-triage")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	// Set defaults
	setDefaults(v)

	// Environment variables
	v.AutomaticEnv()
	v.SetEnvPrefix("MAIL_TRIAGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, using defaults
	}

	return &Config{v: v}, nil
}

// NewFromFile creates a new configuration instance from an explicit config file
func NewFromFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvPrefix("MAIL_TRIAGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return &Config{v: v}, nil
}

// NewFromViper creates a new configuration instance from an existing Viper instance
func NewFromViper(v *viper.Viper) *Config {
	return &Config{v: v}
}

// NewEmptyViper creates a new Viper instance with defaults
func NewEmptyViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// Engine defaults
	v.SetDefault("engine.max_window_bytes", 2048)
	v.SetDefault("engine.lock_wait", "2s")

	// Embedding provider defaults
	v.SetDefault("embedding.provider", "none")
	v.SetDefault("embedding.max_body_size", 4096)

	// OpenAI embedding defaults
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.model_name", "text-embedding-3-small")

	// Gemini embedding defaults
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model_name", "embedding-001")

	// Bedrock embedding defaults
	v.SetDefault("bedrock.region", "us-east-1")
	v.SetDefault("bedrock.model_id", "amazon.titan-embed-text-v2:0")

	// Classifier state store defaults
	v.SetDefault("state.type", "memory")
	v.SetDefault("state.sqlite_path", "/data/triage_state.db")
	v.SetDefault("state.mysql_dsn", "user:password@tcp(localhost:3306)/mail_triage")

	// Settings provider defaults
	v.SetDefault("settings.type", "viper")
	v.SetDefault("settings.sqlite_path", "/data/triage_settings.db")

	// Scoring defaults (see core.DefaultScoringConfiguration)
	v.SetDefault("scoring.deadline.critical_hours", 24)
	v.SetDefault("scoring.deadline.urgent_hours", 72)
	v.SetDefault("scoring.deadline.soon_hours", 168)
	v.SetDefault("scoring.deadline.critical_points", 5)
	v.SetDefault("scoring.deadline.urgent_points", 4)
	v.SetDefault("scoring.deadline.soon_points", 2)
	v.SetDefault("scoring.urgency_keyword_cap", 4)
	v.SetDefault("scoring.importance_keyword_cap", 4)
	v.SetDefault("scoring.imperative_points", 2)
	v.SetDefault("scoring.invoice_bonus", 2)
	v.SetDefault("scoring.newsletter_urgency_penalty", 10)
	v.SetDefault("scoring.newsletter_importance_penalty", 10)
	v.SetDefault("scoring.auto_reply_urgency_penalty", 10)
	v.SetDefault("scoring.auto_reply_importance_penalty", 10)
	v.SetDefault("scoring.informational_importance_penalty", 2)
	v.SetDefault("scoring.urgency_high_threshold", 6)
	v.SetDefault("scoring.importance_high_threshold", 6)

	// Keyword set defaults (lowercase lemmas, see core defaults)
	v.SetDefault("keywords.urgency_high", []string{
		"urgent", "asap", "immediately", "critical", "emergency",
		"deadline", "overdue", "expire", "final",
	})
	v.SetDefault("keywords.importance_high", []string{
		"important", "contract", "invoice", "payment", "interview",
		"offer", "legal", "approval", "signature", "confirm",
	})
	v.SetDefault("keywords.invoice", []string{
		"invoice", "payment", "bill", "due", "amount", "balance", "receipt",
	})
	v.SetDefault("keywords.newsletter", []string{
		"newsletter", "unsubscribe", "digest", "weekly", "monthly",
		"subscription", "promotional",
	})
	v.SetDefault("keywords.auto_reply", []string{
		"autoreply", "automatic", "vacation", "away", "ooo", "absence",
	})
	v.SetDefault("keywords.informational", []string{
		"fyi", "announcement", "notice", "info",
	})

	// VIP sender registry
	v.SetDefault("vip.senders", []map[string]interface{}{})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// GetString gets a string value from the configuration
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt gets an integer value from the configuration
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetFloat64 gets a float value from the configuration
func (c *Config) GetFloat64(key string) float64 {
	return c.v.GetFloat64(key)
}

// GetBool gets a boolean value from the configuration
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetStringSlice gets a string slice value from the configuration
func (c *Config) GetStringSlice(key string) []string {
	return c.v.GetStringSlice(key)
}

// GetDuration gets a duration value from the configuration
func (c *Config) GetDuration(key string) (time.Duration, error) {
	d := c.v.GetDuration(key)
	if d == 0 && c.v.GetString(key) != "0" && c.v.GetString(key) != "" {
		return 0, fmt.Errorf("invalid duration for key %s: %s", key, c.v.GetString(key))
	}
	return d, nil
}

// UnmarshalKey decodes a configuration subtree into a struct
func (c *Config) UnmarshalKey(key string, out interface{}) error {
	return c.v.UnmarshalKey(key, out)
}

// GetViper returns the underlying Viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.v
}
