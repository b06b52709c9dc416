// Package config provides application configuration with multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (./config.yaml or ~/.agentgate/config.yaml)
//  3. Default values
//
// Security: sensitive values (Mongo URL, JWT secret) are masked in
// MarshalJSON/String and never logged in the clear.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

var (
	// ErrMissingMongoURL indicates the document store URL is not set.
	ErrMissingMongoURL = errors.New("missing mongo URL")

	// ErrMissingDBName indicates the database name is not set.
	ErrMissingDBName = errors.New("missing database name")

	// ErrMissingJWTSecret indicates the token signing secret is not set.
	ErrMissingJWTSecret = errors.New("missing JWT secret")

	// ErrWeakJWTSecret indicates the token signing secret is too short.
	ErrWeakJWTSecret = errors.New("JWT secret must be at least 32 bytes")

	// ErrInvalidModelName indicates the model name is empty or malformed.
	ErrInvalidModelName = errors.New("invalid model name")
)

// DefaultAddr is the default listen address for the HTTP server.
const DefaultAddr = "127.0.0.1:8000"

// minJWTSecretLen is the minimum accepted signing secret length.
// HS256 keys shorter than the hash output weaken the signature.
const minJWTSecretLen = 32

// SearXNGConfig holds the SearXNG service configuration used by the
// search agent's web search tool.
type SearXNGConfig struct {
	// BaseURL is the SearXNG instance URL (e.g. http://searxng:8080)
	BaseURL string `mapstructure:"base_url" json:"base_url"`
}

// Config stores application configuration.
// SECURITY: sensitive fields are explicitly masked in MarshalJSON().
// When adding new sensitive fields, update MarshalJSON.
type Config struct {
	// HTTP server
	Addr        string   `mapstructure:"addr" json:"addr"`
	CORSOrigins []string `mapstructure:"cors_origins" json:"cors_origins"`
	TrustProxy  bool     `mapstructure:"trust_proxy" json:"trust_proxy"` // Trust X-Forwarded-For (behind reverse proxy)
	RateBurst   int      `mapstructure:"rate_burst" json:"rate_burst"`   // Per-IP rate limiter burst (0 = default)

	// Authentication
	JWTSecret string `mapstructure:"jwt_secret" json:"jwt_secret"` // SENSITIVE: masked in MarshalJSON

	// Document store
	MongoURL string `mapstructure:"mongo_url" json:"mongo_url"` // SENSITIVE: may embed credentials
	DBName   string `mapstructure:"db_name" json:"db_name"`

	// AI model (provider-qualified, e.g. "googleai/gemini-2.5-flash")
	ModelName string `mapstructure:"model_name" json:"model_name"`

	// Search tool backend
	SearXNG SearXNGConfig `mapstructure:"searxng" json:"searxng"`
}

// Load loads configuration.
// Priority: environment variables > configuration file > default values.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".agentgate"))
	}

	setDefaults(v)
	bindEnvVariables(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is not an error; defaults and env apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using defaults")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("addr", DefaultAddr)
	v.SetDefault("cors_origins", []string{"http://localhost:3000"})
	v.SetDefault("trust_proxy", false)
	v.SetDefault("rate_burst", 0)

	v.SetDefault("db_name", "agentgate")
	v.SetDefault("model_name", "googleai/gemini-2.5-flash")

	v.SetDefault("searxng.base_url", "http://localhost:8888")
}

// bindEnvVariables binds environment variables explicitly.
// MONGO_URL, DB_NAME and JWT_SECRET keep their unprefixed names for
// compatibility with existing deployments; the rest use AGENTGATE_.
func bindEnvVariables(v *viper.Viper) {
	// Hardcoded keys cannot fail to bind; a panic here is a bug.
	mustBind := func(key, envVar string) {
		if err := v.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("mongo_url", "MONGO_URL")
	mustBind("db_name", "DB_NAME")
	mustBind("jwt_secret", "JWT_SECRET")

	mustBind("addr", "AGENTGATE_ADDR")
	mustBind("cors_origins", "AGENTGATE_CORS_ORIGINS")
	mustBind("trust_proxy", "AGENTGATE_TRUST_PROXY")
	mustBind("rate_burst", "AGENTGATE_RATE_BURST")
	mustBind("model_name", "AGENTGATE_MODEL_NAME")
	mustBind("searxng.base_url", "SEARXNG_URL")

	// NOTE: GEMINI_API_KEY is read directly by the Genkit GoogleAI
	// plugin, not via Viper.
}

// Validate checks the configuration for fatal problems (fail-fast).
func (c *Config) Validate() error {
	if c.MongoURL == "" {
		return ErrMissingMongoURL
	}
	if c.DBName == "" {
		return ErrMissingDBName
	}
	if c.JWTSecret == "" {
		return ErrMissingJWTSecret
	}
	if len(c.JWTSecret) < minJWTSecretLen {
		return fmt.Errorf("%w: got %d bytes", ErrWeakJWTSecret, len(c.JWTSecret))
	}
	if c.ModelName == "" {
		return ErrInvalidModelName
	}
	return nil
}

// maskedValue is the placeholder for masked sensitive data.
const maskedValue = "████████"

// maskSecret masks a secret string for safe logging. Short secrets are
// fully masked to prevent substring matching; longer ones keep the
// first and last two characters for debug utility.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return maskedValue
	}
	return s[:2] + "<" + maskedValue + ">" + s[len(s)-2:]
}

// MarshalJSON implements json.Marshaler with sensitive field masking.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config
	a := alias(c)
	a.JWTSecret = maskSecret(a.JWTSecret)
	a.MongoURL = maskSecret(a.MongoURL)
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// String implements Stringer to prevent accidental printing of secrets.
func (c Config) String() string {
	data, err := c.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("Config{error: %v}", err)
	}
	return string(data)
}
