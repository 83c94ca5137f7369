package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

// Create a new instance of the logger
// Configure it to log at the desired level
// and format it as JSON for structured logging
var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(LevelForEnvironment(GetEnvWithDefault("APP_ENV", "development")))
}

// LevelForEnvironment maps APP_ENV onto a logrus level
func LevelForEnvironment(environment string) logrus.Level {
	switch environment {
	case "development":
		return logrus.DebugLevel
	case "production":
		return logrus.ErrorLevel
	default:
		// Default to info level for other environments
		return logrus.InfoLevel
	}
}

// Config used for the application configuration, loading the input from environment variables
type Config struct {
	// Storefront server configuration
	Environment string `json:"environment" yaml:"environment"`
	Port        int    `json:"port" yaml:"port"`
	Host        string `json:"host" yaml:"host"`

	// Backend configuration
	APIBaseURL string        `json:"api_base_url" yaml:"api_base_url"`
	APITimeout time.Duration `json:"api_timeout" yaml:"api_timeout"`

	// Token store configuration
	TokenStore TokenStoreConfig `json:"token_store" yaml:"token_store"`

	// Logging configuration
	LogLevel string `json:"log_level" yaml:"log_level"`
}

// TokenStoreConfig selects where the bearer token survives restarts
type TokenStoreConfig struct {
	Driver   string `json:"driver" yaml:"driver"`
	Path     string `json:"path" yaml:"path"`
	Host     string `json:"host" yaml:"host"`
	Port     string `json:"port" yaml:"port"`
	User     string `json:"user" yaml:"user"`
	Password string `json:"password" yaml:"password"`
	Name     string `json:"name" yaml:"name"`
	SSLMode  string `json:"sslmode" yaml:"sslmode"`
}

// String returns a string representation of Config with sensitive data masked
func (c *Config) String() string {
	return fmt.Sprintf("Config{Environment: %s, Port: %d, Host: %s, APIBaseURL: %s, APITimeout: %s, TokenStore: {Driver: %s, Path: %s, Host: %s, User: %s, Password: [REDACTED], Name: %s}, LogLevel: %s}",
		c.Environment, c.Port, c.Host, maskURL(c.APIBaseURL), c.APITimeout,
		c.TokenStore.Driver, c.TokenStore.Path, c.TokenStore.Host, c.TokenStore.User, c.TokenStore.Name, c.LogLevel)
}

// maskURL masks password in a URL
func maskURL(rawURL string) string {
	if rawURL == "" {
		return ""
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "[REDACTED_INVALID_URL]"
	}

	if parsed.User != nil {
		// Replace password with [REDACTED]
		parsed.User = url.UserPassword(parsed.User.Username(), "[REDACTED]")
	}

	return parsed.String()
}

// Defaults returns the configuration used when nothing is set
func Defaults() *Config {
	return &Config{
		Environment: "development",
		Port:        8080,
		Host:        "localhost",
		APIBaseURL:  "http://localhost:3000",
		TokenStore: TokenStoreConfig{
			Driver:  "sqlite",
			Path:    "storefront.sqlite",
			Port:    "5432",
			SSLMode: "disable",
		},
		LogLevel: "info",
	}
}

// LoadConfig builds the configuration from defaults, the optional STOREFRONT_CONFIG YAML file
// and environment variables, in that order of precedence (environment wins).
// Returns an error if a value is present but malformed
func LoadConfig() (*Config, error) {
	log.Info("Loading configuration")
	config := Defaults()

	if path := os.Getenv("STOREFRONT_CONFIG"); path != "" {
		if err := LoadFile(path, config); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	log.Infof("Configuration loaded: %s", config.String())
	return config, nil
}

// applyEnv overrides config with every environment variable that is set
func applyEnv(config *Config) error {
	if v := os.Getenv("APP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid APP_PORT %q: %w", v, err)
		}
		config.Port = port
	}
	if v := os.Getenv("API_TIMEOUT"); v != "" {
		timeout, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid API_TIMEOUT %q: %w", v, err)
		}
		config.APITimeout = timeout
	}

	config.Environment = GetEnvWithDefault("APP_ENV", config.Environment)
	config.Host = GetEnvWithDefault("APP_HOST", config.Host)
	config.APIBaseURL = GetEnvWithDefault("API_BASE_URL", config.APIBaseURL)
	config.LogLevel = GetEnvWithDefault("LOG_LEVEL", config.LogLevel)

	ts := &config.TokenStore
	ts.Driver = GetEnvWithDefault("TOKEN_STORE_DRIVER", ts.Driver)
	ts.Path = GetEnvWithDefault("TOKEN_STORE_PATH", ts.Path)
	ts.Host = GetEnvWithDefault("DB_HOST", ts.Host)
	ts.Port = GetEnvWithDefault("DB_PORT", ts.Port)
	ts.User = GetEnvWithDefault("DB_USER", ts.User)
	ts.Password = GetEnvWithDefault("DB_PASSWORD", ts.Password)
	ts.Name = GetEnvWithDefault("DB_NAME", ts.Name)
	ts.SSLMode = GetEnvWithDefault("DB_SSLMODE", ts.SSLMode)
	return nil
}

// Validate checks formats like APIBaseURL and the token store driver
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.APITimeout < 0 {
		return fmt.Errorf("api timeout must not be negative, got %s", c.APITimeout)
	}
	parsed, err := url.ParseRequestURI(c.APIBaseURL)
	if err != nil || parsed.Host == "" {
		return fmt.Errorf("invalid API_BASE_URL format: %q", c.APIBaseURL)
	}
	switch c.TokenStore.Driver {
	case "sqlite", "":
	case "postgres", "postgresql":
		if c.TokenStore.Host == "" || c.TokenStore.Name == "" {
			return fmt.Errorf("postgres token store requires DB_HOST and DB_NAME")
		}
	default:
		return fmt.Errorf("unsupported token store driver: %s", c.TokenStore.Driver)
	}
	return nil
}

// Helper to get environment with default values
func GetEnvWithDefault(key, defaultValue string) string {
	log.Tracef("Getting environment variable: %s", key)
	value := os.Getenv(key)
	if value == "" {
		log.Debugf("Environment variable %s not set, using default value", key)
		return defaultValue
	}
	return value
}

// GetEnvAsType retrieves an environment variable and converts it to the specified type
// using generic type handling.
func GetEnvAsType[T any](key string, defaultValue T) T {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var result T
	switch any(result).(type) {
	case int:
		intValue, err := strconv.Atoi(value)
		if err != nil {
			return defaultValue
		}
		return any(intValue).(T)
	case string:
		return any(value).(T)
	case bool:
		boolValue, err := strconv.ParseBool(value)
		if err != nil {
			return defaultValue
		}
		return any(boolValue).(T)
	case time.Duration:
		durationValue, err := time.ParseDuration(value)
		if err != nil {
			return defaultValue
		}
		return any(durationValue).(T)
	default:
		return defaultValue // Fallback for unsupported types
	}
}
