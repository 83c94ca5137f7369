package database

import (
	"fmt"
	"strings"
	"time"

	"github.com/franciscosanchezn/pizza-storefront/internal/config"
)

// DatabaseConfig holds the token store connection configuration
type DatabaseConfig struct {
	// Driver specifies the database driver (postgres, sqlite)
	Driver string

	// PostgreSQL-specific configuration
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string

	// SQLite-specific configuration
	Path string

	// Retry policy; RetryDelays[i] is waited after failed attempt i+1
	RetryDelays []time.Duration
}

// FromTokenStore converts the application token store settings.
// A local sqlite file is retried briefly; a remote postgres gets the longer backoff.
func FromTokenStore(ts config.TokenStoreConfig) DatabaseConfig {
	cfg := DatabaseConfig{
		Driver:   strings.ToLower(ts.Driver),
		Host:     ts.Host,
		Port:     ts.Port,
		User:     ts.User,
		Password: ts.Password,
		Name:     ts.Name,
		SSLMode:  ts.SSLMode,
		Path:     ts.Path,
	}
	switch cfg.Driver {
	case "postgres", "postgresql":
		cfg.RetryDelays = []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second}
	default:
		cfg.RetryDelays = []time.Duration{100 * time.Millisecond}
	}
	return cfg
}

// String returns a string representation with sensitive data masked
func (c *DatabaseConfig) String() string {
	return fmt.Sprintf("DatabaseConfig{Driver: %s, Host: %s, Port: %s, User: %s, Password: [REDACTED], Name: %s, SSLMode: %s, Path: %s}",
		c.Driver, c.Host, c.Port, c.User, c.Name, c.SSLMode, c.Path)
}

// DSN builds a Data Source Name string based on the driver
func (c *DatabaseConfig) DSN() string {
	switch c.Driver {
	case "postgres", "postgresql":
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
			c.Host, c.User, c.Password, c.Name, c.Port, c.SSLMode)
	case "sqlite", "":
		return c.Path
	default:
		return ""
	}
}
