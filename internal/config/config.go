// Package config reads the settings of the contacts service from environment variables.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Store drivers.
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMongoDB  = "mongodb"
	DriverFile     = "file"
)

var drivers = []string{DriverMySQL, DriverPostgres, DriverSQLite, DriverMongoDB, DriverFile}

// Config holds all settings of the service.
type Config struct {
	// Port is the TCP port the HTTP server listens on.
	Port int `env:"PORT" envDefault:"8080"`

	// GinLogging turns off the per-request log when set to "off".
	GinLogging string `env:"GIN_LOGGING"`

	// LogLevel is a logrus level name.
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// StoreDriver selects the backend: mysql, postgres, sqlite, mongodb or file.
	StoreDriver string `env:"STORE_DRIVER" envDefault:"mysql"`

	// DatabaseURL is the connection string of the backend. For mysql, it is assembled from the
	// DB* variables when empty.
	DatabaseURL string `env:"DATABASE_URL"`
	DBHost      string `env:"DBHOST" envDefault:"localhost:3306"`
	DBUser      string `env:"DBUSER"`
	DBPassword  string `env:"DBPWD"`
	DBName      string `env:"DBNAME" envDefault:"test"`

	// MongoDatabase is the database that holds the contacts collection.
	MongoDatabase string `env:"MONGODB_DATABASE" envDefault:"contacts"`

	// DataFile is the path of the JSON file used by the file driver.
	DataFile string `env:"DATA_FILE" envDefault:"contacts.json"`

	// JWTSecret verifies the bearer tokens of the callers.
	JWTSecret string `env:"JWT_SECRET"`

	// AuthDisabled lets all requests through without a token. All contacts are shared then.
	AuthDisabled bool `env:"AUTH_DISABLED"`

	// PageSize is the number of contacts listed when a request does not specify a limit.
	PageSize int `env:"PAGE_SIZE" envDefault:"20"`
}

// Load parses the environment and validates the result.
func Load() (*Config, error) {
	cfg, err := Parse()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse reads the environment without validating it. Tools that only need the store settings
// use it instead of Load.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}

// IsSQL reports whether the configured store is a relational database.
func (c *Config) IsSQL() bool {
	switch c.StoreDriver {
	case DriverMySQL, DriverPostgres, DriverSQLite:
		return true
	default:
		return false
	}
}

// Validate checks the settings for consistency.
func (c *Config) Validate() error {
	var errs []error
	if !slices.Contains(drivers, c.StoreDriver) {
		errs = append(errs, fmt.Errorf("STORE_DRIVER must be one of %s", strings.Join(drivers, ", ")))
	}
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d is out of range", c.Port))
	}
	if c.PageSize < 1 {
		errs = append(errs, errors.New("PAGE_SIZE must be positive"))
	}
	if !c.AuthDisabled && c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required unless AUTH_DISABLED is set"))
	}
	if c.StoreDriver == DriverPostgres && c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required for postgres"))
	}
	if c.StoreDriver == DriverMongoDB && c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required for mongodb"))
	}
	return errors.Join(errs...)
}

// RequestLogging returns false if per-request logging was turned off.
func (c *Config) RequestLogging() bool {
	return !strings.EqualFold(c.GinLogging, "off")
}

// DSN returns the connection string for the configured driver.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	switch c.StoreDriver {
	case DriverMySQL:
		return fmt.Sprintf("%s:%s@tcp(%s)/%s", c.DBUser, c.DBPassword, c.DBHost, c.DBName)
	case DriverSQLite:
		return "contacts.db"
	default:
		return ""
	}
}
