// Package config loads application settings from an optional .env file and
// the process environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the full application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Audit    AuditConfig    `mapstructure:"audit"`
	Rotation RotationConfig `mapstructure:"rotation"`
	Auth     AuthConfig     `mapstructure:"auth"`
}

// ServerConfig holds HTTP listener settings
type ServerConfig struct {
	Port     int  `mapstructure:"port"`
	UseHTTPS bool `mapstructure:"use_https"`
}

// DatabaseConfig holds SQLite settings
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig selects the slog handler and level
type LoggingConfig struct {
	Format string `mapstructure:"format"`
	Level  string `mapstructure:"level"`
}

// AuditConfig controls the audited repositories
type AuditConfig struct {
	// StrictPatchTraceability requires every update patch to carry the
	// owning-asset reference
	StrictPatchTraceability bool `mapstructure:"strict_patch_traceability"`
}

// RotationConfig bounds storage rotation
type RotationConfig struct {
	MaxBytes     int64         `mapstructure:"max_bytes"`
	MinRows      int           `mapstructure:"min_rows"`
	Fraction     float64       `mapstructure:"fraction"`
	Interval     time.Duration `mapstructure:"interval"`
	CSVDir       string        `mapstructure:"csv_dir"`
	CSVTimeField string        `mapstructure:"csv_time_field"`
}

// AuthConfig holds the OpenID Connect client settings
type AuthConfig struct {
	Disabled     bool   `mapstructure:"disabled"`
	Domain       string `mapstructure:"domain"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	CallbackURL  string `mapstructure:"callback_url"`
}

// envBindings maps config keys to the environment variables that set them
var envBindings = map[string]string{
	"server.port":                     "PORT",
	"server.use_https":                "USE_HTTPS",
	"database.path":                   "DATABASE_PATH",
	"logging.format":                  "LOG_FORMAT",
	"logging.level":                   "LOG_LEVEL",
	"audit.strict_patch_traceability": "STRICT_PATCH_TRACEABILITY",
	"rotation.max_bytes":              "ROTATION_MAX_BYTES",
	"rotation.min_rows":               "ROTATION_MIN_ROWS",
	"rotation.fraction":               "ROTATION_FRACTION",
	"rotation.interval":               "ROTATION_INTERVAL",
	"rotation.csv_dir":                "ROTATION_CSV_DIR",
	"rotation.csv_time_field":         "ROTATION_CSV_TIME_FIELD",
	"auth.disabled":                   "AUTH_DISABLED",
	"auth.domain":                     "AUTH_DOMAIN",
	"auth.client_id":                  "AUTH_CLIENT_ID",
	"auth.client_secret":              "AUTH_CLIENT_SECRET",
	"auth.callback_url":               "AUTH_CALLBACK_URL",
}

// Load reads .env files (when present) and the environment, applies
// defaults and validates the result
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error loading env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind env var %s: %w", env, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.use_https", false)

	v.SetDefault("database.path", "cmms.db")

	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.level", "info")

	v.SetDefault("audit.strict_patch_traceability", true)

	v.SetDefault("rotation.max_bytes", int64(50<<20))
	v.SetDefault("rotation.min_rows", 100)
	v.SetDefault("rotation.fraction", 0.30)
	v.SetDefault("rotation.interval", time.Hour)
	v.SetDefault("rotation.csv_dir", "")
	v.SetDefault("rotation.csv_time_field", "fecha_evento")

	v.SetDefault("auth.disabled", false)
}

// Validate checks ranges and required settings
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}
	if c.Rotation.MaxBytes <= 0 {
		return fmt.Errorf("rotation max bytes must be positive, got %d", c.Rotation.MaxBytes)
	}
	if c.Rotation.MinRows < 0 {
		return fmt.Errorf("rotation min rows must not be negative, got %d", c.Rotation.MinRows)
	}
	if c.Rotation.Fraction <= 0 || c.Rotation.Fraction > 1 {
		return fmt.Errorf("rotation fraction must be in (0, 1], got %v", c.Rotation.Fraction)
	}
	if c.Rotation.Interval <= 0 {
		return fmt.Errorf("rotation interval must be positive, got %s", c.Rotation.Interval)
	}
	if c.Rotation.CSVDir != "" && c.Rotation.CSVTimeField == "" {
		return errors.New("rotation csv time field is required when a csv dir is set")
	}

	if !c.Auth.Disabled {
		missing := []string{}
		if c.Auth.Domain == "" {
			missing = append(missing, "AUTH_DOMAIN")
		}
		if c.Auth.ClientID == "" {
			missing = append(missing, "AUTH_CLIENT_ID")
		}
		if c.Auth.ClientSecret == "" {
			missing = append(missing, "AUTH_CLIENT_SECRET")
		}
		if c.Auth.CallbackURL == "" {
			missing = append(missing, "AUTH_CALLBACK_URL")
		}
		if len(missing) > 0 {
			return fmt.Errorf("authentication enabled but %v not set (set AUTH_DISABLED=true to run without login)", missing)
		}
	}
	return nil
}

// Address returns the listen address for the HTTP server
func (c *ServerConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}
