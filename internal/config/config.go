// Package config handles resolving configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// Development-only credentials. They are applied when dev_mode is enabled and
// the corresponding value was not configured.
const (
	DevAdminPassword = "secret"
	devSessionSecret = "itsaseekrit-session"
	devAuthSecret    = "itsaseekrit-ticket"
)

// Environment variable names.
const (
	EnvDatabaseURL       = "DATABASE_URL"
	EnvSessionSecret     = "JOURNAL_SESSION_SECRET"
	EnvAuthSecret        = "JOURNAL_AUTH_SECRET"
	EnvAdminUsername     = "JOURNAL_ADMIN_USERNAME"
	EnvAdminPasswordHash = "JOURNAL_ADMIN_PASSWORD_HASH"
	EnvHost              = "HOST"
	EnvPort              = "PORT"
	EnvDebug             = "DEBUG"
	EnvLogLevel          = "LOG_LEVEL"
)

// Config holds the runtime settings for the journal.
type Config struct {
	LogLevel string `toml:"log_level" validate:"oneof=debug info warn error"`
	// DevMode enables verbose logging, request logging, insecure cookies and
	// development credentials.
	DevMode bool `toml:"dev_mode"`

	Host string `toml:"host"`
	Port int    `toml:"port" validate:"min=1,max=65535"`

	// DatabaseURL is either a PostgreSQL URL/keyword DSN or a SQLite file path.
	DatabaseURL  string `toml:"database_url" validate:"required"`
	MaxOpenConns int    `toml:"max_open_conns" validate:"min=0"`

	SessionSecret     string        `toml:"session_secret" validate:"required,min=16"`
	AuthSecret        string        `toml:"auth_secret" validate:"required,min=16"`
	TicketLifetime    time.Duration `toml:"ticket_lifetime" validate:"min=1m"`
	AdminUsername     string        `toml:"admin_username" validate:"required"`
	AdminPasswordHash string        `toml:"admin_password_hash" validate:"required"`

	// LoginRateLimit is the number of login attempts allowed per client IP
	// per minute. Zero disables throttling.
	LoginRateLimit int `toml:"login_rate_limit" validate:"min=0"`

	ReadTimeout     time.Duration `toml:"read_timeout" validate:"min=0"`
	WriteTimeout    time.Duration `toml:"write_timeout" validate:"min=0"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout" validate:"min=0"`
}

// Address returns the host:port the web app listens on.
func (c *Config) Address() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// LogValue satisfies [slog.LogValuer], leaving secrets out of the logs.
func (c *Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("log_level", c.LogLevel),
		slog.Bool("dev_mode", c.DevMode),
		slog.String("address", c.Address()),
		slog.String("database", redactDatabaseURL(c.DatabaseURL)),
		slog.String("admin_username", c.AdminUsername),
		slog.Duration("ticket_lifetime", c.TicketLifetime),
		slog.Int("login_rate_limit", c.LoginRateLimit),
	)
}

// DefaultPath is where the configuration file is looked up when no path is
// given on the command line.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, "journal.toml")
}

// Default returns a version of the config with all default values populated.
// Note that this configuration is _not_ valid outside of dev mode, as the
// secrets and the admin password hash must be set by the user.
func Default() *Config {
	return &Config{
		LogLevel:        "info",
		Host:            "localhost",
		Port:            5000, //nolint:mnd // historical default
		DatabaseURL:     filepath.Join(xdg.DataHome, "journal", "db.sqlite"),
		MaxOpenConns:    10, //nolint:mnd // only applies to PostgreSQL
		TicketLifetime:  12 * time.Hour,
		AdminUsername:   "admin",
		LoginRateLimit:  10, //nolint:mnd // per minute
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    5 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

// Load resolves the configuration: defaults, then the TOML file at path (if
// it exists), then a .env file and the process environment. The result is
// validated for completeness.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to decode config file at %s: %w", path, err)
		}
	}

	// a missing .env is the common case
	_ = godotenv.Load()
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := applyDevDefaults(cfg); err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the config against its constraints.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	if _, err := bcrypt.Cost([]byte(cfg.AdminPasswordHash)); err != nil {
		return fmt.Errorf("config validation failed: admin_password_hash is not a bcrypt hash: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.DatabaseURL, EnvDatabaseURL)
	setString(&cfg.SessionSecret, EnvSessionSecret)
	setString(&cfg.AuthSecret, EnvAuthSecret)
	setString(&cfg.AdminUsername, EnvAdminUsername)
	setString(&cfg.AdminPasswordHash, EnvAdminPasswordHash)
	setString(&cfg.Host, EnvHost)
	setString(&cfg.LogLevel, EnvLogLevel)

	if val := os.Getenv(EnvPort); val != "" {
		port, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvPort, val, err)
		}
		cfg.Port = port
	}
	if val := os.Getenv(EnvDebug); val != "" {
		debug, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvDebug, val, err)
		}
		cfg.DevMode = debug
	}
	return nil
}

func applyDevDefaults(cfg *Config) error {
	if !cfg.DevMode {
		return nil
	}
	if cfg.LogLevel == "info" {
		cfg.LogLevel = "debug"
	}
	if cfg.SessionSecret == "" {
		cfg.SessionSecret = devSessionSecret
	}
	if cfg.AuthSecret == "" {
		cfg.AuthSecret = devAuthSecret
	}
	if cfg.AdminPasswordHash == "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(DevAdminPassword), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash development password: %w", err)
		}
		cfg.AdminPasswordHash = string(hash)
	}
	return nil
}

func setString(dst *string, key string) {
	if val := os.Getenv(key); val != "" {
		*dst = val
	}
}

// redactDatabaseURL strips the password from URL-style DSNs. Keyword/value
// DSNs carrying a password are hidden entirely.
func redactDatabaseURL(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.Scheme == "" {
		if strings.Contains(dsn, "password=") {
			return "[redacted]"
		}
		return dsn
	}
	return u.Redacted()
}
