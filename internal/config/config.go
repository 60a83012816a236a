package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// AuthMode selects how the API client carries the session credentials
type AuthMode string

const (
	// AuthModeCookie relies on the HTTP-only cookie the server sets at login
	AuthModeCookie AuthMode = "cookie"
	// AuthModeBearer sends the stored token in the Authorization header
	AuthModeBearer AuthMode = "bearer"
)

type Config struct {
	APIURL         string        `env:"SAJ_API_URL,         default=http://localhost:8081/api"`
	AuthMode       AuthMode      `env:"SAJ_AUTH_MODE,       default=cookie"`
	Home           string        `env:"SAJ_HOME"`
	LogLevel       string        `env:"SAJ_LOG_LEVEL,       default=info"`
	LogPretty      bool          `env:"SAJ_LOG_PRETTY,      default=false"`
	RequestTimeout time.Duration `env:"SAJ_REQUEST_TIMEOUT, default=0s"`

	Mock MockConfig
}

// MockConfig configures the development API server
type MockConfig struct {
	Addr          string        `env:"SAJ_MOCK_ADDR,           default=:8081"`
	JWTSecret     string        `env:"SAJ_MOCK_JWT_SECRET,     default=saj-dev-secret"`
	AdminUser     string        `env:"SAJ_MOCK_ADMIN_USER,     default=admin"`
	AdminPassword string        `env:"SAJ_MOCK_ADMIN_PASSWORD, default=admin123"`
	AdminFullName string        `env:"SAJ_MOCK_ADMIN_NAME,     default=Administrador"`
	TokenTTL      time.Duration `env:"SAJ_MOCK_TOKEN_TTL,      default=24h"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

// load is split out so tests can feed a map lookuper
func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}

	cfg.APIURL = strings.TrimRight(strings.TrimSpace(cfg.APIURL), "/")
	if cfg.APIURL == "" {
		return nil, fmt.Errorf("config: SAJ_API_URL must not be empty")
	}

	cfg.AuthMode = AuthMode(strings.ToLower(strings.TrimSpace(string(cfg.AuthMode))))
	if !cfg.AuthMode.Valid() {
		return nil, fmt.Errorf("config: SAJ_AUTH_MODE must be %q or %q, got %q", AuthModeCookie, AuthModeBearer, cfg.AuthMode)
	}

	if cfg.Home == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("config: failed to resolve home directory: %w", err)
		}
		cfg.Home = filepath.Join(homeDir, ".saj")
	}

	return &cfg, nil
}

// Valid reports whether the mode is one of the supported schemes
func (m AuthMode) Valid() bool {
	return m == AuthModeCookie || m == AuthModeBearer
}

// DatabasePath returns the path of the local SQLite database
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Home, "saj.db")
}

// LogPath returns the path of the log file used while the TUI owns the terminal
func (c *Config) LogPath() string {
	return filepath.Join(c.Home, "saj.log")
}
