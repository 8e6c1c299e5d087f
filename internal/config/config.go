package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultAPIBase         = "http://localhost:8000"
	DefaultWSBase          = "ws://localhost:8000"
	DefaultWSPath          = "/polls/ws/{id}"
	DefaultSessionDriver   = "sqlite"
	DefaultRefreshInterval = 5 * time.Second
	DefaultReconnectBase   = time.Second
	DefaultReconnectMax    = 5
	DefaultHTTPTimeout     = 15 * time.Second
	DefaultCacheTTL        = 30 * time.Second
	DefaultLogLevel        = "warn"
)

type Config struct {
	APIBase string
	WSBase  string
	WSPath  string

	// Profile keys the stored session; empty means "use APIBase".
	Profile string

	SessionDriver string
	SessionDSN    string

	RefreshInterval      time.Duration
	ReconnectBase        time.Duration
	ReconnectMaxAttempts int
	HTTPTimeout          time.Duration
	CacheTTL             time.Duration
	LogLevel             string
	DevelopmentLogging   bool
}

// Load reads an optional .env file and then the POLLS_* environment.
// Variables already present in the environment win over the file.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv, applying defaults for unset keys.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		APIBase:       envOr(getenv, "POLLS_API_BASE", DefaultAPIBase),
		WSBase:        envOr(getenv, "POLLS_WS_BASE", DefaultWSBase),
		WSPath:        envOr(getenv, "POLLS_WS_PATH", DefaultWSPath),
		Profile:       getenv("POLLS_PROFILE"),
		SessionDriver: envOr(getenv, "POLLS_SESSION_DRIVER", DefaultSessionDriver),
		SessionDSN:    getenv("POLLS_SESSION_DSN"),
		LogLevel:      envOr(getenv, "POLLS_LOG_LEVEL", DefaultLogLevel),
	}

	var err error
	if cfg.RefreshInterval, err = durationEnv(getenv, "POLLS_REFRESH_INTERVAL", DefaultRefreshInterval); err != nil {
		return nil, err
	}
	if cfg.ReconnectBase, err = durationEnv(getenv, "POLLS_RECONNECT_BASE", DefaultReconnectBase); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = durationEnv(getenv, "POLLS_HTTP_TIMEOUT", DefaultHTTPTimeout); err != nil {
		return nil, err
	}
	if cfg.CacheTTL, err = durationEnv(getenv, "POLLS_CACHE_TTL", DefaultCacheTTL); err != nil {
		return nil, err
	}
	if cfg.ReconnectMaxAttempts, err = intEnv(getenv, "POLLS_RECONNECT_MAX_ATTEMPTS", DefaultReconnectMax); err != nil {
		return nil, err
	}
	if cfg.DevelopmentLogging, err = boolEnv(getenv, "POLLS_LOG_DEVELOPMENT", false); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.SessionDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("POLLS_SESSION_DRIVER must be sqlite or postgres, got %q", c.SessionDriver)
	}
	if c.SessionDriver == "postgres" && c.SessionDSN == "" {
		return errors.New("POLLS_SESSION_DSN is required for the postgres session driver")
	}
	if c.RefreshInterval <= 0 {
		return errors.New("POLLS_REFRESH_INTERVAL must be positive")
	}
	if c.ReconnectBase <= 0 {
		return errors.New("POLLS_RECONNECT_BASE must be positive")
	}
	if c.ReconnectMaxAttempts < 1 {
		return errors.New("POLLS_RECONNECT_MAX_ATTEMPTS must be at least 1")
	}
	if c.CacheTTL < 0 {
		return errors.New("POLLS_CACHE_TTL must not be negative")
	}
	return nil
}

// SessionProfile is the key sessions are stored under.
func (c *Config) SessionProfile() string {
	if c.Profile != "" {
		return c.Profile
	}
	return c.APIBase
}

// SessionDataSource returns the configured DSN, or a SQLite file under the
// user config directory when none is set.
func (c *Config) SessionDataSource() (string, error) {
	if c.SessionDSN != "" {
		return c.SessionDSN, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate config dir: %w", err)
	}
	dir = filepath.Join(dir, "pollctl")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}
	return "file:" + filepath.Join(dir, "session.db") + "?_pragma=busy_timeout(5000)", nil
}

func envOr(getenv func(string) string, key, fallback string) string {
	if v := getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationEnv(getenv func(string) string, key string, fallback time.Duration) (time.Duration, error) {
	v := getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}

func intEnv(getenv func(string) string, key string, fallback int) (int, error) {
	v := getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func boolEnv(getenv func(string) string, key string, fallback bool) (bool, error) {
	v := getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return b, nil
}
