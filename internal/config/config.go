package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	DatabaseURL    string
	HTTPListenAddr string
	LogLevel       string
	ServiceName    string

	DirectoryURL        string
	DirectoryServiceKey string
	DirectoryTimeout    time.Duration
	DirectoryPageSize   int

	NotifyAPIURL  string
	NotifyAPIKey  string
	NotifyFrom    string
	NotifyTimeout time.Duration
	LoginURL      string

	// TemporalAddress is optional for the API; without it the async
	// provisioning endpoints are not mounted.
	TemporalAddress string
	MetricsAddr     string

	// DevMode swaps the directory for an in-memory one and logs
	// notifications instead of sending them.
	DevMode bool
}

func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		HTTPListenAddr:      getEnv("HTTP_LISTEN_ADDR", ":8080"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		ServiceName:         getEnv("SERVICE_NAME", ""),
		DirectoryURL:        getEnv("DIRECTORY_URL", ""),
		DirectoryServiceKey: getEnv("DIRECTORY_SERVICE_KEY", ""),
		NotifyAPIURL:        getEnv("NOTIFY_API_URL", ""),
		NotifyAPIKey:        getEnv("NOTIFY_API_KEY", ""),
		NotifyFrom:          getEnv("NOTIFY_FROM", "noreply@agentdesk.local"),
		LoginURL:            getEnv("LOGIN_URL", ""),
		TemporalAddress:     getEnv("TEMPORAL_ADDRESS", ""),
		MetricsAddr:         getEnv("METRICS_ADDR", ":9090"),
	}

	var err error
	if cfg.DirectoryTimeout, err = getDuration("DIRECTORY_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.NotifyTimeout, err = getDuration("NOTIFY_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.DirectoryPageSize, err = getInt("DIRECTORY_PAGE_SIZE", 200); err != nil {
		return nil, err
	}
	if cfg.DirectoryPageSize <= 0 {
		return nil, fmt.Errorf("DIRECTORY_PAGE_SIZE must be positive")
	}
	if cfg.DevMode, err = getBool("DEV_MODE", false); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the settings the given component needs are present.
func (c *Config) Validate(component string) error {
	var missing []string
	if c.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if !c.DevMode {
		if c.DirectoryURL == "" {
			missing = append(missing, "DIRECTORY_URL")
		}
		if c.DirectoryServiceKey == "" {
			missing = append(missing, "DIRECTORY_SERVICE_KEY")
		}
	}

	switch component {
	case "provisioning-api":
		if c.HTTPListenAddr == "" {
			missing = append(missing, "HTTP_LISTEN_ADDR")
		}
	case "worker":
		if c.TemporalAddress == "" {
			missing = append(missing, "TEMPORAL_ADDRESS")
		}
		if c.DevMode {
			return fmt.Errorf("DEV_MODE is not supported by the worker: the in-memory directory is not shared across processes")
		}
	default:
		return fmt.Errorf("unknown component %q", component)
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required config: %s", strings.Join(missing, ", "))
	}
	return nil
}

// NotifyConfigured reports whether a notification API is configured.
func (c *Config) NotifyConfigured() bool {
	return c.NotifyAPIURL != "" && c.NotifyAPIKey != ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}

func getBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}
	return b, nil
}
