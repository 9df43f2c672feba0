package app

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	defaultTimeout = 10 * time.Second
	defaultPort    = "8080"
)

type Config struct {
	// SlackURL may be empty; invocations then report ResultNotConfigured.
	SlackURL string
	// AllowHTTP accepts http:// webhook URLs; https is required otherwise.
	AllowHTTP bool
	Timeout   time.Duration
	LogLevel  logrus.Level
	LogFormat string
	Port      string
}

func LoadConfigFromEnv() (*Config, error) {
	return loadConfig(os.Getenv)
}

func loadConfig(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		SlackURL:  strings.TrimSpace(getenv("SLACK_URL")),
		Timeout:   defaultTimeout,
		LogLevel:  logrus.InfoLevel,
		LogFormat: "json",
		Port:      defaultPort,
	}
	if v := getenv("SLACK_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid SLACK_TIMEOUT %q: %w", v, err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("invalid SLACK_TIMEOUT %q: must be positive", v)
		}
		cfg.Timeout = d
	}
	if v := getenv("SLACK_ALLOW_HTTP"); v != "" {
		allow, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid SLACK_ALLOW_HTTP %q: %w", v, err)
		}
		cfg.AllowHTTP = allow
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		lvl, err := logrus.ParseLevel(v)
		if err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
		}
		cfg.LogLevel = lvl
	}
	if v := strings.ToLower(getenv("LOG_FORMAT")); v != "" {
		if v != "json" && v != "text" {
			return nil, fmt.Errorf("invalid LOG_FORMAT %q: want json or text", v)
		}
		cfg.LogFormat = v
	}
	if v := getenv("PORT"); v != "" {
		cfg.Port = v
	}
	return cfg, nil
}
