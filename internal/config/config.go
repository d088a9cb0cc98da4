// Package config provides centralized configuration loaded from environment
// variables. Shared by every htwatch subcommand.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"
)

// ConfigurationError reports a missing or invalid setting. It is fatal at
// startup: the process must not begin polling with a broken configuration.
type ConfigurationError struct {
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Key, e.Reason)
}

// --------------------------------------------------------------------------
// Config is populated from environment variables
// --------------------------------------------------------------------------

type Config struct {
	// API-Football
	APIFootballKey     string
	APIFootballBaseURL string
	APIRequestsPerMin  int

	// Telegram
	TelegramToken  string
	TelegramChatID string

	// Dataset
	DatasetPath string

	// Schedule
	PollInterval   time.Duration
	RequestTimeout time.Duration
	Timezone       string
	Location       *time.Location
	Season         int
	DailyDigest    bool

	// Leagues is the closed list of competitions polled, in registry order.
	Leagues []League

	// Status server; empty disables it.
	StatusAddr       string
	CORSAllowOrigins []string

	LogLevel slog.Level
}

// Options relax validation for commands that never deliver notifications.
type Options struct {
	// DryRun skips the Telegram credential checks.
	DryRun bool
}

// Load reads configuration from environment variables with sensible defaults.
func Load(opts Options) (*Config, error) {
	cfg := &Config{
		APIFootballKey:     envOr("API_FOOTBALL_KEY", ""),
		APIFootballBaseURL: envOr("API_FOOTBALL_BASE_URL", "https://v3.football.api-sports.io"),
		APIRequestsPerMin:  envInt("API_FOOTBALL_RPM", 30),

		TelegramToken:  envOr("TELEGRAM_TOKEN", ""),
		TelegramChatID: envOr("TELEGRAM_CHAT_ID", ""),

		DatasetPath: envOr("DATASET_PATH", "matches_2025.csv"),

		PollInterval:   time.Duration(envInt("POLL_INTERVAL_SECONDS", 300)) * time.Second,
		RequestTimeout: time.Duration(envInt("REQUEST_TIMEOUT_SECONDS", 15)) * time.Second,
		Timezone:       envOr("TIMEZONE", "Europe/Istanbul"),
		Season:         envInt("SEASON", 2025),
		DailyDigest:    envBool("DAILY_DIGEST", true),

		StatusAddr:       envOr("STATUS_ADDR", ""),
		CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", []string{"*"}),
	}

	if cfg.APIFootballKey == "" {
		return nil, &ConfigurationError{Key: "API_FOOTBALL_KEY", Reason: "must be set"}
	}
	if !opts.DryRun {
		if cfg.TelegramToken == "" {
			return nil, &ConfigurationError{Key: "TELEGRAM_TOKEN", Reason: "must be set"}
		}
		if cfg.TelegramChatID == "" {
			return nil, &ConfigurationError{Key: "TELEGRAM_CHAT_ID", Reason: "must be set"}
		}
	}
	if cfg.PollInterval <= 0 {
		return nil, &ConfigurationError{Key: "POLL_INTERVAL_SECONDS", Reason: "must be positive"}
	}
	if cfg.RequestTimeout <= 0 {
		return nil, &ConfigurationError{Key: "REQUEST_TIMEOUT_SECONDS", Reason: "must be positive"}
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, &ConfigurationError{Key: "TIMEZONE", Reason: err.Error()}
	}
	cfg.Location = loc

	level, err := parseLevel(envOr("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = level

	registry := DefaultRegistry()
	if path := envOr("LEAGUES_FILE", ""); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, &ConfigurationError{Key: "LEAGUES_FILE", Reason: err.Error()}
		}
		if registry, err = ParseRegistry(data); err != nil {
			return nil, &ConfigurationError{Key: "LEAGUES_FILE", Reason: err.Error()}
		}
	}
	leagues, err := registry.Select(envList("LEAGUES", nil))
	if err != nil {
		return nil, &ConfigurationError{Key: "LEAGUES", Reason: err.Error()}
	}
	cfg.Leagues = leagues

	return cfg, nil
}

// LeagueIDs returns the configured league ids in registry order.
func (c *Config) LeagueIDs() []int {
	ids := make([]int, len(c.Leagues))
	for i, l := range c.Leagues {
		ids[i] = l.ID
	}
	return ids
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return level, &ConfigurationError{Key: "LOG_LEVEL", Reason: err.Error()}
	}
	return level, nil
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
