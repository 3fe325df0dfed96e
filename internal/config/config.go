package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config keeps runtime settings for the planner.
type Config struct {
	DatabaseURL string `toml:"database_url"`
	Timezone    string `toml:"timezone"`

	// Daily job firing times, HH:MM in the configured timezone.
	GenerationTime string `toml:"generation_time"`
	CleanupTime    string `toml:"cleanup_time"`
	NotifyTime     string `toml:"notify_time"`

	CleanupRetentionDays int `toml:"cleanup_retention_days"`
	JobTimeoutMinutes    int `toml:"job_timeout_minutes"`

	TelegramToken string `toml:"telegram_token"`
	MetricsAddr   string `toml:"metrics_addr"`

	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
}

// Load reads configuration from an optional TOML file, then overrides from
// environment variables, then fills defaults. path may be empty.
func Load(path string) (Config, error) {
	var cfg Config

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("read config %q: %w", path, err)
		}
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// JobTimeout returns the per-pass deadline for daily jobs.
func (c Config) JobTimeout() time.Duration {
	return time.Duration(c.JobTimeoutMinutes) * time.Minute
}

// Location resolves the configured timezone.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.DatabaseURL, "DATABASE_URL")
	setString(&cfg.Timezone, "TIMEZONE")
	setString(&cfg.GenerationTime, "GENERATION_TIME")
	setString(&cfg.CleanupTime, "CLEANUP_TIME")
	setString(&cfg.NotifyTime, "NOTIFY_TIME")
	setInt(&cfg.CleanupRetentionDays, "CLEANUP_RETENTION_DAYS")
	setInt(&cfg.JobTimeoutMinutes, "JOB_TIMEOUT_MINUTES")
	setString(&cfg.TelegramToken, "TELEGRAM_TOKEN")
	setString(&cfg.MetricsAddr, "METRICS_ADDR")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	setString(&cfg.LogFormat, "LOG_FORMAT")
}

func applyDefaults(cfg *Config) {
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "taskplanner.db"
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "UTC"
	}
	if cfg.GenerationTime == "" {
		cfg.GenerationTime = "00:05"
	}
	if cfg.CleanupTime == "" {
		cfg.CleanupTime = "01:00"
	}
	if cfg.NotifyTime == "" {
		cfg.NotifyTime = "08:00"
	}
	if cfg.CleanupRetentionDays <= 0 {
		cfg.CleanupRetentionDays = 30
	}
	if cfg.JobTimeoutMinutes <= 0 {
		cfg.JobTimeoutMinutes = 10
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
}

func (c Config) validate() error {
	for _, t := range []string{c.GenerationTime, c.CleanupTime, c.NotifyTime} {
		if err := checkDailyTime(t); err != nil {
			return err
		}
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format %q, expected text or json", c.LogFormat)
	}
	return nil
}

func checkDailyTime(timeStr string) error {
	parts := strings.Split(timeStr, ":")
	if len(parts) != 2 {
		return fmt.Errorf("invalid time %q, expected HH:MM", timeStr)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return fmt.Errorf("invalid hour in %q", timeStr)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return fmt.Errorf("invalid minute in %q", timeStr)
	}
	return nil
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return
	}
	if v, err := strconv.Atoi(raw); err == nil {
		*dst = v
	}
}
