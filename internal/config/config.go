package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Address         string  `yaml:"address"`
		StaffAPIKey     string  `yaml:"staff_api_key"`
		PublicRateLimit float64 `yaml:"public_rate_limit"`
		PublicBurst     int     `yaml:"public_burst"`
	} `yaml:"server"`

	Telegram struct {
		BotToken string `yaml:"bot_token"`
		Debug    bool   `yaml:"debug"`
	} `yaml:"telegram"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Backup BackupConfig `yaml:"backup"`

	Redis struct {
		Address        string `yaml:"address"`
		Password       string `yaml:"password"`
		DB             int    `yaml:"db"`
		LockTTLSeconds int    `yaml:"lock_ttl_seconds"`
	} `yaml:"redis"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	Calendar struct {
		Path          string `yaml:"path"`
		ReloadSeconds int    `yaml:"reload_seconds"`
	} `yaml:"calendar"`

	PendingReminder struct {
		Enabled         bool `yaml:"enabled"`
		AfterMinutes    int  `yaml:"after_minutes"`
		IntervalSeconds int  `yaml:"interval_seconds"`
	} `yaml:"pending_reminder"`

	Timezone string  `yaml:"timezone"`
	Managers []int64 `yaml:"managers"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	IntervalHours int    `yaml:"interval_hours"`
	StoragePath   string `yaml:"path"`
	RetentionDays int    `yaml:"retention_days"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if cfg.Database.Path == "" {
		cfg.Database.Path = "data/pizzaflow.db"
	}
	if cfg.Calendar.Path == "" {
		cfg.Calendar.Path = "configs/calendar.yaml"
	}
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}

	if _, err = cfg.Location(); err != nil {
		return nil, fmt.Errorf("timezone: %w", err)
	}

	if err = os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Location resolves the restaurant time zone used for "today".
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

func (c *Config) LockTTL() time.Duration {
	if c.Redis.LockTTLSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.Redis.LockTTLSeconds) * time.Second
}

func (c *Config) ReloadInterval() time.Duration {
	if c.Calendar.ReloadSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Calendar.ReloadSeconds) * time.Second
}

func (c *Config) ReminderAfter() time.Duration {
	return time.Duration(c.PendingReminder.AfterMinutes) * time.Minute
}

func (c *Config) ReminderInterval() time.Duration {
	return time.Duration(c.PendingReminder.IntervalSeconds) * time.Second
}

func (c *Config) BackupInterval() time.Duration {
	if c.Backup.IntervalHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.Backup.IntervalHours) * time.Hour
}
