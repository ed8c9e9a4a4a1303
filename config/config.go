package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Geocoder   GeocoderConfig   `yaml:"geocoder"`
	Scheduling SchedulingConfig `yaml:"scheduling"`
	BestFit    BestFitConfig    `yaml:"best_fit"`
	Reminder   ReminderConfig   `yaml:"reminder"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// GeocoderConfig holds the address-resolution provider configuration.
type GeocoderConfig struct {
	URL             string  `yaml:"url"`
	UserAgent       string  `yaml:"user_agent"`
	TimeoutSeconds  int     `yaml:"timeout_seconds"`
	CacheTTLMinutes int     `yaml:"cache_ttl_minutes"`
	RequestsPerSec  float64 `yaml:"requests_per_sec"`
}

// SchedulingConfig holds the visit generation parameters.
type SchedulingConfig struct {
	HorizonDays int    `yaml:"horizon_days"`
	Timezone    string `yaml:"timezone"`
}

// BestFitConfig holds the weekday recommendation parameters.
type BestFitConfig struct {
	RadiusMiles   float64 `yaml:"radius_miles"`
	RecommendDays int     `yaml:"recommend_days"`
}

// ReminderConfig holds the next-day visit reminder sweep configuration.
type ReminderConfig struct {
	Enabled         bool          `yaml:"enabled"`
	IntervalSeconds int           `yaml:"interval_seconds"`
	Interval        time.Duration `yaml:"-"` // Ignored by YAML parser
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// WorkerPoolConfig holds the configuration for the reminder worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 300
	}

	if cfg.Geocoder.TimeoutSeconds <= 0 {
		cfg.Geocoder.TimeoutSeconds = 10
	}
	if cfg.Geocoder.CacheTTLMinutes <= 0 {
		cfg.Geocoder.CacheTTLMinutes = 60
	}
	if cfg.Geocoder.RequestsPerSec <= 0 {
		cfg.Geocoder.RequestsPerSec = 1
	}

	if cfg.Scheduling.HorizonDays <= 0 {
		cfg.Scheduling.HorizonDays = 90
	}
	if cfg.Scheduling.Timezone == "" {
		cfg.Scheduling.Timezone = "UTC"
	}

	if cfg.BestFit.RadiusMiles <= 0 {
		cfg.BestFit.RadiusMiles = 5
	}
	if cfg.BestFit.RecommendDays <= 0 {
		cfg.BestFit.RecommendDays = 3
	}

	if cfg.Reminder.IntervalSeconds <= 0 {
		cfg.Reminder.IntervalSeconds = 3600
	}
	cfg.Reminder.Interval = time.Duration(cfg.Reminder.IntervalSeconds) * time.Second

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}

	return &cfg, nil
}
