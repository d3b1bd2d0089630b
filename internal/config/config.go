package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Supplier  SupplierConfig  `yaml:"supplier"`
	Sync      SyncConfig      `yaml:"sync"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Recovery  RecoveryConfig  `yaml:"recovery"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type SupplierConfig struct {
	BaseURL          string        `yaml:"base_url"`
	APIKey           string        `yaml:"api_key"`
	CompanyID        int64         `yaml:"company_id"`
	PageSize         int           `yaml:"page_size"`
	Timeout          time.Duration `yaml:"timeout"`
	RequestsPerMin   int           `yaml:"requests_per_min"`
	MaxRetries       int           `yaml:"max_retries"`
	RetryBackoffBase time.Duration `yaml:"retry_backoff_base"`
}

type SyncConfig struct {
	PollInterval      time.Duration `yaml:"poll_interval"`
	PartialErrorRatio float64       `yaml:"partial_error_ratio"`
	MaxStoredErrors   int           `yaml:"max_stored_errors"`
}

type SchedulerConfig struct {
	TickInterval time.Duration `yaml:"tick_interval"`
}

type RecoveryConfig struct {
	SweepInterval  time.Duration `yaml:"sweep_interval"`
	StaleThreshold time.Duration `yaml:"stale_threshold"`
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Supplier: SupplierConfig{
			PageSize:         1000,
			Timeout:          30 * time.Second,
			RequestsPerMin:   60,
			MaxRetries:       3,
			RetryBackoffBase: 2 * time.Second,
		},
		Sync: SyncConfig{
			PollInterval:      2 * time.Second,
			PartialErrorRatio: 0.05,
			MaxStoredErrors:   100,
		},
		Scheduler: SchedulerConfig{
			TickInterval: time.Minute,
		},
		Recovery: RecoveryConfig{
			SweepInterval:  5 * time.Minute,
			StaleThreshold: 30 * time.Minute,
		},
	}
}

// Load reads the yaml config file when present and applies environment
// overrides on top. A missing file is not an error; env alone is enough.
func Load(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	applyEnv(cfg)

	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("database url is required (DATABASE_URL or config file)")
	}
	if cfg.Supplier.BaseURL == "" {
		return nil, fmt.Errorf("supplier base url is required (SUPPLIER_BASE_URL or config file)")
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("SUPPLIER_BASE_URL"); v != "" {
		cfg.Supplier.BaseURL = v
	}
	if v := os.Getenv("SUPPLIER_API_KEY"); v != "" {
		cfg.Supplier.APIKey = v
	}
	if v := os.Getenv("SUPPLIER_COMPANY_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Supplier.CompanyID = id
		}
	}
	if v := os.Getenv("SUPPLIER_PAGE_SIZE"); v != "" {
		if size, err := strconv.Atoi(v); err == nil && size > 0 {
			cfg.Supplier.PageSize = size
		}
	}
	if v := os.Getenv("SYNC_STALE_THRESHOLD"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Recovery.StaleThreshold = d
		}
	}
}
