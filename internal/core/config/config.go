package config

import (
	"fmt"
	"time"
)

const (
	CurrentVersion   = 1
	DefaultDataDir   = ".amplitude"
	DefaultDBFile    = "am.db"
	DefaultFileName  = "am.toml"
	DefaultTemplate  = "default"
	DefaultLogBuffer = 1000
)

type Config struct {
	Version       int           `toml:"version"`
	Paths         Paths         `toml:"paths"`
	DB            Database      `toml:"db"`
	Log           Logging       `toml:"log"`
	Project       Project       `toml:"project"`
	Observability Observability `toml:"observability"`
}

type Paths struct {
	DataDir string `toml:"data_dir"`
}

type Database struct {
	Path         string        `toml:"path"`
	BusyTimeout  time.Duration `toml:"busy_timeout"`
	CacheSizeKiB int           `toml:"cache_size_kib"`
}

type Logging struct {
	BufferSize int    `toml:"buffer_size"`
	CrashDir   string `toml:"crash_dir"`
}

type Project struct {
	DefaultTemplate string `toml:"default_template"`
}

type Observability struct {
	MetricsFile  string  `toml:"metrics_file"`
	OTLPEndpoint string  `toml:"otlp_endpoint"`
	OTLPInsecure bool    `toml:"otlp_insecure"`
	SampleRate   float64 `toml:"sample_rate"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = CurrentVersion
	}
	if cfg.DB.Path == "" {
		cfg.DB.Path = DefaultDBFile
	}
	if cfg.DB.BusyTimeout == 0 {
		cfg.DB.BusyTimeout = 5 * time.Second
	}
	if cfg.DB.CacheSizeKiB == 0 {
		cfg.DB.CacheSizeKiB = 64000
	}
	if cfg.Log.BufferSize == 0 {
		cfg.Log.BufferSize = DefaultLogBuffer
	}
	if cfg.Project.DefaultTemplate == "" {
		cfg.Project.DefaultTemplate = DefaultTemplate
	}
	if cfg.Observability.SampleRate == 0 {
		cfg.Observability.SampleRate = 1
	}
}

func validate(cfg *Config) error {
	if cfg.Version > CurrentVersion {
		return fmt.Errorf("config version %d is newer than supported version %d", cfg.Version, CurrentVersion)
	}
	if cfg.DB.BusyTimeout < 0 {
		return fmt.Errorf("db.busy_timeout must not be negative")
	}
	if cfg.DB.CacheSizeKiB < 0 {
		return fmt.Errorf("db.cache_size_kib must not be negative")
	}
	if cfg.Log.BufferSize < 1 {
		return fmt.Errorf("log.buffer_size must be at least 1")
	}
	if cfg.Observability.SampleRate < 0 || cfg.Observability.SampleRate > 1 {
		return fmt.Errorf("observability.sample_rate must be between 0 and 1")
	}
	return nil
}
