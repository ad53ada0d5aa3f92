package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the
// configuration and returns the names of the variables that took effect.
// Pattern: AM_[SECTION]_[KEY] (e.g., AM_DB_BUSY_TIMEOUT).
func ApplyEnvOverrides(cfg *Config) []string {
	var applied []string
	track := func(key string, ok bool) {
		if ok {
			applied = append(applied, key)
		}
	}

	track("AM_PATHS_DATA_DIR", setEnvString(&cfg.Paths.DataDir, "AM_PATHS_DATA_DIR"))

	track("AM_DB_PATH", setEnvString(&cfg.DB.Path, "AM_DB_PATH"))
	track("AM_DB_BUSY_TIMEOUT", setEnvDuration(&cfg.DB.BusyTimeout, "AM_DB_BUSY_TIMEOUT"))
	track("AM_DB_CACHE_SIZE_KIB", setEnvInt(&cfg.DB.CacheSizeKiB, "AM_DB_CACHE_SIZE_KIB"))

	track("AM_LOG_BUFFER_SIZE", setEnvInt(&cfg.Log.BufferSize, "AM_LOG_BUFFER_SIZE"))
	track("AM_LOG_CRASH_DIR", setEnvString(&cfg.Log.CrashDir, "AM_LOG_CRASH_DIR"))

	track("AM_PROJECT_DEFAULT_TEMPLATE", setEnvString(&cfg.Project.DefaultTemplate, "AM_PROJECT_DEFAULT_TEMPLATE"))

	track("AM_OBSERVABILITY_METRICS_FILE", setEnvString(&cfg.Observability.MetricsFile, "AM_OBSERVABILITY_METRICS_FILE"))
	track("AM_OBSERVABILITY_OTLP_ENDPOINT", setEnvString(&cfg.Observability.OTLPEndpoint, "AM_OBSERVABILITY_OTLP_ENDPOINT"))
	track("AM_OBSERVABILITY_OTLP_INSECURE", setEnvBool(&cfg.Observability.OTLPInsecure, "AM_OBSERVABILITY_OTLP_INSECURE"))

	return applied
}

func setEnvString(target *string, key string) bool {
	if val, ok := os.LookupEnv(key); ok {
		*target = val
		return true
	}
	return false
}

func setEnvInt(target *int, key string) bool {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			*target = i
			return true
		}
	}
	return false
}

func setEnvBool(target *bool, key string) bool {
	if val, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(strings.ToLower(val)); err == nil {
			*target = b
			return true
		}
	}
	return false
}

func setEnvDuration(target *time.Duration, key string) bool {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			*target = d
			return true
		}
	}
	return false
}
