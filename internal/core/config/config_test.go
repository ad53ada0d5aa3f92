package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "am.toml")
	content := `
version = 1

[paths]
data_dir = "/srv/am"

[db]
busy_timeout = "2s"
cache_size_kib = 1024

[observability]
metrics_file = "/var/lib/node_exporter/am.prom"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.DataDir != "/srv/am" {
		t.Errorf("expected data dir /srv/am, got %q", cfg.Paths.DataDir)
	}
	if cfg.DB.BusyTimeout != 2*time.Second {
		t.Errorf("expected busy timeout 2s, got %s", cfg.DB.BusyTimeout)
	}
	if cfg.DB.CacheSizeKiB != 1024 {
		t.Errorf("expected cache size 1024, got %d", cfg.DB.CacheSizeKiB)
	}
	if cfg.DB.Path != DefaultDBFile {
		t.Errorf("expected default db path, got %q", cfg.DB.Path)
	}
	if cfg.Log.BufferSize != DefaultLogBuffer {
		t.Errorf("expected default log buffer, got %d", cfg.Log.BufferSize)
	}
	if cfg.Observability.MetricsFile != "/var/lib/node_exporter/am.prom" {
		t.Errorf("unexpected metrics file %q", cfg.Observability.MetricsFile)
	}
}

func TestLoadError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "am.toml")
	if err := os.WriteFile(path, []byte("version = 9\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "newer than supported") {
		t.Fatalf("expected version error, got %v", err)
	}

	if err := os.WriteFile(path, []byte("[log]\nbuffer_size = -3\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected buffer size error")
	}
}

func TestLoadOrDefault_MissingFile(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("LoadOrDefault returned error: %v", err)
	}
	if cfg.DB.BusyTimeout != 5*time.Second || cfg.Project.DefaultTemplate != DefaultTemplate {
		t.Errorf("unexpected defaults %+v", cfg)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("AM_PATHS_DATA_DIR", "/tmp/am-data")
	t.Setenv("AM_DB_BUSY_TIMEOUT", "750ms")
	t.Setenv("AM_LOG_BUFFER_SIZE", "not-a-number")

	cfg := Default()
	applied := ApplyEnvOverrides(cfg)

	if cfg.Paths.DataDir != "/tmp/am-data" {
		t.Errorf("data dir not overridden: %q", cfg.Paths.DataDir)
	}
	if cfg.DB.BusyTimeout != 750*time.Millisecond {
		t.Errorf("busy timeout not overridden: %s", cfg.DB.BusyTimeout)
	}
	if cfg.Log.BufferSize != DefaultLogBuffer {
		t.Errorf("invalid override should be ignored, got %d", cfg.Log.BufferSize)
	}
	if len(applied) != 2 {
		t.Errorf("expected 2 applied overrides, got %v", applied)
	}
}

func TestResolvePaths(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()
	cfg.Paths.DataDir = dir

	paths, err := ResolvePaths(cfg)
	if err != nil {
		t.Fatalf("ResolvePaths returned error: %v", err)
	}
	if paths.DBPath != filepath.Join(dir, DefaultDBFile) {
		t.Errorf("unexpected db path %q", paths.DBPath)
	}
	if paths.CrashDir != dir {
		t.Errorf("crash logs should default to the data dir, got %q", paths.CrashDir)
	}

	cfg.DB.Path = "/abs/store.db"
	paths, err = ResolvePaths(cfg)
	if err != nil {
		t.Fatalf("ResolvePaths returned error: %v", err)
	}
	if paths.DBPath != "/abs/store.db" {
		t.Errorf("absolute db path should be kept, got %q", paths.DBPath)
	}
}
