package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type ResolvedPaths struct {
	DataDir  string
	DBPath   string
	CrashDir string
}

// DefaultDataDirPath is ~/.amplitude.
func DefaultDataDirPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, DefaultDataDir), nil
}

// DefaultConfigPath is the config file inside the default data directory.
func DefaultConfigPath() string {
	if dir := strings.TrimSpace(os.Getenv("AM_PATHS_DATA_DIR")); dir != "" {
		return filepath.Join(dir, DefaultFileName)
	}
	dir, err := DefaultDataDirPath()
	if err != nil {
		return DefaultFileName
	}
	return filepath.Join(dir, DefaultFileName)
}

// ResolvePaths turns the configured paths into absolute ones. Relative DB and
// crash paths are taken relative to the data directory.
func ResolvePaths(cfg *Config) (ResolvedPaths, error) {
	dataDir := strings.TrimSpace(cfg.Paths.DataDir)
	if dataDir == "" {
		def, err := DefaultDataDirPath()
		if err != nil {
			return ResolvedPaths{}, err
		}
		dataDir = def
	}
	dataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return ResolvedPaths{}, fmt.Errorf("resolve data directory: %w", err)
	}

	return ResolvedPaths{
		DataDir:  dataDir,
		DBPath:   ResolveRelative(dataDir, cfg.DB.Path),
		CrashDir: ResolveRelative(dataDir, cfg.Log.CrashDir),
	}, nil
}

func ResolveRelative(base, path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return filepath.Clean(base)
	}
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(base, path)
}
