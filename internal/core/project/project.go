package project

import (
	apperrors "amcli/internal/core/errors"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// MarkerFile identifies a project root.
const MarkerFile = ".amproject"

// AssetTypes are the asset directories below the sources directory.
var AssetTypes = []string{
	"attenuators",
	"collections",
	"effects",
	"events",
	"pipelines",
	"rtpc",
	"soundbanks",
	"sounds",
	"switch_containers",
	"switches",
}

// Configuration is the content of the marker file.
type Configuration struct {
	Name                 string `json:"name"`
	DefaultConfiguration string `json:"default_configuration"`
	SourcesDir           string `json:"sources_dir"`
	DataDir              string `json:"data_dir"`
	BuildDir             string `json:"build_dir"`
	Version              int    `json:"version"`
}

// NewConfiguration returns the marker for a freshly scaffolded project.
func NewConfiguration(name string) Configuration {
	return Configuration{
		Name:                 name,
		DefaultConfiguration: "pc.config.amconfig",
		SourcesDir:           "sources",
		DataDir:              "data",
		BuildDir:             "build",
		Version:              1,
	}
}

func (c Configuration) withDefaults() Configuration {
	if c.SourcesDir == "" {
		c.SourcesDir = "sources"
	}
	if c.DataDir == "" {
		c.DataDir = "data"
	}
	if c.BuildDir == "" {
		c.BuildDir = "build"
	}
	return c
}

func HasMarker(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, MarkerFile))
	return err == nil && !info.IsDir()
}

// ReadMarker loads the marker file of dir.
func ReadMarker(dir string) (Configuration, error) {
	raw, err := os.ReadFile(filepath.Join(dir, MarkerFile))
	if errors.Is(err, os.ErrNotExist) {
		return Configuration{}, apperrors.ProjectNotInitialized(dir)
	}
	if err != nil {
		return Configuration{}, fmt.Errorf("read %s: %w", MarkerFile, err)
	}

	var cfg Configuration
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return Configuration{}, apperrors.New(apperrors.CodeSchemaValidation,
			"Invalid project file",
			fmt.Sprintf("%s is not valid JSON: %v", MarkerFile, err)).WithContext(dir)
	}
	if strings.TrimSpace(cfg.Name) == "" {
		return Configuration{}, apperrors.New(apperrors.CodeSchemaValidation,
			"Invalid project file",
			fmt.Sprintf("%s does not declare a project name", MarkerFile)).WithContext(dir)
	}
	return cfg.withDefaults(), nil
}

func WriteMarker(dir string, cfg Configuration) error {
	raw, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", MarkerFile, err)
	}
	if err := os.WriteFile(filepath.Join(dir, MarkerFile), append(raw, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", MarkerFile, err)
	}
	return nil
}

// ValidateName accepts letters, digits, spaces, dashes and underscores.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return apperrors.ValidationField("project name", "The project name must not be empty")
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '_' || r == '-' || r == ' ':
		default:
			return apperrors.ValidationField("project name",
				"Only letters, numbers, spaces, dashes and underscores are allowed")
		}
	}
	return nil
}

// NormalizeName lowercases name and replaces spaces and dashes with
// underscores, which is the form used for directories and registry keys.
func NormalizeName(name string) string {
	replacer := strings.NewReplacer(" ", "_", "-", "_")
	return replacer.Replace(strings.ToLower(strings.TrimSpace(name)))
}

// CountAssets counts the .json files in each asset directory. Missing
// directories count as zero.
func CountAssets(dir string, cfg Configuration) (map[string]int, error) {
	cfg = cfg.withDefaults()
	counts := make(map[string]int, len(AssetTypes))
	for _, kind := range AssetTypes {
		counts[kind] = 0
		entries, err := os.ReadDir(filepath.Join(dir, cfg.SourcesDir, kind))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return counts, fmt.Errorf("read %s directory: %w", kind, err)
		}
		for _, entry := range entries {
			if filepath.Ext(entry.Name()) != ".json" {
				continue
			}
			info, err := os.Stat(filepath.Join(dir, cfg.SourcesDir, kind, entry.Name()))
			if err == nil && info.Mode().IsRegular() {
				counts[kind]++
			}
		}
	}
	return counts, nil
}

// IsEmptyDir reports whether dir is missing or has no entries.
func IsEmptyDir(dir string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return len(entries) == 0, nil
}
