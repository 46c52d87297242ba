// Package config handles repository configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents repository configuration stored in .citemill/config.json.
type Config struct {
	Library           string `json:"library,omitempty"`             // Path to the BibTeX library file
	Workers           int    `json:"workers,omitempty"`             // Concurrent workers for parse/verify (0 = default)
	TagTimeoutSeconds int    `json:"tag_timeout_seconds,omitempty"` // Per-candidate tagging timeout (0 = default)
}

const (
	CitemillDir        = ".citemill"
	ConfigFile         = "config.json"
	CatalogFile        = "catalog.jsonl"
	CacheDir           = "cache"
	DBFile             = "catalog.db"
	ReportsDir         = "reports"
	DefaultLibraryFile = "library.bib"
)

// CitemillPath returns the path to the .citemill directory from a root path.
func CitemillPath(root string) string {
	return filepath.Join(root, CitemillDir)
}

// ConfigPath returns the path to config.json from a root path.
func ConfigPath(root string) string {
	return filepath.Join(root, CitemillDir, ConfigFile)
}

// CatalogPath returns the path to catalog.jsonl from a root path.
func CatalogPath(root string) string {
	return filepath.Join(root, CitemillDir, CatalogFile)
}

// CachePath returns the path to the cache directory from a root path.
func CachePath(root string) string {
	return filepath.Join(root, CitemillDir, CacheDir)
}

// DBPath returns the path to catalog.db from a root path.
func DBPath(root string) string {
	return filepath.Join(root, CitemillDir, CacheDir, DBFile)
}

// ReportsPath returns the path to the reports directory from a root path.
func ReportsPath(root string) string {
	return filepath.Join(root, CitemillDir, ReportsDir)
}

// LibraryPath returns the path to the BibTeX library from a root path.
// A configured library overrides the default; relative values are resolved
// against the repository root.
func LibraryPath(root string, cfg *Config) string {
	if cfg == nil || cfg.Library == "" {
		return filepath.Join(root, DefaultLibraryFile)
	}

	lib := ExpandPath(cfg.Library)
	if filepath.IsAbs(lib) {
		return lib
	}
	return filepath.Join(root, lib)
}

// IsRepository checks if the given path contains a citemill repository.
func IsRepository(root string) bool {
	info, err := os.Stat(CitemillPath(root))
	return err == nil && info.IsDir()
}

// FindRepository walks up from the given path to find a citemill repository.
// Returns the repository root path or an error if not found.
func FindRepository(start string) (string, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	for {
		if IsRepository(abs) {
			return abs, nil
		}

		parent := filepath.Dir(abs)
		if parent == abs {
			return "", fmt.Errorf("not in a citemill repository (no .citemill directory found)")
		}
		abs = parent
	}
}

// Load reads configuration from the repository at the given root.
func Load(root string) (*Config, error) {
	data, err := os.ReadFile(ConfigPath(root))
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return &cfg, nil
}

// Save writes configuration to the repository at the given root.
func (c *Config) Save(root string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(ConfigPath(root), data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// ValidateLibrary checks that the library path, if already present, is a
// regular file. A missing file is fine; export creates it on first append.
func ValidateLibrary(path string) error {
	if path == "" {
		return nil // Empty defaults to library.bib in the repository root
	}

	expandedPath := ExpandPath(path)

	info, err := os.Stat(expandedPath)
	if err != nil {
		return nil
	}
	if info.IsDir() {
		return fmt.Errorf("library path is a directory: %s", expandedPath)
	}

	return nil
}

// ValidateWorkers checks that the worker count is usable.
func ValidateWorkers(n int) error {
	if n < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", n)
	}
	return nil
}

// ValidateTagTimeout checks that the tagging timeout is usable.
func ValidateTagTimeout(seconds int) error {
	if seconds < 0 {
		return fmt.Errorf("tag_timeout_seconds must be non-negative, got %d", seconds)
	}
	return nil
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path // Return original if we can't get home directory
	}

	return filepath.Join(home, path[1:])
}
