// Package config handles repository and global configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// GlobalConfig represents configuration stored in ~/.config/citemill/config.yml.
type GlobalConfig struct {
	S2APIKey          string       `yaml:"s2_api_key,omitempty"`
	Mailto            string       `yaml:"mailto,omitempty"`
	Tagger            TaggerConfig `yaml:"tagger,omitempty"`
	Workers           int          `yaml:"workers,omitempty"`
	TagTimeoutSeconds int          `yaml:"tag_timeout_seconds,omitempty"`
}

// TaggerConfig selects and locates the token-labeling backend.
type TaggerConfig struct {
	Backend string `yaml:"backend,omitempty"` // rule, http, or exec
	URL     string `yaml:"url,omitempty"`     // Base URL for the http backend
	Command string `yaml:"command,omitempty"` // Program path for the exec backend
	Model   string `yaml:"model,omitempty"`   // Model name sent by the http backend
}

const (
	// GlobalConfigDir is the directory name under XDG_CONFIG_HOME.
	GlobalConfigDir = "citemill"
	// GlobalConfigFile is the config file name.
	GlobalConfigFile = "config.yml"
)

// globalConfigCache caches the loaded global config.
var globalConfigCache *GlobalConfig

// GlobalConfigPath returns the path to the global config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/citemill/config.yml.
func GlobalConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, GlobalConfigDir, GlobalConfigFile)
}

// LoadGlobalConfig loads the global configuration file.
// Returns an empty config (not an error) if the file doesn't exist.
func LoadGlobalConfig() (*GlobalConfig, error) {
	if globalConfigCache != nil {
		return globalConfigCache, nil
	}

	path := GlobalConfigPath()
	if path == "" {
		return &GlobalConfig{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &GlobalConfig{}, nil
		}
		return nil, fmt.Errorf("reading global config: %w", err)
	}

	var cfg GlobalConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing global config: %w", err)
	}

	// Expand tilde in the exec backend's command path
	if cfg.Tagger.Command != "" {
		cfg.Tagger.Command = ExpandPath(cfg.Tagger.Command)
	}

	globalConfigCache = &cfg
	return &cfg, nil
}

// ResetGlobalConfigCache clears the cached global config.
// Useful for testing.
func ResetGlobalConfigCache() {
	globalConfigCache = nil
}

// GetConfigValue returns the environment variable value if set, otherwise
// the config value.
func GetConfigValue(envKey, configValue string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return configValue
}

// GetS2APIKey returns the Semantic Scholar API key.
// The CITEMILL_S2_API_KEY environment variable takes priority over config.
func GetS2APIKey() string {
	cfg, _ := LoadGlobalConfig()
	return GetConfigValue("CITEMILL_S2_API_KEY", cfg.S2APIKey)
}

// GetMailto returns the contact email for polite API pools.
// The CITEMILL_MAILTO environment variable takes priority over config.
func GetMailto() string {
	cfg, _ := LoadGlobalConfig()
	return GetConfigValue("CITEMILL_MAILTO", cfg.Mailto)
}

// GetTagger returns the tagging backend settings from global config.
func GetTagger() TaggerConfig {
	cfg, _ := LoadGlobalConfig()
	return cfg.Tagger
}

// GetWorkers returns the global worker count, or 0 if not set.
func GetWorkers() int {
	cfg, _ := LoadGlobalConfig()
	return cfg.Workers
}

// GetTagTimeout returns the global tagging timeout in seconds, or 0 if not set.
func GetTagTimeout() int {
	cfg, _ := LoadGlobalConfig()
	return cfg.TagTimeoutSeconds
}

// ErrTaggerNotConfigured is returned when the http backend is selected but
// no URL is set in config.
var ErrTaggerNotConfigured = errors.New("tagger url not configured")

// ValidateTaggerURL returns the labeling service URL from global config after
// validation. Returns an error if not configured.
// This is the testable version - use MustGetTaggerURL for CLI commands.
func ValidateTaggerURL() (string, error) {
	url := GetTagger().URL
	if url == "" {
		return "", ErrTaggerNotConfigured
	}
	return url, nil
}

// MustGetTaggerURL returns the labeling service URL from global config.
// Prints helpful message and exits if not configured.
// For testable code, use ValidateTaggerURL instead.
func MustGetTaggerURL() string {
	url, err := ValidateTaggerURL()
	if err != nil {
		fmt.Fprintln(os.Stderr, HelpfulConfigMessage())
		os.Exit(2)
	}
	return url
}

// HelpfulConfigMessage returns a helpful message when the labeling service
// is not configured.
func HelpfulConfigMessage() string {
	configPath := GlobalConfigPath()
	return fmt.Sprintf(`No labeling service configured.

Tip: Create %s to point citemill at a sequence labeler:
  mkdir -p %s
  printf 'tagger:\n  backend: http\n  url: http://localhost:8700\n' > %s

Or pass --backend rule to use the built-in heuristic tagger.`,
		configPath,
		filepath.Dir(configPath),
		configPath)
}
