package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/citemill/citemill/internal/config"
	"github.com/citemill/citemill/internal/pipeline"
	"github.com/spf13/cobra"
)

// configKeys is the display order for config output
var configKeys = []string{"library", "workers", "tag-timeout", "tagger-backend", "mailto", "s2-api-key"}

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Show or change configuration",
	Long: `Show or change configuration.

With no arguments, shows every effective setting and where it came
from: the repository config, the global config, an environment
variable, or the built-in default. With a key, prints that setting.
With a key and a value, updates the repository config.

Settable keys (repository config):

  library       path of the BibTeX library, relative to the repository root
  workers       concurrent workers for parse and verify
  tag-timeout   per-reference tagging timeout in seconds

Global settings (tagger-backend, mailto, s2-api-key) live in the
global config file; edit that file to change them.`,
	Args: cobra.MaximumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		switch len(args) {
		case 0:
			runConfigShow()
		case 1:
			runConfigGet(normalizeKey(args[0]))
		default:
			runConfigSet(normalizeKey(args[0]), args[1])
		}
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}

// ConfigValue is one effective setting and where it came from
type ConfigValue struct {
	Value  string `json:"value"`
	Source string `json:"source"` // repo, global, env, default, unset
}

// ConfigResponse reports the full effective configuration
type ConfigResponse struct {
	Root   string                 `json:"root,omitempty"`
	Values map[string]ConfigValue `json:"values"`
}

// ConfigGetResponse reports a single setting
type ConfigGetResponse struct {
	Key    string `json:"key"`
	Value  string `json:"value"`
	Source string `json:"source"`
}

// normalizeKey accepts underscore or hyphen forms of a key
func normalizeKey(key string) string {
	return strings.ReplaceAll(strings.ToLower(key), "_", "-")
}

// effectiveConfig resolves every setting through the repo config, the
// global config, and the defaults, recording which tier won.
func effectiveConfig() (string, map[string]ConfigValue) {
	root := findRepository()
	var cfg *config.Config
	if root != "" {
		if c, err := config.Load(root); err == nil {
			cfg = c
		}
	}

	values := make(map[string]ConfigValue)

	if root != "" {
		lib := ConfigValue{Value: config.LibraryPath(root, cfg), Source: "default"}
		if cfg != nil && cfg.Library != "" {
			lib.Source = "repo"
		}
		values["library"] = lib
	} else {
		values["library"] = ConfigValue{Source: "unset"}
	}

	workers := ConfigValue{Value: strconv.Itoa(pipeline.DefaultWorkers), Source: "default"}
	if n := config.GetWorkers(); n > 0 {
		workers = ConfigValue{Value: strconv.Itoa(n), Source: "global"}
	}
	if cfg != nil && cfg.Workers > 0 {
		workers = ConfigValue{Value: strconv.Itoa(cfg.Workers), Source: "repo"}
	}
	values["workers"] = workers

	timeout := ConfigValue{Value: strconv.Itoa(int(pipeline.DefaultTagTimeout.Seconds())), Source: "default"}
	if s := config.GetTagTimeout(); s > 0 {
		timeout = ConfigValue{Value: strconv.Itoa(s), Source: "global"}
	}
	if cfg != nil && cfg.TagTimeoutSeconds > 0 {
		timeout = ConfigValue{Value: strconv.Itoa(cfg.TagTimeoutSeconds), Source: "repo"}
	}
	values["tag-timeout"] = timeout

	backend := ConfigValue{Value: "rule", Source: "default"}
	if tc := config.GetTagger(); tc.Backend != "" {
		backend = ConfigValue{Value: tc.Backend, Source: "global"}
	}
	values["tagger-backend"] = backend

	values["mailto"] = envOrGlobal("CITEMILL_MAILTO", config.GetMailto(), false)
	values["s2-api-key"] = envOrGlobal("CITEMILL_S2_API_KEY", config.GetS2APIKey(), true)

	return root, values
}

// envOrGlobal attributes a value that can come from an environment
// variable or the global config. Secrets are masked.
func envOrGlobal(envKey, effective string, secret bool) ConfigValue {
	if effective == "" {
		return ConfigValue{Source: "unset"}
	}
	v := ConfigValue{Value: effective, Source: "global"}
	if os.Getenv(envKey) != "" {
		v.Source = "env"
	}
	if secret {
		v.Value = "(set)"
	}
	return v
}

func runConfigShow() {
	root, values := effectiveConfig()

	if humanOutput {
		if root != "" {
			fmt.Printf("Repository: %s\n", root)
		}
		for _, key := range configKeys {
			v := values[key]
			if v.Source == "unset" {
				fmt.Printf("  %-15s (unset)\n", key)
				continue
			}
			fmt.Printf("  %-15s %-40s %s\n", key, v.Value, v.Source)
		}
	} else {
		outputJSON(ConfigResponse{Root: root, Values: values})
	}
}

func runConfigGet(key string) {
	_, values := effectiveConfig()
	v, ok := values[key]
	if !ok {
		exitWithError(ExitConfigError, "unknown config key: %s (valid: %s)", key, strings.Join(configKeys, ", "))
	}

	if humanOutput {
		fmt.Println(v.Value)
	} else {
		outputJSON(ConfigGetResponse{Key: key, Value: v.Value, Source: v.Source})
	}
}

func runConfigSet(key, value string) {
	repoRoot := mustFindRepository()
	cfg := mustLoadConfig(repoRoot)

	switch key {
	case "library":
		resolved := config.LibraryPath(repoRoot, &config.Config{Library: value})
		if err := config.ValidateLibrary(resolved); err != nil {
			exitWithError(ExitConfigError, "%v", err)
		}
		cfg.Library = value
	case "workers":
		n, err := strconv.Atoi(value)
		if err != nil {
			exitWithError(ExitConfigError, "workers must be a number, got %q", value)
		}
		if err := config.ValidateWorkers(n); err != nil {
			exitWithError(ExitConfigError, "%v", err)
		}
		cfg.Workers = n
	case "tag-timeout":
		n, err := strconv.Atoi(value)
		if err != nil {
			exitWithError(ExitConfigError, "tag-timeout must be a number, got %q", value)
		}
		if err := config.ValidateTagTimeout(n); err != nil {
			exitWithError(ExitConfigError, "%v", err)
		}
		cfg.TagTimeoutSeconds = n
	case "tagger-backend", "mailto", "s2-api-key":
		exitWithError(ExitConfigError, "%s is a global setting; edit %s", key, config.GlobalConfigPath())
	default:
		exitWithError(ExitConfigError, "unknown config key: %s (settable: library, workers, tag-timeout)", key)
	}

	if err := cfg.Save(repoRoot); err != nil {
		exitWithError(ExitError, "%v", err)
	}

	if humanOutput {
		fmt.Printf("Set %s = %s\n", key, value)
	} else {
		outputJSON(UpdateResponse{Status: "updated", Key: key, Value: value})
	}
}
