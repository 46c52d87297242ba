package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/citemill/citemill/internal/config"
	"github.com/citemill/citemill/internal/tagger"
	"github.com/spf13/cobra"
)

// taggerCheckTimeout bounds the availability probe
const taggerCheckTimeout = 5 * time.Second

var taggerCheckBackend string

var taggerCmd = &cobra.Command{
	Use:   "tagger",
	Short: "Inspect the sequence-labeling backend",
	Long: `Inspect the sequence-labeling backend used by parse and verify.

Three backends are supported:

  rule   built-in heuristic labeler, no external dependencies
  http   labeling service reached over HTTP
  exec   external command fed token features on stdin

The backend is picked by the --backend flag, falling back to the
tagger section of the global config, then to the rule backend.`,
}

var taggerCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that the tagging backend is available",
	Long: `Check that the tagging backend is available.

For the http backend this probes the service's health endpoint. For
the exec backend it resolves the configured command. The rule backend
is built in and always available.

Exits with a non-zero status when the backend cannot be reached.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runTaggerCheck()
	},
}

func init() {
	taggerCheckCmd.Flags().StringVar(&taggerCheckBackend, "backend", "", "Tagging backend: rule, http, or exec (default from config)")
	taggerCmd.AddCommand(taggerCheckCmd)
	rootCmd.AddCommand(taggerCmd)
}

// TaggerResponse reports backend availability
type TaggerResponse struct {
	Backend   string `json:"backend"`
	Available bool   `json:"available"`
	Detail    string `json:"detail,omitempty"`
}

// buildTagger constructs the tagging backend for a command. An empty
// backend name falls back to the global config, then to the rule
// backend.
func buildTagger(backend string) (tagger.Tagger, error) {
	tc := config.GetTagger()
	if backend == "" {
		backend = tc.Backend
	}

	switch backend {
	case "", "rule":
		return tagger.NewRule(), nil
	case "http":
		opts := []tagger.HTTPOption{tagger.WithBaseURL(config.MustGetTaggerURL())}
		if tc.Model != "" {
			opts = append(opts, tagger.WithModel(tc.Model))
		}
		return tagger.NewHTTP(opts...), nil
	case "exec":
		if tc.Command == "" {
			return nil, fmt.Errorf("exec backend requires tagger.command in the global config")
		}
		return tagger.NewExec(tc.Command), nil
	default:
		return nil, fmt.Errorf("unknown tagger backend: %s (valid: rule, http, exec)", backend)
	}
}

func runTaggerCheck() {
	t, err := buildTagger(taggerCheckBackend)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	resp := TaggerResponse{Backend: t.Name(), Available: true}

	switch b := t.(type) {
	case *tagger.HTTP:
		ctx, cancel := context.WithTimeout(context.Background(), taggerCheckTimeout)
		defer cancel()
		if err := b.Available(ctx); err != nil {
			resp.Available = false
			resp.Detail = err.Error()
		}
	case *tagger.Exec:
		if _, err := exec.LookPath(config.GetTagger().Command); err != nil {
			resp.Available = false
			resp.Detail = err.Error()
		}
	}

	if humanOutput {
		if resp.Available {
			fmt.Printf("%s: available\n", resp.Backend)
		} else {
			fmt.Printf("%s: unavailable (%s)\n", resp.Backend, resp.Detail)
		}
	} else {
		outputJSON(resp)
	}

	if !resp.Available {
		os.Exit(ExitTaggerUnavailable)
	}
}
