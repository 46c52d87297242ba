package tagger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/citemill/citemill/internal/feature"
)

// Exec labels tokens by invoking an external command: the token vectors go
// to stdin as JSON, the labels come back on stdout as JSON. Any non-zero
// exit, malformed reply, or context timeout maps to ErrUnavailable.
type Exec struct {
	command string
	args    []string
}

// NewExec creates a backend around the given command and arguments.
func NewExec(command string, args ...string) *Exec {
	return &Exec{command: command, args: args}
}

// Name identifies the backend.
func (e *Exec) Name() string {
	return "exec:" + e.command
}

// Tag runs the command once per candidate.
func (e *Exec) Tag(ctx context.Context, vectors []feature.Vector) ([]Label, error) {
	payload, err := json.Marshal(tagRequest{Tokens: vectors})
	if err != nil {
		return nil, fmt.Errorf("%w: encoding request: %v", ErrUnavailable, err)
	}

	cmd := exec.CommandContext(ctx, e.command, e.args...)
	cmd.Stdin = bytes.NewReader(payload)
	output, err := cmd.Output()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, e.command, ctxErr)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			detail := strings.TrimSpace(string(exitErr.Stderr))
			if detail == "" {
				detail = "no stderr output"
			}
			return nil, fmt.Errorf("%w: %s exited with code %d: %s",
				ErrUnavailable, e.command, exitErr.ExitCode(), detail)
		}
		return nil, fmt.Errorf("%w: running %s: %v", ErrUnavailable, e.command, err)
	}

	var reply tagResponse
	if err := json.Unmarshal(output, &reply); err != nil {
		return nil, fmt.Errorf("%w: decoding %s output: %v", ErrUnavailable, e.command, err)
	}
	return reply.Labels, nil
}
