package tagger

import "errors"

// Common errors returned by tagging backends.
var (
	// ErrUnavailable indicates the tagging backend failed, timed out, or
	// returned a label sequence that does not match the token count. The
	// pipeline treats it as a per-candidate failure, never a batch abort.
	ErrUnavailable = errors.New("tagging backend unavailable")
)

// IsUnavailable returns true if the error indicates the tagging backend
// could not produce a usable label sequence.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
