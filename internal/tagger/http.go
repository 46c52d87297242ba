package tagger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/citemill/citemill/internal/feature"
)

const (
	// DefaultHTTPBaseURL is the default labeling service endpoint.
	DefaultHTTPBaseURL = "http://localhost:8700"

	// DefaultHTTPTimeout is the timeout for labeling requests.
	DefaultHTTPTimeout = 30 * time.Second

	// apiPathTag is the labeling endpoint.
	apiPathTag = "/tag"

	// apiPathHealth is the service health endpoint.
	apiPathHealth = "/health"
)

// HTTP labels tokens via a labeling service that accepts a JSON token
// sequence on POST /tag and answers with a JSON label sequence.
type HTTP struct {
	baseURL string
	model   string
	client  *http.Client
}

// HTTPOption configures an HTTP backend.
type HTTPOption func(*HTTP)

// WithBaseURL sets the labeling service base URL.
func WithBaseURL(url string) HTTPOption {
	return func(h *HTTP) {
		h.baseURL = url
	}
}

// WithModel sets the model name sent with each request.
func WithModel(model string) HTTPOption {
	return func(h *HTTP) {
		h.model = model
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(h *HTTP) {
		h.client = client
	}
}

// WithHTTPTimeout sets the HTTP client timeout.
func WithHTTPTimeout(timeout time.Duration) HTTPOption {
	return func(h *HTTP) {
		h.client.Timeout = timeout
	}
}

// NewHTTP creates a labeling service backend.
func NewHTTP(opts ...HTTPOption) *HTTP {
	h := &HTTP{
		baseURL: DefaultHTTPBaseURL,
		client:  &http.Client{Timeout: DefaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Name identifies the backend.
func (h *HTTP) Name() string {
	if h.model != "" {
		return "http:" + h.model
	}
	return "http:" + h.baseURL
}

// Tag posts the token vectors and decodes the label reply.
func (h *HTTP) Tag(ctx context.Context, vectors []feature.Vector) ([]Label, error) {
	body, err := json.Marshal(tagRequest{Model: h.model, Tokens: vectors})
	if err != nil {
		return nil, fmt.Errorf("%w: encoding request: %v", ErrUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+apiPathTag, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %v", ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: sending request: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: labeling service returned status %d: %s",
			ErrUnavailable, resp.StatusCode, formatErrorBody(resp.Body))
	}

	var reply tagResponse
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ErrUnavailable, err)
	}
	return reply.Labels, nil
}

// Available checks that the labeling service is running and reachable.
func (h *HTTP) Available(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.baseURL+apiPathHealth, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("labeling service is not running: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("labeling service returned status %d", resp.StatusCode)
	}
	return nil
}

// formatErrorBody reads and formats the response body for error messages.
func formatErrorBody(body io.Reader) string {
	respBody, err := io.ReadAll(body)
	if err != nil {
		return fmt.Sprintf("(failed to read response body: %v)", err)
	}
	return string(respBody)
}
