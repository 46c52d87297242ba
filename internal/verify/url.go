package verify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/citemill/citemill/internal/citation"
)

const (
	// headTimeout bounds the cheap existence probe.
	headTimeout = 5 * time.Second

	// getTimeout bounds the GET fallback for servers that reject HEAD.
	getTimeout = 10 * time.Second
)

// URLProbe is the last rung of the ladder. It only confirms that the
// record's URL answers; it cannot vouch for what is behind it, so it
// ranks below every bibliographic source.
type URLProbe struct {
	httpClient *http.Client
}

// URLProbeOption configures a URLProbe.
type URLProbeOption func(*URLProbe)

// WithProbeHTTPClient sets a custom HTTP client.
func WithProbeHTTPClient(client *http.Client) URLProbeOption {
	return func(p *URLProbe) {
		if client != nil {
			p.httpClient = client
		}
	}
}

// NewURLProbe creates a URL probe source.
func NewURLProbe(opts ...URLProbeOption) *URLProbe {
	p := &URLProbe{
		httpClient: &http.Client{Timeout: getTimeout},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the source name.
func (p *URLProbe) Name() string {
	return "url"
}

// Verify checks that the record's URL answers with a non-error status.
// It tries HEAD first and falls back to GET, since some publishers
// reject HEAD outright.
func (p *URLProbe) Verify(ctx context.Context, rec *citation.Record) (*Confirmation, error) {
	target := strings.TrimSpace(rec.URL)
	if target == "" {
		return nil, nil
	}
	parsed, err := url.Parse(target)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil, nil
	}
	// Scheme plus a bare host is a landing page, not a document.
	if strings.Count(target, "/") < 3 {
		return nil, nil
	}

	ok, headErr := p.probe(ctx, http.MethodHead, target, headTimeout)
	if headErr == nil && ok {
		return &Confirmation{URL: target}, nil
	}

	ok, err = p.probe(ctx, http.MethodGet, target, getTimeout)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	if !ok {
		return nil, nil
	}
	return &Confirmation{URL: target}, nil
}

func (p *URLProbe) probe(ctx context.Context, method, target string, timeout time.Duration) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("User-Agent", productToken)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return false, err
	}
	resp.Body.Close()
	return resp.StatusCode < 400, nil
}

var _ Source = (*URLProbe)(nil)
