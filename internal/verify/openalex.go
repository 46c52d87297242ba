package verify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"

	"golang.org/x/time/rate"

	"github.com/citemill/citemill/internal/citation"
	"github.com/citemill/citemill/internal/match"
)

const (
	// OpenAlexBaseURL is the base URL for the OpenAlex API.
	OpenAlexBaseURL = "https://api.openalex.org"

	// OpenAlexRateLimit is the number of requests per second.
	OpenAlexRateLimit = 5.0
)

// openAlexPerPage is how many search results each query requests.
const openAlexPerPage = 5

// OpenAlex is a client for the OpenAlex works API.
type OpenAlex struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	mailto     string
}

// OpenAlexOption configures an OpenAlex client.
type OpenAlexOption func(*OpenAlex)

// WithOpenAlexMailto sets the contact address sent with every request.
func WithOpenAlexMailto(mailto string) OpenAlexOption {
	return func(c *OpenAlex) {
		c.mailto = mailto
	}
}

// WithOpenAlexHTTPClient sets a custom HTTP client.
func WithOpenAlexHTTPClient(client *http.Client) OpenAlexOption {
	return func(c *OpenAlex) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithOpenAlexBaseURL overrides the base URL (for testing).
func WithOpenAlexBaseURL(baseURL string) OpenAlexOption {
	return func(c *OpenAlex) {
		if baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

// NewOpenAlex creates an OpenAlex client. The contact address can come
// from the CITEMILL_MAILTO environment variable or the
// WithOpenAlexMailto option.
func NewOpenAlex(opts ...OpenAlexOption) *OpenAlex {
	c := &OpenAlex{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(OpenAlexRateLimit), 1),
		baseURL:    OpenAlexBaseURL,
	}
	if mailto := os.Getenv("CITEMILL_MAILTO"); mailto != "" {
		c.mailto = mailto
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type openAlexWork struct {
	ID          string               `json:"id"`
	DisplayName string               `json:"display_name"`
	Title       string               `json:"title"`
	DOI         string               `json:"doi"`
	Authorships []openAlexAuthorship `json:"authorships"`
}

type openAlexAuthorship struct {
	Author openAlexAuthor `json:"author"`
}

type openAlexAuthor struct {
	DisplayName string `json:"display_name"`
}

func (w *openAlexWork) title() string {
	if w.DisplayName != "" {
		return w.DisplayName
	}
	return w.Title
}

// SearchWorks runs a full-text search over OpenAlex works.
func (c *OpenAlex) SearchWorks(ctx context.Context, query string) ([]openAlexWork, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	params := url.Values{}
	params.Set("search", query)
	params.Set("per-page", fmt.Sprintf("%d", openAlexPerPage))
	if c.mailto != "" {
		params.Set("mailto", c.mailto)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/works?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", productToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	if err := checkHTTPErrors("openalex", resp.StatusCode); err != nil {
		return nil, err
	}

	var payload struct {
		Results []openAlexWork `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: parsing search results: %v", ErrInvalidResponse, err)
	}
	return payload.Results, nil
}

// Source returns the ladder rung backed by this client.
func (c *OpenAlex) Source() Source {
	return &openAlexSource{client: c}
}

type openAlexSource struct {
	client *OpenAlex
}

func (s *openAlexSource) Name() string {
	return "openalex"
}

func (s *openAlexSource) Verify(ctx context.Context, rec *citation.Record) (*Confirmation, error) {
	if rec.Title == "" {
		return nil, nil
	}
	works, err := s.client.SearchWorks(ctx, rec.Title)
	if err != nil {
		return nil, err
	}
	author := rec.FirstAuthor()
	for i := range works {
		work := &works[i]
		title := work.title()
		if title == "" || !match.TitlesMatch(rec.Title, title) {
			continue
		}
		if !match.AuthorsMatch(author, openAlexAuthorNames(work.Authorships)) {
			continue
		}
		return &Confirmation{
			Title: title,
			DOI:   work.DOI,
			URL:   work.ID,
		}, nil
	}
	return nil, nil
}

func openAlexAuthorNames(authorships []openAlexAuthorship) []string {
	names := make([]string, 0, len(authorships))
	for _, a := range authorships {
		names = append(names, a.Author.DisplayName)
	}
	return names
}
