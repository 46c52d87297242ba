package verify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"

	"golang.org/x/time/rate"

	"github.com/citemill/citemill/internal/citation"
	"github.com/citemill/citemill/internal/match"
)

const (
	// S2BaseURL is the base URL for the Semantic Scholar Graph API.
	S2BaseURL = "https://api.semanticscholar.org/graph/v1"

	// S2RateLimit is the number of requests per second. Unauthenticated
	// clients share a pool and get throttled hard above this.
	S2RateLimit = 1.0
)

// s2SearchFields lists the fields requested from paper search.
const s2SearchFields = "title,authors,externalIds,url"

// S2 is a client for the Semantic Scholar Graph API.
type S2 struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	apiKey     string
	baseURL    string
}

// S2Option configures an S2 client.
type S2Option func(*S2)

// WithS2APIKey sets the API key for authentication.
func WithS2APIKey(key string) S2Option {
	return func(c *S2) {
		c.apiKey = key
	}
}

// WithS2HTTPClient sets a custom HTTP client.
func WithS2HTTPClient(client *http.Client) S2Option {
	return func(c *S2) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithS2BaseURL overrides the base URL (for testing).
func WithS2BaseURL(baseURL string) S2Option {
	return func(c *S2) {
		if baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

// NewS2 creates a Semantic Scholar client. The API key can come from
// the CITEMILL_S2_API_KEY environment variable or the WithS2APIKey
// option; without one the client still works at the shared rate.
func NewS2(opts ...S2Option) *S2 {
	c := &S2{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(S2RateLimit), 1),
		baseURL:    S2BaseURL,
	}
	if key := os.Getenv("CITEMILL_S2_API_KEY"); key != "" {
		c.apiKey = key
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type s2Paper struct {
	PaperID     string        `json:"paperId"`
	Title       string        `json:"title"`
	URL         string        `json:"url"`
	Authors     []s2Author    `json:"authors"`
	ExternalIDs s2ExternalIDs `json:"externalIds"`
}

type s2Author struct {
	Name string `json:"name"`
}

type s2ExternalIDs struct {
	DOI string `json:"DOI"`
}

// SearchPapers queries paper search with title keywords.
func (c *S2) SearchPapers(ctx context.Context, query string, limit int) ([]s2Paper, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("limit", strconv.Itoa(limit))
	params.Set("fields", s2SearchFields)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/paper/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", productToken)
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	if err := checkHTTPErrors("s2", resp.StatusCode); err != nil {
		return nil, err
	}

	var payload struct {
		Data []s2Paper `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: parsing search results: %v", ErrInvalidResponse, err)
	}
	return payload.Data, nil
}

// Source returns the ladder rung backed by this client.
func (c *S2) Source() Source {
	return &s2Source{client: c}
}

type s2Source struct {
	client *S2
}

func (s *s2Source) Name() string {
	return "s2"
}

func (s *s2Source) Verify(ctx context.Context, rec *citation.Record) (*Confirmation, error) {
	if rec.Title == "" {
		return nil, nil
	}
	papers, err := s.client.SearchPapers(ctx, rec.Title, 5)
	if err != nil {
		return nil, err
	}
	author := rec.FirstAuthor()
	for _, paper := range papers {
		if paper.Title == "" || !match.TitlesMatch(rec.Title, paper.Title) {
			continue
		}
		if !match.AuthorsMatch(author, s2AuthorNames(paper.Authors)) {
			continue
		}
		return &Confirmation{
			Title: paper.Title,
			DOI:   paper.ExternalIDs.DOI,
			URL:   paper.URL,
		}, nil
	}
	return nil, nil
}

func s2AuthorNames(authors []s2Author) []string {
	names := make([]string, 0, len(authors))
	for _, a := range authors {
		names = append(names, a.Name)
	}
	return names
}
