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
	// CrossrefBaseURL is the base URL for the Crossref REST API.
	CrossrefBaseURL = "https://api.crossref.org"

	// CrossrefRateLimit is the number of requests per second. Crossref
	// asks polite-pool clients to stay well below their hard cap.
	CrossrefRateLimit = 2.0
)

// productToken identifies outbound requests. Crossref routes labeled
// traffic through its polite pool.
const productToken = "citemill/0.1"

// Crossref is a client for the Crossref REST API.
type Crossref struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	mailto     string
}

// CrossrefOption configures a Crossref client.
type CrossrefOption func(*Crossref)

// WithCrossrefMailto sets the contact address sent with every request,
// which moves the client into Crossref's polite pool.
func WithCrossrefMailto(mailto string) CrossrefOption {
	return func(c *Crossref) {
		c.mailto = mailto
	}
}

// WithCrossrefHTTPClient sets a custom HTTP client.
func WithCrossrefHTTPClient(client *http.Client) CrossrefOption {
	return func(c *Crossref) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithCrossrefBaseURL overrides the base URL (for testing).
func WithCrossrefBaseURL(baseURL string) CrossrefOption {
	return func(c *Crossref) {
		if baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

// NewCrossref creates a Crossref client. The contact address can come
// from the CITEMILL_MAILTO environment variable or the
// WithCrossrefMailto option.
func NewCrossref(opts ...CrossrefOption) *Crossref {
	c := &Crossref{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(CrossrefRateLimit), 1),
		baseURL:    CrossrefBaseURL,
	}
	if mailto := os.Getenv("CITEMILL_MAILTO"); mailto != "" {
		c.mailto = mailto
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type crossrefWork struct {
	Title  []string         `json:"title"`
	Author []crossrefAuthor `json:"author"`
	DOI    string           `json:"DOI"`
	URL    string           `json:"URL"`
}

type crossrefAuthor struct {
	Given  string `json:"given"`
	Family string `json:"family"`
}

// WorkByDOI fetches the work registered under a DOI.
func (c *Crossref) WorkByDOI(ctx context.Context, doi string) (*crossrefWork, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	reqURL := c.baseURL + "/works/" + url.PathEscape(doi)
	if c.mailto != "" {
		reqURL += "?mailto=" + url.QueryEscape(c.mailto)
	}

	var payload struct {
		Message crossrefWork `json:"message"`
	}
	if err := c.getJSON(ctx, reqURL, &payload); err != nil {
		return nil, err
	}
	return &payload.Message, nil
}

// SearchWorks runs a bibliographic search, optionally narrowed by an
// author query.
func (c *Crossref) SearchWorks(ctx context.Context, title, author string, rows int) ([]crossrefWork, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	params := url.Values{}
	params.Set("query.bibliographic", title)
	params.Set("rows", strconv.Itoa(rows))
	if author != "" {
		params.Set("query.author", author)
	}
	if c.mailto != "" {
		params.Set("mailto", c.mailto)
	}

	var payload struct {
		Message struct {
			Items []crossrefWork `json:"items"`
		} `json:"message"`
	}
	if err := c.getJSON(ctx, c.baseURL+"/works?"+params.Encode(), &payload); err != nil {
		return nil, err
	}
	return payload.Message.Items, nil
}

func (c *Crossref) getJSON(ctx context.Context, reqURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", productToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	if err := checkHTTPErrors("crossref", resp.StatusCode); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: parsing response: %v", ErrInvalidResponse, err)
	}
	return nil
}

// DOISource returns the ladder rung that resolves records by DOI.
func (c *Crossref) DOISource() Source {
	return &crossrefDOISource{client: c}
}

// SearchSource returns the ladder rung that matches records by
// bibliographic search.
func (c *Crossref) SearchSource() Source {
	return &crossrefSearchSource{client: c}
}

type crossrefDOISource struct {
	client *Crossref
}

func (s *crossrefDOISource) Name() string {
	return "crossref-doi"
}

func (s *crossrefDOISource) Verify(ctx context.Context, rec *citation.Record) (*Confirmation, error) {
	if rec.DOI == "" {
		return nil, nil
	}
	work, err := s.client.WorkByDOI(ctx, rec.DOI)
	if IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	title := firstTitle(work)
	// A DOI that resolves to an unrelated title is a mistagged DOI,
	// not a confirmation.
	if rec.Title != "" && title != "" && !match.TitlesMatch(rec.Title, title) {
		return nil, nil
	}
	return confirmWork(work), nil
}

type crossrefSearchSource struct {
	client *Crossref
}

func (s *crossrefSearchSource) Name() string {
	return "crossref"
}

func (s *crossrefSearchSource) Verify(ctx context.Context, rec *citation.Record) (*Confirmation, error) {
	if rec.Title == "" {
		return nil, nil
	}
	author := rec.FirstAuthor()
	works, err := s.client.SearchWorks(ctx, rec.Title, author, 2)
	if err != nil {
		return nil, err
	}
	for i := range works {
		work := &works[i]
		title := firstTitle(work)
		if title == "" || !match.TitlesMatch(rec.Title, title) {
			continue
		}
		if !match.AuthorsMatch(author, crossrefAuthorNames(work.Author)) {
			continue
		}
		return confirmWork(work), nil
	}
	return nil, nil
}

func firstTitle(work *crossrefWork) string {
	if len(work.Title) > 0 {
		return work.Title[0]
	}
	return ""
}

func confirmWork(work *crossrefWork) *Confirmation {
	return &Confirmation{
		Title: firstTitle(work),
		DOI:   work.DOI,
		URL:   work.URL,
	}
}

func crossrefAuthorNames(authors []crossrefAuthor) []string {
	names := make([]string, 0, len(authors))
	for _, a := range authors {
		name := a.Given + " " + a.Family
		names = append(names, name)
	}
	return names
}
