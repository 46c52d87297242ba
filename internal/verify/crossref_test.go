package verify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/citemill/citemill/internal/citation"
)

func newTestCrossref(t *testing.T, handler http.HandlerFunc) *Crossref {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewCrossref(
		WithCrossrefBaseURL(srv.URL),
		WithCrossrefHTTPClient(srv.Client()),
		WithCrossrefMailto("tests@example.com"),
	)
}

func TestWorkByDOI(t *testing.T) {
	client := newTestCrossref(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/works/10.1000/xyz" {
			t.Errorf("path = %q, want %q", r.URL.Path, "/works/10.1000/xyz")
		}
		if got := r.URL.Query().Get("mailto"); got != "tests@example.com" {
			t.Errorf("mailto = %q, want %q", got, "tests@example.com")
		}
		fmt.Fprint(w, `{"message":{"title":["A Study of Things"],"DOI":"10.1000/xyz","URL":"https://doi.org/10.1000/xyz","author":[{"given":"Jane","family":"Smith"}]}}`)
	})

	work, err := client.WorkByDOI(context.Background(), "10.1000/xyz")
	if err != nil {
		t.Fatalf("WorkByDOI failed: %v", err)
	}
	if got := firstTitle(work); got != "A Study of Things" {
		t.Errorf("title = %q, want %q", got, "A Study of Things")
	}
	if work.DOI != "10.1000/xyz" {
		t.Errorf("doi = %q, want %q", work.DOI, "10.1000/xyz")
	}
}

func TestWorkByDOINotFound(t *testing.T) {
	client := newTestCrossref(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.WorkByDOI(context.Background(), "10.1000/missing")
	if !IsNotFound(err) {
		t.Errorf("expected a not-found error, got %v", err)
	}
}

func TestWorkByDOIRateLimited(t *testing.T) {
	client := newTestCrossref(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.WorkByDOI(context.Background(), "10.1000/xyz")
	if !IsRateLimited(err) {
		t.Errorf("expected a rate-limit error, got %v", err)
	}
}

func TestWorkByDOIServerError(t *testing.T) {
	client := newTestCrossref(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.WorkByDOI(context.Background(), "10.1000/xyz")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected an APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", apiErr.StatusCode, http.StatusInternalServerError)
	}
	if apiErr.Source != "crossref" {
		t.Errorf("source = %q, want %q", apiErr.Source, "crossref")
	}
}

func TestSearchWorks(t *testing.T) {
	client := newTestCrossref(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if got := q.Get("query.bibliographic"); got != "A Study of Things" {
			t.Errorf("query.bibliographic = %q, want %q", got, "A Study of Things")
		}
		if got := q.Get("query.author"); got != "Smith, J." {
			t.Errorf("query.author = %q, want %q", got, "Smith, J.")
		}
		if got := q.Get("rows"); got != "2" {
			t.Errorf("rows = %q, want %q", got, "2")
		}
		fmt.Fprint(w, `{"message":{"items":[{"title":["A Study of Things"],"DOI":"10.1000/xyz"},{"title":["Another Work"],"DOI":"10.1000/abc"}]}}`)
	})

	works, err := client.SearchWorks(context.Background(), "A Study of Things", "Smith, J.", 2)
	if err != nil {
		t.Fatalf("SearchWorks failed: %v", err)
	}
	if len(works) != 2 {
		t.Fatalf("got %d works, want 2", len(works))
	}
	if works[1].DOI != "10.1000/abc" {
		t.Errorf("second doi = %q, want %q", works[1].DOI, "10.1000/abc")
	}
}

func TestSearchWorksInvalidJSON(t *testing.T) {
	client := newTestCrossref(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `not json`)
	})

	_, err := client.SearchWorks(context.Background(), "title", "", 2)
	if !errors.Is(err, ErrInvalidResponse) {
		t.Errorf("expected an invalid-response error, got %v", err)
	}
}

func TestDOISourceSkipsWithoutDOI(t *testing.T) {
	requests := 0
	client := newTestCrossref(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		fmt.Fprint(w, `{"message":{}}`)
	})
	src := client.DOISource()

	conf, err := src.Verify(context.Background(), &citation.Record{Title: "A Study of Things"})
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if conf != nil {
		t.Errorf("expected no confirmation, got %+v", conf)
	}
	if requests != 0 {
		t.Errorf("made %d requests for a record without a DOI, want 0", requests)
	}
}

func TestDOISourceConfirms(t *testing.T) {
	client := newTestCrossref(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"message":{"title":["A Study of Things"],"DOI":"10.1000/xyz","URL":"https://doi.org/10.1000/xyz"}}`)
	})
	src := client.DOISource()

	conf, err := src.Verify(context.Background(), &citation.Record{
		Title: "A Study of Things",
		DOI:   "10.1000/xyz",
	})
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if conf == nil {
		t.Fatal("expected a confirmation")
	}
	if conf.DOI != "10.1000/xyz" {
		t.Errorf("doi = %q, want %q", conf.DOI, "10.1000/xyz")
	}
}

func TestDOISourceTitleMismatch(t *testing.T) {
	client := newTestCrossref(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"message":{"title":["Completely Different Topic Entirely"],"DOI":"10.1000/xyz"}}`)
	})
	src := client.DOISource()

	conf, err := src.Verify(context.Background(), &citation.Record{
		Title: "A Study of Things",
		DOI:   "10.1000/xyz",
	})
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if conf != nil {
		t.Errorf("expected a mistagged DOI to be rejected, got %+v", conf)
	}
}

func TestDOISourceNotFound(t *testing.T) {
	client := newTestCrossref(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	src := client.DOISource()

	conf, err := src.Verify(context.Background(), &citation.Record{DOI: "10.1000/missing"})
	if err != nil {
		t.Fatalf("expected an unregistered DOI to be a miss, got error: %v", err)
	}
	if conf != nil {
		t.Errorf("expected no confirmation, got %+v", conf)
	}
}

func TestSearchSourceConfirms(t *testing.T) {
	client := newTestCrossref(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"message":{"items":[
			{"title":["Wrong Other Work Entirely"],"DOI":"10.1000/no"},
			{"title":["A Study of Things"],"DOI":"10.1000/xyz","author":[{"given":"Jane","family":"Smith"}]}
		]}}`)
	})
	src := client.SearchSource()

	conf, err := src.Verify(context.Background(), &citation.Record{
		Title:   "A Study of Things",
		Authors: []string{"Smith, J."},
	})
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if conf == nil {
		t.Fatal("expected a confirmation")
	}
	if conf.DOI != "10.1000/xyz" {
		t.Errorf("doi = %q, want %q", conf.DOI, "10.1000/xyz")
	}
}

func TestSearchSourceAuthorMismatch(t *testing.T) {
	client := newTestCrossref(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"message":{"items":[{"title":["A Study of Things"],"author":[{"given":"Xiaolin","family":"Wang"}]}]}}`)
	})
	src := client.SearchSource()

	conf, err := src.Verify(context.Background(), &citation.Record{
		Title:   "A Study of Things",
		Authors: []string{"Smith, J."},
	})
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if conf != nil {
		t.Errorf("expected an author mismatch to be rejected, got %+v", conf)
	}
}
