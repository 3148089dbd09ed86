package jellyfin

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	gobreaker "github.com/sony/gobreaker/v2"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func respond(status int, body string) (*http.Response, error) {
	return &http.Response{StatusCode: status, Body: io.NopCloser(bytes.NewBufferString(body)), Header: make(http.Header)}, nil
}

func newTestClient(rt roundTripFunc) *Client {
	c := NewClient("http://jellyfin.local:8096/", "", "key-123", "")
	c.SetHTTPClient(&http.Client{Transport: rt})
	return c
}

func TestPingSendsTokenAndSucceedsOn200(t *testing.T) {
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != "/System/Ping" {
			t.Fatalf("unexpected path %s", req.URL.Path)
		}
		if got := req.Header.Get("X-Emby-Token"); got != "key-123" {
			t.Fatalf("expected api key header, got %q", got)
		}
		return respond(http.StatusOK, `"Jellyfin Server"`)
	})

	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
}

func TestPingFailsOnNon200(t *testing.T) {
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		return respond(http.StatusServiceUnavailable, "")
	})
	if err := client.Ping(context.Background()); err == nil {
		t.Fatal("expected error for 503")
	}
}

func TestPingFailsWhenUnconfigured(t *testing.T) {
	client := NewClient("", "", "", "")
	if client.Configured() {
		t.Fatal("expected client to report unconfigured")
	}
	if err := client.Ping(context.Background()); err == nil {
		t.Fatal("expected error when url is empty")
	}
}

func TestSearchMoviesBuildsQuery(t *testing.T) {
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		q := req.URL.Query()
		if q.Get("searchTerm") != "The Thing" {
			t.Fatalf("unexpected searchTerm %q", q.Get("searchTerm"))
		}
		if q.Get("IncludeItemTypes") != "Movie" || q.Get("Recursive") != "true" {
			t.Fatalf("expected movie-only recursive search, got %v", q)
		}
		if q.Get("Years") != "1982" {
			t.Fatalf("expected Years=1982, got %q", q.Get("Years"))
		}
		return respond(http.StatusOK, `{"Items":[{"Id":"abc","Name":"The Thing","ProductionYear":1982,"Type":"Movie"}],"TotalRecordCount":1}`)
	})

	movies, err := client.SearchMovies(context.Background(), "The Thing", 1982)
	if err != nil {
		t.Fatalf("SearchMovies failed: %v", err)
	}
	if len(movies) != 1 || movies[0].ID != "abc" || movies[0].ProductionYear != 1982 {
		t.Fatalf("unexpected movies: %+v", movies)
	}
}

func TestSearchMoviesOmitsUnknownYearAndScopesToUser(t *testing.T) {
	c := NewClient("http://jf", "", "k", "user-1")
	c.SetHTTPClient(&http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != "/Users/user-1/Items" {
			t.Fatalf("expected user scoped path, got %s", req.URL.Path)
		}
		if _, ok := req.URL.Query()["Years"]; ok {
			t.Fatalf("Years should be omitted for unknown year")
		}
		return respond(http.StatusOK, `{"Items":[]}`)
	})})

	movies, err := c.SearchMovies(context.Background(), "Heat", 0)
	if err != nil {
		t.Fatalf("SearchMovies failed: %v", err)
	}
	if len(movies) != 0 {
		t.Fatalf("expected no movies, got %d", len(movies))
	}
}

func TestSearchMoviesSurfacesServerError(t *testing.T) {
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		return respond(http.StatusInternalServerError, "boom")
	})
	_, err := client.SearchMovies(context.Background(), "Heat", 1995)
	if err == nil || !strings.Contains(err.Error(), "500") {
		t.Fatalf("expected status 500 error, got %v", err)
	}
}

func TestWebPlayerURL(t *testing.T) {
	c := NewClient("http://internal:8096", "https://media.example.com/", "", "")
	if got := c.WebPlayerURL("abc123"); got != "https://media.example.com/web/index.html#!/details?id=abc123" {
		t.Fatalf("unexpected url %q", got)
	}
	if got := c.WebPlayerURL(""); got != "" {
		t.Fatalf("expected empty url for empty id, got %q", got)
	}
	if got := NewClient("http://internal:8096", "", "", "").WebPlayerURL("x"); !strings.HasPrefix(got, "http://internal:8096/web/") {
		t.Fatalf("expected fallback to base url, got %q", got)
	}
}

func TestBreakerOpensAfterRepeatedFailures(t *testing.T) {
	calls := 0
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		calls++
		return nil, errors.New("connection refused")
	})
	breaker := NewBreakerClient(client, BreakerSettings{MinRequests: 3, FailureRatio: 0.5})

	for i := 0; i < 3; i++ {
		if err := breaker.Ping(context.Background()); err == nil {
			t.Fatalf("expected failure on attempt %d", i)
		}
	}
	if breaker.State() != "open" {
		t.Fatalf("expected open breaker, got %s", breaker.State())
	}

	err := breaker.Ping(context.Background())
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("expected ErrOpenState, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected open breaker to short-circuit, got %d calls", calls)
	}
}
