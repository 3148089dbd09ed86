package lists

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func respond(status int, body string) (*http.Response, error) {
	return &http.Response{StatusCode: status, Body: io.NopCloser(bytes.NewBufferString(body)), Header: make(http.Header)}, nil
}

func TestParseListURL(t *testing.T) {
	cases := []struct {
		in   string
		want string
		err  bool
	}{
		{in: "https://mdblist.com/lists/linaspurinis/top-watched-movies-of-the-week", want: "linaspurinis/top-watched-movies-of-the-week"},
		{in: "https://mdblist.com/lists/someone/best/json/", want: "someone/best"},
		{in: "mdblist.com/lists/someone/best?sort=rank", want: "someone/best"},
		{in: "12345", want: "12345"},
		{in: "https://trakt.tv/lists/123", err: true},
		{in: "https://mdblist.com/lists/", err: true},
		{in: "   ", err: true},
	}
	for _, tc := range cases {
		got, err := ParseListURL(tc.in)
		if tc.err {
			if !errors.Is(err, ErrInvalidListURL) {
				t.Errorf("ParseListURL(%q) expected ErrInvalidListURL, got %q, %v", tc.in, got, err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Errorf("ParseListURL(%q) = %q, %v; want %q", tc.in, got, err, tc.want)
		}
	}
}

func TestFetchListRetriesAndDecodes(t *testing.T) {
	calls := 0
	c := newMDBListClient("mdb-key", &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		calls++
		if req.URL.Path != "/lists/someone/best/json" {
			t.Fatalf("unexpected path %s", req.URL.Path)
		}
		if req.URL.Query().Get("apikey") != "mdb-key" {
			t.Fatalf("expected api key in query, got %s", req.URL.RawQuery)
		}
		if calls == 1 {
			return respond(http.StatusServiceUnavailable, "")
		}
		return respond(http.StatusOK, `[{"id":27205,"rank":1,"title":"Inception","mediatype":"movie","release_year":2010}]`)
	})})
	c.backoff = time.Millisecond

	items, err := c.FetchList(context.Background(), "someone/best")
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls)
	}
	if len(items) != 1 || items[0].ID != 27205 || items[0].ReleaseYear != 2010 {
		t.Fatalf("unexpected items %+v", items)
	}
}

func TestFetchListNotFound(t *testing.T) {
	calls := 0
	c := newMDBListClient("", &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		calls++
		return respond(http.StatusNotFound, "")
	})})
	c.backoff = time.Millisecond

	if _, err := c.FetchList(context.Background(), "gone"); !errors.Is(err, ErrListNotFound) {
		t.Fatalf("expected ErrListNotFound, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected no retries for 404, got %d calls", calls)
	}
}
