package lists

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"golang.org/x/time/rate"
)

const mdblistBaseURL = "https://mdblist.com/lists"

var (
	ErrInvalidListURL = errors.New("invalid MDBList URL format")
	ErrListNotFound   = errors.New("mdblist list not found")
)

// ListItem is one entry of an MDBList list.
type ListItem struct {
	ID          int64  `json:"id"` // TMDB id for movies
	Rank        int    `json:"rank"`
	Title       string `json:"title"`
	IMDBID      string `json:"imdb_id"`
	MediaType   string `json:"mediatype"` // "movie" or "show"
	ReleaseYear int    `json:"release_year"`
}

// mdblistClient fetches public MDBList lists through their /json export.
type mdblistClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	attempts   uint
	backoff    time.Duration
}

func newMDBListClient(apiKey string, httpClient *http.Client) *mdblistClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &mdblistClient{
		apiKey:     strings.TrimSpace(apiKey),
		baseURL:    mdblistBaseURL,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Every(100*time.Millisecond), 1),
		attempts:   3,
		backoff:    300 * time.Millisecond,
	}
}

// FetchList returns every item on the list identified by externalID
// ("username/slug" or a numeric id).
func (c *mdblistClient) FetchList(ctx context.Context, externalID string) ([]ListItem, error) {
	endpoint := c.baseURL + "/" + strings.Trim(externalID, "/") + "/json"
	if c.apiKey != "" {
		endpoint += "?apikey=" + url.QueryEscape(c.apiKey)
	}

	return retry.DoWithData(
		func() ([]ListItem, error) { return c.fetch(ctx, endpoint) },
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.backoff),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Printf("[mdblist] request error (attempt %d/%d): %v", n+1, c.attempts, err)
		}),
	)
}

func (c *mdblistClient) fetch(ctx context.Context, endpoint string) ([]ListItem, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, retry.Unrecoverable(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, retry.Unrecoverable(fmt.Errorf("create request: %w", err))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, retry.Unrecoverable(ctx.Err())
		}
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, retry.Unrecoverable(ErrListNotFound)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, retry.Unrecoverable(fmt.Errorf("unexpected status: %d", resp.StatusCode))
	}

	var items []ListItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, retry.Unrecoverable(fmt.Errorf("decode response: %w", err))
	}
	return items, nil
}

// ParseListURL extracts the list identifier from a mdblist.com/lists/ URL.
// A bare identifier is accepted as is.
func ParseListURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrInvalidListURL
	}
	if !strings.Contains(raw, "://") && !strings.Contains(raw, "mdblist.com") {
		return strings.Trim(raw, "/"), nil
	}

	idx := strings.Index(raw, "mdblist.com/lists/")
	if idx < 0 {
		return "", ErrInvalidListURL
	}
	id := raw[idx+len("mdblist.com/lists/"):]
	if q := strings.IndexAny(id, "?#"); q >= 0 {
		id = id[:q]
	}
	id = strings.TrimSuffix(strings.TrimRight(id, "/"), "/json")
	id = strings.Trim(id, "/")
	if id == "" {
		return "", ErrInvalidListURL
	}
	return id, nil
}
