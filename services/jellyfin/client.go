package jellyfin

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

const searchLimit = 10

// Movie is the subset of a Jellyfin item needed to decide availability.
type Movie struct {
	ID             string `json:"Id"`
	Name           string `json:"Name"`
	OriginalTitle  string `json:"OriginalTitle,omitempty"`
	ProductionYear int    `json:"ProductionYear,omitempty"`
	Type           string `json:"Type"`
}

type itemsResponse struct {
	Items            []Movie `json:"Items"`
	TotalRecordCount int     `json:"TotalRecordCount"`
}

// Client talks to the Jellyfin REST API.
type Client struct {
	baseURL    string
	webBaseURL string
	apiKey     string
	userID     string // optional: scope library queries to one user's view
	httpClient *http.Client
}

// NewClient creates a Jellyfin client. webBaseURL is used for play links and
// falls back to baseURL when empty.
func NewClient(baseURL, webBaseURL, apiKey, userID string) *Client {
	baseURL = strings.TrimSuffix(strings.TrimSpace(baseURL), "/")
	webBaseURL = strings.TrimSuffix(strings.TrimSpace(webBaseURL), "/")
	if webBaseURL == "" {
		webBaseURL = baseURL
	}
	return &Client{
		baseURL:    baseURL,
		webBaseURL: webBaseURL,
		apiKey:     apiKey,
		userID:     strings.TrimSpace(userID),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// SetHTTPClient replaces the underlying HTTP client.
func (c *Client) SetHTTPClient(hc *http.Client) {
	if hc != nil {
		c.httpClient = hc
	}
}

// Configured reports whether a server URL has been set.
func (c *Client) Configured() bool {
	return c.baseURL != ""
}

// Ping tests connectivity to the Jellyfin server
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.doRequest(ctx, "/System/Ping", nil)
	if err != nil {
		return fmt.Errorf("jellyfin ping failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("jellyfin ping returned status %d", resp.StatusCode)
	}
	return nil
}

// SearchMovies queries the library for movies matching title. A zero year is
// not sent to the server.
func (c *Client) SearchMovies(ctx context.Context, title string, year int) ([]Movie, error) {
	params := url.Values{}
	params.Set("searchTerm", title)
	params.Set("IncludeItemTypes", "Movie")
	params.Set("Recursive", "true")
	params.Set("Fields", "ProductionYear,OriginalTitle")
	params.Set("Limit", strconv.Itoa(searchLimit))
	if year > 0 {
		params.Set("Years", strconv.Itoa(year))
	}

	endpoint := "/Items"
	if c.userID != "" {
		endpoint = "/Users/" + url.PathEscape(c.userID) + "/Items"
	}

	resp, err := c.doRequest(ctx, endpoint, params)
	if err != nil {
		return nil, fmt.Errorf("jellyfin search request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if err != nil {
			return nil, fmt.Errorf("jellyfin search returned status %d (failed to read body)", resp.StatusCode)
		}
		return nil, fmt.Errorf("jellyfin search returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload itemsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode jellyfin search: %w", err)
	}
	return payload.Items, nil
}

// WebPlayerURL returns the Jellyfin web client link for an item.
func (c *Client) WebPlayerURL(itemID string) string {
	itemID = strings.TrimSpace(itemID)
	if itemID == "" || c.webBaseURL == "" {
		return ""
	}
	return c.webBaseURL + "/web/index.html#!/details?id=" + url.QueryEscape(itemID)
}

func (c *Client) doRequest(ctx context.Context, endpoint string, params url.Values) (*http.Response, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("jellyfin url not configured")
	}
	fullURL := c.baseURL + endpoint
	if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("X-Emby-Token", c.apiKey)
	req.Header.Set("X-Emby-Client", "reelcheck")
	req.Header.Set("X-Emby-Device-Name", "reelcheck")
	req.Header.Set("X-Emby-Device-Id", "reelcheck")
	req.Header.Set("X-Emby-Client-Version", "1.0.0")
	req.Header.Set("Accept", "application/json")

	return c.httpClient.Do(req)
}
