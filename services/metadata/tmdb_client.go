package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"golang.org/x/time/rate"
)

const (
	tmdbBaseURL      = "https://api.themoviedb.org/3"
	tmdbImageBaseURL = "https://image.tmdb.org/t/p"
	tmdbPosterSize   = "w500"
)

var (
	ErrNotConfigured = errors.New("tmdb api key not configured")
	ErrUnauthorized  = errors.New("tmdb rejected the api key")
	ErrMovieNotFound = errors.New("movie not found")
)

// Movie is the subset of TMDB movie data the watchlist stores.
type Movie struct {
	TMDBID        int64  `json:"tmdbId"`
	Title         string `json:"title"`
	OriginalTitle string `json:"originalTitle,omitempty"`
	ReleaseYear   int    `json:"releaseYear,omitempty"`
	Overview      string `json:"overview,omitempty"`
	PosterPath    string `json:"posterPath,omitempty"`
}

// Client talks to the TMDB v3 API.
type Client struct {
	apiKey   string
	language string
	baseURL  string
	httpc    *http.Client
	limiter  *rate.Limiter
	attempts uint
	backoff  time.Duration
}

func NewClient(apiKey, language string, httpc *http.Client) *Client {
	if httpc == nil {
		httpc = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		apiKey:   strings.TrimSpace(apiKey),
		language: language,
		baseURL:  tmdbBaseURL,
		httpc:    httpc,
		limiter:  rate.NewLimiter(rate.Every(20*time.Millisecond), 1), // TMDB has generous rate limits
		attempts: 3,
		backoff:  300 * time.Millisecond,
	}
}

// Configured reports whether an API key is set.
func (c *Client) Configured() bool {
	return c != nil && c.apiKey != ""
}

type tmdbMovie struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	OriginalTitle string `json:"original_title"`
	Overview      string `json:"overview"`
	PosterPath    string `json:"poster_path"`
	ReleaseDate   string `json:"release_date"`
}

type tmdbSearchResponse struct {
	Results []tmdbMovie `json:"results"`
}

// SearchMovies looks up movies by title. A year above zero narrows the search.
func (c *Client) SearchMovies(ctx context.Context, query string, year int) ([]Movie, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return []Movie{}, nil
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("include_adult", "false")
	if year > 0 {
		params.Set("year", strconv.Itoa(year))
	}

	var resp tmdbSearchResponse
	if err := c.get(ctx, []string{"search", "movie"}, params, &resp); err != nil {
		return nil, err
	}

	movies := make([]Movie, 0, len(resp.Results))
	for _, m := range resp.Results {
		movies = append(movies, m.toMovie())
	}
	return movies, nil
}

// GetMovie returns a single movie by TMDB id.
func (c *Client) GetMovie(ctx context.Context, tmdbID int64) (Movie, error) {
	if !c.Configured() {
		return Movie{}, ErrNotConfigured
	}
	var m tmdbMovie
	if err := c.get(ctx, []string{"movie", strconv.FormatInt(tmdbID, 10)}, nil, &m); err != nil {
		return Movie{}, err
	}
	return m.toMovie(), nil
}

// statusError is returned for HTTP failures worth retrying.
type statusError struct {
	status string
	code   int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("tmdb request failed: %s", e.status)
}

func (c *Client) get(ctx context.Context, segments []string, params url.Values, v any) error {
	endpoint, err := url.JoinPath(c.baseURL, segments...)
	if err != nil {
		return err
	}
	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", c.apiKey)
	params.Set("language", normalizeLanguage(c.language))
	endpoint += "?" + params.Encode()

	return retry.Do(
		func() error { return c.doGET(ctx, endpoint, v) },
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.backoff),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			if !retry.IsRecoverable(err) {
				return false
			}
			var se *statusError
			if errors.As(err, &se) {
				return se.code == http.StatusTooManyRequests || se.code >= 500
			}
			return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
		}),
		retry.OnRetry(func(n uint, err error) {
			log.Printf("[tmdb] request error (attempt %d/%d): %v", n+1, c.attempts, err)
		}),
	)
}

func (c *Client) doGET(ctx context.Context, endpoint string, v any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return retry.Unrecoverable(err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return retry.Unrecoverable(ErrUnauthorized)
	case resp.StatusCode == http.StatusNotFound:
		return retry.Unrecoverable(ErrMovieNotFound)
	case resp.StatusCode >= 400:
		return &statusError{status: resp.Status, code: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return retry.Unrecoverable(fmt.Errorf("decode tmdb response: %w", err))
	}
	return nil
}

func (m tmdbMovie) toMovie() Movie {
	return Movie{
		TMDBID:        m.ID,
		Title:         m.Title,
		OriginalTitle: m.OriginalTitle,
		ReleaseYear:   parseYear(m.ReleaseDate),
		Overview:      m.Overview,
		PosterPath:    buildPosterURL(m.PosterPath),
	}
}

func parseYear(date string) int {
	date = strings.TrimSpace(date)
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return year
}

func buildPosterURL(imagePath string) string {
	trimmed := strings.TrimSpace(imagePath)
	if trimmed == "" {
		return ""
	}
	return tmdbImageBaseURL + "/" + path.Join(tmdbPosterSize, strings.TrimPrefix(trimmed, "/"))
}

func normalizeLanguage(lang string) string {
	lang = strings.ReplaceAll(strings.TrimSpace(lang), "_", "-")
	if len(lang) == 2 {
		return strings.ToLower(lang) + "-US"
	}
	if len(lang) >= 5 {
		return strings.ToLower(lang[:2]) + "-" + strings.ToUpper(lang[3:])
	}
	return "en-US"
}
