package jellyfin

import (
	"context"
	"errors"
	"log"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"reelcheck/internal/metrics"
)

const breakerName = "jellyfin-api"

// BreakerClient wraps Client with a circuit breaker so a dead server fails
// fast instead of holding every probe for its full timeout.
type BreakerClient struct {
	client *Client
	cb     *gobreaker.CircuitBreaker[[]Movie]
}

// BreakerSettings tunes the breaker. Zero values select the defaults.
type BreakerSettings struct {
	MinRequests  uint32
	FailureRatio float64
	Interval     time.Duration
	OpenTimeout  time.Duration
}

// NewBreakerClient wraps client. The breaker opens once at least MinRequests
// (default 5) have been seen and FailureRatio (default 0.6) of them failed.
func NewBreakerClient(client *Client, bs BreakerSettings) *BreakerClient {
	if bs.MinRequests == 0 {
		bs.MinRequests = 5
	}
	if bs.FailureRatio <= 0 {
		bs.FailureRatio = 0.6
	}
	if bs.Interval <= 0 {
		bs.Interval = time.Minute
	}
	if bs.OpenTimeout <= 0 {
		bs.OpenTimeout = 30 * time.Second
	}

	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	cb := gobreaker.NewCircuitBreaker[[]Movie](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    bs.Interval,
		Timeout:     bs.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < bs.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			if ratio >= bs.FailureRatio {
				log.Printf("[jellyfin] opening circuit after %d/%d failures", counts.TotalFailures, counts.Requests)
				return true
			}
			return false
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Printf("[jellyfin] circuit %s -> %s", stateToString(from), stateToString(to))
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, stateToString(from), stateToString(to)).Inc()
		},
		// Caller cancellation is not a server fault.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})

	return &BreakerClient{client: client, cb: cb}
}

func (b *BreakerClient) execute(fn func() ([]Movie, error)) ([]Movie, error) {
	result, err := b.cb.Execute(fn)
	switch {
	case err == nil:
		metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "success").Inc()
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "rejected").Inc()
	default:
		metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "failure").Inc()
	}
	return result, err
}

// Ping checks connectivity through the breaker.
func (b *BreakerClient) Ping(ctx context.Context) error {
	_, err := b.execute(func() ([]Movie, error) {
		return nil, b.client.Ping(ctx)
	})
	return err
}

// SearchMovies searches the library through the breaker.
func (b *BreakerClient) SearchMovies(ctx context.Context, title string, year int) ([]Movie, error) {
	return b.execute(func() ([]Movie, error) {
		return b.client.SearchMovies(ctx, title, year)
	})
}

// WebPlayerURL builds a play link. It does not touch the network.
func (b *BreakerClient) WebPlayerURL(itemID string) string {
	return b.client.WebPlayerURL(itemID)
}

// State reports the breaker state as a string for status endpoints.
func (b *BreakerClient) State() string {
	return stateToString(b.cb.State())
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
