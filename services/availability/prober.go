package availability

import (
	"context"
	"fmt"
	"strings"
	"time"

	"reelcheck/internal/metrics"
	"reelcheck/utils/similarity"
)

// Prober matches a title and optional year against the media server library.
type Prober struct {
	server  MediaServer
	timeout time.Duration
}

func NewProber(server MediaServer, timeout time.Duration) *Prober {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Prober{server: server, timeout: timeout}
}

// Probe searches for title. An exact normalised title match (with a matching
// production year when year is known) wins; otherwise the first candidate
// returned by the server is used. No candidates yields NotFound and any
// client error yields Failed.
func (p *Prober) Probe(ctx context.Context, title string, year int) (result ProbeResult) {
	defer func() {
		if r := recover(); r != nil {
			result = Failed(fmt.Errorf("probe panicked: %v", r))
		}
		metrics.ProbesTotal.WithLabelValues(result.Kind().String()).Inc()
	}()

	title = strings.TrimSpace(title)
	if title == "" {
		return NotFound()
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	candidates, err := p.server.SearchMovies(ctx, title, year)
	if err != nil {
		return Failed(err)
	}

	for _, c := range candidates {
		if c.ID == "" {
			continue
		}
		if !similarity.Equal(c.Name, title) && !similarity.Equal(c.OriginalTitle, title) {
			continue
		}
		if year > 0 && c.ProductionYear != year {
			continue
		}
		return Matched(c.ID)
	}

	for _, c := range candidates {
		if c.ID != "" {
			return Matched(c.ID)
		}
	}
	return NotFound()
}
