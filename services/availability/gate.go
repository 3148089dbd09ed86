package availability

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"reelcheck/internal/metrics"
)

const (
	connectivityUnknown int32 = iota
	connectivityUp
	connectivityDown
)

// Gate checks media server reachability once before a batch of probes.
type Gate struct {
	server  MediaServer
	timeout time.Duration
	last    atomic.Int32
}

func NewGate(server MediaServer, timeout time.Duration) *Gate {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Gate{server: server, timeout: timeout}
}

// CheckConnectivity returns true only when the server answered the ping.
// Errors, timeouts and panics in the client all read as unreachable. When the
// caller's ctx ends first the result is false but the last known state is
// left as it was.
func (g *Gate) CheckConnectivity(ctx context.Context) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[availability] connectivity check panicked: %v", r)
			ok = false
		}
		if !ok && ctx.Err() != nil {
			return
		}
		g.record(ok)
	}()

	if g.server == nil {
		return false
	}

	pingCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	if err := g.server.Ping(pingCtx); err != nil {
		if ctx.Err() != nil {
			return false
		}
		log.Printf("[availability] media server unreachable: %v", err)
		return false
	}
	return true
}

// LastKnown reports the result of the most recent check. known is false
// until the first check completes.
func (g *Gate) LastKnown() (reachable, known bool) {
	switch g.last.Load() {
	case connectivityUp:
		return true, true
	case connectivityDown:
		return false, true
	default:
		return false, false
	}
}

func (g *Gate) record(ok bool) {
	if ok {
		g.last.Store(connectivityUp)
		metrics.ConnectivityUp.Set(1)
		return
	}
	g.last.Store(connectivityDown)
	metrics.ConnectivityUp.Set(0)
}
