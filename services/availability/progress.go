package availability

import (
	"sync"

	"reelcheck/models"
)

const subscriberBuffer = 16

// progressBroadcaster owns a sweep's progress and fans snapshots out to
// subscribers in publish order. A subscriber that falls behind loses its
// oldest pending snapshots, never the latest one.
type progressBroadcaster struct {
	mu    sync.Mutex
	state models.SweepProgress
	subs  map[int]chan models.SweepProgress
	next  int
}

func newProgressBroadcaster() *progressBroadcaster {
	return &progressBroadcaster{subs: make(map[int]chan models.SweepProgress)}
}

func (b *progressBroadcaster) snapshot() models.SweepProgress {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// subscribe returns a channel primed with the current snapshot and a cancel
// func that closes it.
func (b *progressBroadcaster) subscribe() (<-chan models.SweepProgress, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	ch := make(chan models.SweepProgress, subscriberBuffer)
	ch <- b.state
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if sub, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(sub)
			}
		})
	}
}

// publish applies mutate to the state under lock and broadcasts the result.
func (b *progressBroadcaster) publish(mutate func(*models.SweepProgress)) models.SweepProgress {
	b.mu.Lock()
	defer b.mu.Unlock()

	mutate(&b.state)
	snap := b.state
	for _, ch := range b.subs {
		offer(ch, snap)
	}
	return snap
}

func offer(ch chan models.SweepProgress, p models.SweepProgress) {
	select {
	case ch <- p:
		return
	default:
	}
	// Full: drop the oldest pending snapshot to make room.
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- p:
	default:
	}
}
