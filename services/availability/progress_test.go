package availability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reelcheck/models"
)

func TestProgressSubscribePrimesCurrentState(t *testing.T) {
	b := newProgressBroadcaster()
	b.publish(func(p *models.SweepProgress) { *p = models.SweepProgress{Total: 3, IsRunning: true} })

	ch, cancel := b.subscribe()
	defer cancel()

	first := <-ch
	assert.Equal(t, 3, first.Total)
	assert.True(t, first.IsRunning)

	b.publish(func(p *models.SweepProgress) { p.Current++ })
	assert.Equal(t, 1, (<-ch).Current)
}

func TestProgressSlowSubscriberKeepsLatest(t *testing.T) {
	b := newProgressBroadcaster()
	ch, cancel := b.subscribe()
	defer cancel()

	for i := 0; i < subscriberBuffer*3; i++ {
		b.publish(func(p *models.SweepProgress) { p.Current++ })
	}

	var last models.SweepProgress
	received := 0
	for len(ch) > 0 {
		last = <-ch
		received++
	}
	assert.Equal(t, subscriberBuffer, received)
	assert.Equal(t, subscriberBuffer*3, last.Current)
}

func TestProgressCancelClosesChannel(t *testing.T) {
	b := newProgressBroadcaster()
	ch, cancel := b.subscribe()
	<-ch

	cancel()
	cancel()

	_, ok := <-ch
	require.False(t, ok, "expected channel closed after cancel")

	// Publishing after cancel must not panic on the closed channel.
	b.publish(func(p *models.SweepProgress) { p.Current++ })
	assert.Equal(t, 1, b.snapshot().Current)
}
