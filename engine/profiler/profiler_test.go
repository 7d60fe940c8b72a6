package profiler

import (
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock advances only when told to.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newTestProfiler(t *testing.T, interval time.Duration) (*Profiler, *fakeClock, *test.Hook) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	clock := &fakeClock{t: time.Unix(1000, 0)}
	p := NewProfiler(WithUpdateInterval(interval), WithLogger(logger), func(p *Profiler) {
		p.now = clock.now
	})
	return p, clock, hook
}

func TestTickReportsOncePerInterval(t *testing.T) {
	p, clock, hook := newTestProfiler(t, time.Second)

	for range 29 {
		clock.t = clock.t.Add(10 * time.Millisecond)
		assert.False(t, p.Tick())
	}
	assert.Empty(t, hook.AllEntries())

	clock.t = clock.t.Add(710 * time.Millisecond)
	require.True(t, p.Tick())

	// 30 frames over exactly one second.
	assert.InDelta(t, 30.0, p.Last().FPS, 1e-9)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, log.InfoLevel, entry.Level)
	assert.Equal(t, "profiler", entry.Message)
	assert.Contains(t, entry.Data, "fps")
	assert.Contains(t, entry.Data, "heap_mb")

	// The frame counter restarts after a report.
	clock.t = clock.t.Add(500 * time.Millisecond)
	assert.False(t, p.Tick())
}

func TestWithUpdateIntervalIgnoresNonPositive(t *testing.T) {
	p := NewProfiler(WithUpdateInterval(0))
	assert.Equal(t, time.Second, p.updateInterval)

	p = NewProfiler(WithUpdateInterval(250 * time.Millisecond))
	assert.Equal(t, 250*time.Millisecond, p.updateInterval)
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 1.23, round2(1.2345))
	assert.Equal(t, 2.0, round2(1.999))
}
