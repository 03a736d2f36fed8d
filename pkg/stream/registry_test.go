package stream

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-streaming-api/internal/models"
)

func TestStartRejectsEmptyStreamName(t *testing.T) {
	reg, _ := newTestRegistry(t, zeroSource{})

	err := reg.Start(models.StreamConfig{Interval: 1000, Duration: 1000})
	require.ErrorIs(t, err, ErrMissingStreamName)
	assert.Zero(t, reg.Count())
}

func TestStopHaltsEmissionsImmediately(t *testing.T) {
	reg, hub := newTestRegistry(t, zeroSource{})
	sub := hub.Subscribe()
	defer hub.Unsubscribe(sub)

	cfg := models.DefaultStreamConfig()
	cfg.Interval = 30
	cfg.Duration = 60000

	require.NoError(t, reg.Start(cfg))
	collectUntil(t, sub, "books", time.Second)

	require.True(t, reg.Stop("books"))
	assert.Zero(t, reg.Count())

	// Everything already buffered arrived before the stop; after the
	// drain the channel has to stay silent.
	drainFor(sub, 20*time.Millisecond)
	late := drainFor(sub, 150*time.Millisecond)
	assert.Empty(t, late)

	assert.False(t, reg.Stop("books"), "second stop is a no-op")
}

func TestStopUnknownStreamReportsFalse(t *testing.T) {
	reg, hub := newTestRegistry(t, zeroSource{})
	sub := hub.Subscribe()
	defer hub.Unsubscribe(sub)

	assert.False(t, reg.Stop("nope"))
	assert.Empty(t, drainFor(sub, 50*time.Millisecond), "a no-op stop must not broadcast")
}

func TestRestartReplacesRunningStream(t *testing.T) {
	reg, hub := newTestRegistry(t, zeroSource{})
	sub := hub.Subscribe()
	defer hub.Unsubscribe(sub)

	first := models.DefaultStreamConfig()
	first.Interval = 40
	first.Duration = 60000
	require.NoError(t, reg.Start(first))
	collectUntil(t, sub, models.EventStreamStarted, time.Second)

	second := first
	second.Interval = 250
	require.NoError(t, reg.Start(second))

	seen := collectUntil(t, sub, models.EventStreamStarted, time.Second)
	assert.Equal(t, 1, countEvents(seen, models.EventStreamStopped),
		"replacing announces the old stream's stop before the new start")

	assert.Equal(t, 1, reg.Count())
	assert.EqualValues(t, 250, reg.Configs()["books"].Interval)
}

func TestStopAllStopsEveryStream(t *testing.T) {
	reg, hub := newTestRegistry(t, zeroSource{})
	sub := hub.Subscribe()
	defer hub.Unsubscribe(sub)

	books := models.DefaultStreamConfig()
	books.Interval = 50
	books.Duration = 60000
	require.NoError(t, reg.Start(books))

	issues := books
	issues.StreamName = "issues"
	require.NoError(t, reg.Start(issues))

	require.Equal(t, 2, reg.Count())
	assert.Equal(t, 2, reg.StopAll())
	assert.Zero(t, reg.Count())

	seen := drainFor(sub, 100*time.Millisecond)
	assert.Equal(t, 2, countEvents(seen, models.EventStreamStopped))

	assert.Zero(t, reg.StopAll())
}

func TestConfigsReturnsSnapshot(t *testing.T) {
	reg, _ := newTestRegistry(t, zeroSource{})

	cfg := models.DefaultStreamConfig()
	cfg.Interval = 75
	cfg.Duration = 60000
	cfg.ErrorRate = 12.5
	require.NoError(t, reg.Start(cfg))

	got := reg.Configs()
	require.Contains(t, got, "books")
	assert.Equal(t, cfg, got["books"])

	// The snapshot is a copy; mutating it cannot touch the registry.
	delete(got, "books")
	assert.Equal(t, 1, reg.Count())
	assert.Contains(t, reg.Configs(), "books")
}
