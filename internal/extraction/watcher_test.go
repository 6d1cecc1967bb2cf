package extraction

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func blockUntilDone(started chan<- string, id string, stopped *atomic.Int32) func(ctx context.Context) {
	return func(ctx context.Context) {
		started <- id
		<-ctx.Done()
		stopped.Add(1)
	}
}

func TestWatcher_StopCancelsWatch(t *testing.T) {
	w := NewWatcher()
	started := make(chan string, 1)
	var stopped atomic.Int32

	require.NoError(t, w.Start("tenant-a", "job-1", blockUntilDone(started, "job-1", &stopped)))
	<-started
	require.Len(t, w.Active(), 1)
	assert.Equal(t, "job-1", w.Active()[0].JobID)

	assert.True(t, w.Stop("job-1"))
	assert.Equal(t, int32(1), stopped.Load())
	assert.Empty(t, w.Active())
	assert.False(t, w.Stop("job-1"))
}

func TestWatcher_StartReplacesExisting(t *testing.T) {
	w := NewWatcher()
	defer w.Shutdown()
	started := make(chan string, 2)
	var stopped atomic.Int32

	require.NoError(t, w.Start("tenant-a", "job-1", blockUntilDone(started, "first", &stopped)))
	assert.Equal(t, "first", <-started)
	require.NoError(t, w.Start("tenant-a", "job-1", blockUntilDone(started, "second", &stopped)))
	assert.Equal(t, "second", <-started)

	require.Eventually(t, func() bool { return stopped.Load() == 1 }, time.Second, time.Millisecond)
	assert.Len(t, w.Active(), 1)
}

func TestWatcher_FinishedWatchIsRemoved(t *testing.T) {
	w := NewWatcher()
	done := make(chan struct{})
	require.NoError(t, w.Start("tenant-a", "job-1", func(context.Context) { close(done) }))
	<-done
	require.Eventually(t, func() bool { return len(w.Active()) == 0 }, time.Second, time.Millisecond)
}

func TestWatcher_ShutdownWaitsForAll(t *testing.T) {
	w := NewWatcher()
	started := make(chan string, 3)
	var stopped atomic.Int32

	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, w.Start("tenant-a", id, blockUntilDone(started, id, &stopped)))
	}
	for i := 0; i < 3; i++ {
		<-started
	}
	active := w.Active()
	require.Len(t, active, 3)
	assert.Equal(t, "a", active[0].JobID)

	w.Shutdown()
	assert.Equal(t, int32(3), stopped.Load())
	assert.Empty(t, w.Active())
	assert.ErrorIs(t, w.Start("tenant-a", "d", func(context.Context) {}), ErrWatcherClosed)
}

func TestWatcher_ActiveForFiltersByTenant(t *testing.T) {
	w := NewWatcher()
	defer w.Shutdown()
	started := make(chan string, 3)
	var stopped atomic.Int32

	require.NoError(t, w.Start("tenant-a", "job-2", blockUntilDone(started, "job-2", &stopped)))
	require.NoError(t, w.Start("tenant-b", "job-3", blockUntilDone(started, "job-3", &stopped)))
	require.NoError(t, w.Start("tenant-a", "job-1", blockUntilDone(started, "job-1", &stopped)))
	for i := 0; i < 3; i++ {
		<-started
	}

	mine := w.ActiveFor("tenant-a")
	require.Len(t, mine, 2)
	assert.Equal(t, "job-1", mine[0].JobID)
	assert.Equal(t, "job-2", mine[1].JobID)
	assert.Equal(t, "tenant-a", mine[0].TenantID)

	theirs := w.ActiveFor("tenant-b")
	require.Len(t, theirs, 1)
	assert.Equal(t, "job-3", theirs[0].JobID)

	assert.Empty(t, w.ActiveFor("tenant-c"))
	assert.Len(t, w.Active(), 3)
}
