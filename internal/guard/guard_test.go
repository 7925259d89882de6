package guard

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/phrazzld/syncdash/internal/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestGuard() (*Guard, *notify.Recorder) {
	rec := &notify.Recorder{}
	return New(rec, setupTestLogger()), rec
}

// P1: after a successful TryStart the task stays running until Stop.
func TestTryStart_RunningUntilStop(t *testing.T) {
	g, _ := newTestGuard()
	ctx := context.Background()

	require.True(t, g.TryStart(ctx, "sync-1"))
	assert.True(t, g.IsRunning("sync-1"))
	assert.True(t, g.IsRunning("sync-1"), "IsRunning has no side effects")

	g.Stop("sync-1")
	assert.False(t, g.IsRunning("sync-1"))
}

// P2: a second TryStart fails and leaves other ids untouched.
func TestTryStart_DuplicateLeavesOthersAlone(t *testing.T) {
	g, rec := newTestGuard()
	ctx := context.Background()

	require.True(t, g.TryStart(ctx, "a"))
	require.True(t, g.TryStart(ctx, "b"))

	assert.False(t, g.TryStart(ctx, "a"))
	assert.Equal(t, []TaskID{"a", "b"}, g.Running())
	assert.Len(t, rec.All(), 1)

	g.Stop("a")
	assert.False(t, g.IsRunning("a"))
	assert.True(t, g.IsRunning("b"))
}

// P3: stopping an unknown id is a no-op.
func TestStop_UnknownIsNoop(t *testing.T) {
	g, rec := newTestGuard()

	assert.False(t, g.IsRunning("ghost"))
	g.Stop("ghost")
	assert.False(t, g.IsRunning("ghost"))
	assert.Empty(t, g.Running())
	assert.Empty(t, rec.All())
}

// Scenario A from the dashboard: start, duplicate, stop, restart.
func TestScenario_DuplicateStartThenRestart(t *testing.T) {
	g, rec := newTestGuard()
	ctx := context.Background()

	assert.True(t, g.TryStart(ctx, "sync-1"))
	assert.False(t, g.TryStart(ctx, "sync-1"))

	warnings := rec.WithSeverity(notify.SeverityWarning)
	require.Len(t, warnings, 1)
	assert.Equal(t, "Task sync-1 is already running", warnings[0].Message)

	g.Stop("sync-1")
	assert.True(t, g.TryStart(ctx, "sync-1"))
	assert.Len(t, rec.All(), 1, "successful starts do not notify")
}

func TestNew_NilNotifier(t *testing.T) {
	g := New(nil, setupTestLogger())
	ctx := context.Background()

	require.True(t, g.TryStart(ctx, "x"))
	assert.False(t, g.TryStart(ctx, "x"))
}

func TestNew_NilLogger(t *testing.T) {
	rec := &notify.Recorder{}
	g := New(rec, nil)
	ctx := context.Background()

	require.True(t, g.TryStart(ctx, "x"))
	assert.False(t, g.TryStart(ctx, "x"))
	g.Stop("x")
	assert.False(t, g.IsRunning("x"))
	assert.Len(t, rec.WithSeverity(notify.SeverityWarning), 1)
}

func TestAcquire(t *testing.T) {
	g, rec := newTestGuard()
	ctx := context.Background()

	release, ok := g.Acquire(ctx, "job")
	require.True(t, ok)
	assert.True(t, g.IsRunning("job"))

	dupRelease, dupOK := g.Acquire(ctx, "job")
	assert.False(t, dupOK)
	dupRelease()
	assert.True(t, g.IsRunning("job"), "a failed acquire must not release the holder")
	assert.Len(t, rec.All(), 1)

	release()
	assert.False(t, g.IsRunning("job"))

	// A stale release must not free a later holder.
	again, ok := g.Acquire(ctx, "job")
	require.True(t, ok)
	release()
	assert.True(t, g.IsRunning("job"))
	again()
	assert.False(t, g.IsRunning("job"))
}

func TestDo_ReleasesOnEveryPath(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		g, _ := newTestGuard()
		started, err := g.Do(ctx, "t", func(ctx context.Context) error {
			assert.True(t, g.IsRunning("t"))
			return nil
		})
		assert.True(t, started)
		assert.NoError(t, err)
		assert.False(t, g.IsRunning("t"))
	})

	t.Run("error", func(t *testing.T) {
		g, _ := newTestGuard()
		boom := errors.New("boom")
		started, err := g.Do(ctx, "t", func(ctx context.Context) error { return boom })
		assert.True(t, started)
		assert.ErrorIs(t, err, boom)
		assert.False(t, g.IsRunning("t"))
	})

	t.Run("panic", func(t *testing.T) {
		g, _ := newTestGuard()
		assert.Panics(t, func() {
			_, _ = g.Do(ctx, "t", func(ctx context.Context) error { panic("bad") })
		})
		assert.False(t, g.IsRunning("t"))
	})

	t.Run("already running", func(t *testing.T) {
		g, rec := newTestGuard()
		require.True(t, g.TryStart(ctx, "t"))
		called := false
		started, err := g.Do(ctx, "t", func(ctx context.Context) error {
			called = true
			return nil
		})
		assert.False(t, started)
		assert.NoError(t, err)
		assert.False(t, called)
		assert.True(t, g.IsRunning("t"))
		assert.Len(t, rec.WithSeverity(notify.SeverityWarning), 1)
	})
}

func TestTryStart_ConcurrentCallersOneWinner(t *testing.T) {
	g, rec := newTestGuard()
	ctx := context.Background()

	const callers = 50
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if g.TryStart(ctx, "contended") {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Len(t, rec.All(), callers-1)
}
