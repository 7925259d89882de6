package guard

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/phrazzld/syncdash/internal/notify"
)

// TaskID identifies one logical long-running operation. It is supplied by
// the caller and never generated here.
type TaskID string

// Guard is the set of running task IDs. The zero value is not usable; create
// one with New and share it between the components that start tasks.
type Guard struct {
	mu       sync.Mutex
	running  map[TaskID]struct{}
	notifier notify.Notifier
	logger   *slog.Logger
}

// New creates an empty Guard. Duplicate starts are reported to notifier as
// warnings; a nil notifier discards them and a nil logger discards logs.
func New(notifier notify.Notifier, logger *slog.Logger) *Guard {
	if notifier == nil {
		notifier = notify.Discard
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Guard{
		running:  make(map[TaskID]struct{}),
		notifier: notifier,
		logger:   logger.With("component", "task_guard"),
	}
}

// DuplicateStartMessage is the warning text emitted for a duplicate start.
func DuplicateStartMessage(id TaskID) string {
	return fmt.Sprintf("Task %s is already running", id)
}

// TryStart marks id as running and returns true. If id is already running it
// returns false, emits one warning notification and leaves the set unchanged.
func (g *Guard) TryStart(ctx context.Context, id TaskID) bool {
	g.mu.Lock()
	if _, ok := g.running[id]; ok {
		g.mu.Unlock()
		g.logger.Debug("duplicate task start rejected", "task_id", string(id))
		g.notifier.Notify(ctx, DuplicateStartMessage(id), notify.SeverityWarning)
		return false
	}
	g.running[id] = struct{}{}
	g.mu.Unlock()

	g.logger.Debug("task started", "task_id", string(id))
	return true
}

// Stop removes id from the running set. Stopping an idle task is a no-op.
func (g *Guard) Stop(id TaskID) {
	g.mu.Lock()
	_, ok := g.running[id]
	delete(g.running, id)
	g.mu.Unlock()

	if ok {
		g.logger.Debug("task stopped", "task_id", string(id))
	}
}

// IsRunning reports whether id is currently running.
func (g *Guard) IsRunning(id TaskID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.running[id]
	return ok
}

// Running returns the running IDs in sorted order.
func (g *Guard) Running() []TaskID {
	g.mu.Lock()
	ids := make([]TaskID, 0, len(g.running))
	for id := range g.running {
		ids = append(ids, id)
	}
	g.mu.Unlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Acquire is TryStart returning a release function. Release is idempotent
// and only the first call stops the task. On failure release is a no-op.
func (g *Guard) Acquire(ctx context.Context, id TaskID) (release func(), ok bool) {
	if !g.TryStart(ctx, id) {
		return func() {}, false
	}

	var once sync.Once
	return func() { once.Do(func() { g.Stop(id) }) }, true
}

// Do runs fn while holding id. If id is already running fn is not called and
// started is false. The task is released when fn returns, fails or panics.
func (g *Guard) Do(ctx context.Context, id TaskID, fn func(ctx context.Context) error) (started bool, err error) {
	release, ok := g.Acquire(ctx, id)
	if !ok {
		return false, nil
	}
	defer release()

	return true, fn(ctx)
}
