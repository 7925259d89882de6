package notify

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/syncdash/internal/config"
	"github.com/phrazzld/syncdash/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// eventLog is a Handler that records every event it sees.
type eventLog struct {
	mu     sync.Mutex
	events []Event
	at     []time.Time
	err    error
}

func (l *eventLog) HandleNotification(_ context.Context, e Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
	l.at = append(l.at, time.Now())
	return l.err
}

func (l *eventLog) kinds() []EventKind {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]EventKind, len(l.events))
	for i, e := range l.events {
		out[i] = e.Kind
	}
	return out
}

func (l *eventLog) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}

func newFastCenter(t *testing.T, dismissAfter, removalDelay time.Duration) *Center {
	t.Helper()
	c := NewCenter(config.NotifyConfig{
		DismissAfter: dismissAfter,
		RemovalDelay: removalDelay,
	}, setupTestLogger())
	t.Cleanup(c.Close)
	return c
}

func TestNewCenter_Defaults(t *testing.T) {
	c := NewCenter(config.NotifyConfig{DismissAfter: 0, RemovalDelay: -1}, setupTestLogger())
	defer c.Close()

	assert.Equal(t, 5000*time.Millisecond, c.dismissAfter)
	assert.Equal(t, 150*time.Millisecond, c.removalDelay)

	def := config.Default().Notify
	c2 := NewCenter(def, setupTestLogger())
	defer c2.Close()
	assert.Equal(t, DefaultDismissAfter, c2.dismissAfter)
	assert.Equal(t, DefaultRemovalDelay, c2.removalDelay)
}

func TestCenter_StacksInArrivalOrder(t *testing.T) {
	c := newFastCenter(t, time.Hour, time.Hour)
	ctx := context.Background()

	c.Notify(ctx, "first", SeveritySuccess)
	c.Notify(ctx, "second", SeverityWarning)
	c.Notify(ctx, "third", SeverityDanger)

	snap := c.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, "first", snap[0].Message)
	assert.Equal(t, "second", snap[1].Message)
	assert.Equal(t, "third", snap[2].Message)
	for _, n := range snap {
		assert.Equal(t, StateVisible, n.State)
		assert.NotEqual(t, uuid.Nil, n.ID)
	}
	assert.Equal(t, SeverityWarning, snap[1].Severity)
}

func TestCenter_AutoDismissLifecycle(t *testing.T) {
	const dismissAfter = 40 * time.Millisecond
	const removalDelay = 30 * time.Millisecond

	c := newFastCenter(t, dismissAfter, removalDelay)
	events := &eventLog{}
	c.Subscribe(events)

	start := time.Now()
	n, ok := c.Push(context.Background(), "sync finished", SeveritySuccess)
	require.True(t, ok)

	require.Eventually(t, func() bool { return events.count() == 3 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, []EventKind{EventShown, EventDismissing, EventRemoved}, events.kinds())

	events.mu.Lock()
	defer events.mu.Unlock()
	for _, e := range events.events {
		assert.Equal(t, n.ID, e.Notification.ID)
	}
	assert.Equal(t, StateDismissing, events.events[1].Notification.State)
	assert.GreaterOrEqual(t, events.at[1].Sub(start), dismissAfter, "dismissed too early")
	assert.GreaterOrEqual(t, events.at[2].Sub(events.at[1]), removalDelay-5*time.Millisecond, "removed too early")
}

func TestCenter_DismissingStaysInStackUntilRemoval(t *testing.T) {
	c := newFastCenter(t, time.Hour, time.Hour)
	n, _ := c.Push(context.Background(), "running", SeverityInfo)

	require.True(t, c.Dismiss(n.ID))

	snap := c.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, StateDismissing, snap[0].State)
	assert.False(t, c.Dismiss(n.ID), "already dismissing")
}

func TestCenter_DismissEarly(t *testing.T) {
	c := newFastCenter(t, time.Hour, 10*time.Millisecond)
	events := &eventLog{}
	c.Subscribe(events)

	keep, _ := c.Push(context.Background(), "keep", SeverityInfo)
	drop, _ := c.Push(context.Background(), "drop", SeverityInfo)

	assert.True(t, c.Dismiss(drop.ID))
	assert.Eventually(t, func() bool { return c.Len() == 1 }, time.Second, 5*time.Millisecond)

	snap := c.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, keep.ID, snap[0].ID)

	assert.False(t, c.Dismiss(uuid.New()), "unknown id")
}

func TestCenter_UnknownSeverityFallsBackToInfo(t *testing.T) {
	c := newFastCenter(t, time.Hour, time.Hour)

	n, ok := c.Push(context.Background(), "hello", Severity("loud"))

	require.True(t, ok)
	assert.Equal(t, SeverityInfo, n.Severity)
}

func TestCenter_FailingHandlerDoesNotBlockOthers(t *testing.T) {
	logs := testutils.NewTestSlogHandler()
	c := NewCenter(config.NotifyConfig{DismissAfter: time.Hour}, logs.Logger())
	defer c.Close()

	failing := &eventLog{err: errors.New("render failed")}
	ok := &eventLog{}
	c.Subscribe(failing)
	c.Subscribe(ok)

	c.Notify(context.Background(), "hello", SeverityInfo)

	assert.Equal(t, 1, failing.count())
	assert.Equal(t, 1, ok.count())

	entries := logs.EntriesWithMessage("notification handler failed")
	require.Len(t, entries, 1)
	assert.Equal(t, "notification_center", entries[0]["component"])
	assert.Equal(t, "shown", entries[0]["event"])
}

func TestCenter_Close(t *testing.T) {
	c := NewCenter(config.NotifyConfig{DismissAfter: 20 * time.Millisecond}, setupTestLogger())
	events := &eventLog{}
	c.Subscribe(events)

	c.Notify(context.Background(), "pending", SeverityInfo)
	c.Close()
	c.Close()

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 1, c.Len(), "timers stop on close")
	assert.Equal(t, []EventKind{EventShown}, events.kinds())

	_, ok := c.Push(context.Background(), "late", SeverityInfo)
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len())
}

func TestWriterHandler(t *testing.T) {
	var buf bytes.Buffer
	c := newFastCenter(t, time.Hour, time.Hour)
	c.Subscribe(NewWriterHandler(&buf))

	c.Notify(context.Background(), "Task task-3 is already running", SeverityWarning)
	n, _ := c.Push(context.Background(), "photos finished in 1.2s", SeveritySuccess)
	c.Dismiss(n.ID)

	assert.Equal(t,
		"[warning] Task task-3 is already running\n[success] photos finished in 1.2s\n",
		buf.String())
}

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		input   string
		want    Severity
		wantErr bool
	}{
		{"success", SeveritySuccess, false},
		{"WARNING", SeverityWarning, false},
		{" danger ", SeverityDanger, false},
		{"info", SeverityInfo, false},
		{"error", "", true},
		{"", "", true},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			got, err := ParseSeverity(tc.input)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestRecorder(t *testing.T) {
	var r Recorder
	var n Notifier = &r

	n.Notify(context.Background(), "a", SeverityWarning)
	n.Notify(context.Background(), "b", SeverityDanger)
	n.Notify(context.Background(), "c", SeverityWarning)

	assert.Len(t, r.All(), 3)
	assert.Equal(t, []Recorded{{"a", SeverityWarning}, {"c", SeverityWarning}}, r.WithSeverity(SeverityWarning))

	r.Reset()
	assert.Empty(t, r.All())

	Discard.Notify(context.Background(), "ignored", SeverityInfo)
}
