package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/syncdash/internal/config"
)

// Default display timings.
const (
	DefaultDismissAfter = 5000 * time.Millisecond
	DefaultRemovalDelay = 150 * time.Millisecond
)

type entry struct {
	n     Notification
	timer *time.Timer
}

// Center keeps the stack of active notifications and drives their
// dismissal. It implements Notifier.
type Center struct {
	dismissAfter time.Duration
	removalDelay time.Duration
	logger       *slog.Logger

	mu      sync.Mutex
	entries []*entry
	closed  bool

	handlersMu sync.RWMutex
	handlers   []Handler

	now func() time.Time
}

// NewCenter creates a Center. Non-positive durations fall back to the
// defaults (a zero RemovalDelay is kept).
func NewCenter(cfg config.NotifyConfig, logger *slog.Logger) *Center {
	if cfg.DismissAfter <= 0 {
		cfg.DismissAfter = DefaultDismissAfter
	}
	if cfg.RemovalDelay < 0 {
		cfg.RemovalDelay = DefaultRemovalDelay
	}

	return &Center{
		dismissAfter: cfg.DismissAfter,
		removalDelay: cfg.RemovalDelay,
		logger:       logger.With("component", "notification_center"),
		now:          time.Now,
	}
}

// Subscribe registers a handler for notification events.
func (c *Center) Subscribe(h Handler) {
	c.handlersMu.Lock()
	defer c.handlersMu.Unlock()
	c.handlers = append(c.handlers, h)
	c.logger.Debug("registered notification handler", "handler_count", len(c.handlers))
}

// Notify implements Notifier. Unknown severities are shown as info.
func (c *Center) Notify(ctx context.Context, message string, severity Severity) {
	c.Push(ctx, message, severity)
}

// Push adds a notification to the top of the stack and schedules its
// dismissal. The second result is false if the center is closed.
func (c *Center) Push(ctx context.Context, message string, severity Severity) (Notification, bool) {
	if !severity.Valid() {
		c.logger.Warn("unknown notification severity, using info", "severity", string(severity))
		severity = SeverityInfo
	}

	n := Notification{
		ID:        uuid.New(),
		Message:   message,
		Severity:  severity,
		CreatedAt: c.now(),
		State:     StateVisible,
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.logger.Debug("notification dropped, center closed", "severity", string(severity))
		return n, false
	}
	e := &entry{n: n}
	c.entries = append(c.entries, e)
	e.timer = time.AfterFunc(c.dismissAfter, func() { c.beginDismiss(n.ID) })
	c.mu.Unlock()

	c.logger.Debug("notification shown",
		"notification_id", n.ID,
		"severity", string(severity))
	c.emit(ctx, Event{Kind: EventShown, Notification: n})

	return n, true
}

// Dismiss starts the dismiss phase of a visible notification early.
// It returns false if id is unknown or already dismissing.
func (c *Center) Dismiss(id uuid.UUID) bool {
	c.mu.Lock()
	e := c.find(id)
	if e == nil || e.n.State != StateVisible {
		c.mu.Unlock()
		return false
	}
	e.timer.Stop()
	c.mu.Unlock()

	return c.beginDismiss(id)
}

// Snapshot returns the current stack in arrival order.
func (c *Center) Snapshot() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Notification, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.n
	}
	return out
}

// Len returns the number of notifications in the stack.
func (c *Center) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Close stops all pending timers. Notifications already in the stack stay
// there; new ones are dropped.
func (c *Center) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	for _, e := range c.entries {
		e.timer.Stop()
	}
}

func (c *Center) beginDismiss(id uuid.UUID) bool {
	c.mu.Lock()
	e := c.find(id)
	if e == nil || e.n.State != StateVisible || c.closed {
		c.mu.Unlock()
		return false
	}
	e.n.State = StateDismissing
	n := e.n
	e.timer = time.AfterFunc(c.removalDelay, func() { c.remove(id) })
	c.mu.Unlock()

	c.emit(context.Background(), Event{Kind: EventDismissing, Notification: n})
	return true
}

func (c *Center) remove(id uuid.UUID) {
	c.mu.Lock()
	var removed *entry
	for i, e := range c.entries {
		if e.n.ID == id {
			removed = e
			c.entries = append(c.entries[:i], c.entries[i+1:]...)
			break
		}
	}
	c.mu.Unlock()

	if removed == nil {
		return
	}
	c.emit(context.Background(), Event{Kind: EventRemoved, Notification: removed.n})
}

// find must be called with c.mu held.
func (c *Center) find(id uuid.UUID) *entry {
	for _, e := range c.entries {
		if e.n.ID == id {
			return e
		}
	}
	return nil
}

// emit delivers event to all handlers. A failing handler does not prevent
// delivery to the others.
func (c *Center) emit(ctx context.Context, event Event) {
	c.handlersMu.RLock()
	handlers := make([]Handler, len(c.handlers))
	copy(handlers, c.handlers)
	c.handlersMu.RUnlock()

	for i, h := range handlers {
		if err := h.HandleNotification(ctx, event); err != nil {
			c.logger.Error("notification handler failed",
				"error", err,
				"handler_index", i,
				"event", string(event.Kind),
				"notification_id", event.Notification.ID)
		}
	}
}
