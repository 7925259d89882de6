package notify

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// EventKind identifies a lifecycle step of a notification.
type EventKind string

// Lifecycle events, in the order a notification goes through them.
const (
	EventShown      EventKind = "shown"
	EventDismissing EventKind = "dismissing"
	EventRemoved    EventKind = "removed"
)

// Event is delivered to every Handler subscribed to a Center.
type Event struct {
	Kind         EventKind
	Notification Notification
}

// Handler defines an interface for components that render notifications.
type Handler interface {
	// HandleNotification processes the event. An error is logged by the
	// Center and does not stop delivery to other handlers.
	HandleNotification(ctx context.Context, event Event) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, event Event) error

// HandleNotification calls f.
func (f HandlerFunc) HandleNotification(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// WriterHandler renders shown notifications as "[severity] message" lines.
type WriterHandler struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterHandler creates a WriterHandler writing to w.
func NewWriterHandler(w io.Writer) *WriterHandler {
	return &WriterHandler{w: w}
}

// HandleNotification implements Handler.
func (h *WriterHandler) HandleNotification(_ context.Context, event Event) error {
	if event.Kind != EventShown {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := fmt.Fprintf(h.w, "[%s] %s\n", event.Notification.Severity, event.Notification.Message)
	return err
}
