package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Severity is the visual weight of a notification.
type Severity string

// Supported severities.
const (
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityDanger  Severity = "danger"
	SeverityInfo    Severity = "info"
)

// Valid reports whether s is one of the supported severities.
func (s Severity) Valid() bool {
	switch s {
	case SeveritySuccess, SeverityWarning, SeverityDanger, SeverityInfo:
		return true
	}
	return false
}

// ParseSeverity converts a case-insensitive name into a Severity.
func ParseSeverity(name string) (Severity, error) {
	s := Severity(strings.ToLower(strings.TrimSpace(name)))
	if !s.Valid() {
		return "", fmt.Errorf("unknown severity %q", name)
	}
	return s, nil
}

// State is the display phase of a notification.
type State string

// Notification states. A removed notification is no longer in the stack.
const (
	StateVisible    State = "visible"
	StateDismissing State = "dismissing"
)

// Notification is a single user-facing message.
type Notification struct {
	ID        uuid.UUID `json:"id"`
	Message   string    `json:"message"`
	Severity  Severity  `json:"severity"`
	CreatedAt time.Time `json:"created_at"`
	State     State     `json:"state"`
}

// Notifier accepts notifications. Implementations must be safe for concurrent use.
type Notifier interface {
	Notify(ctx context.Context, message string, severity Severity)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, message string, severity Severity)

// Notify calls f.
func (f NotifierFunc) Notify(ctx context.Context, message string, severity Severity) {
	f(ctx, message, severity)
}

// Discard is a Notifier that drops everything.
var Discard Notifier = NotifierFunc(func(context.Context, string, Severity) {})
