package notify

import (
	"context"
	"sync"
)

// Recorded is a notification captured by a Recorder.
type Recorded struct {
	Message  string
	Severity Severity
}

// Recorder is a Notifier that keeps every notification in memory.
// It is useful in tests and for collecting notifications into a report.
type Recorder struct {
	mu    sync.Mutex
	items []Recorded
}

// Notify implements Notifier.
func (r *Recorder) Notify(_ context.Context, message string, severity Severity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, Recorded{Message: message, Severity: severity})
}

// All returns a copy of the recorded notifications in arrival order.
func (r *Recorder) All() []Recorded {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Recorded, len(r.items))
	copy(out, r.items)
	return out
}

// WithSeverity returns the recorded notifications of the given severity.
func (r *Recorder) WithSeverity(severity Severity) []Recorded {
	var out []Recorded
	for _, n := range r.All() {
		if n.Severity == severity {
			out = append(out, n)
		}
	}
	return out
}

// Reset drops everything recorded so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = nil
}
