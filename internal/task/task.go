package task

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/syncdash/internal/apiclient"
	"github.com/phrazzld/syncdash/internal/guard"
)

// Errors returned by the Runner.
var (
	ErrAlreadyRunning = errors.New("task is already running")
	ErrRunnerStopped  = errors.New("task runner stopped")
)

// Sender performs one HTTP exchange. *apiclient.Client satisfies it.
type Sender interface {
	Send(ctx context.Context, d apiclient.Descriptor) (json.RawMessage, error)
}

// Job is one guarded request.
type Job struct {
	ID      uuid.UUID
	TaskID  guard.TaskID
	Label   string
	Request apiclient.Descriptor

	// Check, if set, inspects a 2xx body and may turn it into a failure.
	Check func(body json.RawMessage) error
}

// NewJob creates a Job with a fresh ID. An empty label defaults to the TaskID.
func NewJob(taskID guard.TaskID, label string, req apiclient.Descriptor) Job {
	if label == "" {
		label = string(taskID)
	}
	return Job{
		ID:      uuid.New(),
		TaskID:  taskID,
		Label:   label,
		Request: req,
	}
}

// Outcome is the result of one Job.
type Outcome struct {
	JobID     uuid.UUID
	TaskID    guard.TaskID
	Label     string
	Value     json.RawMessage
	Err       error
	StartedAt time.Time
	Duration  time.Duration
}

// Succeeded reports whether the job completed without error.
func (o Outcome) Succeeded() bool {
	return o.Err == nil
}

// Task is a unit of work consumed by the WorkerPool.
type Task interface {
	// ID returns the unique identifier of this unit of work.
	ID() uuid.UUID

	// Key returns the guard key the work runs under.
	Key() guard.TaskID

	// Execute runs the work. The context is cancelled when the pool stops.
	Execute(ctx context.Context) error
}

// TaskQueueReader provides read-only access to the task channel.
type TaskQueueReader interface {
	GetChannel() <-chan Task
}

// TaskQueueWriter provides write access to the task queue.
type TaskQueueWriter interface {
	// Enqueue adds a task or returns ErrQueueFull or ErrQueueClosed.
	Enqueue(task Task) error

	Close()
}
