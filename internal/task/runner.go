package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/syncdash/internal/apiclient"
	"github.com/phrazzld/syncdash/internal/config"
	"github.com/phrazzld/syncdash/internal/guard"
	"github.com/phrazzld/syncdash/internal/notify"
	"github.com/phrazzld/syncdash/internal/redact"
)

// Runner executes guarded jobs, either on its worker pool (Submit) or on the
// caller's goroutine (Run).
type Runner struct {
	guard    *guard.Guard
	sender   Sender
	notifier notify.Notifier
	queue    *TaskQueue
	pool     *WorkerPool
	logger   *slog.Logger

	stopOnce sync.Once
}

// NewRunner wires a Runner. A nil notifier discards notifications. Call Start
// before Submit.
func NewRunner(
	cfg config.RunnerConfig,
	g *guard.Guard,
	sender Sender,
	notifier notify.Notifier,
	logger *slog.Logger,
) *Runner {
	if notifier == nil {
		notifier = notify.Discard
	}
	logger = logger.With("component", "task_runner")

	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 1
	}
	queue := NewTaskQueue(queueSize, logger)
	pool := NewWorkerPool(queue, WorkerPoolConfig{WorkerCount: cfg.WorkerCount}, logger)

	return &Runner{
		guard:    g,
		sender:   sender,
		notifier: notifier,
		queue:    queue,
		pool:     pool,
		logger:   logger,
	}
}

// Start launches the worker pool.
func (r *Runner) Start() {
	r.pool.Start()
}

// Stop rejects new submissions, cancels in-flight jobs and waits for the
// workers. Jobs still queued are released and complete with ErrRunnerStopped.
func (r *Runner) Stop() {
	r.stopOnce.Do(func() {
		r.queue.Close()
		r.pool.Stop()

		abandoned := 0
		for t := range r.queue.GetChannel() {
			if jt, ok := t.(*jobTask); ok {
				jt.abandon(ErrRunnerStopped)
				abandoned++
			}
		}
		if abandoned > 0 {
			r.logger.Warn("abandoned queued jobs on stop", "count", abandoned)
		}
	})
}

// Running returns the TaskIDs currently held by the guard.
func (r *Runner) Running() []guard.TaskID {
	return r.guard.Running()
}

// Submit claims job.TaskID and queues the job. The returned channel receives
// exactly one Outcome. A duplicate TaskID returns ErrAlreadyRunning after the
// guard has emitted its warning. If the job cannot be queued the TaskID is
// released and the queue error is returned.
func (r *Runner) Submit(ctx context.Context, job Job) (<-chan Outcome, error) {
	job = prepare(job)

	release, ok := r.guard.Acquire(ctx, job.TaskID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyRunning, job.TaskID)
	}

	t := &jobTask{
		runner:  r,
		job:     job,
		ctx:     ctx,
		release: release,
		result:  make(chan Outcome, 1),
	}

	if err := r.queue.Enqueue(t); err != nil {
		release()
		r.logger.Warn("failed to queue job",
			"job_id", job.ID,
			"task_id", string(job.TaskID),
			"error", err)
		if errors.Is(err, ErrQueueClosed) {
			return nil, fmt.Errorf("%w: %w", ErrRunnerStopped, err)
		}
		return nil, fmt.Errorf("failed to queue job: %w", err)
	}

	return t.result, nil
}

// Run claims job.TaskID and executes the job on the calling goroutine. The
// error is the Outcome's error, or ErrAlreadyRunning.
func (r *Runner) Run(ctx context.Context, job Job) (Outcome, error) {
	job = prepare(job)

	release, ok := r.guard.Acquire(ctx, job.TaskID)
	if !ok {
		err := fmt.Errorf("%w: %s", ErrAlreadyRunning, job.TaskID)
		return Outcome{JobID: job.ID, TaskID: job.TaskID, Label: job.Label, Err: err}, err
	}

	out := r.execute(ctx, job, release)
	return out, out.Err
}

func prepare(job Job) Job {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.Label == "" {
		job.Label = string(job.TaskID)
	}
	return job
}

// execute sends the request, reports the result and releases the guard.
func (r *Runner) execute(ctx context.Context, job Job, release func()) (out Outcome) {
	defer release()

	logger := r.logger.With("job_id", job.ID, "task_id", string(job.TaskID))
	out = Outcome{
		JobID:     job.ID,
		TaskID:    job.TaskID,
		Label:     job.Label,
		StartedAt: time.Now(),
	}

	defer func() {
		if p := recover(); p != nil {
			out.Value = nil
			out.Err = fmt.Errorf("request panicked: %v", p)
		}
		out.Duration = time.Since(out.StartedAt)
		r.report(ctx, logger, out)
	}()

	logger.Info("running job", "method", job.Request.Method, "url", redact.String(job.Request.URL))

	out.Value, out.Err = r.sender.Send(ctx, job.Request)
	if out.Err == nil && job.Check != nil {
		if err := job.Check(out.Value); err != nil {
			out.Err = err
		}
	}
	return out
}

func (r *Runner) report(ctx context.Context, logger *slog.Logger, out Outcome) {
	if out.Err != nil {
		logger.Warn("job failed", "duration", out.Duration, "error", redact.Error(out.Err))
		r.notifier.Notify(ctx, DescribeError(out.Label, out.Err), notify.SeverityDanger)
		return
	}

	logger.Info("job finished", "duration", out.Duration)
	msg := fmt.Sprintf("%s finished in %s", out.Label, out.Duration.Round(time.Millisecond))
	r.notifier.Notify(ctx, msg, notify.SeveritySuccess)
}

// DescribeError renders a job failure as a short user-facing message with
// credentials and paths removed.
func DescribeError(label string, err error) string {
	var statusErr *apiclient.StatusError
	var transportErr *apiclient.TransportError

	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAlreadyRunning):
		return fmt.Sprintf("%s is already running", label)
	case errors.Is(err, ErrRunnerStopped):
		return fmt.Sprintf("%s was not run: the runner stopped", label)
	case errors.As(err, &statusErr):
		return fmt.Sprintf("%s failed: %s", label, statusErr.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Sprintf("%s failed: the request timed out", label)
	case errors.Is(err, context.Canceled):
		return fmt.Sprintf("%s was cancelled", label)
	case errors.As(err, &transportErr) && transportErr.Op == apiclient.OpDecode:
		return fmt.Sprintf("%s failed: the server returned an invalid response", label)
	case errors.As(err, &transportErr):
		return fmt.Sprintf("%s failed: could not reach the server (%s)", label, redact.Error(transportErr.Err))
	default:
		return fmt.Sprintf("%s failed: %s", label, redact.Error(err))
	}
}

// jobTask adapts a submitted Job to the WorkerPool's Task interface.
type jobTask struct {
	runner  *Runner
	job     Job
	ctx     context.Context // submitter's context
	release func()
	result  chan Outcome
	once    sync.Once
}

func (t *jobTask) ID() uuid.UUID { return t.job.ID }
func (t *jobTask) Key() guard.TaskID { return t.job.TaskID }

// Execute runs under the submitter's context and is also cancelled when the
// pool stops.
func (t *jobTask) Execute(poolCtx context.Context) error {
	ctx, cancel := context.WithCancel(t.ctx)
	defer cancel()
	stop := context.AfterFunc(poolCtx, cancel)
	defer stop()

	out := t.runner.execute(ctx, t.job, t.release)
	t.deliver(out)
	return out.Err
}

// abandon completes a job that never ran. Like an executed job it releases
// the guard, notifies and then delivers the Outcome.
func (t *jobTask) abandon(err error) {
	t.release()

	out := Outcome{
		JobID:  t.job.ID,
		TaskID: t.job.TaskID,
		Label:  t.job.Label,
		Err:    err,
	}
	logger := t.runner.logger.With("job_id", t.job.ID, "task_id", string(t.job.TaskID))
	t.runner.report(t.ctx, logger, out)
	t.deliver(out)
}

func (t *jobTask) deliver(out Outcome) {
	t.once.Do(func() { t.result <- out })
}
