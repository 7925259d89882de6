package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/phrazzld/syncdash/internal/apiclient"
	"github.com/phrazzld/syncdash/internal/guard"
	"github.com/phrazzld/syncdash/internal/task"
)

// Client wraps a task.Sender with the dashboard's routes and JSON shapes.
type Client struct {
	sender task.Sender
	logger *slog.Logger
}

// New creates a Client. Descriptor URLs are relative, so sender must resolve
// them against the dashboard's base URL.
func New(sender task.Sender, logger *slog.Logger) *Client {
	return &Client{
		sender: sender,
		logger: logger.With("component", "dashboard_client"),
	}
}

// TaskKey is the guard key for a dashboard task.
func TaskKey(id int) guard.TaskID {
	return guard.TaskID(fmt.Sprintf("task-%d", id))
}

// RunTaskDescriptor describes the request that starts task id.
func RunTaskDescriptor(id int) apiclient.Descriptor {
	return apiclient.Post(fmt.Sprintf("/api/tasks/%d/run", id), nil)
}

// RunTaskJob builds a guarded job that starts task id. An error envelope in
// the response fails the job.
func RunTaskJob(id int, label string) task.Job {
	if label == "" {
		label = fmt.Sprintf("Task %d", id)
	}
	job := task.NewJob(TaskKey(id), label, RunTaskDescriptor(id))
	job.Check = CheckEnvelope
	return job
}

// ListTasks returns every configured task.
func (c *Client) ListTasks(ctx context.Context) ([]Task, error) {
	var tasks []Task
	if err := c.call(ctx, apiclient.Get("/api/tasks"), &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// GetTask returns task id or ErrTaskNotFound.
func (c *Client) GetTask(ctx context.Context, id int) (*Task, error) {
	var t *Task
	if err := c.call(ctx, apiclient.Get(fmt.Sprintf("/api/tasks/%d", id)), &t); err != nil {
		if code, ok := apiclient.StatusCode(err); ok && code == 404 {
			return nil, fmt.Errorf("%w: %d", ErrTaskNotFound, id)
		}
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("%w: %d", ErrTaskNotFound, id)
	}
	return t, nil
}

// RunTask starts task id without consulting any guard. Use RunTaskJob with a
// task.Runner for duplicate suppression.
func (c *Client) RunTask(ctx context.Context, id int) (RunResult, error) {
	var res RunResult
	err := c.call(ctx, RunTaskDescriptor(id), &res)
	return res, err
}

// ListInstances returns recent executions of taskID, newest first. A zero
// taskID lists all tasks and a non-positive limit uses the server default.
func (c *Client) ListInstances(ctx context.Context, taskID, limit int) ([]Instance, error) {
	q := url.Values{}
	if taskID > 0 {
		q.Set("task_id", strconv.Itoa(taskID))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	var instances []Instance
	if err := c.call(ctx, apiclient.Get(withQuery("/api/task-instances", q)), &instances); err != nil {
		return nil, err
	}
	return instances, nil
}

// InstanceLogs returns the log lines of one execution.
func (c *Client) InstanceLogs(ctx context.Context, instanceID int) (InstanceLogs, error) {
	var logs InstanceLogs
	err := c.call(ctx, apiclient.Get(fmt.Sprintf("/api/task-instances/%d/logs", instanceID)), &logs)
	return logs, err
}

// Stats returns the dashboard counters.
func (c *Client) Stats(ctx context.Context) (Stats, error) {
	var resp struct {
		Data Stats `json:"data"`
	}
	err := c.call(ctx, apiclient.Get("/api/dashboard/stats"), &resp)
	return resp.Data, err
}

// SchedulerStatus returns the scheduler state and its jobs.
func (c *Client) SchedulerStatus(ctx context.Context) (SchedulerStatus, error) {
	var status SchedulerStatus
	err := c.call(ctx, apiclient.Get("/api/scheduler/status"), &status)
	return status, err
}

// ReloadScheduler asks the server to rebuild its schedule and returns the
// server's message.
func (c *Client) ReloadScheduler(ctx context.Context) (string, error) {
	return c.message(ctx, apiclient.Post("/api/scheduler/reload", nil))
}

// ListLogs returns dashboard log lines, newest first.
func (c *Client) ListLogs(ctx context.Context, filter LogFilter) ([]LogEntry, error) {
	q := url.Values{}
	if filter.Level != "" {
		q.Set("level", filter.Level)
	}
	if filter.Limit > 0 {
		q.Set("limit", strconv.Itoa(filter.Limit))
	}

	var resp struct {
		Logs []LogEntry `json:"logs"`
	}
	if err := c.call(ctx, apiclient.Get(withQuery("/api/logs", q)), &resp); err != nil {
		return nil, err
	}
	return resp.Logs, nil
}

// ClearLogs deletes the dashboard log and returns the server's message.
func (c *Client) ClearLogs(ctx context.Context) (string, error) {
	return c.message(ctx, apiclient.Post("/api/logs/clear", nil))
}

// ListConnections returns the configured alist servers.
func (c *Client) ListConnections(ctx context.Context) ([]Connection, error) {
	var conns []Connection
	if err := c.call(ctx, apiclient.Get("/api/connections"), &conns); err != nil {
		return nil, err
	}
	return conns, nil
}

func (c *Client) message(ctx context.Context, d apiclient.Descriptor) (string, error) {
	var resp envelope
	err := c.call(ctx, d, &resp)
	return resp.Message, err
}

// call sends d, rejects error envelopes and decodes the body into out.
func (c *Client) call(ctx context.Context, d apiclient.Descriptor, out any) error {
	body, err := c.sender.Send(ctx, d)
	if err != nil {
		return err
	}
	if err := CheckEnvelope(body); err != nil {
		c.logger.Debug("dashboard returned an error envelope",
			"method", d.Method,
			"url", d.URL,
			"error", err)
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &apiclient.TransportError{Op: apiclient.OpDecode, Err: err}
	}
	return nil
}

func withQuery(path string, q url.Values) string {
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}
