package dashboard

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/phrazzld/syncdash/internal/apiclient"
	"github.com/phrazzld/syncdash/internal/config"
	"github.com/phrazzld/syncdash/internal/guard"
	"github.com/phrazzld/syncdash/internal/notify"
	"github.com/phrazzld/syncdash/internal/task"
	"github.com/phrazzld/syncdash/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, fake *testutils.FakeDashboard) *Client {
	t.Helper()
	srv := fake.Start(t)
	api, err := apiclient.New(srv.URL, apiclient.WithLogger(setupTestLogger()))
	require.NoError(t, err)
	return New(api, setupTestLogger())
}

func seededFake() *testutils.FakeDashboard {
	return testutils.NewFakeDashboard(
		testutils.FakeTask{ID: 1, Name: "photos", NextRun: "2026-10-20 06:00:00"},
		testutils.FakeTask{ID: 2, Name: "docs"},
	)
}

func TestTaskKey(t *testing.T) {
	assert.Equal(t, guard.TaskID("task-7"), TaskKey(7))
}

func TestRunTaskDescriptor(t *testing.T) {
	d := RunTaskDescriptor(3)
	assert.Equal(t, "POST", d.Method)
	assert.Equal(t, "/api/tasks/3/run", d.URL)
	assert.Nil(t, d.Body)
}

func TestListTasks(t *testing.T) {
	c := newTestClient(t, seededFake())

	tasks, err := c.ListTasks(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, Task{ID: 1, Name: "photos", Status: "pending", NextRun: "2026-10-20 06:00:00"}, tasks[0])
	assert.Equal(t, "docs", tasks[1].Name)
}

func TestGetTask(t *testing.T) {
	c := newTestClient(t, seededFake())
	ctx := context.Background()

	got, err := c.GetTask(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "docs", got.Name)

	_, err = c.GetTask(ctx, 99)
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestRunTask(t *testing.T) {
	fake := seededFake()
	c := newTestClient(t, fake)
	ctx := context.Background()

	res, err := c.RunTask(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "success", res.Status)
	assert.Equal(t, 1, res.InstanceID)
	assert.Equal(t, 1, fake.RunCount(1))

	reqs := fake.Requests()
	last := reqs[len(reqs)-1]
	assert.Equal(t, http.MethodPost, last.Method)
	assert.Equal(t, "/api/tasks/1/run", last.Path)
	assert.Equal(t, "application/json", last.ContentType)
	assert.Equal(t, "XMLHttpRequest", last.RequestedWith)
	assert.Empty(t, last.Body)

	got, err := c.GetTask(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "completed", got.Status)
}

func TestRunTask_Errors(t *testing.T) {
	fake := seededFake()
	fake.FailRun(1, http.StatusInternalServerError)
	fake.RejectRun(2, "source path does not exist")
	c := newTestClient(t, fake)
	ctx := context.Background()

	_, err := c.RunTask(ctx, 1)
	code, ok := apiclient.StatusCode(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusInternalServerError, code)

	_, err = c.RunTask(ctx, 2)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAPI)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "source path does not exist", apiErr.Message)

	_, err = c.RunTask(ctx, 42)
	code, ok = apiclient.StatusCode(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestInstancesAndLogs(t *testing.T) {
	fake := seededFake()
	c := newTestClient(t, fake)
	ctx := context.Background()

	_, err := c.RunTask(ctx, 1)
	require.NoError(t, err)
	_, err = c.RunTask(ctx, 2)
	require.NoError(t, err)
	_, err = c.RunTask(ctx, 1)
	require.NoError(t, err)

	all, err := c.ListInstances(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, 3, all[0].ID, "newest first")

	forOne, err := c.ListInstances(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, forOne, 1)
	assert.Equal(t, 3, forOne[0].ID)
	assert.Equal(t, "photos", forOne[0].TaskName)

	logs, err := c.InstanceLogs(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, logs.TaskID)
	assert.Equal(t, []string{"start task: docs", "sync finished"}, logs.Logs)

	_, err = c.InstanceLogs(ctx, 99)
	code, ok := apiclient.StatusCode(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestStats(t *testing.T) {
	fake := seededFake()
	c := newTestClient(t, fake)
	ctx := context.Background()

	_, err := c.RunTask(ctx, 1)
	require.NoError(t, err)

	stats, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TaskCount)
	assert.Equal(t, 1, stats.CompletedTaskCount)
	assert.Equal(t, 1, stats.PendingTaskCount)
	assert.Equal(t, []string{"OneDrive"}, stats.ConnectionTypes)
}

func TestScheduler(t *testing.T) {
	fake := seededFake()
	c := newTestClient(t, fake)
	ctx := context.Background()

	status, err := c.SchedulerStatus(ctx)
	require.NoError(t, err)
	assert.True(t, status.Running)
	assert.Equal(t, 2, status.JobCount)
	require.Len(t, status.Jobs, 2)
	assert.Equal(t, "task_1", status.Jobs[0].ID)
	assert.Nil(t, status.Jobs[0].NextRunTime)

	msg, err := c.ReloadScheduler(ctx)
	require.NoError(t, err)
	assert.Equal(t, "scheduler reloaded", msg)
	assert.Equal(t, 1, fake.Reloads())
}

func TestLogs(t *testing.T) {
	fake := seededFake()
	fake.AddLog("INFO", "dashboard started")
	fake.AddLog("ERROR", "connection lost")
	c := newTestClient(t, fake)
	ctx := context.Background()

	all, err := c.ListLogs(ctx, LogFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "connection lost", all[0].Message)

	errorsOnly, err := c.ListLogs(ctx, LogFilter{Level: "ERROR", Limit: 10})
	require.NoError(t, err)
	require.Len(t, errorsOnly, 1)
	assert.Equal(t, "ERROR", errorsOnly[0].Level)

	msg, err := c.ClearLogs(ctx)
	require.NoError(t, err)
	assert.Equal(t, "logs cleared", msg)

	all, err = c.ListLogs(ctx, LogFilter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestListConnections(t *testing.T) {
	c := newTestClient(t, seededFake())

	conns, err := c.ListConnections(context.Background())
	require.NoError(t, err)
	require.Len(t, conns, 1)
	assert.Equal(t, Connection{ID: 1, Name: "home-nas", Server: "http://nas.local:5244", Username: "admin"}, conns[0])
}

func TestCheckEnvelope(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{name: "success envelope", body: `{"status":"success","message":"ok"}`},
		{name: "array", body: `[{"id":1}]`},
		{name: "null", body: `null`},
		{name: "object without status", body: `{"id":1}`},
		{name: "error envelope", body: `{"status":"error","message":"boom"}`, wantErr: "boom"},
		{name: "error envelope without message", body: `{"status":"error"}`, wantErr: "dashboard reported an error"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := CheckEnvelope(json.RawMessage(tc.body))
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrAPI)
			assert.EqualError(t, err, tc.wantErr)
		})
	}
}

func TestRunTaskJob_ThroughRunner(t *testing.T) {
	fake := seededFake()
	fake.RejectRun(2, "target is read-only")
	srv := fake.Start(t)

	api, err := apiclient.New(srv.URL, apiclient.WithLogger(setupTestLogger()))
	require.NoError(t, err)

	rec := &notify.Recorder{}
	g := guard.New(rec, setupTestLogger())
	runner := task.NewRunner(config.RunnerConfig{WorkerCount: 2, QueueSize: 4}, g, api, rec, setupTestLogger())
	runner.Start()
	t.Cleanup(runner.Stop)

	ctx := context.Background()
	release := fake.HoldRuns()
	defer release()

	first, err := runner.Submit(ctx, RunTaskJob(1, "photos"))
	require.NoError(t, err)
	_, err = runner.Submit(ctx, RunTaskJob(1, "photos"))
	assert.ErrorIs(t, err, task.ErrAlreadyRunning)

	rejected, err := runner.Submit(ctx, RunTaskJob(2, ""))
	require.NoError(t, err)

	release()

	out := <-first
	require.NoError(t, out.Err)
	assert.Equal(t, TaskKey(1), out.TaskID)

	out = <-rejected
	assert.ErrorIs(t, out.Err, ErrAPI)
	assert.Equal(t, "Task 2", out.Label)

	assert.Equal(t, 1, fake.RunCount(1), "the duplicate never reached the server")
	assert.Equal(t, []notify.Recorded{{Message: "Task task-1 is already running", Severity: notify.SeverityWarning}},
		rec.WithSeverity(notify.SeverityWarning))

	danger := rec.WithSeverity(notify.SeverityDanger)
	require.Len(t, danger, 1)
	assert.Equal(t, "Task 2 failed: target is read-only", danger[0].Message)
}
