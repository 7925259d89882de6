package testutils

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// FakeTask is a sync task as stored by the fake dashboard.
type FakeTask struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Status  string `json:"status"`
	LastRun string `json:"last_run"`
	NextRun string `json:"next_run"`
}

// FakeInstance is one recorded execution of a FakeTask.
type FakeInstance struct {
	ID        int    `json:"task_instances_id"`
	TaskID    int    `json:"task_id"`
	TaskName  string `json:"task_name"`
	Status    string `json:"status"`
	StartTime int64  `json:"start_time"`
	EndTime   int64  `json:"end_time"`
}

// FakeLog is a dashboard log line.
type FakeLog struct {
	ID        int    `json:"id"`
	Level     string `json:"level"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
	TaskID    int    `json:"task_id,omitempty"`
}

// RecordedRequest captures what the fake received.
type RecordedRequest struct {
	Method        string
	Path          string
	ContentType   string
	RequestedWith string
	Body          []byte
}

// FakeDashboard is an in-memory stand-in for the alist-sync dashboard API.
type FakeDashboard struct {
	mu          sync.Mutex
	tasks       map[int]*FakeTask
	instances   []FakeInstance
	logs        []FakeLog
	requests    []RecordedRequest
	runCounts   map[int]int
	runFailures map[int]int
	runRejects  map[int]string
	gate        chan struct{}
	reloads     int
}

// NewFakeDashboard creates a fake seeded with tasks.
func NewFakeDashboard(tasks ...FakeTask) *FakeDashboard {
	f := &FakeDashboard{
		tasks:       make(map[int]*FakeTask),
		runCounts:   make(map[int]int),
		runFailures: make(map[int]int),
		runRejects:  make(map[int]string),
	}
	for i := range tasks {
		t := tasks[i]
		if t.Status == "" {
			t.Status = "pending"
		}
		f.tasks[t.ID] = &t
	}
	return f
}

// Start serves the fake on an httptest server closed at test cleanup.
func (f *FakeDashboard) Start(t testing.TB) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(f.Router())
	t.Cleanup(srv.Close)
	return srv
}

// FailRun makes runs of taskID answer with the given HTTP status.
func (f *FakeDashboard) FailRun(taskID, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runFailures[taskID] = status
}

// RejectRun makes runs of taskID answer 200 with an error envelope, the way
// the dashboard reports a sync that could not start.
func (f *FakeDashboard) RejectRun(taskID int, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runRejects[taskID] = message
}

// HoldRuns blocks every run request until the returned release is called.
// Release is idempotent.
func (f *FakeDashboard) HoldRuns() (release func()) {
	gate := make(chan struct{})
	f.mu.Lock()
	f.gate = gate
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(gate)
			f.mu.Lock()
			if f.gate == gate {
				f.gate = nil
			}
			f.mu.Unlock()
		})
	}
}

// Requests returns a copy of every request received so far.
func (f *FakeDashboard) Requests() []RecordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]RecordedRequest, len(f.requests))
	copy(out, f.requests)
	return out
}

// RunCount reports how many run requests reached the handler for taskID.
func (f *FakeDashboard) RunCount(taskID int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.runCounts[taskID]
}

// Reloads reports how many scheduler reloads were requested.
func (f *FakeDashboard) Reloads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reloads
}

// AddLog appends a log line.
func (f *FakeDashboard) AddLog(level, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addLogLocked(level, message, 0)
}

func (f *FakeDashboard) addLogLocked(level, message string, taskID int) {
	f.logs = append(f.logs, FakeLog{
		ID:        len(f.logs) + 1,
		Level:     level,
		Message:   message,
		Timestamp: time.Now().Unix(),
		TaskID:    taskID,
	})
}

// Router builds the chi router serving the dashboard API.
func (f *FakeDashboard) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(f.record)

	r.Route("/api", func(r chi.Router) {
		r.Get("/tasks", f.listTasks)
		r.Get("/tasks/{id}", f.getTask)
		r.Post("/tasks/{id}/run", f.runTask)
		r.Get("/task-instances", f.listInstances)
		r.Get("/task-instances/{id}/logs", f.instanceLogs)
		r.Get("/dashboard/stats", f.stats)
		r.Get("/scheduler/status", f.schedulerStatus)
		r.Post("/scheduler/reload", f.reloadScheduler)
		r.Get("/logs", f.listLogs)
		r.Post("/logs/clear", f.clearLogs)
		r.Get("/connections", f.listConnections)
	})

	return r
}

func (f *FakeDashboard) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil {
			body, _ = io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewReader(body))
		}

		f.mu.Lock()
		f.requests = append(f.requests, RecordedRequest{
			Method:        r.Method,
			Path:          r.URL.Path,
			ContentType:   r.Header.Get("Content-Type"),
			RequestedWith: r.Header.Get("X-Requested-With"),
			Body:          body,
		})
		f.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

func pathID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	return id, err == nil
}

func (f *FakeDashboard) sortedTasksLocked() []FakeTask {
	out := make([]FakeTask, 0, len(f.tasks))
	for _, t := range f.tasks {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *FakeDashboard) listTasks(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	tasks := f.sortedTasksLocked()
	f.mu.Unlock()
	RespondWithJSON(w, http.StatusOK, tasks)
}

func (f *FakeDashboard) getTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		RespondWithError(w, http.StatusNotFound, "task not found")
		return
	}

	f.mu.Lock()
	t, found := f.tasks[id]
	var task FakeTask
	if found {
		task = *t
	}
	f.mu.Unlock()

	if !found {
		// The dashboard answers an unknown task with null.
		RespondWithJSON(w, http.StatusOK, nil)
		return
	}
	RespondWithJSON(w, http.StatusOK, task)
}

func (f *FakeDashboard) runTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		RespondWithError(w, http.StatusNotFound, "task not found")
		return
	}

	f.mu.Lock()
	f.runCounts[id]++
	gate := f.gate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-r.Context().Done():
			return
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if status, failing := f.runFailures[id]; failing {
		f.addLogLocked("ERROR", fmt.Sprintf("task %d failed to start", id), id)
		RespondWithError(w, status, fmt.Sprintf("task run failed: status %d", status))
		return
	}
	t, found := f.tasks[id]
	if !found {
		RespondWithError(w, http.StatusNotFound, fmt.Sprintf("task does not exist: %d", id))
		return
	}
	if msg, rejected := f.runRejects[id]; rejected {
		RespondWithError(w, http.StatusOK, msg)
		return
	}

	now := time.Now().Unix()
	inst := FakeInstance{
		ID:        len(f.instances) + 1,
		TaskID:    id,
		TaskName:  t.Name,
		Status:    "completed",
		StartTime: now,
		EndTime:   now,
	}
	f.instances = append(f.instances, inst)
	t.Status = "completed"
	t.LastRun = time.Unix(now, 0).UTC().Format("2006-01-02 15:04:05")
	f.addLogLocked("INFO", fmt.Sprintf("task started: %s", t.Name), id)

	RespondWithSuccess(w, map[string]interface{}{
		"message":     "sync task executed",
		"instance_id": inst.ID,
	})
}

func (f *FakeDashboard) listInstances(w http.ResponseWriter, r *http.Request) {
	taskID, _ := strconv.Atoi(r.URL.Query().Get("task_id"))
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 50
	}

	f.mu.Lock()
	out := make([]FakeInstance, 0)
	for i := len(f.instances) - 1; i >= 0 && len(out) < limit; i-- {
		inst := f.instances[i]
		if taskID != 0 && inst.TaskID != taskID {
			continue
		}
		out = append(out, inst)
	}
	f.mu.Unlock()

	RespondWithJSON(w, http.StatusOK, out)
}

func (f *FakeDashboard) instanceLogs(w http.ResponseWriter, r *http.Request) {
	id, _ := pathID(r)

	f.mu.Lock()
	var inst *FakeInstance
	for i := range f.instances {
		if f.instances[i].ID == id {
			inst = &f.instances[i]
			break
		}
	}
	var lines []string
	if inst != nil {
		lines = []string{
			fmt.Sprintf("start task: %s", inst.TaskName),
			"sync finished",
		}
	}
	f.mu.Unlock()

	if inst == nil {
		RespondWithError(w, http.StatusNotFound, "task instance does not exist")
		return
	}
	RespondWithSuccess(w, map[string]interface{}{
		"instance_id": id,
		"task_id":     inst.TaskID,
		"logs":        lines,
	})
}

func (f *FakeDashboard) stats(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	counts := map[string]int{}
	for _, t := range f.tasks {
		counts[t.Status]++
	}
	total := len(f.tasks)
	data := map[string]interface{}{
		"connection_count":       1,
		"task_count":             total,
		"active_task_count":      counts["running"],
		"synced_files_count":     len(f.instances),
		"completed_task_count":   counts["completed"],
		"running_task_count":     counts["running"],
		"failed_task_count":      counts["failed"],
		"pending_task_count":     total - counts["completed"] - counts["running"] - counts["failed"],
		"connection_types":       []string{"OneDrive"},
		"connection_type_counts": []int{1},
	}
	f.mu.Unlock()

	RespondWithSuccess(w, map[string]interface{}{"data": data})
}

func (f *FakeDashboard) schedulerStatus(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	tasks := f.sortedTasksLocked()
	f.mu.Unlock()

	jobs := make([]map[string]interface{}, 0, len(tasks))
	for _, t := range tasks {
		jobs = append(jobs, map[string]interface{}{
			"id":            fmt.Sprintf("task_%d", t.ID),
			"name":          t.Name,
			"next_run_time": nil,
			"trigger":       "cron[hour='*/6']",
		})
	}

	RespondWithSuccess(w, map[string]interface{}{
		"message":   "scheduler running",
		"running":   true,
		"job_count": len(jobs),
		"jobs":      jobs,
	})
}

func (f *FakeDashboard) reloadScheduler(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.reloads++
	f.mu.Unlock()
	RespondWithSuccess(w, map[string]interface{}{"message": "scheduler reloaded"})
}

func (f *FakeDashboard) listLogs(w http.ResponseWriter, r *http.Request) {
	level := r.URL.Query().Get("level")
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 100
	}

	f.mu.Lock()
	out := make([]FakeLog, 0)
	for i := len(f.logs) - 1; i >= 0 && len(out) < limit; i-- {
		if level != "" && f.logs[i].Level != level {
			continue
		}
		out = append(out, f.logs[i])
	}
	f.mu.Unlock()

	RespondWithSuccess(w, map[string]interface{}{"logs": out})
}

func (f *FakeDashboard) clearLogs(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.logs = nil
	f.mu.Unlock()
	RespondWithSuccess(w, map[string]interface{}{"message": "logs cleared"})
}

func (f *FakeDashboard) listConnections(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, []map[string]interface{}{
		{
			"connection_id": 1,
			"name":          "home-nas",
			"server":        "http://nas.local:5244",
			"username":      "admin",
		},
	})
}
