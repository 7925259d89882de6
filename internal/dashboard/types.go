package dashboard

// Task is a configured sync task.
type Task struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Status  string `json:"status"`
	LastRun string `json:"last_run"`
	NextRun string `json:"next_run"`
}

// Instance is one execution of a Task.
type Instance struct {
	ID        int    `json:"task_instances_id"`
	TaskID    int    `json:"task_id"`
	TaskName  string `json:"task_name"`
	Status    string `json:"status"`
	StartTime int64  `json:"start_time"`
	EndTime   int64  `json:"end_time"`
}

// InstanceLogs holds the log lines of one Instance.
type InstanceLogs struct {
	InstanceID int      `json:"instance_id"`
	TaskID     int      `json:"task_id"`
	Logs       []string `json:"logs"`
}

// RunResult is the server's answer to a run request.
type RunResult struct {
	Status     string `json:"status"`
	Message    string `json:"message"`
	InstanceID int    `json:"instance_id"`
}

// Stats are the dashboard counters.
type Stats struct {
	ConnectionCount      int      `json:"connection_count"`
	TaskCount            int      `json:"task_count"`
	ActiveTaskCount      int      `json:"active_task_count"`
	SyncedFilesCount     int      `json:"synced_files_count"`
	CompletedTaskCount   int      `json:"completed_task_count"`
	RunningTaskCount     int      `json:"running_task_count"`
	FailedTaskCount      int      `json:"failed_task_count"`
	PendingTaskCount     int      `json:"pending_task_count"`
	ConnectionTypes      []string `json:"connection_types"`
	ConnectionTypeCounts []int    `json:"connection_type_counts"`
}

// SchedulerJob is one scheduled trigger.
type SchedulerJob struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	NextRunTime *string `json:"next_run_time"`
	Trigger     string  `json:"trigger"`
}

// SchedulerStatus describes the server-side scheduler.
type SchedulerStatus struct {
	Message  string         `json:"message"`
	Running  bool           `json:"running"`
	JobCount int            `json:"job_count"`
	Jobs     []SchedulerJob `json:"jobs"`
}

// LogEntry is a dashboard log line.
type LogEntry struct {
	ID        int    `json:"id"`
	Level     string `json:"level"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
	TaskID    int    `json:"task_id,omitempty"`
}

// LogFilter narrows ListLogs. Zero values mean no filter and the server's
// default limit.
type LogFilter struct {
	Level string
	Limit int
}

// Connection is a configured alist server.
type Connection struct {
	ID       int    `json:"connection_id"`
	Name     string `json:"name"`
	Server   string `json:"server"`
	Username string `json:"username"`
}
