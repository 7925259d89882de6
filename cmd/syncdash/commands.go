package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/phrazzld/syncdash/internal/dashboard"
	"github.com/phrazzld/syncdash/internal/task"
)

// execute dispatches one command.
func (app *application) execute(ctx context.Context, command string, args []string) error {
	switch command {
	case "tasks":
		return app.listTasks(ctx)
	case "run":
		return app.runTasks(ctx, args)
	case "instances":
		return app.listInstances(ctx, args)
	case "logs":
		return app.listLogs(ctx)
	case "clear-logs":
		msg, err := app.dashboard.ClearLogs(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(app.stdout, msg)
		return nil
	case "connections":
		return app.listConnections(ctx)
	case "stats":
		stats, err := app.dashboard.Stats(ctx)
		if err != nil {
			return err
		}
		return app.printJSON(stats)
	case "scheduler":
		status, err := app.dashboard.SchedulerStatus(ctx)
		if err != nil {
			return err
		}
		return app.printJSON(status)
	case "reload":
		msg, err := app.dashboard.ReloadScheduler(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(app.stdout, msg)
		return nil
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, command)
	}
}

func (app *application) listTasks(ctx context.Context) error {
	tasks, err := app.dashboard.ListTasks(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(app.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSTATUS\tLAST RUN\tNEXT RUN")
	for _, t := range tasks {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", t.ID, t.Name, t.Status, orDash(t.LastRun), orDash(t.NextRun))
	}
	return tw.Flush()
}

// runTasks submits one guarded run per id and waits for every accepted run.
// Duplicates are reported by the guard and do not fail the command.
func (app *application) runTasks(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: run needs at least one task id", errUsage)
	}

	ids := make([]int, 0, len(args))
	for _, arg := range args {
		id, err := strconv.Atoi(arg)
		if err != nil || id <= 0 {
			return fmt.Errorf("%w: invalid task id %q", errUsage, arg)
		}
		ids = append(ids, id)
	}

	var pending []<-chan task.Outcome
	failed := 0
	for _, id := range ids {
		ch, err := app.runner.Submit(ctx, dashboard.RunTaskJob(id, ""))
		switch {
		case errors.Is(err, task.ErrAlreadyRunning):
			continue
		case err != nil:
			app.logger.Error("failed to submit task run", "task_id", id, "error", err)
			fmt.Fprintf(app.stdout, "task %d: not submitted: %v\n", id, err)
			failed++
			continue
		}
		pending = append(pending, ch)
	}

	for _, ch := range pending {
		out := <-ch
		if out.Err != nil {
			failed++
			continue
		}
		var res dashboard.RunResult
		if err := json.Unmarshal(out.Value, &res); err == nil && res.InstanceID != 0 {
			fmt.Fprintf(app.stdout, "%s: instance %d\n", out.Label, res.InstanceID)
		} else {
			fmt.Fprintf(app.stdout, "%s: started\n", out.Label)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d task runs failed", failed, len(ids))
	}
	return nil
}

func (app *application) listInstances(ctx context.Context, args []string) error {
	if len(args) == 0 || len(args) > 2 {
		return fmt.Errorf("%w: instances <task-id> [limit]", errUsage)
	}
	taskID, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("%w: invalid task id %q", errUsage, args[0])
	}
	limit := 10
	if len(args) == 2 {
		if limit, err = strconv.Atoi(args[1]); err != nil {
			return fmt.Errorf("%w: invalid limit %q", errUsage, args[1])
		}
	}

	instances, err := app.dashboard.ListInstances(ctx, taskID, limit)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(app.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "INSTANCE\tTASK\tSTATUS\tSTART\tEND")
	for _, inst := range instances {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\n", inst.ID, inst.TaskName, inst.Status, inst.StartTime, inst.EndTime)
	}
	return tw.Flush()
}

func (app *application) listLogs(ctx context.Context) error {
	entries, err := app.dashboard.ListLogs(ctx, dashboard.LogFilter{Limit: 50})
	if err != nil {
		return err
	}
	for _, e := range entries {
		fmt.Fprintf(app.stdout, "%d %-5s %s\n", e.Timestamp, e.Level, e.Message)
	}
	return nil
}

func (app *application) listConnections(ctx context.Context) error {
	conns, err := app.dashboard.ListConnections(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(app.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSERVER\tUSER")
	for _, c := range conns {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", c.ID, c.Name, c.Server, c.Username)
	}
	return tw.Flush()
}

func (app *application) printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	_, err = fmt.Fprintln(app.stdout, string(data))
	return err
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
