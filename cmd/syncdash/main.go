// Package main implements syncdash, a command-line client for the alist-sync
// dashboard. It starts sync tasks through a guard that suppresses duplicate
// runs and reports every outcome as a notification on stderr.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

const usage = `usage: syncdash [flags] <command> [args]

commands:
  tasks                 list sync tasks
  run <id>...           start tasks; repeated ids are rejected while running
  instances <id> [n]    show the last n executions of a task
  logs                  show dashboard log lines
  clear-logs            delete the dashboard log
  connections           list configured alist servers
  stats                 show dashboard counters
  scheduler             show scheduler status
  reload                reload the scheduler

flags:
`

// errUsage marks command-line mistakes; they exit with status 2.
var errUsage = errors.New("usage error")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run parses args, executes one command and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("syncdash", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}

	configPath := fs.String("config", "", "path to a YAML config file (default $SYNCDASH_CONFIG)")
	baseURL := fs.String("url", "", "dashboard base URL, overrides client.base_url")
	logLevel := fs.String("log-level", "", "log level, overrides log.level")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	app, err := newApplication(appOptions{
		configPath: *configPath,
		baseURL:    *baseURL,
		logLevel:   *logLevel,
		stdout:     stdout,
		stderr:     stderr,
	})
	if err != nil {
		fmt.Fprintf(stderr, "syncdash: %v\n", err)
		return 1
	}
	defer app.cleanup()

	if err := app.execute(ctx, fs.Arg(0), fs.Args()[1:]); err != nil {
		fmt.Fprintf(stderr, "syncdash: %v\n", err)
		if errors.Is(err, errUsage) {
			return 2
		}
		return 1
	}
	return 0
}
