package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/phrazzld/syncdash/internal/apiclient"
	"github.com/phrazzld/syncdash/internal/config"
	"github.com/phrazzld/syncdash/internal/dashboard"
	"github.com/phrazzld/syncdash/internal/guard"
	"github.com/phrazzld/syncdash/internal/notify"
	"github.com/phrazzld/syncdash/internal/platform/logger"
	"github.com/phrazzld/syncdash/internal/task"
)

type appOptions struct {
	configPath string
	baseURL    string
	logLevel   string
	stdout     io.Writer
	stderr     io.Writer
}

// application holds the wired components of one CLI invocation.
type application struct {
	config *config.Config
	logger *slog.Logger

	logCloser io.Closer
	center    *notify.Center
	guard     *guard.Guard
	runner    *task.Runner
	dashboard *dashboard.Client

	stdout io.Writer
}

func newApplication(opts appOptions) (*application, error) {
	cfg, err := config.Load(opts.configPath, func(c *config.Config) {
		if opts.baseURL != "" {
			c.Client.BaseURL = opts.baseURL
		}
		if opts.logLevel != "" {
			c.Log.Level = opts.logLevel
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, logCloser, err := logger.Setup(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	api, err := apiclient.NewFromConfig(cfg.Client, log)
	if err != nil {
		_ = logCloser.Close()
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}

	center := notify.NewCenter(cfg.Notify, log)
	center.Subscribe(notify.NewWriterHandler(opts.stderr))

	g := guard.New(center, log)
	runner := task.NewRunner(cfg.Runner, g, api, center, log)
	runner.Start()

	log.Debug("syncdash configured",
		"base_url", cfg.Client.BaseURL,
		"worker_count", cfg.Runner.WorkerCount,
		"queue_size", cfg.Runner.QueueSize)

	return &application{
		config:    cfg,
		logger:    log,
		logCloser: logCloser,
		center:    center,
		guard:     g,
		runner:    runner,
		dashboard: dashboard.New(api, log),
		stdout:    opts.stdout,
	}, nil
}

// cleanup stops background work in dependency order.
func (app *application) cleanup() {
	app.runner.Stop()
	app.center.Close()
	if err := app.logCloser.Close(); err != nil {
		app.logger.Error("failed to close log output", "error", err)
	}
}
