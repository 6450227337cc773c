package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/estnia/copyU/internal/config"
	"github.com/estnia/copyU/internal/logger"
	"github.com/estnia/copyU/internal/store"
	"github.com/estnia/copyU/internal/watch"
)

const AppName = "copyU"

// Build-time variables (set via -ldflags).
var (
	Version   = "0.0.0-dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// App owns the single store instance and the background services around
// it: the clipboard monitor, the capture queue worker and the retention
// sweeper. Consumers receive the store by reference; there is no ambient
// singleton.
type App struct {
	config  *config.Config
	store   *store.Store
	queue   *store.CaptureQueue
	monitor *watch.Monitor
}

func New(cfg *config.Config) (*App, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	st, err := store.Open(cfg.DatabasePath, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize history store: %w", err)
	}

	queue := store.NewCaptureQueue(st)

	return &App{
		config:  cfg,
		store:   st,
		queue:   queue,
		monitor: watch.NewMonitor(queue, cfg.MonitorInterval()),
	}, nil
}

// Run starts the background services and blocks until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	defer a.store.Close()

	a.store.OnChange(func() {
		logger.Debug().Msg("history changed")
	})

	go a.queue.Run(ctx)
	go a.store.RunSweeper(ctx)

	if err := a.monitor.Start(ctx); err != nil {
		return err
	}

	logger.Info().
		Str("version", Version).
		Str("db", a.config.DatabasePath).
		Msg("copyU daemon started")

	<-ctx.Done()

	a.monitor.Stop()
	logger.Info().Msg("copyU daemon stopped")
	return nil
}

// Store exposes the history store to in-process consumers (UI layer,
// hotkey handlers).
func (a *App) Store() *store.Store {
	return a.store
}
