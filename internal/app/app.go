// Package app wires the stock analyzer components together.
package app

import (
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/stockanalyzer/internal/common"
	"github.com/ternarybob/stockanalyzer/internal/interfaces"
	"github.com/ternarybob/stockanalyzer/internal/jobs/runner"
	"github.com/ternarybob/stockanalyzer/internal/services/analysis"
	"github.com/ternarybob/stockanalyzer/internal/services/cache"
	"github.com/ternarybob/stockanalyzer/internal/storage"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	// Artifact storage
	Store interfaces.ArtifactStore

	// Job execution
	Executor interfaces.JobExecutor
	Runner   interfaces.JobRunner

	// Services
	Cache    interfaces.CacheInvalidator
	Analysis *analysis.Service
}

// New initializes the application with the process executor described by cfg.
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	executor := runner.NewProcessExecutor(runner.ProcessConfigFromConfig(cfg), logger)
	return NewWithExecutor(cfg, logger, executor)
}

// NewWithExecutor initializes the application around an existing executor.
func NewWithExecutor(cfg *common.Config, logger arbor.ILogger, executor interfaces.JobExecutor) (*App, error) {
	app := &App{
		Config:   cfg,
		Logger:   logger,
		Executor: executor,
	}

	if err := app.initStorage(); err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	if err := app.initServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	logger.Debug().
		Str("base_dir", cfg.Storage.BaseDir).
		Str("program", cfg.Runner.Program).
		Int("max_parallel_jobs", cfg.Orchestrator.MaxParallelJobs).
		Msg("Application initialization complete")

	return app, nil
}

// initStorage prepares the artifact roots
func (a *App) initStorage() error {
	store, err := storage.NewArtifactStore(a.Logger, a.Config)
	if err != nil {
		return err
	}
	a.Store = store
	return nil
}

func (a *App) initServices() error {
	opts, err := runner.OptionsFromConfig(a.Config.Runner)
	if err != nil {
		return err
	}
	a.Runner = runner.NewRunner(a.Executor, opts, a.Logger)
	a.Cache = cache.NewService(a.Store, a.Logger)
	a.Analysis = analysis.NewService(a.Runner, a.Store, a.Cache, analysis.Options{
		MaxParallelJobs: a.Config.Orchestrator.MaxParallelJobs,
	}, a.Logger)
	return nil
}
