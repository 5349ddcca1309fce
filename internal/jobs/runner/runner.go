// Package runner runs external compute jobs and contains their failures.
// It is the only place where executor errors, timeouts and panics are
// observed; everything above it sees a models.JobOutcome.
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/stockanalyzer/internal/common"
	"github.com/ternarybob/stockanalyzer/internal/interfaces"
	"github.com/ternarybob/stockanalyzer/internal/models"
)

// Options tune a Runner.
type Options struct {
	// Timeout bounds each job. Zero means no timeout.
	Timeout time.Duration
	// LaunchesPerMinute throttles job starts. Zero means unlimited.
	LaunchesPerMinute int
}

// OptionsFromConfig builds runner options from the runner configuration.
func OptionsFromConfig(config common.RunnerConfig) (Options, error) {
	timeout, err := config.JobTimeout()
	if err != nil {
		return Options{}, fmt.Errorf("invalid runner timeout: %w", err)
	}
	return Options{Timeout: timeout, LaunchesPerMinute: config.LaunchesPerMinute}, nil
}

// Runner invokes jobs through an executor and flattens every failure into
// an unsuccessful outcome.
type Runner struct {
	executor interfaces.JobExecutor
	limiter  *rate.Limiter
	timeout  time.Duration
	logger   arbor.ILogger
}

var _ interfaces.JobRunner = (*Runner)(nil)

// NewRunner creates a runner over executor.
func NewRunner(executor interfaces.JobExecutor, opts Options, logger arbor.ILogger) *Runner {
	r := &Runner{
		executor: executor,
		timeout:  opts.Timeout,
		logger:   logger,
	}
	if opts.LaunchesPerMinute > 0 {
		r.limiter = rate.NewLimiter(rate.Limit(float64(opts.LaunchesPerMinute)/60.0), opts.LaunchesPerMinute)
	}
	return r
}

// Run executes job and blocks until it completes. Success is reported only
// when the executor returns nil.
func (r *Runner) Run(ctx context.Context, job *models.JobRequest) models.JobOutcome {
	start := time.Now()
	outcome := models.JobOutcome{}
	if job != nil {
		outcome.JobID = job.ID
		outcome.Kind = job.Kind
		outcome.Ticker = job.Ticker
	}

	fail := func(err error) models.JobOutcome {
		outcome.Success = false
		outcome.Message = err.Error()
		outcome.Duration = time.Since(start)
		r.logger.Error().
			Err(err).
			Str("job_id", outcome.JobID).
			Str("job_kind", string(outcome.Kind)).
			Str("ticker", outcome.Ticker).
			Dur("duration", outcome.Duration).
			Msg("Job failed")
		return outcome
	}

	if err := job.Validate(); err != nil {
		return fail(err)
	}

	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return fail(fmt.Errorf("waiting for launch slot: %w", err))
		}
	}

	runCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	r.logger.Info().
		Str("job_id", job.ID).
		Str("job_kind", string(job.Kind)).
		Str("ticker", job.Ticker).
		Msg("Running job")

	err := common.SafeCall(r.logger, "job:"+string(job.Kind), func() error {
		return r.executor.Execute(runCtx, job)
	})
	if err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			err = fmt.Errorf("timed out after %s: %w", r.timeout, err)
		}
		return fail(fmt.Errorf("error running %s: %w", job.Kind, err))
	}

	outcome.Success = true
	outcome.Duration = time.Since(start)
	r.logger.Info().
		Str("job_id", job.ID).
		Str("job_kind", string(job.Kind)).
		Str("ticker", job.Ticker).
		Dur("duration", outcome.Duration).
		Msg("Job completed")
	return outcome
}

// RunAnalysis runs the core analysis for ticker.
func (r *Runner) RunAnalysis(ctx context.Context, ticker common.Ticker) models.JobOutcome {
	return r.Run(ctx, models.NewJobRequest(models.JobKindAnalysis, ticker.String(), map[string]interface{}{
		"ticker": ticker.String(),
	}))
}

// RunDCF runs the DCF computation with validated inputs.
func (r *Runner) RunDCF(ctx context.Context, ticker common.Ticker, params *models.DCFParams) models.JobOutcome {
	if params == nil {
		return r.Run(ctx, nil)
	}
	values := params.ToMap()
	values["ticker"] = ticker.String()
	return r.Run(ctx, models.NewJobRequest(models.JobKindDCF, ticker.String(), values))
}

// RunTranscripts fetches and caches every available transcript for ticker.
func (r *Runner) RunTranscripts(ctx context.Context, ticker common.Ticker) models.JobOutcome {
	return r.Run(ctx, models.NewJobRequest(models.JobKindTranscripts, ticker.String(), map[string]interface{}{
		"ticker_list": []string{ticker.String()},
	}))
}

// RunTranscriptSummary summarizes one transcript.
func (r *Runner) RunTranscriptSummary(ctx context.Context, ticker common.Ticker, year, quarter int) models.JobOutcome {
	return r.Run(ctx, models.NewJobRequest(models.JobKindTranscriptSummary, ticker.String(), map[string]interface{}{
		"ticker":  ticker.String(),
		"year":    year,
		"quarter": quarter,
	}))
}

// ExecutorFunc adapts a function to interfaces.JobExecutor.
type ExecutorFunc func(ctx context.Context, job *models.JobRequest) error

// Execute calls f(ctx, job).
func (f ExecutorFunc) Execute(ctx context.Context, job *models.JobRequest) error {
	return f(ctx, job)
}
