// Package analysis orchestrates the compute jobs behind each user request:
// it decides which jobs run, fans independent jobs out concurrently, joins
// them, reads their artifacts back and assembles the response.
package analysis

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"
	"golang.org/x/sync/errgroup"

	"github.com/ternarybob/stockanalyzer/internal/common"
	"github.com/ternarybob/stockanalyzer/internal/interfaces"
	"github.com/ternarybob/stockanalyzer/internal/models"
	"github.com/ternarybob/stockanalyzer/internal/services/results"
)

// User-facing messages.
const (
	msgTickerRequired         = "Ticker symbol is required."
	msgAnalysisFailed         = "There was an error running the analysis."
	msgAnalysisNotFound       = "Analysis data not found. Please try again."
	msgTranscriptsFailed      = "There was an error running the transcripts analysis."
	msgDCFTickerMissing       = "Ticker symbol missing for DCF computation."
	msgDCFParseFailed         = "Error parsing DCF parameters"
	msgDCFFailed              = "Error computing DCF. Please try again."
	msgDCFResultsNotFound     = "DCF results not found."
	msgSummaryTickerMissing   = "Ticker symbol missing for summary computation."
	msgSummaryInvalid         = "Invalid year or quarter parameter."
	msgSummaryFailed          = "Error generating summary."
	msgSummaryNotFound        = "Summary file not found."
	msgResetTickerMissing     = "Ticker symbol missing for cache reset."
	msgResetDeleteFailed      = "Some cache files could not be deleted."
	msgResetAnalysisFailed    = "Error re-running analysis after cache reset."
	msgResetTranscriptsFailed = "Error running transcripts analysis after cache reset."
	msgResetAnalysisNotFound  = "Analysis data not found after cache reset."
	msgRequestCancelled       = "Request cancelled."
)

// Options tune the orchestrator.
type Options struct {
	// MaxParallelJobs bounds the fan-out within one request.
	MaxParallelJobs int
}

// Service realizes the request flows.
type Service struct {
	runner      interfaces.JobRunner
	store       interfaces.ArtifactStore
	cache       interfaces.CacheInvalidator
	maxParallel int
	locks       *tickerLocks
	logger      arbor.ILogger
}

// NewService creates an orchestration service.
func NewService(runner interfaces.JobRunner, store interfaces.ArtifactStore, cache interfaces.CacheInvalidator, opts Options, logger arbor.ILogger) *Service {
	maxParallel := opts.MaxParallelJobs
	if maxParallel < 1 {
		maxParallel = 2
	}
	return &Service{
		runner:      runner,
		store:       store,
		cache:       cache,
		maxParallel: maxParallel,
		locks:       newTickerLocks(),
		logger:      logger,
	}
}

// jobFunc runs one job; it must not fail other than through the outcome.
type jobFunc func(ctx context.Context) models.JobOutcome

// RunPrimaryAnalysis runs analysis and transcripts concurrently for a ticker.
// Analysis is mandatory; a transcripts failure degrades the payload.
func (s *Service) RunPrimaryAnalysis(ctx context.Context, rawTicker string) (*models.Payload, error) {
	runID := uuid.New().String()

	ticker, err := common.ParseTicker(rawTicker)
	if err != nil {
		return nil, newFailure(FailureValidation, runID, msgTickerRequired, err)
	}

	release, err := s.begin(ctx, runID, ticker, "primary")
	if err != nil {
		return nil, err
	}
	defer release()

	outcomes := s.runConcurrently(ctx,
		func(ctx context.Context) models.JobOutcome { return s.runner.RunAnalysis(ctx, ticker) },
		func(ctx context.Context) models.JobOutcome { return s.runner.RunTranscripts(ctx, ticker) },
	)
	analysis, transcripts := outcomes[0], outcomes[1]

	if !analysis.Success {
		return nil, s.fail(FailureJobExecution, runID, ticker, msgAnalysisFailed, outcomeError(analysis))
	}

	metrics := s.store.LoadAnalysis(ticker)
	if len(metrics) == 0 {
		return nil, s.fail(FailureArtifactMissing, runID, ticker, msgAnalysisNotFound, nil)
	}

	var warnings []string
	collection := []models.Transcript{}
	if transcripts.Success {
		collection = s.store.LoadTranscripts(ticker)
	} else {
		warnings = append(warnings, msgTranscriptsFailed)
		s.logger.Warn().
			Str("run_id", runID).
			Str("ticker", ticker.String()).
			Str("reason", transcripts.Message).
			Msg("Transcripts job failed, continuing without transcripts")
	}

	return s.finish(results.Input{
		RunID:       runID,
		Ticker:      ticker,
		Metrics:     metrics,
		Transcripts: collection,
		Warnings:    warnings,
	}), nil
}

// RunDCF parses the DCF form and runs the DCF job. Nothing is dispatched
// unless every parameter parses.
func (s *Service) RunDCF(ctx context.Context, rawTicker string, form models.DCFForm) (*models.Payload, error) {
	runID := uuid.New().String()

	ticker, err := common.ParseTicker(rawTicker)
	if err != nil {
		return nil, newFailure(FailureValidation, runID, msgDCFTickerMissing, err)
	}

	params, err := form.Parse()
	if err != nil {
		return nil, newFailure(FailureValidation, runID, fmt.Sprintf("%s: %v", msgDCFParseFailed, err), err)
	}

	release, err := s.begin(ctx, runID, ticker, "dcf")
	if err != nil {
		return nil, err
	}
	defer release()

	outcome := s.runner.RunDCF(ctx, ticker, params)
	if !outcome.Success {
		return nil, s.fail(FailureJobExecution, runID, ticker, msgDCFFailed, outcomeError(outcome))
	}

	dcfResults := s.store.LoadDCF(ticker)
	var warnings []string
	if len(dcfResults) == 0 {
		warnings = append(warnings, msgDCFResultsNotFound)
	}

	return s.finish(results.Input{
		RunID:      runID,
		Ticker:     ticker,
		Metrics:    s.store.LoadAnalysis(ticker),
		DCFParams:  params,
		DCFResults: dcfResults,
		Warnings:   warnings,
	}), nil
}

// RunTranscriptSummary summarizes the transcript of one quarter.
func (s *Service) RunTranscriptSummary(ctx context.Context, rawTicker, year, quarter string) (*models.Payload, error) {
	runID := uuid.New().String()

	ticker, err := common.ParseTicker(rawTicker)
	if err != nil {
		return nil, newFailure(FailureValidation, runID, msgSummaryTickerMissing, err)
	}

	req, err := models.ParseSummaryRequest(year, quarter)
	if err != nil {
		return nil, newFailure(FailureValidation, runID, msgSummaryInvalid, err)
	}

	release, err := s.begin(ctx, runID, ticker, "summary")
	if err != nil {
		return nil, err
	}
	defer release()

	outcome := s.runner.RunTranscriptSummary(ctx, ticker, req.Year, req.Quarter)
	if !outcome.Success {
		return nil, s.fail(FailureJobExecution, runID, ticker, msgSummaryFailed, outcomeError(outcome))
	}

	summary := s.store.LoadSummary(ticker, req.Year, req.Quarter)
	if len(summary) == 0 {
		return nil, s.fail(FailureArtifactMissing, runID, ticker, msgSummaryNotFound, nil)
	}

	return s.finish(results.Input{
		RunID:       runID,
		Ticker:      ticker,
		Summary:     req,
		SummaryData: summary,
	}), nil
}

// ResetCache deletes the statement caches of a ticker and recomputes.
// Both jobs are re-run unconditionally, analysis first.
func (s *Service) ResetCache(ctx context.Context, rawTicker string) (*models.Payload, error) {
	runID := uuid.New().String()

	ticker, err := common.ParseTicker(rawTicker)
	if err != nil {
		return nil, newFailure(FailureValidation, runID, msgResetTickerMissing, err)
	}

	release, err := s.begin(ctx, runID, ticker, "reset")
	if err != nil {
		return nil, err
	}
	defer release()

	var warnings []string
	if report := s.cache.Invalidate(ticker); report.HasFailures() {
		warnings = append(warnings, msgResetDeleteFailed)
	}

	analysis := s.runner.RunAnalysis(ctx, ticker)
	transcripts := s.runner.RunTranscripts(ctx, ticker)

	if !analysis.Success {
		return nil, s.fail(FailureJobExecution, runID, ticker, msgResetAnalysisFailed, outcomeError(analysis))
	}

	collection := []models.Transcript{}
	if transcripts.Success {
		collection = s.store.LoadTranscripts(ticker)
	} else {
		warnings = append(warnings, msgResetTranscriptsFailed)
	}

	metrics := s.store.LoadAnalysis(ticker)
	if len(metrics) == 0 {
		return nil, s.fail(FailureArtifactMissing, runID, ticker, msgResetAnalysisNotFound, nil)
	}

	return s.finish(results.Input{
		RunID:       runID,
		Ticker:      ticker,
		Metrics:     metrics,
		Transcripts: collection,
		Warnings:    warnings,
	}), nil
}

// Cached returns whatever is cached for a ticker without running any job.
func (s *Service) Cached(ctx context.Context, rawTicker string) (*models.Payload, error) {
	runID := uuid.New().String()

	ticker, err := common.ParseTicker(rawTicker)
	if err != nil {
		return nil, newFailure(FailureValidation, runID, msgTickerRequired, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, newFailure(FailureCancelled, runID, msgRequestCancelled, err)
	}

	return results.Assemble(results.Input{
		RunID:       runID,
		Ticker:      ticker,
		Metrics:     s.store.LoadAnalysis(ticker),
		Transcripts: s.store.LoadTranscripts(ticker),
	}), nil
}

// runConcurrently runs jobs with at most maxParallel in flight and waits for
// all of them. A failed job never cancels the others.
func (s *Service) runConcurrently(ctx context.Context, jobs ...jobFunc) []models.JobOutcome {
	outcomes := make([]models.JobOutcome, len(jobs))

	var g errgroup.Group
	g.SetLimit(s.maxParallel)
	for i, job := range jobs {
		g.Go(func() error {
			outcomes[i] = job(ctx)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

// begin takes the ticker lock and logs the start of a run.
func (s *Service) begin(ctx context.Context, runID string, ticker common.Ticker, flow string) (func(), error) {
	release, err := s.locks.acquire(ctx, ticker)
	if err != nil {
		return nil, s.fail(FailureCancelled, runID, ticker, msgRequestCancelled, err)
	}
	s.logger.Info().
		Str("run_id", runID).
		Str("ticker", ticker.String()).
		Str("flow", flow).
		Msg("Starting orchestration run")
	return release, nil
}

func (s *Service) fail(kind FailureKind, runID string, ticker common.Ticker, message string, err error) *Failure {
	f := newFailure(kind, runID, message, err)
	event := s.logger.Error()
	if err != nil {
		event = event.Err(err)
	}
	event.
		Str("run_id", runID).
		Str("ticker", ticker.String()).
		Str("failure", string(kind)).
		Msg(message)
	return f
}

func (s *Service) finish(in results.Input) *models.Payload {
	payload := results.Assemble(in)
	s.logger.Info().
		Str("run_id", payload.RunID).
		Str("ticker", payload.Ticker).
		Str("status", string(payload.Status)).
		Int("transcripts", len(payload.Transcripts)).
		Int("warnings", len(payload.Warnings)).
		Msg("Orchestration run complete")
	return payload
}

func outcomeError(outcome models.JobOutcome) error {
	if outcome.Message == "" {
		return fmt.Errorf("%s job failed", outcome.Kind)
	}
	return errors.New(outcome.Message)
}
