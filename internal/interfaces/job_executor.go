// -----------------------------------------------------------------------
// Job Executor Interface - boundary to the external computations
// -----------------------------------------------------------------------

package interfaces

import (
	"context"

	"github.com/ternarybob/stockanalyzer/internal/common"
	"github.com/ternarybob/stockanalyzer/internal/models"
)

// JobExecutor invokes one external computation and blocks until it finishes.
// It has no result channel: outputs are written to the artifact store by the
// computation itself. A nil error means clean completion.
type JobExecutor interface {
	Execute(ctx context.Context, job *models.JobRequest) error
}

// JobRunner runs jobs and contains every failure. Run never returns an error
// and never panics; callers only see the outcome.
type JobRunner interface {
	Run(ctx context.Context, job *models.JobRequest) models.JobOutcome

	RunAnalysis(ctx context.Context, ticker common.Ticker) models.JobOutcome
	RunDCF(ctx context.Context, ticker common.Ticker, params *models.DCFParams) models.JobOutcome
	RunTranscripts(ctx context.Context, ticker common.Ticker) models.JobOutcome
	RunTranscriptSummary(ctx context.Context, ticker common.Ticker, year, quarter int) models.JobOutcome
}
