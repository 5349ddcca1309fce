package runner

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stockanalyzer/internal/common"
	"github.com/ternarybob/stockanalyzer/internal/models"
)

// MockExecutor is a testify mock of interfaces.JobExecutor
type MockExecutor struct {
	mock.Mock
}

func (m *MockExecutor) Execute(ctx context.Context, job *models.JobRequest) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

// recordingExecutor captures every job it is asked to run.
type recordingExecutor struct {
	mu   sync.Mutex
	jobs []*models.JobRequest
	err  error
}

func (e *recordingExecutor) Execute(ctx context.Context, job *models.JobRequest) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.jobs = append(e.jobs, job)
	return e.err
}

func newTestRunner(executor ExecutorFunc, opts Options) *Runner {
	return NewRunner(executor, opts, arbor.NewNoOpLogger())
}

func TestRunner_Success(t *testing.T) {
	executor := new(MockExecutor)
	executor.On("Execute", mock.Anything, mock.AnythingOfType("*models.JobRequest")).Return(nil).Once()

	r := NewRunner(executor, Options{}, arbor.NewNoOpLogger())
	outcome := r.RunAnalysis(context.Background(), "AAPL")

	assert.True(t, outcome.Success)
	assert.Empty(t, outcome.Message)
	assert.Equal(t, models.JobKindAnalysis, outcome.Kind)
	assert.Equal(t, "AAPL", outcome.Ticker)
	assert.NotEmpty(t, outcome.JobID)
	executor.AssertExpectations(t)
}

func TestRunner_FailuresBecomeOutcomes(t *testing.T) {
	failures := map[string]ExecutorFunc{
		"error": func(ctx context.Context, job *models.JobRequest) error {
			return errors.New("kernel died")
		},
		"exit code": func(ctx context.Context, job *models.JobRequest) error {
			return &ExitError{Notebook: "analyze_stock.ipynb", ExitCode: 1, Stderr: "PapermillExecutionError"}
		},
		"panic": func(ctx context.Context, job *models.JobRequest) error {
			panic("nil map in notebook engine")
		},
	}

	params := &models.DCFParams{FCFPerShare: 6, GrowthRate: 0.08, TerminalMultiple: 15, Years: 10, Shares: 1e9}

	for name, executor := range failures {
		t.Run(name, func(t *testing.T) {
			r := newTestRunner(executor, Options{})
			ctx := context.Background()

			outcomes := []models.JobOutcome{
				r.RunAnalysis(ctx, "AAPL"),
				r.RunDCF(ctx, "AAPL", params),
				r.RunTranscripts(ctx, "AAPL"),
				r.RunTranscriptSummary(ctx, "AAPL", 2023, 4),
			}
			for _, outcome := range outcomes {
				assert.False(t, outcome.Success, outcome.Kind)
				assert.NotEmpty(t, outcome.Message, outcome.Kind)
			}
		})
	}
}

func TestRunner_Timeout(t *testing.T) {
	r := newTestRunner(func(ctx context.Context, job *models.JobRequest) error {
		<-ctx.Done()
		return ctx.Err()
	}, Options{Timeout: 20 * time.Millisecond})

	outcome := r.RunTranscripts(context.Background(), "AAPL")

	assert.False(t, outcome.Success)
	assert.Contains(t, outcome.Message, "timed out")
}

func TestRunner_InvalidJobIsNotDispatched(t *testing.T) {
	executor := &recordingExecutor{}
	r := NewRunner(executor, Options{}, arbor.NewNoOpLogger())

	assert.False(t, r.Run(context.Background(), nil).Success)
	assert.False(t, r.Run(context.Background(), models.NewJobRequest("backtest", "AAPL", nil)).Success)
	assert.False(t, r.RunDCF(context.Background(), "AAPL", nil).Success)
	assert.Empty(t, executor.jobs)
}

func TestRunner_LaunchLimiterHonoursContext(t *testing.T) {
	executor := &recordingExecutor{}
	r := NewRunner(executor, Options{LaunchesPerMinute: 1}, arbor.NewNoOpLogger())

	require.True(t, r.RunAnalysis(context.Background(), "AAPL").Success)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	outcome := r.RunTranscripts(ctx, "AAPL")

	assert.False(t, outcome.Success)
	assert.Contains(t, outcome.Message, "launch slot")
	assert.Len(t, executor.jobs, 1)
}

func TestRunner_JobParameters(t *testing.T) {
	executor := &recordingExecutor{}
	r := NewRunner(executor, Options{}, arbor.NewNoOpLogger())
	ctx := context.Background()
	ticker := common.Ticker("MSFT")

	r.RunAnalysis(ctx, ticker)
	r.RunDCF(ctx, ticker, &models.DCFParams{FCFPerShare: 9.1, GrowthRate: 0.1, TerminalMultiple: 20, Years: 5, Cash: 1, Debt: 2, Shares: 3})
	r.RunTranscripts(ctx, ticker)
	r.RunTranscriptSummary(ctx, ticker, 2024, 2)

	require.Len(t, executor.jobs, 4)

	assert.Equal(t, map[string]interface{}{"ticker": "MSFT"}, executor.jobs[0].Params)

	dcf := executor.jobs[1].Params
	assert.Equal(t, "MSFT", dcf["ticker"])
	assert.Equal(t, 9.1, dcf["fcf_ps"])
	assert.Equal(t, 5, dcf["years"])
	assert.Len(t, dcf, 8)

	assert.Equal(t, map[string]interface{}{"ticker_list": []string{"MSFT"}}, executor.jobs[2].Params)
	assert.Equal(t, map[string]interface{}{"ticker": "MSFT", "year": 2024, "quarter": 2}, executor.jobs[3].Params)

	order := []models.JobKind{models.JobKindAnalysis, models.JobKindDCF, models.JobKindTranscripts, models.JobKindTranscriptSummary}
	for i, kind := range order {
		assert.Equal(t, kind, executor.jobs[i].Kind)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	opts, err := OptionsFromConfig(common.RunnerConfig{Timeout: "45m", LaunchesPerMinute: 6})
	require.NoError(t, err)
	assert.Equal(t, 45*time.Minute, opts.Timeout)
	assert.Equal(t, 6, opts.LaunchesPerMinute)

	_, err = OptionsFromConfig(common.RunnerConfig{Timeout: "later"})
	assert.Error(t, err)
}
