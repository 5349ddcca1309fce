package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/stockanalyzer/internal/common"
	"github.com/ternarybob/stockanalyzer/internal/jobs/runner"
	"github.com/ternarybob/stockanalyzer/internal/models"
)

func TestNew_CreatesArtifactRoots(t *testing.T) {
	cfg := common.NewDefaultConfig()
	cfg.Storage.BaseDir = t.TempDir()

	a, err := New(cfg, arbor.NewNoOpLogger())
	require.NoError(t, err)

	for _, dir := range []string{cfg.Storage.AnalysisDir, cfg.Storage.DCFDir, cfg.Storage.DataDir, cfg.Storage.SummariesDir, cfg.Storage.TranscriptsDir} {
		assert.DirExists(t, filepath.Join(cfg.Storage.BaseDir, dir))
	}
	assert.NotNil(t, a.Analysis)
	assert.IsType(t, &runner.ProcessExecutor{}, a.Executor)
}

func TestNew_RejectsBadTimeout(t *testing.T) {
	cfg := common.NewDefaultConfig()
	cfg.Storage.BaseDir = t.TempDir()
	cfg.Runner.Timeout = "soon"

	_, err := New(cfg, arbor.NewNoOpLogger())
	assert.Error(t, err)
}

func TestNewWithExecutor_RunsPrimaryAnalysis(t *testing.T) {
	cfg := common.NewDefaultConfig()
	cfg.Storage.BaseDir = t.TempDir()
	analysisDir := filepath.Join(cfg.Storage.BaseDir, cfg.Storage.AnalysisDir)

	executor := runner.ExecutorFunc(func(ctx context.Context, job *models.JobRequest) error {
		if job.Kind == models.JobKindAnalysis {
			return os.WriteFile(filepath.Join(analysisDir, job.Ticker+".json"), []byte(`{"pe_ratio": 28.4}`), 0644)
		}
		return nil
	})

	a, err := NewWithExecutor(cfg, arbor.NewNoOpLogger(), executor)
	require.NoError(t, err)

	payload, err := a.Analysis.RunPrimaryAnalysis(context.Background(), "aapl")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", payload.Ticker)
	assert.Equal(t, 28.4, payload.Metrics["pe_ratio"])
}
