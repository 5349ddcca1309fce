package cache

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stockanalyzer/internal/common"
	"github.com/ternarybob/stockanalyzer/internal/models"
	"github.com/ternarybob/stockanalyzer/internal/storage/artifacts"
)

func newTestService(t *testing.T) (*Service, *artifacts.Store, string) {
	t.Helper()
	base := t.TempDir()
	config := common.NewDefaultConfig().Storage
	config.BaseDir = base

	store := artifacts.NewStore(artifacts.RootsFromConfig(config), arbor.NewNoOpLogger())
	require.NoError(t, store.EnsureRoots())
	return NewService(store, arbor.NewNoOpLogger()), store, filepath.Join(base, config.DataDir)
}

func TestInvalidate_DefaultNames(t *testing.T) {
	svc, store, dataDir := newTestService(t)

	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "AAPL_balance_sheet.json"), []byte(`{"assets": 1}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "AAPL_income_statement.json"), []byte(`{"revenue": 1}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "MSFT_balance_sheet.json"), []byte(`{"assets": 2}`), 0644))

	report := svc.Invalidate("AAPL")

	assert.Len(t, report.Deleted, 2)
	assert.Equal(t, []models.ArtifactKey{artifacts.DataKey("AAPL_cash_flow.json")}, report.Missing)
	assert.False(t, report.HasFailures())

	for _, name := range svc.DefaultNames("AAPL") {
		assert.Empty(t, store.ReadObject(artifacts.DataKey(name)), name)
	}
	assert.NotEmpty(t, store.ReadObject(artifacts.DataKey("MSFT_balance_sheet.json")), "other tickers are untouched")
}

func TestInvalidate_ExplicitNames(t *testing.T) {
	svc, _, dataDir := newTestService(t)
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "AAPL_prices.json"), []byte(`[]`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "AAPL_balance_sheet.json"), []byte(`{}`), 0644))

	report := svc.Invalidate("AAPL", "AAPL_prices.json")

	assert.Equal(t, []models.ArtifactKey{artifacts.DataKey("AAPL_prices.json")}, report.Deleted)
	assert.FileExists(t, filepath.Join(dataDir, "AAPL_balance_sheet.json"))
}

// failingStore fails every deletion.
type failingStore struct {
	*artifacts.Store
}

func (f failingStore) Delete(keys ...models.ArtifactKey) models.DeleteReport {
	report := models.NewDeleteReport()
	for _, key := range keys {
		report.Failed[key] = errors.New("read-only file system")
	}
	return report
}

func TestInvalidate_FailuresDoNotPropagate(t *testing.T) {
	_, store, _ := newTestService(t)
	svc := NewService(failingStore{store}, arbor.NewNoOpLogger())

	report := svc.Invalidate("AAPL")

	assert.True(t, report.HasFailures())
	assert.Len(t, report.FailedKeys(), 3)
}
