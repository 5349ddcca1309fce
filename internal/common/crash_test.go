package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCrashReporter_Write(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	reporter := NewCrashReporter(dir, []string{"stockanalyzer", "analyze", "AAPL"})
	reporter.now = func() time.Time { return time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC) }

	path, err := reporter.Write("boom", "main.main()")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "crash-2025-03-04T05-06-07.log"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Command: stockanalyzer analyze AAPL")
	assert.Contains(t, string(data), "boom")
	assert.Contains(t, string(data), "main.main()")
}

func TestNewCrashReporter_DefaultDir(t *testing.T) {
	assert.Equal(t, "logs", NewCrashReporter("", nil).Dir)
}
