package common

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLogger_FileOutputCreatesDir(t *testing.T) {
	config := NewDefaultConfig()
	config.Logging.Dir = filepath.Join(t.TempDir(), "logs")
	config.Logging.Output = []string{"file"}

	logger := SetupLogger(config)
	require.NotNil(t, logger)
	assert.DirExists(t, config.Logging.Dir)
}

func TestSetupLogger_ConsoleFallback(t *testing.T) {
	config := NewDefaultConfig()
	config.Logging.Output = nil
	config.Logging.Level = "debug"

	assert.NotNil(t, SetupLogger(config))
}
