package storage

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stockanalyzer/internal/common"
	"github.com/ternarybob/stockanalyzer/internal/storage/artifacts"
)

// NewArtifactStore creates the filesystem artifact store described by config
// and makes sure every artifact root exists.
func NewArtifactStore(logger arbor.ILogger, config *common.Config) (*artifacts.Store, error) {
	store := artifacts.NewStore(artifacts.RootsFromConfig(config.Storage), logger)
	if err := store.EnsureRoots(); err != nil {
		return nil, fmt.Errorf("failed to prepare artifact roots: %w", err)
	}
	return store, nil
}
