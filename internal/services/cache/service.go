// Package cache invalidates cached artifacts so the next orchestration run
// recomputes them instead of reusing stale inputs.
package cache

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stockanalyzer/internal/common"
	"github.com/ternarybob/stockanalyzer/internal/interfaces"
	"github.com/ternarybob/stockanalyzer/internal/models"
	"github.com/ternarybob/stockanalyzer/internal/storage/artifacts"
)

// Service deletes per-ticker cache files from the data root.
type Service struct {
	store  interfaces.ArtifactStore
	logger arbor.ILogger
}

var _ interfaces.CacheInvalidator = (*Service)(nil)

// NewService creates a new cache invalidation service.
func NewService(store interfaces.ArtifactStore, logger arbor.ILogger) *Service {
	return &Service{
		store:  store,
		logger: logger,
	}
}

// DefaultNames returns the financial statement caches of ticker.
func (s *Service) DefaultNames(ticker common.Ticker) []string {
	return artifacts.StatementCacheNames(ticker)
}

// Invalidate deletes names (or the default statement caches) for ticker.
// Every deletion is attempted; failures are logged and reported, never returned.
func (s *Service) Invalidate(ticker common.Ticker, names ...string) models.DeleteReport {
	if len(names) == 0 {
		names = s.DefaultNames(ticker)
	}

	keys := make([]models.ArtifactKey, 0, len(names))
	for _, name := range names {
		keys = append(keys, artifacts.DataKey(name))
	}

	report := s.store.Delete(keys...)

	for _, key := range report.FailedKeys() {
		s.logger.Warn().
			Err(report.Failed[key]).
			Str("ticker", ticker.String()).
			Str("artifact", key.String()).
			Msg("Cache file could not be deleted")
	}

	s.logger.Info().
		Str("ticker", ticker.String()).
		Int("deleted", len(report.Deleted)).
		Int("missing", len(report.Missing)).
		Int("failed", len(report.Failed)).
		Msg("Cache invalidated")

	return report
}
