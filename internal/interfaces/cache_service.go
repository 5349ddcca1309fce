// Package interfaces provides service interfaces for dependency injection.
package interfaces

import (
	"github.com/ternarybob/stockanalyzer/internal/common"
	"github.com/ternarybob/stockanalyzer/internal/models"
)

// CacheInvalidator removes cached artifacts so the next run recomputes them.
type CacheInvalidator interface {
	// Invalidate deletes the named data-root artifacts for ticker, or the
	// default statement caches when names is empty. It never fails the caller:
	// per-key failures are logged and returned in the report.
	Invalidate(ticker common.Ticker, names ...string) models.DeleteReport

	// DefaultNames returns the file names removed when no names are given.
	DefaultNames(ticker common.Ticker) []string
}
