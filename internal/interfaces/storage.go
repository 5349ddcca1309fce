package interfaces

import (
	"github.com/ternarybob/stockanalyzer/internal/common"
	"github.com/ternarybob/stockanalyzer/internal/models"
)

// ArtifactStore reads and deletes JSON artifacts produced by external jobs.
// Reads fail open: a missing, unreadable or malformed artifact is returned as
// an empty value, which callers treat the same as "not computed yet".
type ArtifactStore interface {
	ReadObject(key models.ArtifactKey) map[string]interface{}
	ReadList(key models.ArtifactKey) []interface{}
	Scan(root models.ArtifactRoot, pattern string) []map[string]interface{}
	Delete(keys ...models.ArtifactKey) models.DeleteReport

	LoadAnalysis(ticker common.Ticker) map[string]interface{}
	LoadDCF(ticker common.Ticker) map[string]interface{}
	LoadSummary(ticker common.Ticker, year, quarter int) map[string]interface{}
	LoadTranscripts(ticker common.Ticker) []models.Transcript
}
