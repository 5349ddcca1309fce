package artifacts

import (
	"fmt"

	"github.com/ternarybob/stockanalyzer/internal/common"
	"github.com/ternarybob/stockanalyzer/internal/models"
)

// Statement cache suffixes written to the data root by the analysis job.
var statementCacheSuffixes = []string{"balance_sheet", "cash_flow", "income_statement"}

// AnalysisKey addresses {TICKER}.json under the analysis root.
func AnalysisKey(ticker common.Ticker) models.ArtifactKey {
	return models.ArtifactKey{Root: models.RootAnalysis, Name: fmt.Sprintf("%s.json", ticker)}
}

// DCFKey addresses {TICKER}.json under the dcf root.
func DCFKey(ticker common.Ticker) models.ArtifactKey {
	return models.ArtifactKey{Root: models.RootDCF, Name: fmt.Sprintf("%s.json", ticker)}
}

// TranscriptPattern matches every {TICKER}_{year}_{quarter}_transcript.json artifact of ticker.
func TranscriptPattern(ticker common.Ticker) string {
	return fmt.Sprintf("%s_*_transcript.json", ticker)
}

// SummaryKey addresses {TICKER}_{year}_Q{quarter}_summary.json under the summaries root.
func SummaryKey(ticker common.Ticker, year, quarter int) models.ArtifactKey {
	return models.ArtifactKey{Root: models.RootSummaries, Name: fmt.Sprintf("%s_%d_Q%d_summary.json", ticker, year, quarter)}
}

// DataKey addresses a file under the data root.
func DataKey(name string) models.ArtifactKey {
	return models.ArtifactKey{Root: models.RootData, Name: name}
}

// StatementCacheNames returns the data-root files cleared by a cache reset.
func StatementCacheNames(ticker common.Ticker) []string {
	names := make([]string, 0, len(statementCacheSuffixes))
	for _, suffix := range statementCacheSuffixes {
		names = append(names, fmt.Sprintf("%s_%s.json", ticker, suffix))
	}
	return names
}
