package models

import (
	"fmt"
	"sort"
)

// ArtifactRoot names one of the directories the external jobs write into.
type ArtifactRoot string

const (
	RootAnalysis    ArtifactRoot = "analysis"
	RootDCF         ArtifactRoot = "dcf"
	RootData        ArtifactRoot = "data"
	RootSummaries   ArtifactRoot = "summaries"
	RootTranscripts ArtifactRoot = "transcripts"
)

// ArtifactKey addresses one artifact file: a root plus a file name within it.
type ArtifactKey struct {
	Root ArtifactRoot
	Name string
}

func (k ArtifactKey) String() string {
	return fmt.Sprintf("%s/%s", k.Root, k.Name)
}

// DeleteReport describes the result of deleting a set of artifacts.
// Missing keys are not failures.
type DeleteReport struct {
	Deleted []ArtifactKey
	Missing []ArtifactKey
	Failed  map[ArtifactKey]error
}

// NewDeleteReport returns an empty report.
func NewDeleteReport() DeleteReport {
	return DeleteReport{
		Deleted: []ArtifactKey{},
		Missing: []ArtifactKey{},
		Failed:  map[ArtifactKey]error{},
	}
}

// HasFailures reports whether any deletion failed.
func (r DeleteReport) HasFailures() bool {
	return len(r.Failed) > 0
}

// FailedKeys returns the failed keys in a stable order.
func (r DeleteReport) FailedKeys() []ArtifactKey {
	keys := make([]ArtifactKey, 0, len(r.Failed))
	for k := range r.Failed {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}
