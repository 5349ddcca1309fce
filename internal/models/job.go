// -----------------------------------------------------------------------
// Compute jobs - requests and outcomes for external computations
// -----------------------------------------------------------------------

package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// JobKind identifies one of the external computations.
type JobKind string

const (
	JobKindAnalysis          JobKind = "analysis"           // Valuation metrics for a ticker
	JobKindDCF               JobKind = "dcf"                // Discounted cash flow projection
	JobKindTranscripts       JobKind = "transcripts"        // Fetch and cache all earnings-call transcripts
	JobKindTranscriptSummary JobKind = "transcript_summary" // Summarize a single transcript
)

// IsValid reports whether k is a supported job kind.
func (k JobKind) IsValid() bool {
	switch k {
	case JobKindAnalysis, JobKindDCF, JobKindTranscripts, JobKindTranscriptSummary:
		return true
	}
	return false
}

// JobRequest is a fully-parsed request to run one external computation.
// Params are passed to the computation as-is; they must be complete before dispatch.
type JobRequest struct {
	ID        string                 `json:"id"`
	Kind      JobKind                `json:"kind"`
	Ticker    string                 `json:"ticker"`
	Params    map[string]interface{} `json:"params"`
	CreatedAt time.Time              `json:"created_at"`
}

// NewJobRequest creates a job request with a fresh ID.
func NewJobRequest(kind JobKind, ticker string, params map[string]interface{}) *JobRequest {
	if params == nil {
		params = map[string]interface{}{}
	}
	return &JobRequest{
		ID:        uuid.New().String(),
		Kind:      kind,
		Ticker:    ticker,
		Params:    params,
		CreatedAt: time.Now(),
	}
}

// Validate checks that the request can be dispatched.
func (r *JobRequest) Validate() error {
	if r == nil {
		return fmt.Errorf("job request is nil")
	}
	if !r.Kind.IsValid() {
		return fmt.Errorf("unknown job kind %q", r.Kind)
	}
	if r.Ticker == "" {
		return fmt.Errorf("job %s: ticker is required", r.Kind)
	}
	return nil
}

// JobOutcome is the result of running a job. It never carries an error value:
// failures are flattened into Success=false plus a diagnostic message.
type JobOutcome struct {
	JobID    string        `json:"job_id"`
	Kind     JobKind       `json:"kind"`
	Ticker   string        `json:"ticker"`
	Success  bool          `json:"success"`
	Message  string        `json:"message,omitempty"`
	Duration time.Duration `json:"duration"`
}
