package analysis

import (
	"errors"
	"fmt"
)

// FailureKind classifies why a request failed.
type FailureKind string

const (
	FailureValidation      FailureKind = "validation"       // Bad input, nothing was dispatched
	FailureJobExecution    FailureKind = "job_execution"    // A mandatory job reported failure
	FailureArtifactMissing FailureKind = "artifact_missing" // Job succeeded but its artifact is empty
	FailureCancelled       FailureKind = "cancelled"        // Request context ended before dispatch
)

// Severity says whether a failure ends the request.
type Severity string

// SeverityFatal is the only severity a Failure carries. Degradation never
// surfaces as a Failure: it is reported in Payload.Status and Payload.Warnings.
const SeverityFatal Severity = "fatal"

// Failure is the typed error returned by every Service flow. Message is
// meant for the user; Err carries the diagnostic.
type Failure struct {
	Kind     FailureKind
	Severity Severity
	Message  string
	RunID    string
	Err      error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %v", f.Message, f.Err)
	}
	return f.Message
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// AsFailure extracts a *Failure from err.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// IsKind reports whether err is a Failure of the given kind.
func IsKind(err error, kind FailureKind) bool {
	f, ok := AsFailure(err)
	return ok && f.Kind == kind
}

func newFailure(kind FailureKind, runID, message string, err error) *Failure {
	return &Failure{
		Kind:     kind,
		Severity: SeverityFatal,
		Message:  message,
		RunID:    runID,
		Err:      err,
	}
}
