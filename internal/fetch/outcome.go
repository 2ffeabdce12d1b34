// Package fetch retrieves site resources under a bounded-concurrency worker
// pool with per-request timeout and retry.
package fetch

import "github.com/webvault/webvault/internal/document"

// Status classifies the result of processing one unit.
type Status int

const (
	// StatusOK means the unit was captured.
	StatusOK Status = iota
	// StatusRetryable means every retry attempt was exhausted on a
	// transient failure; the unit is skipped and the capture continues.
	StatusRetryable
	// StatusFatal means validation rejected the unit outright; no retry
	// attempts were consumed.
	StatusFatal
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusRetryable:
		return "retryable"
	case StatusFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Outcome is the per-unit result handed to the aggregator, which owns the
// continuation policy.
type Outcome struct {
	Locator  string
	Kind     string
	Status   Status
	Attempts int
	Err      error
	Record   *document.ResourceRecord
}
