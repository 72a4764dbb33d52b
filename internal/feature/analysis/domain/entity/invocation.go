package entity

import "time"

// StageStatus is the terminal state of one external stage invocation.
type StageStatus string

const (
	StageSucceeded   StageStatus = "succeeded"
	StageFailed      StageStatus = "failed"
	StageTimedOut    StageStatus = "timed_out"
	StageCanceled    StageStatus = "canceled"
	StageStartFailed StageStatus = "start_failed"
	// StageRejected means the runner refused to start a process at all
	// (unknown stage or malformed key).
	StageRejected StageStatus = "rejected"
)

// Stage names used by the analysis pipeline.
const (
	StageSeriesIngestion     = "series-ingestion"
	StageIndicatorDerivation = "indicator-derivation"
)

// StageInvocation records a single run of an external stage program.
// It lives only for the request that produced it.
type StageInvocation struct {
	Stage    string
	Key      Key
	Program  string
	Args     []string
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
	Status   StageStatus
	// Err carries the underlying cause for any non-successful status.
	Err error
}

// Succeeded reports whether the stage finished cleanly.
func (s StageInvocation) Succeeded() bool {
	return s.Status == StageSucceeded
}
