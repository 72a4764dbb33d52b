// Package domain defines domain-level errors for the analysis feature.
package domain

import (
	"errors"
	"fmt"
	"strings"

	"stock_analysis/internal/feature/analysis/domain/entity"
)

var (
	// ErrNotFound indicates the query matched no instrument.
	// The caller should re-prompt the user; it is never retried.
	ErrNotFound = errors.New("instrument not found")

	// ErrStoreUnavailable indicates the relational store could not be queried.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrNoAnalysisData indicates the final read returned no rows.
	ErrNoAnalysisData = errors.New("no analysis data available")

	// ErrInvalidKey indicates a value that is not a canonical instrument key.
	ErrInvalidKey = errors.New("invalid instrument key")

	// ErrParseFailure indicates a stage printed output that could not be interpreted.
	ErrParseFailure = errors.New("stage output could not be parsed")

	// ErrStageReported indicates a stage exited 0 but reported an error on stdout.
	ErrStageReported = errors.New("stage reported an error")
)

// maxStderrInMessage bounds how much stderr ends up in an error string.
const maxStderrInMessage = 512

// StageFailure is returned when an external stage did not succeed.
type StageFailure struct {
	Stage    string
	Status   entity.StageStatus
	ExitCode int
	Stderr   string
	Err      error
}

// NewStageFailure converts a non-successful invocation into a StageFailure.
// It returns nil for a successful invocation.
func NewStageFailure(inv entity.StageInvocation) *StageFailure {
	if inv.Succeeded() {
		return nil
	}
	return &StageFailure{
		Stage:    inv.Stage,
		Status:   inv.Status,
		ExitCode: inv.ExitCode,
		Stderr:   inv.Stderr,
		Err:      inv.Err,
	}
}

func (e *StageFailure) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "stage %s %s", e.Stage, e.Status)
	if e.Status == entity.StageFailed && e.ExitCode != 0 {
		fmt.Fprintf(&b, " (exit status %d)", e.ExitCode)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if s := strings.TrimSpace(e.Stderr); s != "" {
		if len(s) > maxStderrInMessage {
			s = s[:maxStderrInMessage] + "..."
		}
		fmt.Fprintf(&b, ": %s", s)
	}
	return b.String()
}

func (e *StageFailure) Unwrap() error {
	return e.Err
}

// Kind maps an outcome error to the short code serialized to callers.
func Kind(err error) string {
	var sf *StageFailure
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrStoreUnavailable):
		return "store_unavailable"
	case errors.Is(err, ErrParseFailure):
		return "parse_failure"
	case errors.As(err, &sf):
		return "stage_failure"
	case errors.Is(err, ErrNoAnalysisData):
		return "no_data"
	case errors.Is(err, ErrInvalidKey):
		return "invalid_key"
	default:
		return "internal"
	}
}
