// Package stagerunner launches the external computation stages of the analysis
// pipeline as child processes and reports how each run ended.
package stagerunner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"stock_analysis/internal/feature/analysis/domain"
	"stock_analysis/internal/feature/analysis/domain/entity"
)

const (
	// maxOutputBytes caps how much of each output stream is kept.
	maxOutputBytes = 1 << 20
	// waitDelay bounds how long Wait drains pipes after the process is killed.
	waitDelay = 2 * time.Second
)

// ErrUnknownStage is returned for a stage name missing from the stage table.
var ErrUnknownStage = errors.New("unknown stage")

// Observer receives one observation per finished invocation.
type Observer interface {
	ObserveStage(stage, status string, elapsed time.Duration)
}

// Runner invokes configured stage programs. It holds no per-request state and
// is safe for concurrent use.
type Runner struct {
	cfg      Config
	observer Observer
}

// NewRunner creates a Runner over the given stage table. observer may be nil.
func NewRunner(cfg Config, observer Observer) *Runner {
	return &Runner{cfg: cfg, observer: observer}
}

// RunStage runs stage name for key and blocks until the process exits or ctx ends.
// It never returns an error value; every failure is described by the invocation.
func (r *Runner) RunStage(ctx context.Context, name string, key entity.Key) entity.StageInvocation {
	start := time.Now()
	inv := entity.StageInvocation{Stage: name, Key: key, ExitCode: -1}

	spec, ok := r.cfg.Stages[name]
	if !ok {
		inv.Status = entity.StageRejected
		inv.Err = fmt.Errorf("%w: %s", ErrUnknownStage, name)
		return r.finish(inv, start)
	}
	// The key is the only caller-derived argument; re-check its format here.
	if !key.Valid() {
		inv.Status = entity.StageRejected
		inv.Err = fmt.Errorf("%w: %q", domain.ErrInvalidKey, string(key))
		return r.finish(inv, start)
	}

	if spec.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, spec.Timeout)
		defer cancel()
	}

	args := make([]string, 0, len(spec.Args)+1)
	args = append(args, spec.Args...)
	args = append(args, key.String())

	cmd := exec.CommandContext(ctx, spec.Program, args...)
	cmd.Dir = spec.Dir
	if len(spec.Env) > 0 {
		cmd.Env = append(os.Environ(), spec.Env...)
	}
	cmd.WaitDelay = waitDelay

	stdout := newCappedBuffer(maxOutputBytes)
	stderr := newCappedBuffer(maxOutputBytes)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	inv.Program = spec.Program
	inv.Args = args

	err := cmd.Run()
	inv.Stdout = stdout.String()
	inv.Stderr = stderr.String()

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		inv.ExitCode = 0
		if perr := inspectStdout(inv.Stdout); perr != nil {
			inv.Status = entity.StageFailed
			inv.Err = perr
		} else {
			inv.Status = entity.StageSucceeded
		}
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		inv.Status = entity.StageTimedOut
		inv.Err = fmt.Errorf("deadline exceeded after %s: %w", time.Since(start).Round(time.Millisecond), ctx.Err())
	case errors.Is(ctx.Err(), context.Canceled):
		inv.Status = entity.StageCanceled
		inv.Err = ctx.Err()
	case errors.As(err, &exitErr):
		inv.Status = entity.StageFailed
		inv.ExitCode = exitErr.ExitCode()
		inv.Err = err
	default:
		inv.Status = entity.StageStartFailed
		inv.Err = err
	}
	return r.finish(inv, start)
}

func (r *Runner) finish(inv entity.StageInvocation, start time.Time) entity.StageInvocation {
	inv.Duration = time.Since(start)
	if r.observer != nil {
		r.observer.ObserveStage(inv.Stage, string(inv.Status), inv.Duration)
	}
	attrs := []any{
		"stage", inv.Stage,
		"key", inv.Key.String(),
		"status", inv.Status,
		"exit_code", inv.ExitCode,
		"duration", inv.Duration,
	}
	if inv.Succeeded() {
		slog.Info("stage finished", attrs...)
	} else {
		slog.Warn("stage did not succeed", append(attrs, "error", inv.Err, "stderr", tail(inv.Stderr, 256))...)
	}
	return inv
}

// inspectStdout interprets a JSON document on stdout. Stages that print
// {"error": "..."} exit 0 but did not produce data; plain text is accepted as is.
func inspectStdout(stdout string) error {
	s := strings.TrimSpace(stdout)
	if s == "" || (s[0] != '{' && s[0] != '[') {
		return nil
	}
	if !json.Valid([]byte(s)) {
		return domain.ErrParseFailure
	}
	if s[0] != '{' {
		return nil
	}
	var report struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal([]byte(s), &report); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrParseFailure, err)
	}
	if report.Error != "" {
		return fmt.Errorf("%w: %s", domain.ErrStageReported, report.Error)
	}
	return nil
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
