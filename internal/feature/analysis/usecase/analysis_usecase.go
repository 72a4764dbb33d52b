package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"stock_analysis/internal/feature/analysis/domain"
	"stock_analysis/internal/feature/analysis/domain/entity"
)

// AnalysisRepository abstracts the store holding derived analysis rows.
type AnalysisRepository interface {
	AnalysisCounter
	// Latest returns up to limit rows for key, newest first.
	Latest(ctx context.Context, key entity.Key, limit int) ([]entity.AnalysisRow, error)
}

// Invalidator is implemented by stores that keep a read cache which must be
// dropped after the stages rewrote the underlying rows.
type Invalidator interface {
	Invalidate(ctx context.Context, key entity.Key) error
}

// StageRunner runs one external stage for a key.
type StageRunner interface {
	RunStage(ctx context.Context, name string, key entity.Key) entity.StageInvocation
}

// KeyLocker guards the compute phase of one key across processes.
// acquired is false when another holder owns the lock.
type KeyLocker interface {
	TryLock(ctx context.Context, key entity.Key) (unlock func(context.Context) error, acquired bool, err error)
}

// Recorder receives pipeline-level counters.
type Recorder interface {
	RecordAnalyze(result string)
	RecordResolution(match string)
}

type noopRecorder struct{}

func (noopRecorder) RecordAnalyze(string)    {}
func (noopRecorder) RecordResolution(string) {}

// Option configures optional collaborators of AnalysisUsecase.
type Option func(*AnalysisUsecase)

// WithKeyLocker enables the cross-process per-key compute lock.
func WithKeyLocker(l KeyLocker) Option {
	return func(u *AnalysisUsecase) { u.locker = l }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(u *AnalysisUsecase) {
		if r != nil {
			u.metrics = r
		}
	}
}

// WithComputeTimeout bounds one shared compute phase. Zero leaves only the
// per-stage timeouts in effect.
func WithComputeTimeout(d time.Duration) Option {
	return func(u *AnalysisUsecase) { u.computeTimeout = d }
}

// AnalysisUsecase drives one analysis request from query to rows.
type AnalysisUsecase struct {
	resolver       *Resolver
	freshness      *Freshness
	store          AnalysisRepository
	runner         StageRunner
	locker         KeyLocker
	metrics        Recorder
	computeTimeout time.Duration

	// group deduplicates concurrent compute phases for the same key.
	group singleflight.Group
}

// NewAnalysisUsecase wires the pipeline over its store, directory and stage runner.
func NewAnalysisUsecase(dir DirectoryRepository, store AnalysisRepository, runner StageRunner, opts ...Option) *AnalysisUsecase {
	u := &AnalysisUsecase{
		resolver:  NewResolver(dir),
		freshness: NewFreshness(store),
		store:     store,
		runner:    runner,
		metrics:   noopRecorder{},
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// computeResult is the shared product of one compute phase.
type computeResult struct {
	diagnostics []string
	invocations []entity.StageInvocation
	err         error
}

// Analyze resolves query, recomputes when the stored data is missing or a refresh
// is forced, and returns the most recent rows. It always returns an Outcome;
// failures are reported through Outcome.Err and Outcome.Diagnostics.
func (u *AnalysisUsecase) Analyze(ctx context.Context, query string, forceRefresh bool) (out entity.Outcome) {
	out = entity.Outcome{RunID: uuid.NewString(), Query: query}
	defer func() {
		result := "ok"
		if out.Err != nil {
			result = domain.Kind(out.Err)
		}
		u.metrics.RecordAnalyze(result)
		slog.Info("analysis finished",
			"run_id", out.RunID,
			"query", query,
			"key", out.ResolvedKey.String(),
			"rows", len(out.Rows),
			"invocations", len(out.Invocations),
			"result", result,
		)
	}()

	// Resolving
	cands, err := u.resolver.Resolve(ctx, query)
	if err != nil {
		slog.Error("failed to resolve query", "run_id", out.RunID, "query", query, "error", err)
		out.Err = err
		return out
	}
	best, ok := entity.Best(cands)
	if !ok {
		out.Err = fmt.Errorf("%w: %q", domain.ErrNotFound, query)
		u.suggest(ctx, &out)
		return out
	}
	out.ResolvedKey = best.Key
	out.ResolvedName = best.DisplayName
	out.Match = best.Match
	u.metrics.RecordResolution(best.Match.String())
	if best.Match != entity.MatchExactKey {
		out.Note(fmt.Sprintf("resolved %q to %s (%s, %s)", query, best.Key, best.DisplayName, best.Match))
	}

	// CheckingFreshness
	fresh, err := u.freshness.IsFresh(ctx, best.Key, forceRefresh)
	if err != nil {
		slog.Error("failed to check freshness", "run_id", out.RunID, "key", best.Key.String(), "error", err)
		out.Err = err
		return out
	}

	// ComputingSeries / ComputingIndicators
	if !fresh {
		res := u.compute(ctx, best.Key)
		out.Diagnostics = append(out.Diagnostics, res.diagnostics...)
		out.Invocations = append(out.Invocations, res.invocations...)
		if res.err != nil {
			out.Err = res.err
		}
	}

	// Reading
	rows, err := u.store.Latest(ctx, best.Key, entity.RowLimit)
	if err != nil {
		slog.Error("failed to read analysis rows", "run_id", out.RunID, "key", best.Key.String(), "error", err)
		out.Rows = nil
		out.Err = fmt.Errorf("read analysis rows for %s: %w: %w", best.Key, domain.ErrStoreUnavailable, err)
		return out
	}
	out.Rows = rows
	if len(rows) == 0 && out.Err == nil {
		out.Err = domain.ErrNoAnalysisData
	}
	return out
}

// suggest fills Outcome.Suggestions. A failure is logged and otherwise ignored.
func (u *AnalysisUsecase) suggest(ctx context.Context, out *entity.Outcome) {
	sugg, err := u.resolver.Suggest(ctx, out.Query)
	if err != nil {
		slog.Warn("failed to collect suggestions", "run_id", out.RunID, "query", out.Query, "error", err)
		return
	}
	out.Suggestions = sugg
}

// compute runs the stages for key once per concurrent burst of callers.
// The shared run is detached from any single caller's ctx; each caller only
// stops waiting when its own ctx ends.
func (u *AnalysisUsecase) compute(ctx context.Context, key entity.Key) computeResult {
	ch := u.group.DoChan(key.String(), func() (any, error) {
		runCtx := context.WithoutCancel(ctx)
		if u.computeTimeout > 0 {
			var cancel context.CancelFunc
			runCtx, cancel = context.WithTimeout(runCtx, u.computeTimeout)
			defer cancel()
		}
		return u.runStages(runCtx, key), nil
	})

	select {
	case <-ctx.Done():
		slog.Warn("stopped waiting for computation", "key", key.String(), "error", ctx.Err())
		err := fmt.Errorf("wait for computation of %s: %w", key, ctx.Err())
		return computeResult{diagnostics: []string{err.Error()}, err: err}
	case r := <-ch:
		res := r.Val.(computeResult)
		if r.Shared {
			slog.Debug("joined in-flight computation", "key", key.String())
		}
		// 共有された結果のスライスを呼び出し側ごとに複製する
		return computeResult{
			diagnostics: slices.Clone(res.diagnostics),
			invocations: slices.Clone(res.invocations),
			err:         res.err,
		}
	}
}

func (u *AnalysisUsecase) runStages(ctx context.Context, key entity.Key) computeResult {
	var res computeResult

	if u.locker != nil {
		unlock, acquired, err := u.locker.TryLock(ctx, key)
		switch {
		case err != nil:
			slog.Warn("key lock unavailable, computing without it", "key", key.String(), "error", err)
		case !acquired:
			res.diagnostics = append(res.diagnostics,
				fmt.Sprintf("computation for %s already in progress elsewhere; showing current data", key))
			return res
		default:
			defer func() {
				if err := unlock(context.WithoutCancel(ctx)); err != nil {
					slog.Warn("failed to release key lock", "key", key.String(), "error", err)
				}
			}()
		}
	}
	defer u.invalidate(ctx, key)

	series := u.runner.RunStage(ctx, entity.StageSeriesIngestion, key)
	res.invocations = append(res.invocations, series)
	if f := domain.NewStageFailure(series); f != nil {
		res.diagnostics = append(res.diagnostics,
			f.Error(),
			fmt.Sprintf("%s skipped: %s did not succeed", entity.StageIndicatorDerivation, entity.StageSeriesIngestion),
		)
		res.err = f
		return res
	}

	indicators := u.runner.RunStage(ctx, entity.StageIndicatorDerivation, key)
	res.invocations = append(res.invocations, indicators)
	if f := domain.NewStageFailure(indicators); f != nil {
		res.diagnostics = append(res.diagnostics, f.Error())
		res.err = f
	}
	return res
}

// invalidate drops cached reads for key when the store supports it.
func (u *AnalysisUsecase) invalidate(ctx context.Context, key entity.Key) {
	inv, ok := u.store.(Invalidator)
	if !ok {
		return
	}
	if err := inv.Invalidate(context.WithoutCancel(ctx), key); err != nil && !errors.Is(err, context.Canceled) {
		slog.Warn("failed to invalidate analysis cache", "key", key.String(), "error", err)
	}
}
