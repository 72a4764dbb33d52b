package usecase

import (
	"context"
	"fmt"

	"stock_analysis/internal/feature/analysis/domain"
	"stock_analysis/internal/feature/analysis/domain/entity"
)

// AnalysisCounter reports how many analysis rows exist for a key.
type AnalysisCounter interface {
	Count(ctx context.Context, key entity.Key) (int64, error)
}

// Freshness decides whether stored analysis rows can be served without recomputation.
type Freshness struct {
	store AnalysisCounter
}

// NewFreshness creates a Freshness evaluator over the given store.
func NewFreshness(store AnalysisCounter) *Freshness {
	return &Freshness{store: store}
}

// IsFresh reports whether at least one row exists for key.
// forceRefresh always yields false and skips the store.
func (f *Freshness) IsFresh(ctx context.Context, key entity.Key, forceRefresh bool) (bool, error) {
	if forceRefresh {
		return false, nil
	}
	n, err := f.store.Count(ctx, key)
	if err != nil {
		return false, fmt.Errorf("count analysis rows for %s: %w: %w", key, domain.ErrStoreUnavailable, err)
	}
	return n > 0, nil
}
