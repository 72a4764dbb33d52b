// Package usecase implements the business logic for symbol-related operations.
package usecase

import (
	"context"

	analysisentity "stock_analysis/internal/feature/analysis/domain/entity"
	"stock_analysis/internal/feature/symbollist/domain/entity"
)

// SymbolRepository abstracts the persistence layer for the instrument directory.
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type SymbolRepository interface {
	ListActive(ctx context.Context) ([]entity.Symbol, error)
	ListActiveCodes(ctx context.Context) ([]string, error)
}

// CandidateResolver maps a free-form query to ranked instrument candidates.
type CandidateResolver interface {
	Resolve(ctx context.Context, query string) ([]analysisentity.Candidate, error)
}

// SymbolUsecase provides business logic for symbol operations.
type SymbolUsecase struct {
	repo     SymbolRepository
	resolver CandidateResolver
}

// NewSymbolUsecase creates a new SymbolUsecase with the given repository and resolver.
func NewSymbolUsecase(r SymbolRepository, resolver CandidateResolver) *SymbolUsecase {
	return &SymbolUsecase{repo: r, resolver: resolver}
}

// ListActiveSymbols returns all active symbols from the repository.
func (u *SymbolUsecase) ListActiveSymbols(ctx context.Context) ([]entity.Symbol, error) {
	return u.repo.ListActive(ctx)
}

// Search returns the ranked candidates for query, best match first.
// The result is empty (never nil) when nothing matches.
func (u *SymbolUsecase) Search(ctx context.Context, query string) ([]analysisentity.Candidate, error) {
	cands, err := u.resolver.Resolve(ctx, query)
	if err != nil {
		return nil, err
	}
	if cands == nil {
		cands = []analysisentity.Candidate{}
	}
	return cands, nil
}
