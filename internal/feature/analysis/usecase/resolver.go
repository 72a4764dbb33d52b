// Package usecase implements the analysis pipeline: resolving a user query to an
// instrument key, deciding whether stored data can be reused, and running the
// external computation stages when it cannot.
package usecase

import (
	"context"
	"fmt"
	"strings"

	"stock_analysis/internal/feature/analysis/domain"
	"stock_analysis/internal/feature/analysis/domain/entity"
)

// MaxCandidates caps how many candidates a single resolution returns.
const MaxCandidates = 20

// DirectoryRepository abstracts the instrument directory (key / display name table).
// Implementations must bind the query as a parameter and escape LIKE wildcards.
type DirectoryRepository interface {
	// SearchByName returns active instruments whose display name matches query
	// under the given tier, ordered by display name then key.
	SearchByName(ctx context.Context, query string, tier entity.MatchKind, limit int) ([]entity.Candidate, error)
	// Suggest returns instruments whose name contains any of tokens or whose
	// key starts with codePrefix. Either may be empty.
	Suggest(ctx context.Context, tokens []string, codePrefix string, limit int) ([]entity.Candidate, error)
}

// Resolver maps free-form user input to ranked instrument candidates.
type Resolver struct {
	dir DirectoryRepository
	max int
}

// NewResolver creates a Resolver backed by the given directory.
func NewResolver(dir DirectoryRepository) *Resolver {
	return &Resolver{dir: dir, max: MaxCandidates}
}

// Resolve returns candidates for query in rank order.
// A well-formed key short-circuits to a single exact-key candidate without a
// directory lookup. No match yields an empty, non-nil slice.
func (r *Resolver) Resolve(ctx context.Context, query string) ([]entity.Candidate, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return []entity.Candidate{}, nil
	}
	if key, err := entity.ParseKey(q); err == nil {
		return []entity.Candidate{{Key: key, DisplayName: key.String(), Match: entity.MatchExactKey}}, nil
	}

	out := make([]entity.Candidate, 0)
	seen := make(map[entity.Key]struct{})
	for _, tier := range entity.NameTiers {
		remaining := r.max - len(out)
		if remaining <= 0 {
			break
		}
		// 上位ティアの結果は重複として除外されるため、その分を多めに取得する
		cands, err := r.dir.SearchByName(ctx, q, tier, remaining+len(seen))
		if err != nil {
			return nil, fmt.Errorf("search directory (%s): %w: %w", tier, domain.ErrStoreUnavailable, err)
		}
		for _, c := range cands {
			if _, dup := seen[c.Key]; dup {
				continue
			}
			seen[c.Key] = struct{}{}
			c.Match = tier
			out = append(out, c)
			if len(out) >= r.max {
				break
			}
		}
	}
	return out, nil
}

// Suggest runs the broad, low-confidence scan used after a failed resolution.
func (r *Resolver) Suggest(ctx context.Context, query string) ([]entity.Candidate, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return []entity.Candidate{}, nil
	}
	tokens := strings.Fields(q)
	prefix := leadingDigits(q)

	cands, err := r.dir.Suggest(ctx, tokens, prefix, r.max)
	if err != nil {
		return nil, fmt.Errorf("suggest from directory: %w: %w", domain.ErrStoreUnavailable, err)
	}
	out := make([]entity.Candidate, 0, len(cands))
	seen := make(map[entity.Key]struct{}, len(cands))
	for _, c := range cands {
		if _, dup := seen[c.Key]; dup {
			continue
		}
		seen[c.Key] = struct{}{}
		c.Match = entity.MatchSuggestion
		out = append(out, c)
	}
	return out, nil
}

// leadingDigits returns the run of ASCII digits at the start of s, at most 6 long.
func leadingDigits(s string) string {
	end := 0
	for end < len(s) && end < 6 && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	return s[:end]
}
