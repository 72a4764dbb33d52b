// Package adapters はsymbollistフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"context"
	"fmt"
	"strings"

	analysisentity "stock_analysis/internal/feature/analysis/domain/entity"
	analysisusecase "stock_analysis/internal/feature/analysis/usecase"
	"stock_analysis/internal/feature/symbollist/domain/entity"
	"stock_analysis/internal/feature/symbollist/usecase"

	"gorm.io/gorm"
)

// likeEscape はLIKEパターンのエスケープ文字です。
const likeEscape = `\`

// symbolGorm はSymbolRepositoryとDirectoryRepositoryのgorm実装です。
type symbolGorm struct {
	db *gorm.DB
}

var (
	_ usecase.SymbolRepository              = (*symbolGorm)(nil)
	_ analysisusecase.DirectoryRepository = (*symbolGorm)(nil)
)

// NewSymbolRepository は指定されたDB接続でsymbolGormリポジトリの新しいインスタンスを生成します。
func NewSymbolRepository(db *gorm.DB) *symbolGorm {
	return &symbolGorm{db: db}
}

// ListActive はsort_key順にすべてのアクティブな銘柄を返します。
func (r *symbolGorm) ListActive(ctx context.Context) ([]entity.Symbol, error) {
	var symbols []entity.Symbol
	if err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("sort_key ASC").
		Find(&symbols).Error; err != nil {
		return nil, err
	}
	return symbols, nil
}

// ListActiveCodes はsort_key順にアクティブな銘柄のコードのみを返します。
func (r *symbolGorm) ListActiveCodes(ctx context.Context) ([]string, error) {
	var codes []string
	if err := r.db.WithContext(ctx).
		Model(&entity.Symbol{}).
		Where("is_active = ?", true).
		Order("sort_key ASC").
		Pluck("code", &codes).Error; err != nil {
		return nil, err
	}
	return codes, nil
}

// SearchByName は銘柄名をtierの一致方法で検索し、名前・コード順に返します。
// 比較は大文字小文字を区別せず、ユーザー入力中の%や_はワイルドカードとして扱いません。
func (r *symbolGorm) SearchByName(ctx context.Context, query string, tier analysisentity.MatchKind, limit int) ([]analysisentity.Candidate, error) {
	var cond string
	var arg string
	switch tier {
	case analysisentity.MatchExactName:
		cond, arg = "LOWER(name) = LOWER(?)", query
	case analysisentity.MatchPrefix:
		cond, arg = likeName, escapeLike(query)+"%"
	case analysisentity.MatchSubstring:
		cond, arg = likeName, "%"+escapeLike(query)+"%"
	default:
		return nil, fmt.Errorf("unsupported search tier %s", tier)
	}

	var symbols []entity.Symbol
	q := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Where(cond, arg).
		Order("name ASC").
		Order("code ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&symbols).Error; err != nil {
		return nil, err
	}
	return toCandidates(symbols, tier), nil
}

// Suggest は名前にいずれかのトークンを含む、またはコードがcodePrefixで始まる銘柄を返します。
func (r *symbolGorm) Suggest(ctx context.Context, tokens []string, codePrefix string, limit int) ([]analysisentity.Candidate, error) {
	var clauses []string
	var args []any
	for _, tok := range tokens {
		if tok = strings.TrimSpace(tok); tok == "" {
			continue
		}
		clauses = append(clauses, likeName)
		args = append(args, "%"+escapeLike(tok)+"%")
	}
	if codePrefix != "" {
		clauses = append(clauses, "code LIKE ? ESCAPE '"+likeEscape+"'")
		args = append(args, escapeLike(codePrefix)+"%")
	}
	if len(clauses) == 0 {
		return []analysisentity.Candidate{}, nil
	}

	var symbols []entity.Symbol
	q := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Where("("+strings.Join(clauses, " OR ")+")", args...).
		Order("name ASC").
		Order("code ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&symbols).Error; err != nil {
		return nil, err
	}
	return toCandidates(symbols, analysisentity.MatchSuggestion), nil
}

// likeName は大文字小文字を区別しない名前のLIKE条件です。
const likeName = "LOWER(name) LIKE LOWER(?) ESCAPE '" + likeEscape + "'"

// escapeLike はLIKEのメタ文字(%、_、エスケープ文字自身)をエスケープします。
func escapeLike(s string) string {
	r := strings.NewReplacer(
		likeEscape, likeEscape+likeEscape,
		"%", likeEscape+"%",
		"_", likeEscape+"_",
	)
	return r.Replace(s)
}

func toCandidates(symbols []entity.Symbol, match analysisentity.MatchKind) []analysisentity.Candidate {
	out := make([]analysisentity.Candidate, 0, len(symbols))
	for _, s := range symbols {
		out = append(out, analysisentity.Candidate{
			Key:         analysisentity.Key(s.Code),
			DisplayName: s.Name,
			Match:       match,
		})
	}
	return out
}
