package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock_analysis/internal/feature/analysis/domain"
	analysisentity "stock_analysis/internal/feature/analysis/domain/entity"
	analysisusecase "stock_analysis/internal/feature/analysis/usecase"
	"stock_analysis/internal/feature/symbollist/domain/entity"
	"stock_analysis/internal/feature/symbollist/usecase"
)

// mockSymbolRepository はSymbolRepositoryインターフェースのモック実装です。
type mockSymbolRepository struct {
	ListActiveFunc func(ctx context.Context) ([]entity.Symbol, error)
}

// ListActive はモックのListActive関数を呼び出します。
func (m *mockSymbolRepository) ListActive(ctx context.Context) ([]entity.Symbol, error) {
	if m.ListActiveFunc != nil {
		return m.ListActiveFunc(ctx)
	}
	return nil, nil
}

func (m *mockSymbolRepository) ListActiveCodes(ctx context.Context) ([]string, error) {
	return nil, nil
}

// mockResolver はCandidateResolverインターフェースのモック実装です。
type mockResolver struct {
	ResolveFunc func(ctx context.Context, query string) ([]analysisentity.Candidate, error)
}

func (m *mockResolver) Resolve(ctx context.Context, query string) ([]analysisentity.Candidate, error) {
	return m.ResolveFunc(ctx, query)
}

// TestNewSymbolUsecase はNewSymbolUsecaseコンストラクタが正しくインスタンスを生成することを検証します。
func TestNewSymbolUsecase(t *testing.T) {
	t.Parallel()

	uc := usecase.NewSymbolUsecase(&mockSymbolRepository{}, &mockResolver{})

	assert.NotNil(t, uc, "usecase should not be nil")
}

// TestSymbolUsecase_ListActiveSymbols はListActiveSymbolsメソッドの各種シナリオをテーブル駆動テストで検証します。
func TestSymbolUsecase_ListActiveSymbols(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name            string
		mockListActive  func(ctx context.Context) ([]entity.Symbol, error)
		expectedSymbols []entity.Symbol
		wantErr         bool
		errMsg          string
	}{
		{
			name: "success: returns list of active symbols",
			mockListActive: func(ctx context.Context) ([]entity.Symbol, error) {
				return []entity.Symbol{
					{ID: 1, Code: "005930", Name: "삼성전자", Market: "KOSPI", IsActive: true, SortKey: 1},
					{ID: 2, Code: "000660", Name: "SK하이닉스", Market: "KOSPI", IsActive: true, SortKey: 2},
				}, nil
			},
			expectedSymbols: []entity.Symbol{
				{ID: 1, Code: "005930", Name: "삼성전자", Market: "KOSPI", IsActive: true, SortKey: 1},
				{ID: 2, Code: "000660", Name: "SK하이닉스", Market: "KOSPI", IsActive: true, SortKey: 2},
			},
		},
		{
			name: "success: returns empty list when no active symbols",
			mockListActive: func(ctx context.Context) ([]entity.Symbol, error) {
				return []entity.Symbol{}, nil
			},
			expectedSymbols: []entity.Symbol{},
		},
		{
			name: "failure: repository returns error",
			mockListActive: func(ctx context.Context) ([]entity.Symbol, error) {
				return nil, errors.New("database connection failed")
			},
			wantErr: true,
			errMsg:  "database connection failed",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			uc := usecase.NewSymbolUsecase(&mockSymbolRepository{ListActiveFunc: tt.mockListActive}, &mockResolver{})

			symbols, err := uc.ListActiveSymbols(context.Background())

			if tt.wantErr {
				assert.EqualError(t, err, tt.errMsg)
				assert.Nil(t, symbols)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expectedSymbols, symbols)
			}
		})
	}
}

// TestSymbolUsecase_Search はSearchがリゾルバーの結果をそのまま返し、nilを空スライスに変換することを検証します。
func TestSymbolUsecase_Search(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		resolve func(ctx context.Context, query string) ([]analysisentity.Candidate, error)
		want    []analysisentity.Candidate
		wantErr error
	}{
		{
			name: "success: ranked candidates",
			resolve: func(ctx context.Context, query string) ([]analysisentity.Candidate, error) {
				return []analysisentity.Candidate{
					{Key: "005930", DisplayName: "삼성전자", Match: analysisentity.MatchExactName},
					{Key: "005935", DisplayName: "삼성전자우", Match: analysisentity.MatchPrefix},
				}, nil
			},
			want: []analysisentity.Candidate{
				{Key: "005930", DisplayName: "삼성전자", Match: analysisentity.MatchExactName},
				{Key: "005935", DisplayName: "삼성전자우", Match: analysisentity.MatchPrefix},
			},
		},
		{
			name: "success: nil becomes empty",
			resolve: func(ctx context.Context, query string) ([]analysisentity.Candidate, error) {
				return nil, nil
			},
			want: []analysisentity.Candidate{},
		},
		{
			name: "failure: store unavailable",
			resolve: func(ctx context.Context, query string) ([]analysisentity.Candidate, error) {
				return nil, domain.ErrStoreUnavailable
			},
			wantErr: domain.ErrStoreUnavailable,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			uc := usecase.NewSymbolUsecase(&mockSymbolRepository{}, &mockResolver{ResolveFunc: tt.resolve})

			got, err := uc.Search(context.Background(), "삼성전자")

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestSymbolUsecase_Search_WithResolver は実際のResolverと組み合わせて正規キーがそのまま返ることを検証します。
func TestSymbolUsecase_Search_WithResolver(t *testing.T) {
	t.Parallel()

	var _ usecase.CandidateResolver = (*analysisusecase.Resolver)(nil)
	uc := usecase.NewSymbolUsecase(&mockSymbolRepository{}, analysisusecase.NewResolver(nil))

	got, err := uc.Search(context.Background(), " 005930 ")

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, analysisentity.MatchExactKey, got[0].Match)
}
