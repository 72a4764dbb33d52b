package usecase_test

import (
	"context"
	"sync"
	"sync/atomic"

	"stock_analysis/internal/feature/analysis/domain/entity"
)

// mockDirectory はDirectoryRepositoryインターフェースのモック実装です。
type mockDirectory struct {
	SearchByNameFunc func(ctx context.Context, query string, tier entity.MatchKind, limit int) ([]entity.Candidate, error)
	SuggestFunc      func(ctx context.Context, tokens []string, codePrefix string, limit int) ([]entity.Candidate, error)

	searchCalls  atomic.Int32
	suggestCalls atomic.Int32
}

func (m *mockDirectory) SearchByName(ctx context.Context, query string, tier entity.MatchKind, limit int) ([]entity.Candidate, error) {
	m.searchCalls.Add(1)
	if m.SearchByNameFunc != nil {
		return m.SearchByNameFunc(ctx, query, tier, limit)
	}
	return nil, nil
}

func (m *mockDirectory) Suggest(ctx context.Context, tokens []string, codePrefix string, limit int) ([]entity.Candidate, error) {
	m.suggestCalls.Add(1)
	if m.SuggestFunc != nil {
		return m.SuggestFunc(ctx, tokens, codePrefix, limit)
	}
	return nil, nil
}

// mockStore はAnalysisRepositoryインターフェースのモック実装です。
type mockStore struct {
	CountFunc  func(ctx context.Context, key entity.Key) (int64, error)
	LatestFunc func(ctx context.Context, key entity.Key, limit int) ([]entity.AnalysisRow, error)

	countCalls atomic.Int32
}

func (m *mockStore) Count(ctx context.Context, key entity.Key) (int64, error) {
	m.countCalls.Add(1)
	if m.CountFunc != nil {
		return m.CountFunc(ctx, key)
	}
	return 0, nil
}

func (m *mockStore) Latest(ctx context.Context, key entity.Key, limit int) ([]entity.AnalysisRow, error) {
	if m.LatestFunc != nil {
		return m.LatestFunc(ctx, key, limit)
	}
	return nil, nil
}

// mockCachingStore はInvalidatorも実装するストアのモックです。
type mockCachingStore struct {
	mockStore
	invalidated atomic.Int32
}

func (m *mockCachingStore) Invalidate(ctx context.Context, key entity.Key) error {
	m.invalidated.Add(1)
	return nil
}

// mockRunner はStageRunnerインターフェースのモック実装で、呼び出されたステージ名を記録します。
type mockRunner struct {
	RunStageFunc func(ctx context.Context, name string, key entity.Key) entity.StageInvocation

	mu     sync.Mutex
	stages []string
}

func (m *mockRunner) RunStage(ctx context.Context, name string, key entity.Key) entity.StageInvocation {
	m.mu.Lock()
	m.stages = append(m.stages, name)
	m.mu.Unlock()
	if m.RunStageFunc != nil {
		return m.RunStageFunc(ctx, name, key)
	}
	return entity.StageInvocation{Stage: name, Key: key, Status: entity.StageSucceeded}
}

func (m *mockRunner) Stages() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.stages...)
}

// mockLocker はKeyLockerインターフェースのモック実装です。
type mockLocker struct {
	acquired bool
	err      error
	released atomic.Int32
}

func (m *mockLocker) TryLock(ctx context.Context, key entity.Key) (func(context.Context) error, bool, error) {
	if m.err != nil || !m.acquired {
		return nil, false, m.err
	}
	return func(context.Context) error {
		m.released.Add(1)
		return nil
	}, true, nil
}

// mockRecorder はRecorderインターフェースのモック実装です。
type mockRecorder struct {
	mu          sync.Mutex
	results     []string
	resolutions []string
}

func (m *mockRecorder) RecordAnalyze(result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = append(m.results, result)
}

func (m *mockRecorder) RecordResolution(match string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resolutions = append(m.resolutions, match)
}

func ptr(v float64) *float64 { return &v }

// makeRows はkeyについて新しい順にn件の行を生成します。
func makeRows(key entity.Key, n int) []entity.AnalysisRow {
	rows := make([]entity.AnalysisRow, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, entity.AnalysisRow{
			Key:   key,
			Close: ptr(70000 + float64(i)),
			RSI14: ptr(50),
		})
	}
	return rows
}
