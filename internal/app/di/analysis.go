package di

import (
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	analysisadapters "stock_analysis/internal/feature/analysis/adapters"
	"stock_analysis/internal/feature/analysis/usecase"
	symbollistadapters "stock_analysis/internal/feature/symbollist/adapters"
	"stock_analysis/internal/platform/cache"
	"stock_analysis/internal/platform/inflight"
)

// NewAnalysisStore はanalysis storeを生成します。rdbがnilの場合はキャッシュなしで動作します。
func NewAnalysisStore(db *gorm.DB, rdb *redis.Client) *cache.CachingAnalysisRepository {
	return cache.NewCachingAnalysisRepository(rdb, nil, analysisadapters.NewAnalysisRepository(db), "analysis")
}

// NewAnalysisUsecase はオーケストレータを組み立てます。
// rdbが設定されている場合は、プロセス間の計算ロックも有効にします。
// lockTTLは1回の計算フェーズ全体の上限も兼ねます。ステージのタイムアウト合計より長くしてください。
func NewAnalysisUsecase(db *gorm.DB, rdb *redis.Client, runner usecase.StageRunner, rec usecase.Recorder, lockTTL time.Duration) *usecase.AnalysisUsecase {
	opts := []usecase.Option{usecase.WithRecorder(rec), usecase.WithComputeTimeout(lockTTL)}
	if rdb != nil {
		opts = append(opts, usecase.WithKeyLocker(inflight.NewRedisLocker(rdb, lockTTL)))
	}
	return usecase.NewAnalysisUsecase(
		symbollistadapters.NewSymbolRepository(db),
		NewAnalysisStore(db, rdb),
		runner,
		opts...,
	)
}
