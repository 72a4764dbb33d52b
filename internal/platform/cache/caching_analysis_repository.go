package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"stock_analysis/internal/feature/analysis/domain/entity"
	"stock_analysis/internal/feature/analysis/usecase"
)

// CachingAnalysisRepository はAnalysisRepositoryの読み取りをRedisにキャッシュします。
// 分析結果は日次で更新されるため、既定のTTLは次の午前8時（韓国時間）までです。
type CachingAnalysisRepository struct {
	inner     usecase.AnalysisRepository
	rdb       *redis.Client
	ttl       func() time.Duration
	namespace string
}

var (
	_ usecase.AnalysisRepository = (*CachingAnalysisRepository)(nil)
	_ usecase.Invalidator        = (*CachingAnalysisRepository)(nil)
)

// NewCachingAnalysisRepository はAnalysisRepositoryをRedisキャッシュで包みます。
// ttlがnilならTimeUntilNext8AM、namespaceが空なら"analysis"を使います。
func NewCachingAnalysisRepository(rdb *redis.Client, ttl func() time.Duration, inner usecase.AnalysisRepository, namespace string) *CachingAnalysisRepository {
	if ttl == nil {
		ttl = TimeUntilNext8AM
	}
	if namespace == "" {
		namespace = "analysis"
	}
	return &CachingAnalysisRepository{inner: inner, rdb: rdb, ttl: ttl, namespace: namespace}
}

// Count は保存済みの行数を返します。
func (c *CachingAnalysisRepository) Count(ctx context.Context, key entity.Key) (int64, error) {
	if c.rdb == nil {
		return c.inner.Count(ctx, key)
	}
	ck := c.prefix(key) + "count"
	if n, ok := getJSON[int64](ctx, c.rdb, ck); ok {
		return n, nil
	}
	n, err := c.inner.Count(ctx, key)
	if err != nil {
		return 0, err
	}
	// 0件はキャッシュしない。直後の計算で行が書き込まれるため。
	if n > 0 {
		setJSON(ctx, c.rdb, ck, n, c.ttl())
	}
	return n, nil
}

// Latest は新しい順に最大limit件の行を返します。
func (c *CachingAnalysisRepository) Latest(ctx context.Context, key entity.Key, limit int) ([]entity.AnalysisRow, error) {
	if c.rdb == nil {
		return c.inner.Latest(ctx, key, limit)
	}
	ck := fmt.Sprintf("%slatest:%d", c.prefix(key), limit)
	if rows, ok := getJSON[[]entity.AnalysisRow](ctx, c.rdb, ck); ok {
		return rows, nil
	}
	rows, err := c.inner.Latest(ctx, key, limit)
	if err != nil {
		return nil, err
	}
	if len(rows) > 0 {
		setJSON(ctx, c.rdb, ck, rows, c.ttl())
	}
	return rows, nil
}

// Invalidate はkeyに関するキャッシュをすべて削除します。
func (c *CachingAnalysisRepository) Invalidate(ctx context.Context, key entity.Key) error {
	if c.rdb == nil {
		return nil
	}
	if err := deleteByPattern(ctx, c.rdb, c.prefix(key)+"*"); err != nil {
		return fmt.Errorf("invalidate analysis cache for %s: %w", key, err)
	}
	return nil
}

func (c *CachingAnalysisRepository) prefix(key entity.Key) string {
	return fmt.Sprintf("%s:%s:", c.namespace, safe(key.String()))
}
