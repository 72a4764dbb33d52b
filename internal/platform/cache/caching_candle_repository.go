// Package cache はリポジトリインターフェースのRedisキャッシュ実装を提供します。
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"stock_analysis/internal/feature/candles/domain/entity"
	"stock_analysis/internal/feature/candles/usecase"
)

// CachingCandleRepository はCandleRepositoryにRedisキャッシュを付加するデコレータです。
type CachingCandleRepository struct {
	inner     usecase.CandleRepository
	rdb       *redis.Client
	ttl       func() time.Duration
	namespace string
}

// defaultCandleTTL はttlが未指定または0以下を返した場合の有効期限です。
const defaultCandleTTL = 5 * time.Minute

// FixedTTL は常にdを返すTTL関数です。
func FixedTTL(d time.Duration) func() time.Duration {
	return func() time.Duration { return d }
}

var _ usecase.CandleRepository = (*CachingCandleRepository)(nil)

// NewCachingCandleRepository はCandleRepositoryをRedisキャッシュで包みます。
// ttlは書き込みのたびに評価されます。nilなら5分、namespaceが空なら"candles"を使います。
// rdbがnilの場合はキャッシュしません。
func NewCachingCandleRepository(rdb *redis.Client, ttl func() time.Duration, inner usecase.CandleRepository, namespace string) *CachingCandleRepository {
	if ttl == nil {
		ttl = FixedTTL(defaultCandleTTL)
	}
	if namespace == "" {
		namespace = "candles"
	}
	return &CachingCandleRepository{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
	}
}

// UpsertBatch は書き込み後、影響する銘柄・時間足のキャッシュを削除します。
func (c *CachingCandleRepository) UpsertBatch(ctx context.Context, candles []entity.Candle) error {
	if err := c.inner.UpsertBatch(ctx, candles); err != nil {
		return err
	}
	if c.rdb == nil || len(candles) == 0 {
		return nil
	}

	seen := map[string]struct{}{}
	for _, cd := range candles {
		prefix := c.cacheKeyPrefix(cd.Code, cd.Interval)
		if _, ok := seen[prefix]; ok {
			continue
		}
		seen[prefix] = struct{}{}
		if err := deleteByPattern(ctx, c.rdb, prefix+"*"); err != nil {
			slog.Warn("candle cache invalidation failed", "prefix", prefix, "error", err)
		}
	}
	return nil
}

// Find はキャッシュを確認し、ミスした場合はDBから取得してキャッシュします。
func (c *CachingCandleRepository) Find(ctx context.Context, code, interval string, outputsize int) ([]entity.Candle, error) {
	if c.rdb == nil {
		return c.inner.Find(ctx, code, interval, outputsize)
	}

	key := c.cacheKey(code, interval, outputsize)
	if out, ok := getJSON[[]entity.Candle](ctx, c.rdb, key); ok {
		return out, nil
	}

	out, err := c.inner.Find(ctx, code, interval, outputsize)
	if err != nil {
		return nil, err
	}
	setJSON(ctx, c.rdb, key, out, c.expiry())
	return out, nil
}

func (c *CachingCandleRepository) expiry() time.Duration {
	if d := c.ttl(); d > 0 {
		return d
	}
	return defaultCandleTTL
}

func (c *CachingCandleRepository) cacheKey(code, interval string, outputsize int) string {
	return fmt.Sprintf("%s%d", c.cacheKeyPrefix(code, interval), outputsize)
}

func (c *CachingCandleRepository) cacheKeyPrefix(code, interval string) string {
	return fmt.Sprintf("%s:%s:%s:", c.namespace, safe(code), safe(interval))
}
