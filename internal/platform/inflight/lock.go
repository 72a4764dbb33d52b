// Package inflight はRedisを使ったキー単位の計算ロックを提供します。
// 複数のサーバープロセスが同じ銘柄のステージを同時に実行しないようにします。
package inflight

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"stock_analysis/internal/feature/analysis/domain/entity"
	"stock_analysis/internal/feature/analysis/usecase"
)

// DefaultTTL はロックの既定の有効期間です。ステージのタイムアウトより長く設定してください。
const DefaultTTL = 10 * time.Minute

// ErrNotHeld はロックが既に失効または他者に取得されている場合に返されます。
var ErrNotHeld = errors.New("lock not held")

// releaseScript はトークンが一致する場合のみキーを削除します。
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker はSET NX PXによるKeyLockerの実装です。
type RedisLocker struct {
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
	newToken  func() string
}

var _ usecase.KeyLocker = (*RedisLocker)(nil)

// NewRedisLocker はRedisLockerを生成します。ttlが0以下ならDefaultTTLを使います。
func NewRedisLocker(rdb *redis.Client, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisLocker{
		rdb:       rdb,
		ttl:       ttl,
		namespace: "inflight",
		newToken:  uuid.NewString,
	}
}

// TryLock はkeyのロック取得を1回だけ試みます。
// 取得できた場合はトークン照合付きで解放するunlock関数を返します。
func (l *RedisLocker) TryLock(ctx context.Context, key entity.Key) (func(context.Context) error, bool, error) {
	lockKey := l.lockKey(key)
	token := l.newToken()

	ok, err := l.rdb.SetNX(ctx, lockKey, token, l.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("acquire %s: %w", lockKey, err)
	}
	if !ok {
		return nil, false, nil
	}

	unlock := func(ctx context.Context) error {
		n, err := releaseScript.Run(ctx, l.rdb, []string{lockKey}, token).Int64()
		if err != nil {
			return fmt.Errorf("release %s: %w", lockKey, err)
		}
		if n == 0 {
			return fmt.Errorf("release %s: %w", lockKey, ErrNotHeld)
		}
		return nil
	}
	return unlock, true, nil
}

func (l *RedisLocker) lockKey(key entity.Key) string {
	return l.namespace + ":" + key.String()
}
