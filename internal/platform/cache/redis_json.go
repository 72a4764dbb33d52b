package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// scanCount はSCAN 1回あたりのヒント件数です。
const scanCount = 200

// getJSON はkeyの値をデコードして返します。
// 見つからない場合や壊れたエントリはキャッシュミスとして扱い、壊れたエントリは削除します。
func getJSON[T any](ctx context.Context, rdb *redis.Client, key string) (T, bool) {
	var out T
	b, err := rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("cache get failed", "key", key, "error", err)
		}
		return out, false
	}
	if err := json.Unmarshal(b, &out); err != nil {
		slog.Warn("dropping corrupted cache entry", "key", key, "error", err)
		_ = rdb.Del(ctx, key).Err()
		return out, false
	}
	return out, true
}

// setJSON はvalueをJSONとして保存します（ベストエフォート）。
func setJSON(ctx context.Context, rdb *redis.Client, key string, value any, ttl time.Duration) {
	b, err := json.Marshal(value)
	if err != nil {
		slog.Warn("cache encode failed", "key", key, "error", err)
		return
	}
	if err := rdb.Set(ctx, key, b, ttl).Err(); err != nil {
		slog.Warn("cache set failed", "key", key, "error", err)
	}
}

// deleteByPattern はSCANでpatternに一致するキーをすべて削除します。
func deleteByPattern(ctx context.Context, rdb *redis.Client, pattern string) error {
	var cursor uint64
	for {
		keys, next, err := rdb.Scan(ctx, cursor, pattern, scanCount).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// safe はRedisキーで問題になる文字を置き換えます。
func safe(s string) string {
	return strings.NewReplacer(" ", "_", ":", "_", "*", "_").Replace(s)
}
