// Package ratelimiter は外部API呼び出しの頻度を制限します。
package ratelimiter

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiterInterface は、API呼び出しなどの操作の頻度を制限するインターフェースです。
type RateLimiterInterface interface {
	Wait(ctx context.Context) error
}

// RateLimiter は、intervalあたりlimit回までの呼び出しを許可します。
// 上限に達するとトークンが補充されるまで待機します。
type RateLimiter struct {
	lim *rate.Limiter
}

// logThreshold を超えて待機した場合にログを出力します。
const logThreshold = 100 * time.Millisecond

// NewRateLimiter は新しいRateLimiterのインスタンスを生成します。
// limitが0以下の場合は制限しません。
func NewRateLimiter(limit int, interval time.Duration) *RateLimiter {
	if limit <= 0 || interval <= 0 {
		return &RateLimiter{lim: rate.NewLimiter(rate.Inf, 1)}
	}
	every := rate.Every(interval / time.Duration(limit))
	return &RateLimiter{lim: rate.NewLimiter(every, limit)}
}

// Wait は呼び出しが許可されるまで待機します。ctxが終了した場合はそのエラーを返します。
func (rl *RateLimiter) Wait(ctx context.Context) error {
	start := time.Now()
	if err := rl.lim.Wait(ctx); err != nil {
		return err
	}
	if waited := time.Since(start); waited > logThreshold {
		slog.Info("rate limit reached, waited", "wait", waited)
	}
	return nil
}
