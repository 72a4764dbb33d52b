// Package di はアプリケーションコンポーネントを組み立てるファクトリを提供します。
package di

import (
	"time"

	"stock_analysis/internal/feature/candles/usecase"
	"stock_analysis/internal/platform/externalapi/twelvedata"
	platformhttp "stock_analysis/internal/platform/http"
	"stock_analysis/internal/shared/ratelimiter"
)

// NewMarket はHTTPクライアント付きのTwelveDataMarketを生成します。
func NewMarket(cfg twelvedata.Config) *twelvedata.TwelveDataMarket {
	return twelvedata.NewTwelveDataMarket(cfg, platformhttp.NewHTTPClient(cfg.Timeout))
}

// NewIngestUsecase はmarket APIのレート制限を適用したIngestUsecaseを生成します。
// cfg.RateLimitは1分あたりのリクエスト数です。
func NewIngestUsecase(cfg twelvedata.Config, market usecase.MarketRepository, candles usecase.CandleRepository) *usecase.IngestUsecase {
	limiter := ratelimiter.NewRateLimiter(cfg.RateLimit, time.Minute)
	return usecase.NewIngestUsecase(market, candles, limiter)
}
