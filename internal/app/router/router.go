// Package router はHTTPルーティングを定義します。
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	analysishandler "stock_analysis/internal/feature/analysis/transport/handler"
	candleshandler "stock_analysis/internal/feature/candles/transport/handler"
	symbollisthandler "stock_analysis/internal/feature/symbollist/transport/handler"
	"stock_analysis/internal/platform/http/handler"
	"stock_analysis/internal/platform/metrics"
)

// Handlers はルーターに登録するハンドラー群です。
type Handlers struct {
	Analysis *analysishandler.AnalysisHandler
	Candles  *candleshandler.CandlesHandler
	Symbols  *symbollisthandler.SymbolHandler
	Health   *handler.HealthHandler
}

// NewRouter はルートテーブルを構築します。
// recorderがnilの場合はHTTPメトリクスを記録せず、gathererがnilの場合は /metrics を公開しません。
func NewRouter(h Handlers, recorder *metrics.Recorder, gatherer prometheus.Gatherer) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if recorder != nil {
		r.Use(recorder.GinMiddleware())
	}

	// 導通確認用
	r.GET("/healthz", h.Health.Health)
	r.HEAD("/healthz", h.Health.Health)
	if gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	// 銘柄名またはコードで分析結果を取得
	r.GET("/analysis", h.Analysis.Analyze)

	r.GET("/symbols", h.Symbols.List)
	r.GET("/symbols/search", h.Symbols.Search)
	r.GET("/candles/:code", h.Candles.GetCandlesHandler)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
	return r
}
