// Package metrics はPrometheusによるメトリクス記録を提供します。
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"stock_analysis/internal/feature/analysis/usecase"
	"stock_analysis/internal/platform/stagerunner"
)

const namespace = "stock_analysis"

// Recorder はオーケストレータ・ステージ実行・HTTPのメトリクスを記録します。
type Recorder struct {
	analyzeTotal     *prometheus.CounterVec
	resolutionsTotal *prometheus.CounterVec
	stageTotal       *prometheus.CounterVec
	stageDuration    *prometheus.HistogramVec
	httpTotal        *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
}

var (
	_ usecase.Recorder     = (*Recorder)(nil)
	_ stagerunner.Observer = (*Recorder)(nil)
)

// New はregにメトリクスを登録したRecorderを生成します。
// 同じregに2回登録するとpanicするため、プロセスごとに1つだけ生成してください。
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		analyzeTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyze_total",
			Help:      "Analyze requests by outcome (ok or error kind).",
		}, []string{"result"}),
		resolutionsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolutions_total",
			Help:      "Successful query resolutions by match tier.",
		}, []string{"match"}),
		stageTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_invocations_total",
			Help:      "External stage invocations by stage and final status.",
		}, []string{"stage", "status"}),
		stageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Wall time of external stage invocations.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"stage"}),
		httpTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
}

// RecordAnalyze はAnalyze呼び出し1回の結果を記録します。
func (r *Recorder) RecordAnalyze(result string) {
	r.analyzeTotal.WithLabelValues(result).Inc()
}

// RecordResolution は解決に使われた一致ティアを記録します。
func (r *Recorder) RecordResolution(match string) {
	r.resolutionsTotal.WithLabelValues(match).Inc()
}

// ObserveStage はステージ実行1回の結果と所要時間を記録します。
func (r *Recorder) ObserveStage(stage, status string, elapsed time.Duration) {
	r.stageTotal.WithLabelValues(stage, status).Inc()
	r.stageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
}

// GinMiddleware はリクエストごとのメトリクスを記録するミドルウェアです。
// ラベルにはテンプレート化されたルート（/candles/:code など）を使います。
func (r *Recorder) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		r.httpTotal.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		r.httpDuration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}
