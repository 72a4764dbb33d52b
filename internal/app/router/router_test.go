package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"

	analysisentity "stock_analysis/internal/feature/analysis/domain/entity"
	analysishandler "stock_analysis/internal/feature/analysis/transport/handler"
	candlesentity "stock_analysis/internal/feature/candles/domain/entity"
	candleshandler "stock_analysis/internal/feature/candles/transport/handler"
	candlesusecase "stock_analysis/internal/feature/candles/usecase"
	symbolentity "stock_analysis/internal/feature/symbollist/domain/entity"
	symbollisthandler "stock_analysis/internal/feature/symbollist/transport/handler"
	"stock_analysis/internal/platform/http/handler"
	"stock_analysis/internal/platform/metrics"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type stubAnalysis struct{}

func (stubAnalysis) Analyze(ctx context.Context, query string, forceRefresh bool) analysisentity.Outcome {
	return analysisentity.Outcome{RunID: "run-1", Query: query}
}

type stubCandleRepo struct{}

func (stubCandleRepo) Find(ctx context.Context, code, interval string, outputsize int) ([]candlesentity.Candle, error) {
	return []candlesentity.Candle{}, nil
}

func (stubCandleRepo) UpsertBatch(ctx context.Context, candles []candlesentity.Candle) error {
	return nil
}

type stubSymbols struct{}

func (stubSymbols) ListActiveSymbols(ctx context.Context) ([]symbolentity.Symbol, error) {
	return []symbolentity.Symbol{}, nil
}

func (stubSymbols) Search(ctx context.Context, query string) ([]analysisentity.Candidate, error) {
	return []analysisentity.Candidate{}, nil
}

func newTestRouter(withMetrics bool) *gin.Engine {
	h := Handlers{
		Analysis: analysishandler.NewAnalysisHandler(stubAnalysis{}),
		Candles:  candleshandler.NewCandlesHandler(candlesusecase.NewCandlesUsecase(stubCandleRepo{})),
		Symbols:  symbollisthandler.NewSymbolHandler(stubSymbols{}),
		Health:   handler.NewHealthHandler(nil, 0),
	}
	if !withMetrics {
		return NewRouter(h, nil, nil)
	}
	reg := prometheus.NewRegistry()
	return NewRouter(h, metrics.New(reg), reg)
}

func TestNewRouter_Routes(t *testing.T) {
	t.Parallel()

	router := newTestRouter(true)

	tests := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/healthz", http.StatusOK},
		{http.MethodHead, "/healthz", http.StatusOK},
		{http.MethodGet, "/analysis?q=005930", http.StatusOK},
		{http.MethodGet, "/analysis", http.StatusBadRequest},
		{http.MethodGet, "/symbols", http.StatusOK},
		{http.MethodGet, "/symbols/search?q=samsung", http.StatusOK},
		{http.MethodGet, "/candles/005930", http.StatusOK},
		{http.MethodGet, "/candles/abc", http.StatusBadRequest},
		{http.MethodGet, "/login", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestNewRouter_Metrics(t *testing.T) {
	t.Parallel()

	router := newTestRouter(true)
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/symbols", nil))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), `stock_analysis_http_requests_total{method="GET",route="/symbols",status="200"} 1`), w.Body.String())
}

func TestNewRouter_WithoutMetrics(t *testing.T) {
	t.Parallel()

	router := newTestRouter(false)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}
