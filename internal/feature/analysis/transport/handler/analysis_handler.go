// Package handler はanalysisフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"stock_analysis/internal/feature/analysis/domain"
	"stock_analysis/internal/feature/analysis/domain/entity"
	"stock_analysis/internal/feature/analysis/transport/http/dto"
)

// AnalysisUsecase は分析パイプラインのユースケースインターフェースです。
type AnalysisUsecase interface {
	Analyze(ctx context.Context, query string, forceRefresh bool) entity.Outcome
}

// AnalysisHandler は分析リクエストを処理します。
type AnalysisHandler struct {
	uc AnalysisUsecase
}

// NewAnalysisHandler はAnalysisHandlerの新しいインスタンスを生成します。
func NewAnalysisHandler(uc AnalysisUsecase) *AnalysisHandler {
	return &AnalysisHandler{uc: uc}
}

// Analyze は銘柄名またはコードを受け取り、直近の指標データと診断メッセージを返します。
//
// エンドポイント例:
// GET /analysis?q=005930&refresh=1
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "query parameter q is required"})
		return
	}
	refresh := parseFlag(c.Query("refresh"))

	out := h.uc.Analyze(c.Request.Context(), q, refresh)

	c.JSON(statusFor(out.Err), toResponse(out))
}

// parseFlag は"1"や"true"などを真として解釈します。
func parseFlag(s string) bool {
	b, err := strconv.ParseBool(s)
	return err == nil && b
}

// statusFor はOutcomeのエラーをHTTPステータスに変換します。
// ステージ失敗やデータなしは診断を表示するため200で返します。
func statusFor(err error) int {
	switch domain.Kind(err) {
	case "not_found":
		return http.StatusNotFound
	case "store_unavailable":
		return http.StatusServiceUnavailable
	case "internal":
		return http.StatusInternalServerError
	default:
		return http.StatusOK
	}
}

func toResponse(out entity.Outcome) dto.AnalysisResponse {
	res := dto.AnalysisResponse{
		RunID:       out.RunID,
		Query:       out.Query,
		Rows:        make([]dto.AnalysisRow, 0, len(out.Rows)),
		Diagnostics: out.Diagnostics,
	}
	if res.Diagnostics == nil {
		res.Diagnostics = []string{}
	}
	if out.Resolved() {
		res.Key = out.ResolvedKey.String()
		res.Name = out.ResolvedName
		res.Match = out.Match.String()
	}
	for _, r := range out.Rows {
		res.Rows = append(res.Rows, dto.AnalysisRow{
			Date:          openapi_types.Date{Time: r.AsOf},
			Close:         r.Close,
			SMA20:         r.SMA20,
			RSI14:         r.RSI14,
			BBL20:         r.BBLower20,
			BBM20:         r.BBMiddle20,
			BBU20:         r.BBUpper20,
			MACD:          r.MACD,
			MACDHistogram: r.MACDHistogram,
			MACDSignal:    r.MACDSignal,
		})
	}
	for _, s := range out.Suggestions {
		res.Suggestions = append(res.Suggestions, dto.Candidate{
			Key:   s.Key.String(),
			Name:  s.DisplayName,
			Match: s.Match.String(),
		})
	}
	if out.Err != nil {
		res.Error = out.Err.Error()
		res.ErrorKind = domain.Kind(out.Err)
	}
	return res
}
