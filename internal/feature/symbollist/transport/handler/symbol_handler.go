package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"stock_analysis/internal/feature/analysis/domain"
	analysisentity "stock_analysis/internal/feature/analysis/domain/entity"
	"stock_analysis/internal/feature/symbollist/domain/entity"
	"stock_analysis/internal/feature/symbollist/transport/http/dto"
)

// SymbolUsecase は銘柄情報に関するユースケースのインターフェースです。
// Following Go convention: interfaces are defined by the consumer (handler), not the provider (usecase).
type SymbolUsecase interface {
	ListActiveSymbols(ctx context.Context) ([]entity.Symbol, error)
	Search(ctx context.Context, query string) ([]analysisentity.Candidate, error)
}

// SymbolHandler は銘柄情報に関するHTTPリクエストを処理します。
type SymbolHandler struct {
	uc SymbolUsecase
}

// NewSymbolHandler は新しい SymbolHandler を作成します。
func NewSymbolHandler(uc SymbolUsecase) *SymbolHandler {
	return &SymbolHandler{uc: uc}
}

// List は有効な銘柄の一覧を取得するAPIです。
// Usecaseでエラーが発生した場合は500 Internal Server Errorを返します。
func (h *SymbolHandler) List(c *gin.Context) {
	symbols, err := h.uc.ListActiveSymbols(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	out := make([]dto.SymbolItem, 0, len(symbols))
	for _, s := range symbols {
		out = append(out, dto.SymbolItem{Code: s.Code, Name: s.Name})
	}
	c.JSON(http.StatusOK, out)
}

// Search は銘柄名またはコードで検索し、一致度の高い順に候補を返します。
//
// エンドポイント例:
// GET /symbols/search?q=삼성
func (h *SymbolHandler) Search(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter q is required"})
		return
	}
	cands, err := h.uc.Search(c.Request.Context(), q)
	if err != nil {
		slog.Error("symbol search failed", "query", q, "error", err)
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrStoreUnavailable) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	out := make([]dto.SearchItem, 0, len(cands))
	for _, cand := range cands {
		out = append(out, dto.SearchItem{
			Code:  cand.Key.String(),
			Name:  cand.DisplayName,
			Match: cand.Match.String(),
		})
	}
	c.JSON(http.StatusOK, out)
}
