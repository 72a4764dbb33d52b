// Package adapters はanalysisフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"context"
	"time"

	"stock_analysis/internal/feature/analysis/domain/entity"
	"stock_analysis/internal/feature/analysis/usecase"

	"gorm.io/gorm"
)

// analysisGorm はAnalysisRepositoryインターフェースのgorm実装です。
// 行の書き込みはindicator-derivationステージが行うため、ここでは読み取りのみを提供します。
type analysisGorm struct {
	db *gorm.DB
}

var _ usecase.AnalysisRepository = (*analysisGorm)(nil)

// NewAnalysisRepository は指定されたDB接続でanalysisGormリポジトリを生成します。
func NewAnalysisRepository(db *gorm.DB) *analysisGorm {
	return &analysisGorm{db: db}
}

// AnalysisModel はtechnical_analysisテーブルの1行です。
type AnalysisModel struct {
	ID            uint      `gorm:"primaryKey"`
	StockCode     string    `gorm:"column:stock_code;size:6;not null;uniqueIndex:ta_code_date,priority:1"`
	AnalysisDate  time.Time `gorm:"column:analysis_date;type:date;not null;uniqueIndex:ta_code_date,priority:2"`
	ClosePrice    *float64  `gorm:"column:close_price"`
	SMA20         *float64  `gorm:"column:sma_20"`
	RSI14         *float64  `gorm:"column:rsi_14"`
	BBL20         *float64  `gorm:"column:bbl_20"`
	BBM20         *float64  `gorm:"column:bbm_20"`
	BBU20         *float64  `gorm:"column:bbu_20"`
	MACD          *float64  `gorm:"column:macd"`
	MACDHistogram *float64  `gorm:"column:macd_histogram"`
	MACDSignal    *float64  `gorm:"column:macd_signal"`
}

func (AnalysisModel) TableName() string {
	return "technical_analysis"
}

func (m AnalysisModel) toEntity() entity.AnalysisRow {
	return entity.AnalysisRow{
		Key:           entity.Key(m.StockCode),
		AsOf:          m.AnalysisDate,
		Close:         m.ClosePrice,
		SMA20:         m.SMA20,
		RSI14:         m.RSI14,
		BBLower20:     m.BBL20,
		BBMiddle20:    m.BBM20,
		BBUpper20:     m.BBU20,
		MACD:          m.MACD,
		MACDHistogram: m.MACDHistogram,
		MACDSignal:    m.MACDSignal,
	}
}

// Count はkeyの行数を返します。
func (r *analysisGorm) Count(ctx context.Context, key entity.Key) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).
		Model(&AnalysisModel{}).
		Where("stock_code = ?", key.String()).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

// Latest はanalysis_dateの新しい順に最大limit件の行を返します。
func (r *analysisGorm) Latest(ctx context.Context, key entity.Key, limit int) ([]entity.AnalysisRow, error) {
	var rows []AnalysisModel
	q := r.db.WithContext(ctx).
		Where("stock_code = ?", key.String()).
		Order("analysis_date DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]entity.AnalysisRow, 0, len(rows))
	for _, m := range rows {
		out = append(out, m.toEntity())
	}
	return out, nil
}
