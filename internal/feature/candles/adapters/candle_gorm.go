// Package adapters はcandlesフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"context"
	"time"

	"stock_analysis/internal/feature/candles/domain/entity"
	"stock_analysis/internal/feature/candles/usecase"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type candleGorm struct {
	db *gorm.DB
}

var _ usecase.CandleRepository = (*candleGorm)(nil)

func NewCandleRepository(db *gorm.DB) *candleGorm {
	return &candleGorm{db: db}
}

// CandleModel はcandlesテーブルの1行です。
// intervalとtimeはSQLの予約語と衝突するため、bar_interval・bar_timeという列名にしています。
type CandleModel struct {
	ID       uint      `gorm:"primaryKey"`
	Code     string    `gorm:"column:code;size:6;not null;uniqueIndex:candle_code_int_time,priority:1"`
	Interval string    `gorm:"column:bar_interval;size:16;not null;uniqueIndex:candle_code_int_time,priority:2"`
	Time     time.Time `gorm:"column:bar_time;not null;uniqueIndex:candle_code_int_time,priority:3"`

	Open   float64 `gorm:"not null"`
	High   float64 `gorm:"not null"`
	Low    float64 `gorm:"not null"`
	Close  float64 `gorm:"not null"`
	Volume int64   `gorm:"not null;default:0"`
}

func (CandleModel) TableName() string {
	return "candles"
}

func toModel(e entity.Candle) CandleModel {
	return CandleModel{
		Code:     e.Code,
		Interval: e.Interval,
		Time:     e.Time.UTC(),
		Open:     e.Open,
		High:     e.High,
		Low:      e.Low,
		Close:    e.Close,
		Volume:   e.Volume,
	}
}

// UpsertBatch は(code, bar_interval, bar_time)をキーに一括で挿入し、既存の行は値を上書きします。
// 同じデータで2回呼び出しても行は重複しません。
func (r *candleGorm) UpsertBatch(ctx context.Context, candles []entity.Candle) error {
	if len(candles) == 0 {
		return nil
	}
	ms := make([]CandleModel, 0, len(candles))
	for _, e := range candles {
		ms = append(ms, toModel(e))
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}, {Name: "bar_interval"}, {Name: "bar_time"}},
		DoUpdates: clause.AssignmentColumns([]string{"open", "high", "low", "close", "volume"}),
	}).Create(&ms).Error
}

// Find はbar_timeの新しい順に最大outputsize件のローソク足を返します。
func (r *candleGorm) Find(ctx context.Context, code, interval string, outputsize int) ([]entity.Candle, error) {
	var rows []CandleModel
	q := r.db.WithContext(ctx).
		Where("code = ? AND bar_interval = ?", code, interval).
		Order("bar_time DESC")
	if outputsize > 0 {
		q = q.Limit(outputsize)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]entity.Candle, 0, len(rows))
	for _, m := range rows {
		out = append(out, entity.Candle{
			Code:     m.Code,
			Interval: m.Interval,
			Time:     m.Time,
			Open:     m.Open,
			High:     m.High,
			Low:      m.Low,
			Close:    m.Close,
			Volume:   m.Volume,
		})
	}
	return out, nil
}
