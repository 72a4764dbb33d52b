// Package usecase はローソク足データ操作のビジネスロジックを実装します。
package usecase

import (
	"context"
	"errors"
	"fmt"

	analysisentity "stock_analysis/internal/feature/analysis/domain/entity"
	"stock_analysis/internal/feature/candles/domain/entity"
)

const (
	// DefaultInterval はローソク足クエリのデフォルト時間間隔です。
	DefaultInterval = entity.IntervalDay
	// DefaultOutputSize はデフォルトのローソク足返却件数です。
	DefaultOutputSize = 200
	// MaxOutputSize はローソク足の最大返却件数です。
	MaxOutputSize = 5000
)

var (
	// ErrInvalidCode は銘柄コードが6桁の数字でない場合のエラーです。
	ErrInvalidCode = errors.New("code must be 6 digits")
	// ErrUnsupportedInterval は保存対象外の時間足が指定された場合のエラーです。
	ErrUnsupportedInterval = errors.New("unsupported interval")
)

// Kind はエラーを呼び出し側に返す短い種別コードに変換します。
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidCode):
		return "invalid_code"
	case errors.Is(err, ErrUnsupportedInterval):
		return "unsupported_interval"
	default:
		return "internal"
	}
}

// CandleRepository はローソク足データの永続化レイヤーを抽象化します。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type CandleRepository interface {
	// Find はデータベースからローソク足データを新しい順に検索します。
	Find(ctx context.Context, code, interval string, outputsize int) ([]entity.Candle, error)
	// UpsertBatch はローソク足データを一括で挿入または更新します。
	UpsertBatch(ctx context.Context, candles []entity.Candle) error
}

// candlesUsecase はローソク足データ操作のユースケースを定義します。
type candlesUsecase struct {
	candle CandleRepository
}

// NewCandlesUsecase はcandlesUsecaseの新しいインスタンスを生成します。
func NewCandlesUsecase(candle CandleRepository) *candlesUsecase {
	return &candlesUsecase{candle: candle}
}

// GetCandles は指定された銘柄と時間間隔のローソク足データを取得します。
func (cu *candlesUsecase) GetCandles(ctx context.Context, code, interval string, outputsize int) ([]entity.Candle, error) {
	if !analysisentity.IsKey(code) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCode, code)
	}
	if interval == "" {
		interval = DefaultInterval
	}
	if !entity.ValidInterval(interval) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedInterval, interval)
	}
	if outputsize <= 0 || outputsize > MaxOutputSize {
		outputsize = DefaultOutputSize
	}

	cs, err := cu.candle.Find(ctx, code, interval, outputsize)
	if err != nil {
		return nil, err
	}

	return cs, nil
}
