package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"stock_analysis/internal/feature/candles/domain/entity"
	"stock_analysis/internal/shared/ratelimiter"
)

const (
	ingestOutputSize = 200 // 1回のリクエストで取得するデータ件数
)

// MarketRepository は株価データを取得するリポジトリのインターフェイスです。
// 外部 API の実装を抽象化します。
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type MarketRepository interface {
	GetTimeSeries(ctx context.Context, code, interval string, outputsize int) ([]entity.Candle, error)
}

// IngestSummary は1銘柄分の取り込み結果です。
type IngestSummary struct {
	Code string `json:"code"`
	// Bars は時間足ごとの保存件数です。失敗した時間足は含みません。
	Bars map[string]int `json:"bars"`
	// Failed は取り込みに失敗した時間足です。
	Failed []string `json:"failed,omitempty"`
}

// IngestUsecase は外部APIからデータを取得し、データベースに永続化するユースケースを定義します。
type IngestUsecase struct {
	market      MarketRepository
	candle      CandleRepository
	rateLimiter ratelimiter.RateLimiterInterface
}

// NewIngestUsecase は新しい IngestUsecase を作成します。
func NewIngestUsecase(market MarketRepository, candle CandleRepository, rateLimiter ratelimiter.RateLimiterInterface) *IngestUsecase {
	return &IngestUsecase{market: market, candle: candle, rateLimiter: rateLimiter}
}

// ingestOne は指定された銘柄と時間足の時系列データを外部リポジトリから取得し、
// データベースに一括で挿入（または更新）します。保存した件数を返します。
func (iu *IngestUsecase) ingestOne(ctx context.Context, code, interval string, outputsize int) (int, error) {
	if err := iu.rateLimiter.Wait(ctx); err != nil {
		return 0, err
	}
	cs, err := iu.market.GetTimeSeries(ctx, code, interval, outputsize)
	if err != nil {
		return 0, err
	}

	// 取得したデータに銘柄コードと時間足を設定
	for i := range cs {
		cs[i].Code = code
		cs[i].Interval = interval
	}
	if err := iu.candle.UpsertBatch(ctx, cs); err != nil {
		return 0, err
	}
	return len(cs), nil
}

// IngestCode は1銘柄の日足・週足・月足を取得して保存します。
// ある時間足が失敗しても残りの時間足は処理し、失敗をまとめたエラーを返します。
func (iu *IngestUsecase) IngestCode(ctx context.Context, code string) (IngestSummary, error) {
	sum := IngestSummary{Code: code, Bars: make(map[string]int, len(entity.Intervals))}
	var errs []error
	for _, interval := range entity.Intervals {
		n, err := iu.ingestOne(ctx, code, interval, ingestOutputSize)
		if err != nil {
			slog.Error("failed to ingest data", "code", code, "interval", interval, "error", err)
			sum.Failed = append(sum.Failed, interval)
			errs = append(errs, fmt.Errorf("%s %s: %w", code, interval, err))
			if ctx.Err() != nil {
				break
			}
			continue
		}
		sum.Bars[interval] = n
	}
	return sum, errors.Join(errs...)
}

// IngestAll は指定された全銘柄の時系列データを複数の時間足（日足, 週足, 月足）で取得し、
// データベースに永続化します。1つの銘柄でエラーが発生しても処理を止めずに次の銘柄へ進みます。
func (iu *IngestUsecase) IngestAll(ctx context.Context, codes []string) ([]IngestSummary, error) {
	out := make([]IngestSummary, 0, len(codes))
	for _, c := range codes {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		sum, _ := iu.IngestCode(ctx, c)
		out = append(out, sum)
	}
	return out, nil
}
