package twelvedata

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"stock_analysis/internal/feature/candles/domain/entity"
	"stock_analysis/internal/feature/candles/usecase"
	"stock_analysis/internal/platform/externalapi/twelvedata/dto"
)

// TwelveDataMarket はTwelve Data外部APIから株価データを取得するMarketRepository実装です。
type TwelveDataMarket struct {
	cfg    Config
	client *http.Client
}

// TwelveDataMarketがMarketRepositoryを実装していることをコンパイル時に検証します。
var _ usecase.MarketRepository = (*TwelveDataMarket)(nil)

// NewTwelveDataMarket は指定された設定とHTTPクライアントでTwelveDataMarketの新しいインスタンスを生成します。
func NewTwelveDataMarket(cfg Config, client *http.Client) *TwelveDataMarket {
	return &TwelveDataMarket{cfg: cfg, client: client}
}

// GetTimeSeries はTwelve Data APIから時系列株価データを取得し、新しい順のCandleとして返します。
// CodeとIntervalは呼び出し側で設定します。
func (t *TwelveDataMarket) GetTimeSeries(ctx context.Context, code, interval string, outputsize int) ([]entity.Candle, error) {
	q := url.Values{}
	q.Set("symbol", code)
	q.Set("interval", interval)
	q.Set("outputsize", strconv.Itoa(outputsize))
	if t.cfg.Exchange != "" {
		q.Set("exchange", t.cfg.Exchange)
	}
	q.Set("apikey", t.cfg.APIKey)

	u := fmt.Sprintf("%s/time_series?%s", strings.TrimRight(t.cfg.BaseURL, "/"), q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	res, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			slog.Warn("failed to close response body", "error", err)
		}
	}()

	if res.StatusCode >= 400 {
		return nil, fmt.Errorf("twelvedata http %d", res.StatusCode)
	}

	var body dto.TimeSeriesResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode twelvedata response: %w", err)
	}
	// APIはHTTP 200のままstatus=errorを返すことがある
	if body.Status == "error" {
		return nil, fmt.Errorf("twelvedata: %s (code %d)", body.Message, body.Code)
	}

	candles := make([]entity.Candle, 0, len(body.Values))
	for _, v := range body.Values {
		c, err := parseBar(v)
		if err != nil {
			return nil, err
		}
		candles = append(candles, c)
	}
	return candles, nil
}

// parseBar は文字列で返される1本分の値をCandleに変換します。
func parseBar(v dto.TimeSeriesValue) (entity.Candle, error) {
	tm, err := time.Parse(time.DateTime, v.Datetime)
	if err != nil {
		tm, err = time.Parse(time.DateOnly, v.Datetime)
		if err != nil {
			return entity.Candle{}, fmt.Errorf("parse time %q: %w", v.Datetime, err)
		}
	}

	var c entity.Candle
	c.Time = tm
	fields := []struct {
		name string
		raw  string
		dst  *float64
	}{
		{"open", v.Open, &c.Open},
		{"high", v.High, &c.High},
		{"low", v.Low, &c.Low},
		{"close", v.Close, &c.Close},
	}
	for _, f := range fields {
		n, err := strconv.ParseFloat(f.raw, 64)
		if err != nil {
			return entity.Candle{}, fmt.Errorf("parse %s %q: %w", f.name, f.raw, err)
		}
		*f.dst = n
	}

	// 出来高は指数などでは返されないため、空の場合は0とする
	if v.Volume != "" {
		vol, err := strconv.ParseInt(v.Volume, 10, 64)
		if err != nil {
			fv, ferr := strconv.ParseFloat(v.Volume, 64)
			if ferr != nil {
				return entity.Candle{}, fmt.Errorf("parse volume %q: %w", v.Volume, err)
			}
			vol = int64(fv)
		}
		c.Volume = vol
	}
	return c, nil
}
