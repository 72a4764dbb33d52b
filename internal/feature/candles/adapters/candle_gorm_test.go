package adapters

import (
	"context"
	"testing"
	"time"

	"stock_analysis/internal/feature/candles/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB prepares an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to initialize test database")

	err = db.AutoMigrate(&CandleModel{})
	require.NoError(t, err, "failed to migrate table")

	return db
}

// seedCandle creates a test candle in the database for testing.
func seedCandle(t *testing.T, db *gorm.DB, code, interval string, at time.Time) *CandleModel {
	t.Helper()

	candle := &CandleModel{
		Code:     code,
		Interval: interval,
		Time:     at,
		Open:     70000,
		High:     71000,
		Low:      69000,
		Close:    70500,
		Volume:   1000,
	}
	err := db.Create(candle).Error
	require.NoError(t, err, "failed to seed candle")

	return candle
}

func countCandles(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&CandleModel{}).Count(&n).Error)
	return n
}

func TestNewCandleRepository(t *testing.T) {
	db := setupTestDB(t)

	repo := NewCandleRepository(db)

	assert.NotNil(t, repo, "repository is nil")
	assert.NotNil(t, repo.db, "database connection is nil")
}

func TestCandleGorm_UpsertBatch(t *testing.T) {
	t.Parallel()

	baseTime := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	bar := func(day int, close float64) entity.Candle {
		return entity.Candle{
			Code: "005930", Interval: entity.IntervalDay, Time: baseTime.AddDate(0, 0, day),
			Open: close - 500, High: close + 500, Low: close - 1000, Close: close, Volume: 1000,
		}
	}

	tests := []struct {
		name         string
		candles      []entity.Candle
		setupFunc    func(t *testing.T, db *gorm.DB)
		validateFunc func(t *testing.T, db *gorm.DB)
	}{
		{
			name:    "success: insert multiple candles",
			candles: []entity.Candle{bar(0, 70000), bar(1, 71000)},
			validateFunc: func(t *testing.T, db *gorm.DB) {
				assert.Equal(t, int64(2), countCandles(t, db))
			},
		},
		{
			name:    "success: empty slice",
			candles: []entity.Candle{},
			validateFunc: func(t *testing.T, db *gorm.DB) {
				assert.Equal(t, int64(0), countCandles(t, db))
			},
		},
		{
			name:    "success: upsert updates existing candle",
			candles: []entity.Candle{bar(0, 72000)},
			setupFunc: func(t *testing.T, db *gorm.DB) {
				seedCandle(t, db, "005930", entity.IntervalDay, baseTime)
			},
			validateFunc: func(t *testing.T, db *gorm.DB) {
				assert.Equal(t, int64(1), countCandles(t, db), "candle count should remain 1 after upsert")

				var candle CandleModel
				require.NoError(t, db.First(&candle).Error)
				assert.Equal(t, 72000.0, candle.Close, "Close should be updated")
				assert.Equal(t, 72500.0, candle.High, "High should be updated")
			},
		},
		{
			name:    "success: same time on another interval is a separate row",
			candles: []entity.Candle{bar(0, 70000)},
			setupFunc: func(t *testing.T, db *gorm.DB) {
				seedCandle(t, db, "005930", entity.IntervalWeek, baseTime)
			},
			validateFunc: func(t *testing.T, db *gorm.DB) {
				assert.Equal(t, int64(2), countCandles(t, db))
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			db := setupTestDB(t)
			repo := NewCandleRepository(db)

			if tt.setupFunc != nil {
				tt.setupFunc(t, db)
			}

			err := repo.UpsertBatch(context.Background(), tt.candles)

			require.NoError(t, err)
			tt.validateFunc(t, db)
		})
	}
}

// TestCandleGorm_UpsertBatch_Idempotent は同じ期間を2回取り込んでも行が重複せず、後の値が残ることを検証します。
func TestCandleGorm_UpsertBatch_Idempotent(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	repo := NewCandleRepository(db)
	baseTime := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	batch := func(closeBase float64) []entity.Candle {
		out := make([]entity.Candle, 0, 30)
		for i := 0; i < 30; i++ {
			out = append(out, entity.Candle{
				Code: "005930", Interval: entity.IntervalDay, Time: baseTime.AddDate(0, 0, i),
				Open: closeBase, High: closeBase, Low: closeBase, Close: closeBase + float64(i), Volume: int64(i),
			})
		}
		return out
	}

	require.NoError(t, repo.UpsertBatch(context.Background(), batch(70000)))
	require.NoError(t, repo.UpsertBatch(context.Background(), batch(80000)))

	assert.Equal(t, int64(30), countCandles(t, db))
	got, err := repo.Find(context.Background(), "005930", entity.IntervalDay, 0)
	require.NoError(t, err)
	require.Len(t, got, 30)
	assert.Equal(t, 80029.0, got[0].Close, "last write wins")
}

func TestCandleGorm_Find(t *testing.T) {
	t.Parallel()

	baseTime := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		code         string
		interval     string
		outputsize   int
		setupFunc    func(t *testing.T, db *gorm.DB)
		validateFunc func(t *testing.T, candles []entity.Candle)
	}{
		{
			name:       "success: empty result when no matching candles",
			code:       "999999",
			interval:   entity.IntervalDay,
			outputsize: 10,
			validateFunc: func(t *testing.T, candles []entity.Candle) {
				assert.Empty(t, candles, "should return empty slice")
			},
		},
		{
			name:       "success: filter by code and interval",
			code:       "005930",
			interval:   entity.IntervalDay,
			outputsize: 10,
			setupFunc: func(t *testing.T, db *gorm.DB) {
				seedCandle(t, db, "005930", entity.IntervalDay, baseTime)
				seedCandle(t, db, "000660", entity.IntervalDay, baseTime)
				seedCandle(t, db, "005930", entity.IntervalWeek, baseTime)
			},
			validateFunc: func(t *testing.T, candles []entity.Candle) {
				require.Len(t, candles, 1)
				assert.Equal(t, "005930", candles[0].Code)
				assert.Equal(t, entity.IntervalDay, candles[0].Interval)
			},
		},
		{
			name:       "success: respect outputsize limit, newest first",
			code:       "005930",
			interval:   entity.IntervalDay,
			outputsize: 2,
			setupFunc: func(t *testing.T, db *gorm.DB) {
				for i := 0; i < 5; i++ {
					seedCandle(t, db, "005930", entity.IntervalDay, baseTime.AddDate(0, 0, i))
				}
			},
			validateFunc: func(t *testing.T, candles []entity.Candle) {
				require.Len(t, candles, 2)
				assert.True(t, candles[0].Time.After(candles[1].Time), "first should be newer than second")
				assert.Equal(t, baseTime.AddDate(0, 0, 4).Unix(), candles[0].Time.Unix())
			},
		},
		{
			name:       "success: outputsize 0 returns all",
			code:       "005930",
			interval:   entity.IntervalDay,
			outputsize: 0,
			setupFunc: func(t *testing.T, db *gorm.DB) {
				for i := 0; i < 5; i++ {
					seedCandle(t, db, "005930", entity.IntervalDay, baseTime.AddDate(0, 0, i))
				}
			},
			validateFunc: func(t *testing.T, candles []entity.Candle) {
				assert.Len(t, candles, 5, "should return all candles")
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			db := setupTestDB(t)
			repo := NewCandleRepository(db)

			if tt.setupFunc != nil {
				tt.setupFunc(t, db)
			}

			candles, err := repo.Find(context.Background(), tt.code, tt.interval, tt.outputsize)

			require.NoError(t, err)
			tt.validateFunc(t, candles)
		})
	}
}

func TestCandleGorm_Find_EntityMapping(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	repo := NewCandleRepository(db)

	testTime := time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.UpsertBatch(context.Background(), []entity.Candle{{
		Code: "000660", Interval: entity.IntervalMonth, Time: testTime,
		Open: 150500, High: 155750, Low: 149250, Close: 154000, Volume: 5000000,
	}}))

	result, err := repo.Find(context.Background(), "000660", entity.IntervalMonth, 1)
	require.NoError(t, err)
	require.Len(t, result, 1)

	assert.Equal(t, "000660", result[0].Code)
	assert.Equal(t, entity.IntervalMonth, result[0].Interval)
	assert.Equal(t, testTime.Unix(), result[0].Time.Unix())
	assert.Equal(t, 150500.0, result[0].Open)
	assert.Equal(t, 155750.0, result[0].High)
	assert.Equal(t, 149250.0, result[0].Low)
	assert.Equal(t, 154000.0, result[0].Close)
	assert.Equal(t, int64(5000000), result[0].Volume)
}
