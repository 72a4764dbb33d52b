// Package entity defines the domain models for the candles feature.
package entity

import "time"

// Supported bar intervals.
const (
	IntervalDay   = "1day"
	IntervalWeek  = "1week"
	IntervalMonth = "1month"
)

// Intervals lists every bar interval the series-ingestion stage stores.
var Intervals = []string{IntervalDay, IntervalWeek, IntervalMonth}

// ValidInterval reports whether s is one of Intervals.
func ValidInterval(s string) bool {
	for _, iv := range Intervals {
		if iv == s {
			return true
		}
	}
	return false
}

// Candle represents OHLCV (Open, High, Low, Close, Volume) bar data
// for an instrument at a specific interval.
type Candle struct {
	Code     string    // Six-digit instrument code (e.g., "005930")
	Interval string    // Bar interval (e.g., "1day", "1week", "1month")
	Time     time.Time // Start of this bar period
	Open     float64   // Opening price
	High     float64   // Highest price during this period
	Low      float64   // Lowest price during this period
	Close    float64   // Closing price
	Volume   int64     // Trading volume
}
