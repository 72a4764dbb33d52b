package entity

import "time"

// AnalysisRow is one day of derived indicator data for an instrument.
// Indicators that could not be computed for the day are nil.
type AnalysisRow struct {
	Key           Key
	AsOf          time.Time
	Close         *float64
	SMA20         *float64
	RSI14         *float64
	BBLower20     *float64
	BBMiddle20    *float64
	BBUpper20     *float64
	MACD          *float64
	MACDHistogram *float64
	MACDSignal    *float64
}
