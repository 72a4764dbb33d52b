// Package dto はanalysisフィーチャーのHTTPレスポンス型を定義します。
package dto

import (
	openapi_types "github.com/oapi-codegen/runtime/types"
)

// AnalysisRow は1日分の指標データです。計算できない指標はnullになります。
type AnalysisRow struct {
	Date          openapi_types.Date `json:"date"`
	Close         *float64           `json:"close"`
	SMA20         *float64           `json:"sma_20"`
	RSI14         *float64           `json:"rsi_14"`
	BBL20         *float64           `json:"bbl_20"`
	BBM20         *float64           `json:"bbm_20"`
	BBU20         *float64           `json:"bbu_20"`
	MACD          *float64           `json:"macd"`
	MACDHistogram *float64           `json:"macd_histogram"`
	MACDSignal    *float64           `json:"macd_signal"`
}

// Candidate は銘柄の解決候補です。
type Candidate struct {
	Key   string `json:"key"`
	Name  string `json:"name"`
	Match string `json:"match"`
}

// AnalysisResponse はGET /analysisのレスポンスです。
type AnalysisResponse struct {
	RunID       string        `json:"run_id"`
	Query       string        `json:"query"`
	Key         string        `json:"key,omitempty"`
	Name        string        `json:"name,omitempty"`
	Match       string        `json:"match,omitempty"`
	Rows        []AnalysisRow `json:"rows"`
	Diagnostics []string      `json:"diagnostics"`
	Suggestions []Candidate   `json:"suggestions,omitempty"`
	Error       string        `json:"error,omitempty"`
	ErrorKind   string        `json:"error_kind,omitempty"`
}

// ErrorResponse はリクエスト自体が不正な場合のレスポンスです。
type ErrorResponse struct {
	Error string `json:"error"`
}
