// Package dto はcandlesフィーチャーのHTTPレスポンス型を定義します。
package dto

import openapi_types "github.com/oapi-codegen/runtime/types"

// CandleResponse はロウソク足データのレスポンスDTOです。
type CandleResponse struct {
	Time   openapi_types.Date `json:"time"`   // 日付
	Open   float64            `json:"open"`   // 始値
	High   float64            `json:"high"`   // 高値
	Low    float64            `json:"low"`    // 安値
	Close  float64            `json:"close"`  // 終値
	Volume int64              `json:"volume"` // 出来高
}

// ErrorResponse はエラー時のレスポンスDTOです。
type ErrorResponse struct {
	Error     string `json:"error"`
	ErrorKind string `json:"error_kind"`
}
