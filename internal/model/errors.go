package model

import "fmt"

// APIError はAPIエラーの統一フォーマットを表す。
// コードはハンドラーでのHTTPステータス判定に使用する。
type APIError struct {
	Code    string // エラーコード
	Message string // エラーメッセージ
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeMissingQuery   = "MISSING_QUERY"
	ErrCodeUpstreamFailed = "UPSTREAM_FAILED"
	ErrCodeFallbackStatus = "FALLBACK_STATUS"
)

// NewMissingQueryError はクエリパラメータ欠落エラーを生成する。
func NewMissingQueryError() *APIError {
	return &APIError{
		Code:    ErrCodeMissingQuery,
		Message: "クエリパラメータ q を指定してください。",
	}
}

// NewUpstreamFailedError はプロバイダ呼び出し失敗エラーを生成する。
func NewUpstreamFailedError(reason string) *APIError {
	return &APIError{
		Code:    ErrCodeUpstreamFailed,
		Message: fmt.Sprintf("上流プロバイダの呼び出しに失敗しました: %s", reason),
	}
}

// NewFallbackStatusError はフォールバックAPIの異常ステータスエラーを生成する。
// このフォールバックの先にさらなる代替手段はないため、致命的な失敗として扱う。
func NewFallbackStatusError(statusCode int) *APIError {
	return &APIError{
		Code:    ErrCodeFallbackStatus,
		Message: fmt.Sprintf("フォールバックAPIがステータス %d を返しました", statusCode),
	}
}
