// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// ログとユーザー向けソフト失敗メッセージの両方で使用する。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: webhook, source, store, line
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeSourceFetchFailed = "SOURCE_FETCH_FAILED"
	ErrCodeStoreFailed       = "STORE_FAILED"
	ErrCodePushFailed        = "PUSH_FAILED"
	ErrCodeInvalidWebhook    = "INVALID_WEBHOOK"
	ErrCodeUnknownAction     = "UNKNOWN_ACTION"
)

// NewSourceFetchError はコンテンツソースのフェッチ失敗エラーを生成する。
func NewSourceFetchError(sourceKey string, cause error) *APIError {
	return &APIError{
		Code:     ErrCodeSourceFetchFailed,
		Message:  fmt.Sprintf("ソース %s の取得に失敗しました: %v", sourceKey, cause),
		Category: "source",
	}
}

// NewStoreError はユーザーストアの操作失敗エラーを生成する。
func NewStoreError(op string, cause error) *APIError {
	return &APIError{
		Code:     ErrCodeStoreFailed,
		Message:  fmt.Sprintf("ユーザーストアの%sに失敗しました: %v", op, cause),
		Category: "store",
	}
}

// NewPushError はLINEプラットフォームへの送信失敗エラーを生成する。
func NewPushError(cause error) *APIError {
	return &APIError{
		Code:     ErrCodePushFailed,
		Message:  fmt.Sprintf("メッセージ送信に失敗しました: %v", cause),
		Category: "line",
	}
}

// NewUnknownActionError は未登録アクションの実行要求エラーを生成する。
func NewUnknownActionError(name string) *APIError {
	return &APIError{
		Code:     ErrCodeUnknownAction,
		Message:  fmt.Sprintf("未登録のアクションです: %s", name),
		Category: "webhook",
	}
}
