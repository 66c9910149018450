// Package security は外部サイト取得まわりのセキュリティ機能を提供する。
//
// TextSanitizer はフィードから取得したタイトル・説明文をプレーンテキストに
// 正規化する。配信メッセージはFlexメッセージのtext要素として送るため、
// HTMLタグは一切残さない。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizerService はテキスト正規化機能のインターフェースを定義する。
type TextSanitizerService interface {
	// PlainText はHTMLタグをすべて除去し、エンティティを展開した
	// プレーンテキストを返す。連続する空白・改行は1つのスペースにまとめる。
	// 同一入力に対して常に同一出力を返す（冪等）。
	PlainText(raw string) string
}

// textSanitizer はTextSanitizerServiceの実装。
// bluemondayのStrictPolicyを保持し、スレッドセーフに処理を行う。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerServiceの新しいインスタンスを生成する。
// StrictPolicyは許可タグを持たないため、すべてのタグが除去される。
func NewTextSanitizer() *textSanitizer {
	return &textSanitizer{policy: bluemonday.StrictPolicy()}
}

// PlainText はHTMLタグをすべて除去したプレーンテキストを返す。
func (s *textSanitizer) PlainText(raw string) string {
	if raw == "" {
		return ""
	}
	stripped := s.policy.Sanitize(raw)
	// bluemondayはエンティティをエスケープしたまま返すため展開する
	unescaped := html.UnescapeString(stripped)
	return strings.Join(strings.Fields(unescaped), " ")
}

// compile-time interface check
var _ TextSanitizerService = (*textSanitizer)(nil)
