// Package model はドメインモデルを定義する。
package model

// ContentItem はコンテンツソースが取得した1件の記事を表す。
// 永続化はされず、フェッチのたびに生成される。
// Linkが空になるのはエラー行・検索結果なし行などのプレースホルダのみ。
type ContentItem struct {
	Title string
	Link  string
}

// SourceResult は1つのコンテンツソースのフェッチ結果を表す。
// フェッチ失敗はErrに記録し、Itemsは空にする。失敗しても他ソースの
// フェッチ・配信には影響させない（ソース単位の部分失敗隔離）。
type SourceResult struct {
	Key   string // ソースの識別子（アクション名と同一）
	Label string // ユーザー向け表示名
	Items []ContentItem
	Err   error
}

// Header はメッセージペイロードのヘッダーを表す。Linkは任意。
type Header struct {
	Title string
	Link  string
}

// MessagePayload は送信前のメッセージ内容を表す。
// Rowsがプラットフォームのページ上限を超える場合は、送信前に
// message.Paginateで分割しなければならない。
type MessagePayload struct {
	Header Header
	Rows   []ContentItem
	Footer string // 空文字列はフッターなし
}
