package message

import "github.com/hitoshi/newsline/internal/model"

// DefaultPageSize は1メッセージに載せられる本文行数のプラットフォーム上限。
const DefaultPageSize = 12

// Paginate は本文行をpageSize件ずつの連続したページに分割する。
// 行の順序は保持され、行が分割されることはない。最終ページのみ短くなりうる。
// 行が0件の場合は0ページを返す（呼び出し側は「送るものがない」として扱う）。
// pageSizeが0以下の場合はDefaultPageSizeを使用する。
func Paginate(rows []model.ContentItem, pageSize int) [][]model.ContentItem {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if len(rows) == 0 {
		return nil
	}

	pages := make([][]model.ContentItem, 0, (len(rows)+pageSize-1)/pageSize)
	for start := 0; start < len(rows); start += pageSize {
		end := start + pageSize
		if end > len(rows) {
			end = len(rows)
		}
		pages = append(pages, rows[start:end])
	}
	return pages
}
