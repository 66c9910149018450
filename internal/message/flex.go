// Package message はLINE Flexメッセージの組み立てとページ分割を提供する。
// 単発応答と定期配信の両方がこのビルダーを共用する。
package message

import "github.com/hitoshi/newsline/internal/model"

// 配色は歴代リビジョンで使われてきた固定値。
const (
	colorHeaderText = "#e0e0e0"
	colorHeaderBG   = "#35393c"
	colorBodyText   = "#35393c"
	colorSubText    = "#8C8C8C"
	colorFooterText = "#4a5054"
)

// Action はFlexメッセージのタップアクションを表す。
type Action struct {
	Type        string `json:"type"`
	URI         string `json:"uri,omitempty"`
	Label       string `json:"label,omitempty"`
	Data        string `json:"data,omitempty"`
	DisplayText string `json:"displayText,omitempty"`
}

// Component はFlexメッセージのbox/text/separator要素を表す。
type Component struct {
	Type            string      `json:"type"`
	Layout          string      `json:"layout,omitempty"`
	Text            string      `json:"text,omitempty"`
	Color           string      `json:"color,omitempty"`
	Size            string      `json:"size,omitempty"`
	Wrap            bool        `json:"wrap,omitempty"`
	PaddingAll      string      `json:"paddingAll,omitempty"`
	BackgroundColor string      `json:"backgroundColor,omitempty"`
	Flex            *int        `json:"flex,omitempty"`
	Contents        []Component `json:"contents,omitempty"`
	Action          *Action     `json:"action,omitempty"`
}

// BlockStyle はバブルの各ブロックのスタイルを表す。
type BlockStyle struct {
	Separator bool `json:"separator,omitempty"`
}

// BubbleStyles はバブル全体のスタイルを表す。
type BubbleStyles struct {
	Footer *BlockStyle `json:"footer,omitempty"`
}

// Bubble はFlexメッセージのバブルコンテナを表す。
type Bubble struct {
	Type   string        `json:"type"`
	Size   string        `json:"size,omitempty"`
	Header *Component    `json:"header,omitempty"`
	Body   *Component    `json:"body,omitempty"`
	Footer *Component    `json:"footer,omitempty"`
	Styles *BubbleStyles `json:"styles,omitempty"`
}

// Message は送信可能なFlexメッセージを表す。
type Message struct {
	Type     string `json:"type"`
	AltText  string `json:"altText"`
	Contents Bubble `json:"contents"`
}

// NewHeader はメッセージヘッダーを作成する。uriが空でなければタップ遷移を付ける。
func NewHeader(title, uri string) *Component {
	h := &Component{
		Type:   "box",
		Layout: "vertical",
		Contents: []Component{
			{Type: "text", Text: title, Color: colorHeaderText, Wrap: true},
		},
		BackgroundColor: colorHeaderBG,
		PaddingAll:      "4px",
	}
	if uri != "" {
		h.Action = &Action{Type: "uri", URI: uri}
	}
	return h
}

// NewContentRow は本文の1行を作成する。uriが空でなければタップ遷移を付ける。
func NewContentRow(text, uri string) Component {
	flex := 0
	c := Component{
		Type:       "box",
		Layout:     "horizontal",
		PaddingAll: "4px",
		Contents: []Component{
			{Type: "text", Text: text, Color: colorBodyText, Wrap: true},
		},
		Flex: &flex,
	}
	if uri != "" {
		c.Action = &Action{Type: "uri", URI: uri}
	}
	return c
}

// NewToggleRow は設定確認メッセージの1行を作成する。
// タップすると有効・無効を切り替えるpostbackトークンを送り返す。
func NewToggleRow(label string, enabled bool, postback string) Component {
	state := "無効"
	if enabled {
		state = "有効"
	}
	flex := 0
	return Component{
		Type:       "box",
		Layout:     "horizontal",
		PaddingAll: "4px",
		Contents: []Component{
			{Type: "text", Text: label + "： " + state, Color: colorBodyText, Wrap: true},
		},
		Action: &Action{
			Type:        "postback",
			Label:       postback,
			Data:        postback,
			DisplayText: postback,
		},
		Flex: &flex,
	}
}

// NewMenuRow はメソッド一覧の1行を作成する。
// タイトルと説明を縦に並べ、タップでlabelをpostbackとして送り返す。
func NewMenuRow(title, description, label string) Component {
	flex := 0
	return Component{
		Type:       "box",
		Layout:     "vertical",
		PaddingAll: "4px",
		Contents: []Component{
			{Type: "text", Text: title, Color: colorBodyText, Wrap: true},
			{Type: "text", Text: description, Size: "xs", Color: colorSubText, Wrap: true},
		},
		Action: &Action{
			Type:        "postback",
			Label:       label,
			Data:        label,
			DisplayText: label,
		},
		Flex: &flex,
	}
}

// NewFooter はメッセージのフッターを作成する。
func NewFooter(text string) *Component {
	return &Component{
		Type:   "box",
		Layout: "vertical",
		Contents: []Component{
			{Type: "text", Text: text, Size: "xxs", Color: colorFooterText, Wrap: true},
		},
		PaddingAll: "4px",
	}
}

// Assemble はヘッダー・本文行・フッターからFlexメッセージ全体を作成する。
// 本文行の間にはセパレーターを挿入する。
func Assemble(header *Component, rows []Component, footer *Component) Message {
	items := make([]Component, 0, len(rows)*2)
	for _, row := range rows {
		if len(items) > 0 {
			items = append(items, Component{Type: "separator"})
		}
		items = append(items, row)
	}

	msg := Message{
		Type:    "flex",
		AltText: "通知",
		Contents: Bubble{
			Type: "bubble",
			Size: "giga",
			Header: header,
			Body: &Component{
				Type:       "box",
				Layout:     "vertical",
				PaddingAll: "0px",
				Contents:   items,
			},
		},
	}
	if footer != nil {
		msg.Contents.Footer = footer
		msg.Contents.Styles = &BubbleStyles{Footer: &BlockStyle{Separator: true}}
	}
	return msg
}

// BuildPages はペイロードをページサイズで分割し、ページごとのFlexメッセージを返す。
// ヘッダーは全ページに付き、フッターは最終ページのみに付く。
// 行が0件の場合は送信するものがないため空スライスを返す。
func BuildPages(payload model.MessagePayload, pageSize int) []Message {
	pages := Paginate(payload.Rows, pageSize)
	if len(pages) == 0 {
		return nil
	}

	messages := make([]Message, 0, len(pages))
	for i, page := range pages {
		rows := make([]Component, 0, len(page))
		for _, item := range page {
			rows = append(rows, NewContentRow(item.Title, item.Link))
		}

		var footer *Component
		if payload.Footer != "" && i == len(pages)-1 {
			footer = NewFooter(payload.Footer)
		}

		messages = append(messages, Assemble(
			NewHeader(payload.Header.Title, payload.Header.Link),
			rows,
			footer,
		))
	}
	return messages
}
