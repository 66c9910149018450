package message

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/hitoshi/newsline/internal/model"
)

func TestNewHeader_WithURI(t *testing.T) {
	h := NewHeader("テストヘッダー", "https://example.com")

	if h.Type != "box" || h.Layout != "vertical" {
		t.Errorf("header = %s/%s, want box/vertical", h.Type, h.Layout)
	}
	if h.Contents[0].Text != "テストヘッダー" {
		t.Errorf("header text = %q", h.Contents[0].Text)
	}
	if h.Action == nil || h.Action.Type != "uri" || h.Action.URI != "https://example.com" {
		t.Errorf("header action = %+v, want uri action", h.Action)
	}
}

func TestNewHeader_WithoutURI(t *testing.T) {
	h := NewHeader("テストヘッダー", "")
	if h.Action != nil {
		t.Errorf("uriなしのヘッダーにactionが付いている: %+v", h.Action)
	}
}

func TestNewContentRow_LinkIsOptional(t *testing.T) {
	withLink := NewContentRow("記事タイトル", "https://example.com/1")
	if withLink.Action == nil || withLink.Action.URI != "https://example.com/1" {
		t.Errorf("リンク付き行にuri actionがない: %+v", withLink.Action)
	}

	// プレースホルダ行（エラー・検索結果なし）はリンクを持たない
	noLink := NewContentRow("取得できるものがありませんでした", "")
	if noLink.Action != nil {
		t.Errorf("リンクなし行にactionが付いている: %+v", noLink.Action)
	}
}

func TestNewToggleRow_StateAndPostback(t *testing.T) {
	on := NewToggleRow("(1)アットマークITランキング", true, "1無効")
	if !strings.Contains(on.Contents[0].Text, "有効") {
		t.Errorf("有効状態の行テキスト = %q", on.Contents[0].Text)
	}
	if on.Action == nil || on.Action.Type != "postback" || on.Action.Data != "1無効" {
		t.Errorf("toggle action = %+v, want postback 1無効", on.Action)
	}

	off := NewToggleRow("(1)アットマークITランキング", false, "1有効")
	if !strings.Contains(off.Contents[0].Text, "無効") {
		t.Errorf("無効状態の行テキスト = %q", off.Contents[0].Text)
	}
	if off.Action.Data != "1有効" {
		t.Errorf("toggle postback = %q, want 1有効", off.Action.Data)
	}
}

func TestAssemble_InsertsSeparators(t *testing.T) {
	rows := []Component{
		NewContentRow("行1", ""),
		NewContentRow("行2", ""),
		NewContentRow("行3", ""),
	}

	msg := Assemble(NewHeader("ヘッダー", ""), rows, nil)

	body := msg.Contents.Body.Contents
	// 3行 + 2セパレーター
	if len(body) != 5 {
		t.Fatalf("body contents = %d, want 5", len(body))
	}
	if body[1].Type != "separator" || body[3].Type != "separator" {
		t.Error("行の間にセパレーターが挿入されていない")
	}
}

func TestAssemble_FooterSetsStyles(t *testing.T) {
	msg := Assemble(NewHeader("h", ""), []Component{NewContentRow("r", "")},
		NewFooter("Powered by ホットペッパー Webサービス"))

	if msg.Contents.Footer == nil {
		t.Fatal("footerが設定されていない")
	}
	if msg.Contents.Styles == nil || msg.Contents.Styles.Footer == nil || !msg.Contents.Styles.Footer.Separator {
		t.Error("footer付きメッセージにstyles.footer.separatorが設定されていない")
	}
}

func TestAssemble_NoFooterNoStyles(t *testing.T) {
	msg := Assemble(NewHeader("h", ""), []Component{NewContentRow("r", "")}, nil)
	if msg.Contents.Footer != nil || msg.Contents.Styles != nil {
		t.Error("footerなしのメッセージにfooter/stylesが設定されている")
	}
}

func TestAssemble_MarshalsToFlexJSON(t *testing.T) {
	msg := Assemble(NewHeader("ヘッダー", ""), []Component{NewContentRow("行", "https://example.com")}, nil)

	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	s := string(data)

	for _, want := range []string{`"type":"flex"`, `"altText":"通知"`, `"type":"bubble"`, `"size":"giga"`} {
		if !strings.Contains(s, want) {
			t.Errorf("JSONに %s が含まれていない: %s", want, s)
		}
	}
	// 未設定のオプションフィールドは省略される
	if strings.Contains(s, `"footer"`) {
		t.Errorf("footerなしのJSONにfooterが含まれている: %s", s)
	}
}

func TestBuildPages_SplitsAtPageSize(t *testing.T) {
	payload := model.MessagePayload{
		Header: model.Header{Title: "ITmedia NEWS 最新記事一覧"},
		Rows:   makeRows(25),
	}

	msgs := BuildPages(payload, 12)
	if len(msgs) != 3 {
		t.Fatalf("messages = %d, want 3", len(msgs))
	}

	// 全ページにヘッダーが付く
	for i, m := range msgs {
		if m.Contents.Header == nil || m.Contents.Header.Contents[0].Text != "ITmedia NEWS 最新記事一覧" {
			t.Errorf("ページ%dにヘッダーがない", i)
		}
	}
}

func TestBuildPages_FooterOnlyOnLastPage(t *testing.T) {
	payload := model.MessagePayload{
		Header: model.Header{Title: "ランチ検索"},
		Rows:   makeRows(15),
		Footer: "Powered by ホットペッパー Webサービス",
	}

	msgs := BuildPages(payload, 12)
	if len(msgs) != 2 {
		t.Fatalf("messages = %d, want 2", len(msgs))
	}
	if msgs[0].Contents.Footer != nil {
		t.Error("途中ページにfooterが付いている")
	}
	if msgs[1].Contents.Footer == nil {
		t.Error("最終ページにfooterが付いていない")
	}
}

func TestBuildPages_EmptyRows_ReturnsNil(t *testing.T) {
	payload := model.MessagePayload{Header: model.Header{Title: "h"}}
	if msgs := BuildPages(payload, 12); msgs != nil {
		t.Errorf("空ペイロードでメッセージが生成された: %d", len(msgs))
	}
}
