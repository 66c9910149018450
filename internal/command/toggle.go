package command

import (
	"strings"

	"github.com/hitoshi/newsline/internal/model"
)

// toggleLabels はトグルトークンの前半部とフラグカラムの対応。
// 既存のポストバックボタンとの互換のためトークン文字列は変更しない。
var toggleLabels = map[string]string{
	"定期": model.FlagEnabled,
	"1":  model.FlagAitRanking,
	"2":  model.FlagAitNewAll,
	"3":  model.FlagSmartJp,
	"4":  model.FlagItmediaNews,
	"5":  model.FlagZdjapan,
	"6":  model.FlagUxmilk,
	"7":  model.FlagTechTarget,
}

// toggleRows はteikiの状態表示行の定義。表示順も原文ママ固定。
var toggleRows = []struct {
	Label  string
	Column string
	Token  string
}{
	{"定期実行", model.FlagEnabled, "定期"},
	{"(1)アットマークITランキング", model.FlagAitRanking, "1"},
	{"(2)アットマークITの全フォーラムの新着記事", model.FlagAitNewAll, "2"},
	{"(3)スマートジャパンの新着記事", model.FlagSmartJp, "3"},
	{"(4)ITmedia NEWS 最新記事一覧", model.FlagItmediaNews, "4"},
	{"(5)ZDNet Japan 最新情報 総合", model.FlagZdjapan, "5"},
	{"(6)UX MILK の最新ニュース", model.FlagUxmilk, "6"},
	{"(7)TechTarget Japanの最新記事一覧", model.FlagTechTarget, "7"},
}

// ParseToggle は「<ラベル>有効」「<ラベル>無効」形式のトークンを解釈する。
// トグルトークンでなければokがfalseになる。
func ParseToggle(text string) (column string, value bool, ok bool) {
	text = strings.TrimSpace(text)

	var label string
	switch {
	case strings.HasSuffix(text, "有効"):
		label, value = strings.TrimSuffix(text, "有効"), true
	case strings.HasSuffix(text, "無効"):
		label, value = strings.TrimSuffix(text, "無効"), false
	default:
		return "", false, false
	}

	column, ok = toggleLabels[label]
	return column, value, ok
}
