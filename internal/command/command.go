// Package command はユーザー入力からアクションへのディスパッチを提供する。
// アクションはリフレクションではなく静的なレジストリとして定義する。
package command

import (
	"github.com/hitoshi/newsline/internal/source"
)

// 疑似アクション名。コンテンツソースを持たず実行側で特別扱いする。
const (
	NameTeiki = "teiki"
	NameHelp  = "help"
)

// Command はディスパッチ可能なアクションの定義。
type Command struct {
	// Name はアクションの識別子。ソース連動アクションではソースのキーと一致する。
	Name string
	// DisplayName は応答メッセージのヘッダー等に使う表示名。
	DisplayName string
	// Keywords はマッチに必要なキーワード。入力にすべて含まれたときだけ一致する。
	// 空のキーワード集合は全入力に一致してしまうため定義しない。
	Keywords []string
	// Description はヘルプに表示する説明文。
	Description string
	// Source は実行時に取得を担うソース。疑似アクションではnil。
	Source source.Source
}

// commandDef はレジストリ構築用の静的定義。
type commandDef struct {
	name        string
	displayName string
	keywords    []string
	description string
}

// defs はアクションの定義一覧。順序はマッチングの優先順位になるため固定。
var defs = []commandDef{
	{
		name:        "aitNewAll",
		displayName: "アットマークITの全フォーラムの新着記事",
		keywords:    []string{"アットマークIT", "新着"},
		description: "アットマークITの全フォーラムの新着記事を取得します。",
	},
	{
		name:        "aitRanking",
		displayName: "アットマークITの本日の総合ランキング",
		keywords:    []string{"アットマークIT", "ランキング"},
		description: "アットマークITの本日の総合ランキングを取得します。",
	},
	{
		name:        "itmediaNews",
		displayName: "ITmedia NEWS 最新記事一覧",
		keywords:    []string{"ITmedia", "最新"},
		description: "ITmedia NEWSの最新記事一覧を取得します。",
	},
	{
		name:        "jpcertAlert",
		displayName: "脆弱性関連情報",
		keywords:    []string{"脆弱性"},
		description: "JPCERTで当日発表された脆弱性関連情報を取得します。",
	},
	{
		name:        "jpcertNotice",
		displayName: "注意喚起",
		keywords:    []string{"注意喚起"},
		description: "JPCERTで当日発表された注意喚起を取得します。",
	},
	{
		name:        "lunch",
		displayName: "ランチ検索",
		keywords:    []string{"ランチ", "検索"},
		description: "スペース区切りもしくは改行区切りで二つ以上キーワードを入力すると場所での検索も可能です。一つの場合はデフォルト座標付近での検索となります。",
	},
	{
		name:        "nomitai",
		displayName: "居酒屋検索",
		keywords:    []string{"居酒屋", "検索"},
		description: "スペース区切りもしくは改行区切りで二つ以上キーワードを入力すると場所での検索も可能です。一つの場合はデフォルト座標付近での検索となります。",
	},
	{
		name:        "qiita",
		displayName: "Qiitaの新着",
		keywords:    []string{"Qiita", "新着"},
		description: "Qiitaの新着記事を3件取得します。",
	},
	{
		name:        "smartJp",
		displayName: "スマートジャパンの新着記事",
		keywords:    []string{"スマートジャパン", "新着"},
		description: "スマートジャパンの新着記事を取得します。",
	},
	{
		name:        "uxmilk",
		displayName: "UX MILKのニュース一覧",
		keywords:    []string{"UX", "MILK", "ニュース"},
		description: "UX MILKからニュースを取得します。",
	},
	{
		name:        "weeklyReport",
		displayName: "JPCERT Weekly Report",
		keywords:    []string{"JPCERT", "Report"},
		description: "JPCERTからWeekly Reportを取得します。発行日以外は何も返ってきません。",
	},
	{
		name:        "zdjapan",
		displayName: "ZDNet Japan 最新情報 総合",
		keywords:    []string{"ZDNet", "最新"},
		description: "ZDNet Japanから最新情報を取得します。",
	},
	{
		name:        NameTeiki,
		displayName: "定期実行確認",
		keywords:    []string{"定期", "確認"},
		description: "有効にしたら、毎日正午にニュース等を取得します。有効かどうかをチェックするには、このアクションを実行してください。",
	},
	{
		name:        "techTarget",
		displayName: "TechTarget Japanの最新記事一覧",
		keywords:    []string{"Tech", "Target"},
		description: "TechTarget Japanの最新記事一覧を取得します。",
	},
	{
		name:        NameHelp,
		displayName: "メソッド一覧",
		keywords:    []string{"ヘルプ"},
		description: "実行できるアクションの一覧を表示します。",
	},
}

// Registry はアクション定義の順序付き一覧。
type Registry struct {
	commands []*Command
	byName   map[string]*Command
}

// NewRegistry はソース一覧からレジストリを構築する。
// 定義にあってソースが見つからないアクションは疑似アクションとして登録する。
func NewRegistry(sources []source.Source) *Registry {
	byKey := make(map[string]source.Source, len(sources))
	for _, s := range sources {
		byKey[s.Key()] = s
	}

	r := &Registry{byName: make(map[string]*Command, len(defs))}
	for _, def := range defs {
		cmd := &Command{
			Name:        def.name,
			DisplayName: def.displayName,
			Keywords:    def.keywords,
			Description: def.description,
			Source:      byKey[def.name],
		}
		r.commands = append(r.commands, cmd)
		r.byName[cmd.Name] = cmd
	}
	return r
}

// Commands は定義順のアクション一覧を返す。
func (r *Registry) Commands() []*Command {
	return r.commands
}

// Lookup は名前でアクションを引く。見つからなければnil。
func (r *Registry) Lookup(name string) *Command {
	return r.byName[name]
}
