package source

import "github.com/hitoshi/newsline/internal/model"

// CronSources は定期配信の対象ソースだけを返す。
// 購読フラグを持つソースと必須ソースが対象で、検索系・応答専用ソースは含まない。
func CronSources(sources []Source) []Source {
	var cron []Source
	for _, s := range sources {
		if s.Mandatory() || s.FlagColumn() != "" {
			cron = append(cron, s)
		}
	}
	return cron
}

// BuildAll は提供する全ソースを生成する。順序はコマンド解決と
// ヘルプ表示で使うため固定。
func BuildAll(client *Client, hotpepperKey, defaultLat, defaultLng string) []Source {
	return []Source{
		NewRSSSource(client, RSSConfig{
			Key:        "aitNewAll",
			Label:      "アットマークITの全フォーラムの新着記事",
			FlagColumn: model.FlagAitNewAll,
			URL:        "https://rss.itmedia.co.jp/rss/2.0/ait.xml",
			FilterPR:   true,
		}),
		NewAitRankingSource(client),
		NewRSSSource(client, RSSConfig{
			Key:        "itmediaNews",
			Label:      "ITmedia NEWS 最新記事一覧",
			FlagColumn: model.FlagItmediaNews,
			URL:        "https://rss.itmedia.co.jp/rss/2.0/news_bursts.xml",
		}),
		NewJPCERTAlertSource(client),
		NewJPCERTNoticeSource(client),
		NewLunchSource(client, hotpepperKey, defaultLat, defaultLng),
		NewNomitaiSource(client, hotpepperKey, defaultLat, defaultLng),
		NewQiitaSource(client),
		NewRSSSource(client, RSSConfig{
			Key:        "smartJp",
			Label:      "スマートジャパンの新着記事",
			FlagColumn: model.FlagSmartJp,
			URL:        "https://rss.itmedia.co.jp/rss/2.0/smartjapan.xml",
			FilterPR:   true,
		}),
		NewRSSSource(client, RSSConfig{
			Key:        "techTarget",
			Label:      "TechTarget Japanの最新記事一覧",
			FlagColumn: model.FlagTechTarget,
			URL:        "https://rss.itmedia.co.jp/rss/2.0/techtarget.xml",
			FilterPR:   true,
		}),
		NewRSSSource(client, RSSConfig{
			Key:        "uxmilk",
			Label:      "UX MILKのニュース一覧",
			FlagColumn: model.FlagUxmilk,
			URL:        "https://uxmilk.jp/feed",
		}),
		NewJPCERTWeeklySource(client),
		NewRSSSource(client, RSSConfig{
			Key:        "zdjapan",
			Label:      "ZDNet Japan 最新情報 総合",
			FlagColumn: model.FlagZdjapan,
			URL:        "http://feeds.japan.zdnet.com/rss/zdnet/all.rdf",
		}),
	}
}
