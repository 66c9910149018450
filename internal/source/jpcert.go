package source

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/hitoshi/newsline/internal/model"
)

const defaultJpcertURL = "https://www.jpcert.or.jp"

// jpcertKind はJPCERTトップページから抽出する情報の種別。
type jpcertKind int

const (
	jpcertAlert  jpcertKind = iota // 脆弱性関連情報
	jpcertNotice                   // 注意喚起
	jpcertWeekly                   // Weekly Report
)

// JPCERTSource はJPCERTのトップページをスクレイピングするソース。
// セキュリティ情報のため定期配信では必須扱いで、ユーザーはオプトアウトできない。
type JPCERTSource struct {
	client *Client
	kind   jpcertKind
	url    string
}

// NewJPCERTAlertSource は当日発表の脆弱性関連情報ソースを生成する。
func NewJPCERTAlertSource(client *Client) *JPCERTSource {
	return &JPCERTSource{client: client, kind: jpcertAlert, url: defaultJpcertURL}
}

// NewJPCERTNoticeSource は当日発表の注意喚起ソースを生成する。
func NewJPCERTNoticeSource(client *Client) *JPCERTSource {
	return &JPCERTSource{client: client, kind: jpcertNotice, url: defaultJpcertURL}
}

// NewJPCERTWeeklySource はWeekly Reportソースを生成する。
// 発行日（水曜日など）以外は何も返さない。
func NewJPCERTWeeklySource(client *Client) *JPCERTSource {
	return &JPCERTSource{client: client, kind: jpcertWeekly, url: defaultJpcertURL}
}

func (s *JPCERTSource) Key() string {
	switch s.kind {
	case jpcertAlert:
		return "jpcertAlert"
	case jpcertNotice:
		return "jpcertNotice"
	default:
		return "weeklyReport"
	}
}

func (s *JPCERTSource) Label() string {
	switch s.kind {
	case jpcertAlert:
		return "脆弱性関連情報"
	case jpcertNotice:
		return "注意喚起"
	default:
		return "JPCERT Weekly Report"
	}
}

func (s *JPCERTSource) Mandatory() bool    { return true }
func (s *JPCERTSource) FlagColumn() string { return "" }

// Fetch はトップページを取得し、種別ごとの抽出を行う。
func (s *JPCERTSource) Fetch(ctx context.Context, _ []string) ([]model.ContentItem, error) {
	resp, err := s.client.get(ctx, s.url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("JPCERTページのパースに失敗: %w", err)
	}

	switch s.kind {
	case jpcertAlert:
		return s.extractAlerts(doc), nil
	case jpcertNotice:
		return s.extractNotices(doc), nil
	default:
		return s.extractWeekly(doc), nil
	}
}

// extractAlerts は「脆弱性関連情報」セクションから新着期間内の項目を抽出する。
// リンクは外部サイト（JVN等）への絶対URLのためそのまま使う。
func (s *JPCERTSource) extractAlerts(doc *goquery.Document) []model.ContentItem {
	cutoff := s.client.cutoff()
	var items []model.ContentItem

	doc.Find("div.container").Each(func(_ int, container *goquery.Selection) {
		if container.Find("h3").First().Text() != "脆弱性関連情報" {
			return
		}
		container.Find("ul.list>li").Each(func(_ int, li *goquery.Selection) {
			a := li.Find("a").First()
			published := strings.TrimSpace(a.Find("span.left_area").First().Text())
			publishedAt, err := time.ParseInLocation("2006-01-02 15:04", published, cutoff.Location())
			if err != nil || publishedAt.Before(cutoff) {
				return
			}
			link, _ := a.Attr("href")
			items = append(items, model.ContentItem{
				Title: a.Find("span.right_area").First().Text(),
				Link:  link,
			})
		})
	})
	return items
}

// extractNotices は「注意喚起」セクションから当日・前日発表の項目を抽出する。
func (s *JPCERTSource) extractNotices(doc *goquery.Document) []model.ContentItem {
	today := s.client.now().Format("2006-01-02")
	yesterday := s.client.cutoff().Format("2006-01-02")
	var items []model.ContentItem

	doc.Find("div.container").Each(func(_ int, container *goquery.Selection) {
		if container.Find("h3").First().Text() != "注意喚起" {
			return
		}
		container.Find("ul.list>li").Each(func(_ int, li *goquery.Selection) {
			a := li.Find("a").First()
			published := a.Find("span.left_area").First().Text()
			title := a.Find("span.right_area").First().Text()
			href, _ := a.Attr("href")

			for _, date := range []string{today, yesterday} {
				if strings.Contains(published, date) {
					items = append(items, model.ContentItem{
						Title: fmt.Sprintf("%s %s", date, title),
						Link:  s.url + href,
					})
					break
				}
			}
		})
	})
	return items
}

// extractWeekly はWeekly Reportの目次を抽出する。
// 「YYYY-MM-DD号」の日付が当日と一致する場合のみ項目を返す。
func (s *JPCERTSource) extractWeekly(doc *goquery.Document) []model.ContentItem {
	latest := doc.Find("a.fl").First()
	issueDate := strings.ReplaceAll(latest.Text(), "号", "")
	if issueDate != s.client.now().Format("2006-01-02") {
		return nil
	}

	href, _ := latest.Attr("href")
	var items []model.ContentItem
	doc.Find("div.contents").First().Find("li").Each(func(i int, li *goquery.Selection) {
		items = append(items, model.ContentItem{
			Title: fmt.Sprintf("%d. %s", i+1, li.Text()),
			Link:  fmt.Sprintf("%s%s#%d", s.url, href, i+1),
		})
	})
	return items
}

var _ Source = (*JPCERTSource)(nil)
