package source

import (
	"context"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/hitoshi/newsline/internal/model"
)

// RSSSource はRSS/RDFフィードを取得する汎用ソース。
// @IT新着・ITmedia NEWS・スマートジャパン・TechTarget・UX MILK・ZDNet Japanを
// この1つの型で賄う。
type RSSSource struct {
	client     *Client
	key        string
	label      string
	flagColumn string
	url        string
	filterPR   bool // "PR:"・"PR： "で始まる広告記事を除外する
}

// RSSConfig はRSSSourceの設定。
type RSSConfig struct {
	Key        string
	Label      string
	FlagColumn string
	URL        string
	FilterPR   bool
}

// NewRSSSource はRSSSourceを生成する。
func NewRSSSource(client *Client, cfg RSSConfig) *RSSSource {
	return &RSSSource{
		client:     client,
		key:        cfg.Key,
		label:      cfg.Label,
		flagColumn: cfg.FlagColumn,
		url:        cfg.URL,
		filterPR:   cfg.FilterPR,
	}
}

func (s *RSSSource) Key() string        { return s.key }
func (s *RSSSource) Label() string      { return s.label }
func (s *RSSSource) Mandatory() bool    { return false }
func (s *RSSSource) FlagColumn() string { return s.flagColumn }

// Fetch はフィードを取得し、新着期間内の記事をContentItemに変換して返す。
func (s *RSSSource) Fetch(ctx context.Context, _ []string) ([]model.ContentItem, error) {
	body, err := s.client.getBody(ctx, s.url)
	if err != nil {
		return nil, err
	}

	parser := gofeed.NewParser()
	feed, err := parser.ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("フィードのパースに失敗: %w", err)
	}

	cutoff := s.client.cutoff()
	var items []model.ContentItem
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		title := s.client.sanitizer.PlainText(item.Title)
		if s.filterPR && isPR(title) {
			continue
		}

		// 公開日時が取れない記事は新着判定できないため除外する
		published := item.PublishedParsed
		if published == nil {
			published = item.UpdatedParsed
		}
		if published == nil || published.Before(cutoff) {
			continue
		}

		items = append(items, model.ContentItem{
			Title: title,
			Link:  item.Link,
		})
	}
	return items, nil
}

// isPR は広告記事のタイトルかを判定する。
// 半角コロンと全角コロンの両方の表記が混在している。
func isPR(title string) bool {
	return strings.HasPrefix(title, "PR:") || strings.HasPrefix(title, "PR：")
}

var _ Source = (*RSSSource)(nil)
