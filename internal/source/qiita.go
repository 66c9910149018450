package source

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hitoshi/newsline/internal/model"
)

const defaultQiitaURL = "https://qiita.com/api/v2/items?page=1&per_page=3"

// QiitaSource はQiita API v2から新着記事を3件取得するソース。
// 応答コマンド専用で定期配信には含まれない。
type QiitaSource struct {
	client *Client
	url    string
}

func NewQiitaSource(client *Client) *QiitaSource {
	return &QiitaSource{client: client, url: defaultQiitaURL}
}

func (s *QiitaSource) Key() string        { return "qiita" }
func (s *QiitaSource) Label() string      { return "Qiitaの新着" }
func (s *QiitaSource) Mandatory() bool    { return false }
func (s *QiitaSource) FlagColumn() string { return "" }

func (s *QiitaSource) Fetch(ctx context.Context, _ []string) ([]model.ContentItem, error) {
	resp, err := s.client.get(ctx, s.url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var articles []struct {
		Title string `json:"title"`
		URL   string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&articles); err != nil {
		return nil, fmt.Errorf("Qiita APIレスポンスのパースに失敗: %w", err)
	}

	items := make([]model.ContentItem, 0, len(articles))
	for _, a := range articles {
		items = append(items, model.ContentItem{Title: a.Title, Link: a.URL})
	}
	return items, nil
}

var _ Source = (*QiitaSource)(nil)
