package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"github.com/hitoshi/newsline/internal/model"
)

const defaultAitRankingURL = "https://www.atmarkit.co.jp/json/ait/rss_rankindex_all_day.json"

// rankingLimit はランキングとして配信する最大件数。
const rankingLimit = 10

// AitRankingSource は@ITの本日の総合ランキングを取得するソース。
// 配信形式が特殊で、Shift_JISのJSONP（シングルクォートのJSONを
// rankingindex(...)で包んだもの）をパースする必要がある。
type AitRankingSource struct {
	client *Client
	url    string
}

// NewAitRankingSource はAitRankingSourceを生成する。
func NewAitRankingSource(client *Client) *AitRankingSource {
	return &AitRankingSource{client: client, url: defaultAitRankingURL}
}

func (s *AitRankingSource) Key() string        { return "aitRanking" }
func (s *AitRankingSource) Label() string      { return "アットマークITの本日の総合ランキング" }
func (s *AitRankingSource) Mandatory() bool    { return false }
func (s *AitRankingSource) FlagColumn() string { return model.FlagAitRanking }

// Fetch はランキング上位10件を取得する。
func (s *AitRankingSource) Fetch(ctx context.Context, _ []string) ([]model.ContentItem, error) {
	resp, err := s.client.get(ctx, s.url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	// Content-Typeに文字コードが載っていないためShift_JISを決め打ちでデコードする
	decoded, err := io.ReadAll(transform.NewReader(resp.Body, japanese.ShiftJIS.NewDecoder()))
	if err != nil {
		return nil, fmt.Errorf("Shift_JISデコードに失敗: %w", err)
	}

	jsonStr := strings.NewReplacer(
		"rankingindex(", "",
		")", "",
		"'", `"`,
	).Replace(string(decoded))

	var payload struct {
		Data []*struct {
			Title string `json:"title"`
			Link  string `json:"link"`
		} `json:"data"`
	}
	if err := json.Unmarshal([]byte(jsonStr), &payload); err != nil {
		return nil, fmt.Errorf("ランキングJSONのパースに失敗: %w", err)
	}

	var items []model.ContentItem
	for _, d := range payload.Data {
		if len(items) >= rankingLimit {
			break
		}
		if d == nil || d.Title == "" {
			continue
		}
		items = append(items, model.ContentItem{
			// ランキングのタイトルには整形用の空白が混ざるため除去する
			Title: strings.ReplaceAll(d.Title, " ", ""),
			Link:  d.Link,
		})
	}
	return items, nil
}

var _ Source = (*AitRankingSource)(nil)
