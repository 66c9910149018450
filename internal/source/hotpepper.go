package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/hitoshi/newsline/internal/model"
)

const (
	defaultHotpepperURL = "http://webservice.recruit.co.jp/hotpepper/gourmet/v1/"

	// 検索対象は関東圏に固定している。
	hotpepperServiceArea = "SS10"
	hotpepperIzakaya     = "G001"
)

// hotpepperKind は飲食店検索の種別。
type hotpepperKind int

const (
	hotpepperLunch hotpepperKind = iota
	hotpepperNomitai
)

// HotpepperSource はホットペッパーグルメサーチAPIで店舗を検索するソース。
// キーワードが2つ以上あれば場所を含む検索、1つ以下ならデフォルト座標付近の検索になる。
// 応答コマンド専用で定期配信には含まれない。
type HotpepperSource struct {
	client     *Client
	kind       hotpepperKind
	url        string
	apiKey     string
	defaultLat string
	defaultLng string
}

// NewLunchSource はランチ営業店舗の検索ソースを生成する。
func NewLunchSource(client *Client, apiKey, lat, lng string) *HotpepperSource {
	return &HotpepperSource{
		client: client, kind: hotpepperLunch,
		url: defaultHotpepperURL, apiKey: apiKey, defaultLat: lat, defaultLng: lng,
	}
}

// NewNomitaiSource は居酒屋の検索ソースを生成する。
func NewNomitaiSource(client *Client, apiKey, lat, lng string) *HotpepperSource {
	return &HotpepperSource{
		client: client, kind: hotpepperNomitai,
		url: defaultHotpepperURL, apiKey: apiKey, defaultLat: lat, defaultLng: lng,
	}
}

func (s *HotpepperSource) Key() string {
	if s.kind == hotpepperLunch {
		return "lunch"
	}
	return "nomitai"
}

func (s *HotpepperSource) Label() string {
	if s.kind == hotpepperLunch {
		return "ランチ検索"
	}
	return "居酒屋検索"
}

func (s *HotpepperSource) Mandatory() bool    { return false }
func (s *HotpepperSource) FlagColumn() string { return "" }

// Fetch は検索条件を組み立ててAPIを呼び、店舗名とPC向けURLの一覧を返す。
func (s *HotpepperSource) Fetch(ctx context.Context, args []string) ([]model.ContentItem, error) {
	params := url.Values{}
	params.Set("key", s.apiKey)
	params.Set("large_service_area", hotpepperServiceArea)
	params.Set("order", "2")
	params.Set("type", "lite")
	params.Set("format", "json")
	params.Set("count", "100")

	switch s.kind {
	case hotpepperLunch:
		params.Set("range", "3")
		params.Set("lunch", "1")
	default:
		params.Set("range", "5")
	}

	if len(args) <= 1 {
		params.Set("lat", s.defaultLat)
		params.Set("lng", s.defaultLng)
		if len(args) == 0 && s.kind == hotpepperNomitai {
			// キーワード無しなら居酒屋ジャンルに限定する
			params.Set("genre", hotpepperIzakaya)
		}
	}
	if len(args) > 0 {
		params.Set("keyword", strings.Join(args, " "))
	}
	if s.kind == hotpepperNomitai && len(args) >= 2 {
		// 場所指定がある場合は範囲を絞る
		params.Set("range", "3")
	}

	resp, err := s.client.get(ctx, s.url+"?"+params.Encode())
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result struct {
		Results struct {
			Shop []struct {
				Name string `json:"name"`
				URLs struct {
					PC string `json:"pc"`
				} `json:"urls"`
			} `json:"shop"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("ホットペッパーAPIレスポンスのパースに失敗: %w", err)
	}

	if len(result.Results.Shop) == 0 {
		return []model.ContentItem{{Title: "検索結果がありません"}}, nil
	}
	items := make([]model.ContentItem, 0, len(result.Results.Shop))
	for _, shop := range result.Results.Shop {
		items = append(items, model.ContentItem{Title: shop.Name, Link: shop.URLs.PC})
	}
	return items, nil
}

var _ Source = (*HotpepperSource)(nil)
