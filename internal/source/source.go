// Package source は各コンテンツソースのフェッチ処理を提供する。
// すべてのソースは共通のSourceインターフェースを実装し、
// フェッチ失敗は呼び出し側でソース単位に隔離される。
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/net/html/charset"

	"github.com/hitoshi/newsline/internal/model"
	"github.com/hitoshi/newsline/internal/security"
)

// userAgent は取得先サイトに送るUser-Agentヘッダー。
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/79.0.3945.88 Safari/537.36"

// Source はコンテンツソースの共通インターフェース。
type Source interface {
	// Key はソースの識別子を返す。アクション名と同一。
	Key() string
	// Label はユーザー向け表示名を返す。
	Label() string
	// Mandatory は定期配信で購読フラグを無視して全有効ユーザーに届けるかを返す。
	Mandatory() bool
	// FlagColumn は購読フラグのカラム名を返す。必須ソース・応答専用ソースは空。
	FlagColumn() string
	// Fetch は記事一覧を取得する。argsは検索系ソースのみが使用する。
	// 結果が空でもエラーではない。
	Fetch(ctx context.Context, args []string) ([]model.ContentItem, error)
}

// Client はソース共通のHTTP取得処理を保持する。
// httpClientにはsecurity.SSRFGuardServiceが生成した安全なクライアントを渡す。
type Client struct {
	httpClient *http.Client
	sanitizer  security.TextSanitizerService
	window     time.Duration
	now        func() time.Time
}

// NewClient はClientを生成する。windowは「新着」とみなす期間。
func NewClient(httpClient *http.Client, sanitizer security.TextSanitizerService, window time.Duration) *Client {
	return &Client{
		httpClient: httpClient,
		sanitizer:  sanitizer,
		window:     window,
		now:        time.Now,
	}
}

// cutoff は新着判定の下限時刻を返す。これより古い記事は配信しない。
func (c *Client) cutoff() time.Time {
	return c.now().Add(-c.window)
}

// get はUser-Agent付きGETを実行し、ステータス200以外はエラーにする。
func (c *Client) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("リクエスト作成に失敗: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s に失敗: %w", url, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("GET %s がステータス %d を返した", url, resp.StatusCode)
	}
	return resp, nil
}

// getBody はレスポンスボディを文字コード変換付きで読み込んで返す。
// XMLフィードはUTF-8以外（Shift_JIS等）で配信されることがあるため、
// Content-Typeとボディ先頭から文字コードを判定してUTF-8に正規化する。
func (c *Client) getBody(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	reader, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("文字コード判定に失敗: %w", err)
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("レスポンス読み取りに失敗: %w", err)
	}
	return body, nil
}
