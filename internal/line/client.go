// Package line はLINE Messaging APIのクライアントを提供する。
// 応答（reply）と複数ユーザーへのプッシュ（multicast）のみを扱う。
package line

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/hitoshi/newsline/internal/message"
	"github.com/hitoshi/newsline/internal/model"
)

const (
	// defaultEndpoint はLINE Messaging APIのエンドポイント。
	defaultEndpoint = "https://api.line.me"

	// maxMessagesPerRequest は1リクエストで送れるメッセージ数の上限。
	maxMessagesPerRequest = 5
	// maxMulticastRecipients はmulticast 1回あたりの宛先数の上限。
	maxMulticastRecipients = 500
)

// Client はLINE Messaging APIのクライアント。
// 送信はレートリミッターで平準化する。ブロックやAPI障害による
// 送信失敗はエラーとして返すだけで、リトライはしない。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	limiter    *rate.Limiter
	token      string
	endpoint   string // テスト用にエンドポイントを差し替え可能
}

// NewClient はClientの新しいインスタンスを生成する。
func NewClient(httpClient *http.Client, logger *slog.Logger, token string, pushRate float64, pushBurst int) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		limiter:    rate.NewLimiter(rate.Limit(pushRate), pushBurst),
		token:      token,
		endpoint:   defaultEndpoint,
	}
}

// replyRequest は/v2/bot/message/replyのリクエストボディ。
type replyRequest struct {
	ReplyToken string            `json:"replyToken"`
	Messages   []message.Message `json:"messages"`
}

// multicastRequest は/v2/bot/message/multicastのリクエストボディ。
type multicastRequest struct {
	To       []string          `json:"to"`
	Messages []message.Message `json:"messages"`
}

// Reply は応答トークンに対してメッセージを送信する。
// 応答トークンは一度しか使えないため、全ページを1リクエストで送る。
// 上限を超えるページは切り捨てる。
func (c *Client) Reply(ctx context.Context, replyToken string, messages []message.Message) error {
	if len(messages) == 0 {
		return nil
	}
	if len(messages) > maxMessagesPerRequest {
		c.logger.Warn("応答メッセージが上限を超えたため切り捨てます",
			slog.Int("count", len(messages)),
			slog.Int("limit", maxMessagesPerRequest))
		messages = messages[:maxMessagesPerRequest]
	}
	return c.post(ctx, "/v2/bot/message/reply", replyRequest{
		ReplyToken: replyToken,
		Messages:   messages,
	})
}

// Multicast は複数ユーザーへメッセージをプッシュする。
// 宛先は500件ずつに分割して送信する。
func (c *Client) Multicast(ctx context.Context, userIDs []string, messages []message.Message) error {
	if len(userIDs) == 0 || len(messages) == 0 {
		// 宛先も内容もなければ何もしない
		return nil
	}
	if len(messages) > maxMessagesPerRequest {
		return fmt.Errorf("メッセージ数が上限を超えています: %d > %d", len(messages), maxMessagesPerRequest)
	}

	for start := 0; start < len(userIDs); start += maxMulticastRecipients {
		end := start + maxMulticastRecipients
		if end > len(userIDs) {
			end = len(userIDs)
		}
		if err := c.post(ctx, "/v2/bot/message/multicast", multicastRequest{
			To:       userIDs[start:end],
			Messages: messages,
		}); err != nil {
			return err
		}
	}
	return nil
}

// post はレート制限を待ってからAPIにJSONをPOSTする。
func (c *Client) post(ctx context.Context, path string, body any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("レート制限の待機に失敗しました: %w", err)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("リクエストボディの生成に失敗しました: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("LINE APIの呼び出しに失敗しました",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return model.NewPushError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		c.logger.Error("LINE APIがエラーステータスを返しました",
			slog.String("path", path),
			slog.Int("http_status", resp.StatusCode),
			slog.String("body", string(respBody)))
		return model.NewPushError(fmt.Errorf("LINE APIがステータス %d を返しました", resp.StatusCode))
	}
	return nil
}
