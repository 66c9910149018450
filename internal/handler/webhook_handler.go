// Package handler はHTTPハンドラーとルーティングを提供する。
package handler

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hitoshi/newsline/internal/command"
	"github.com/hitoshi/newsline/internal/message"
	"github.com/hitoshi/newsline/internal/metrics"
	"github.com/hitoshi/newsline/internal/repository"
)

// Replier は応答トークンへのメッセージ送信インターフェース。line.Clientが実装する。
type Replier interface {
	Reply(ctx context.Context, replyToken string, messages []message.Message) error
}

// webhookEvent はLINEプラットフォームから届くイベント。
type webhookEvent struct {
	Type       string `json:"type"`
	ReplyToken string `json:"replyToken"`
	Source     struct {
		UserID string `json:"userId"`
	} `json:"source"`
	Message struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"message"`
	Postback struct {
		Data string `json:"data"`
	} `json:"postback"`
}

// webhookRequest はWebhookのリクエストボディ。
type webhookRequest struct {
	Events []webhookEvent `json:"events"`
}

// WebhookHandler はLINEプラットフォームからのWebhookイベントを処理する。
// プラットフォームの要求に従い、処理結果に関わらず常に200を返す。
type WebhookHandler struct {
	users         repository.UserRepository
	resolver      *command.Resolver
	executor      *command.Executor
	replier       Replier
	logger        *slog.Logger
	collector     metrics.MetricsCollector
	channelSecret string
}

// NewWebhookHandler はWebhookHandlerの新しいインスタンスを生成する。
// channelSecretが空の場合は署名検証をスキップする。
func NewWebhookHandler(
	users repository.UserRepository,
	resolver *command.Resolver,
	executor *command.Executor,
	replier Replier,
	logger *slog.Logger,
	collector metrics.MetricsCollector,
	channelSecret string,
) *WebhookHandler {
	return &WebhookHandler{
		users:         users,
		resolver:      resolver,
		executor:      executor,
		replier:       replier,
		logger:        logger,
		collector:     collector,
		channelSecret: channelSecret,
	}
}

// ServeHTTP はWebhookリクエストを処理する。
// 署名不一致は403を返すが、それ以外は本文が壊れていても200で応答する。
func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.logger.Error("リクエストボディの読み取りに失敗しました", slog.String("error", err.Error()))
		h.ack(w)
		return
	}

	if h.channelSecret != "" && !h.verifySignature(body, r.Header.Get("X-Line-Signature")) {
		h.logger.Warn("Webhook署名の検証に失敗しました")
		http.Error(w, "invalid signature", http.StatusForbidden)
		return
	}

	// 壊れたペイロードはイベント0件として扱う（防御的パース）
	var req webhookRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.logger.Warn("Webhookボディのパースに失敗しました", slog.String("error", err.Error()))
	}

	for _, event := range req.Events {
		h.handleEvent(r.Context(), event)
	}
	h.ack(w)
}

// ack は固定の確認応答を返す。
func (h *WebhookHandler) ack(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// verifySignature はX-Line-Signatureヘッダーを検証する。
func (h *WebhookHandler) verifySignature(body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(h.channelSecret))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// handleEvent は1件のイベントを処理する。
// イベント処理の失敗はログに記録するだけで、応答には影響させない。
func (h *WebhookHandler) handleEvent(ctx context.Context, event webhookEvent) {
	h.collector.RecordWebhookEvent(event.Type)

	userID := event.Source.UserID
	switch event.Type {
	case "follow":
		if err := h.users.Insert(ctx, userID); err != nil {
			h.logger.Error("followイベントの処理に失敗しました",
				slog.String("user_id", userID),
				slog.String("error", err.Error()))
		}
	case "unfollow":
		if err := h.users.Delete(ctx, userID); err != nil {
			h.logger.Error("unfollowイベントの処理に失敗しました",
				slog.String("user_id", userID),
				slog.String("error", err.Error()))
		}
	case "message":
		if event.Message.Type == "text" {
			h.handleText(ctx, userID, event.ReplyToken, event.Message.Text)
		}
	case "postback":
		// ポストバックは入力テキストと同じ扱いで解釈する
		h.handleText(ctx, userID, event.ReplyToken, event.Postback.Data)
	}
}

// handleText はテキスト入力を解釈して応答する。
// トグルトークンを最初に判定し、次にアクションに解決する。
// どちらにも当たらない入力は何もしない（応答なし）。
func (h *WebhookHandler) handleText(ctx context.Context, userID, replyToken, text string) {
	normalized := normalizeText(text)

	applied, err := h.executor.ApplyToggle(ctx, userID, normalized)
	if err != nil {
		h.logger.Error("トグルの適用に失敗しました",
			slog.String("user_id", userID),
			slog.String("error", err.Error()))
		return
	}
	if applied {
		return
	}

	cmd := h.resolver.Resolve(normalized)
	if cmd == nil {
		h.logger.Info("解決できない入力を無視しました", slog.String("text", normalized))
		return
	}

	pages, err := h.executor.Execute(ctx, cmd, commandArgs(normalized), userID)
	if err != nil {
		h.logger.Error("アクションの実行に失敗しました",
			slog.String("action", cmd.Name),
			slog.String("error", err.Error()))
		return
	}

	if err := h.replier.Reply(ctx, replyToken, pages); err != nil {
		h.logger.Error("応答メッセージの送信に失敗しました",
			slog.String("action", cmd.Name),
			slog.String("error", err.Error()))
	}
}

// normalizeText は全角スペースと改行を半角スペースに正規化し、連続する空白を1つにする。
func normalizeText(text string) string {
	text = strings.NewReplacer("　", " ", "\r", " ", "\n", " ").Replace(text)
	return strings.Join(strings.Fields(text), " ")
}

// commandArgs は正規化済みテキストから検索引数を取り出す。
// 先頭トークンはコマンド本体なので除く。
func commandArgs(normalized string) []string {
	tokens := strings.Fields(normalized)
	if len(tokens) <= 1 {
		return nil
	}
	return tokens[1:]
}
