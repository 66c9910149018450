package line

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/newsline/internal/message"
	"github.com/hitoshi/newsline/internal/model"
)

type recordedRequest struct {
	path string
	auth string
	body []byte
}

func newTestClient(t *testing.T, status int) (*Client, *[]recordedRequest, func()) {
	t.Helper()
	var requests []recordedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		requests = append(requests, recordedRequest{
			path: r.URL.Path,
			auth: r.Header.Get("Authorization"),
			body: body,
		})
		w.WriteHeader(status)
	}))

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	c := NewClient(server.Client(), logger, "test-token", 100, 100)
	c.endpoint = server.URL
	return c, &requests, server.Close
}

func testMessages(n int) []message.Message {
	messages := make([]message.Message, 0, n)
	for i := 0; i < n; i++ {
		payload := model.MessagePayload{
			Header: model.Header{Title: "テスト"},
			Rows:   []model.ContentItem{{Title: fmt.Sprintf("記事%d", i), Link: "https://example.com"}},
		}
		messages = append(messages, message.BuildPages(payload, 12)...)
	}
	return messages
}

func TestClient_Reply(t *testing.T) {
	c, requests, closeFn := newTestClient(t, http.StatusOK)
	defer closeFn()

	if err := c.Reply(context.Background(), "reply-token-1", testMessages(2)); err != nil {
		t.Fatalf("Reply() がエラーを返した: %v", err)
	}

	if len(*requests) != 1 {
		t.Fatalf("リクエスト数 = %d, want 1", len(*requests))
	}
	req := (*requests)[0]
	if req.path != "/v2/bot/message/reply" {
		t.Errorf("path = %q", req.path)
	}
	if req.auth != "Bearer test-token" {
		t.Errorf("Authorization = %q", req.auth)
	}

	var body replyRequest
	if err := json.Unmarshal(req.body, &body); err != nil {
		t.Fatalf("リクエストボディのパースに失敗: %v", err)
	}
	if body.ReplyToken != "reply-token-1" || len(body.Messages) != 2 {
		t.Errorf("body = %+v", body)
	}
}

func TestClient_Reply_TruncatesOverLimit(t *testing.T) {
	c, requests, closeFn := newTestClient(t, http.StatusOK)
	defer closeFn()

	if err := c.Reply(context.Background(), "token", testMessages(8)); err != nil {
		t.Fatalf("Reply() がエラーを返した: %v", err)
	}

	var body replyRequest
	if err := json.Unmarshal((*requests)[0].body, &body); err != nil {
		t.Fatalf("リクエストボディのパースに失敗: %v", err)
	}
	if len(body.Messages) != maxMessagesPerRequest {
		t.Errorf("メッセージ数 = %d, want %d", len(body.Messages), maxMessagesPerRequest)
	}
}

func TestClient_Reply_NoMessages(t *testing.T) {
	c, requests, closeFn := newTestClient(t, http.StatusOK)
	defer closeFn()

	if err := c.Reply(context.Background(), "token", nil); err != nil {
		t.Fatalf("Reply() がエラーを返した: %v", err)
	}
	if len(*requests) != 0 {
		t.Error("送信するメッセージがないのにリクエストが飛んだ")
	}
}

func TestClient_Multicast(t *testing.T) {
	c, requests, closeFn := newTestClient(t, http.StatusOK)
	defer closeFn()

	if err := c.Multicast(context.Background(), []string{"U1", "U2"}, testMessages(1)); err != nil {
		t.Fatalf("Multicast() がエラーを返した: %v", err)
	}

	req := (*requests)[0]
	if req.path != "/v2/bot/message/multicast" {
		t.Errorf("path = %q", req.path)
	}
	var body multicastRequest
	if err := json.Unmarshal(req.body, &body); err != nil {
		t.Fatalf("リクエストボディのパースに失敗: %v", err)
	}
	if len(body.To) != 2 || body.To[0] != "U1" {
		t.Errorf("to = %v", body.To)
	}
}

func TestClient_Multicast_SplitsRecipients(t *testing.T) {
	c, requests, closeFn := newTestClient(t, http.StatusOK)
	defer closeFn()

	userIDs := make([]string, 1200)
	for i := range userIDs {
		userIDs[i] = fmt.Sprintf("U%04d", i)
	}
	if err := c.Multicast(context.Background(), userIDs, testMessages(1)); err != nil {
		t.Fatalf("Multicast() がエラーを返した: %v", err)
	}

	if len(*requests) != 3 {
		t.Fatalf("リクエスト数 = %d, want 3", len(*requests))
	}
	var counts []int
	for _, req := range *requests {
		var body multicastRequest
		if err := json.Unmarshal(req.body, &body); err != nil {
			t.Fatalf("リクエストボディのパースに失敗: %v", err)
		}
		counts = append(counts, len(body.To))
	}
	if counts[0] != 500 || counts[1] != 500 || counts[2] != 200 {
		t.Errorf("宛先の分割 = %v, want [500 500 200]", counts)
	}
}

func TestClient_Multicast_NoRecipients(t *testing.T) {
	c, requests, closeFn := newTestClient(t, http.StatusOK)
	defer closeFn()

	if err := c.Multicast(context.Background(), nil, testMessages(1)); err != nil {
		t.Fatalf("Multicast() がエラーを返した: %v", err)
	}
	if len(*requests) != 0 {
		t.Error("宛先がないのにリクエストが飛んだ")
	}
}

func TestClient_Post_ErrorStatus(t *testing.T) {
	c, _, closeFn := newTestClient(t, http.StatusTooManyRequests)
	defer closeFn()

	err := c.Reply(context.Background(), "token", testMessages(1))
	if err == nil {
		t.Fatal("エラーステータスでエラーを返さなかった")
	}
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodePushFailed {
		t.Errorf("err = %v, want %s", err, model.ErrCodePushFailed)
	}
}
