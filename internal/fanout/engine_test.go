package fanout

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/hitoshi/newsline/internal/message"
	"github.com/hitoshi/newsline/internal/model"
	"github.com/hitoshi/newsline/internal/source"
)

// mockUserRepo はUserRepositoryのテスト用モック。
type mockUserRepo struct {
	users   []*model.User
	scanErr error
}

func (m *mockUserRepo) ScanAll(_ context.Context) ([]*model.User, error) {
	return m.users, m.scanErr
}

func (m *mockUserRepo) FindByID(_ context.Context, _ string) (*model.User, error) {
	return nil, nil
}

func (m *mockUserRepo) Insert(_ context.Context, _ string) error { return nil }

func (m *mockUserRepo) Upsert(_ context.Context, _ string, _ map[string]bool) error { return nil }

func (m *mockUserRepo) Delete(_ context.Context, _ string) error { return nil }

// fakeSource はSourceのテスト用実装。
type fakeSource struct {
	key        string
	flagColumn string
	mandatory  bool
	items      []model.ContentItem
	err        error
}

func (f *fakeSource) Key() string        { return f.key }
func (f *fakeSource) Label() string      { return f.key }
func (f *fakeSource) Mandatory() bool    { return f.mandatory }
func (f *fakeSource) FlagColumn() string { return f.flagColumn }

func (f *fakeSource) Fetch(_ context.Context, _ []string) ([]model.ContentItem, error) {
	return f.items, f.err
}

// mockPusher はPusherのテスト用モック。並列配信に備えてロックする。
type mockPusher struct {
	mu    sync.Mutex
	calls []pushCall
	err   error
}

type pushCall struct {
	userIDs  []string
	messages []message.Message
}

func (m *mockPusher) Multicast(_ context.Context, userIDs []string, messages []message.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, pushCall{userIDs: userIDs, messages: messages})
	return m.err
}

// nopCollector はMetricsCollectorの何もしない実装。
type nopCollector struct{}

func (nopCollector) RecordFetchSuccess(string)                {}
func (nopCollector) RecordFetchFailure(string)                {}
func (nopCollector) RecordFetchLatency(string, time.Duration) {}
func (nopCollector) RecordPush(string, int)                   {}
func (nopCollector) RecordPushFailure(string)                 {}
func (nopCollector) RecordWebhookEvent(string)                {}

func newTestEngine(users []*model.User, sources []source.Source, pusher *mockPusher) *Engine {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	return NewEngine(&mockUserRepo{users: users}, sources, pusher, logger, nopCollector{}, 12, 4)
}

func oneItem() []model.ContentItem {
	return []model.ContentItem{{Title: "記事", Link: "https://example.com"}}
}

func TestEngine_RunCycle_MandatoryIncludesAllEnabledUsers(t *testing.T) {
	users := []*model.User{
		{ID: "U1", Enabled: true},                // フラグは全false
		{ID: "U2", Enabled: true, SmartJp: true}, // 関係ないフラグのみtrue
		{ID: "U3", Enabled: false},               // マスタースイッチがオフ
	}
	src := &fakeSource{key: "jpcertAlert", mandatory: true, items: oneItem()}
	pusher := &mockPusher{}

	if err := newTestEngine(users, []source.Source{src}, pusher).RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle() がエラーを返した: %v", err)
	}

	if len(pusher.calls) != 1 {
		t.Fatalf("配信回数 = %d, want 1", len(pusher.calls))
	}
	got := pusher.calls[0].userIDs
	if len(got) != 2 || got[0] != "U1" || got[1] != "U2" {
		t.Errorf("宛先 = %v, want [U1 U2]", got)
	}
}

func TestEngine_RunCycle_NonMandatoryRequiresFlag(t *testing.T) {
	users := []*model.User{
		{ID: "U1", Enabled: true, SmartJp: true},
		{ID: "U2", Enabled: true, SmartJp: false},
		{ID: "U3", Enabled: false, SmartJp: true}, // フラグがあってもマスタースイッチ優先
	}
	src := &fakeSource{key: "smartJp", flagColumn: model.FlagSmartJp, items: oneItem()}
	pusher := &mockPusher{}

	if err := newTestEngine(users, []source.Source{src}, pusher).RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle() がエラーを返した: %v", err)
	}

	if len(pusher.calls) != 1 {
		t.Fatalf("配信回数 = %d, want 1", len(pusher.calls))
	}
	got := pusher.calls[0].userIDs
	if len(got) != 1 || got[0] != "U1" {
		t.Errorf("宛先 = %v, want [U1]", got)
	}
}

func TestEngine_RunCycle_FetchFailureIsolation(t *testing.T) {
	users := []*model.User{{ID: "U1", Enabled: true, SmartJp: true, Zdjapan: true}}
	broken := &fakeSource{key: "zdjapan", flagColumn: model.FlagZdjapan, err: errors.New("接続失敗")}
	healthy := &fakeSource{key: "smartJp", flagColumn: model.FlagSmartJp, items: oneItem()}
	pusher := &mockPusher{}

	if err := newTestEngine(users, []source.Source{broken, healthy}, pusher).RunCycle(context.Background()); err != nil {
		t.Fatalf("1ソースの失敗がサイクル全体のエラーになった: %v", err)
	}

	// 壊れたソースの分は配信されず、健全なソースの分は配信される
	if len(pusher.calls) != 1 {
		t.Fatalf("配信回数 = %d, want 1", len(pusher.calls))
	}
}

func TestEngine_RunCycle_PushFailureIsolation(t *testing.T) {
	users := []*model.User{{ID: "U1", Enabled: true, SmartJp: true, Zdjapan: true}}
	s1 := &fakeSource{key: "smartJp", flagColumn: model.FlagSmartJp, items: oneItem()}
	s2 := &fakeSource{key: "zdjapan", flagColumn: model.FlagZdjapan, items: oneItem()}
	pusher := &mockPusher{err: errors.New("multicast失敗")}

	// 全配信が失敗してもサイクル自体はエラーにならない
	if err := newTestEngine(users, []source.Source{s1, s2}, pusher).RunCycle(context.Background()); err != nil {
		t.Fatalf("配信失敗がサイクル全体のエラーになった: %v", err)
	}
	if len(pusher.calls) != 2 {
		t.Errorf("配信試行回数 = %d, want 2", len(pusher.calls))
	}
}

func TestEngine_RunCycle_SkipsEmptyRecipients(t *testing.T) {
	users := []*model.User{{ID: "U1", Enabled: true}} // どのフラグもfalse
	src := &fakeSource{key: "smartJp", flagColumn: model.FlagSmartJp, items: oneItem()}
	pusher := &mockPusher{}

	if err := newTestEngine(users, []source.Source{src}, pusher).RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle() がエラーを返した: %v", err)
	}
	if len(pusher.calls) != 0 {
		t.Errorf("宛先のないソースが配信された: %d回", len(pusher.calls))
	}
}

func TestEngine_RunCycle_SkipsEmptyResult(t *testing.T) {
	users := []*model.User{{ID: "U1", Enabled: true, SmartJp: true}}
	src := &fakeSource{key: "smartJp", flagColumn: model.FlagSmartJp} // 新着なし
	pusher := &mockPusher{}

	if err := newTestEngine(users, []source.Source{src}, pusher).RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle() がエラーを返した: %v", err)
	}
	if len(pusher.calls) != 0 {
		t.Errorf("新着のないソースが配信された: %d回", len(pusher.calls))
	}
}

func TestEngine_RunCycle_PaginatesLongResults(t *testing.T) {
	users := []*model.User{{ID: "U1", Enabled: true, SmartJp: true}}
	var items []model.ContentItem
	for i := 0; i < 30; i++ {
		items = append(items, model.ContentItem{Title: "記事", Link: "https://example.com"})
	}
	src := &fakeSource{key: "smartJp", flagColumn: model.FlagSmartJp, items: items}
	pusher := &mockPusher{}

	if err := newTestEngine(users, []source.Source{src}, pusher).RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle() がエラーを返した: %v", err)
	}

	// 30件はページサイズ12で3ページになり、ページごとに1回配信される
	if len(pusher.calls) != 3 {
		t.Fatalf("配信回数 = %d, want 3", len(pusher.calls))
	}
	for i, call := range pusher.calls {
		if len(call.messages) != 1 {
			t.Errorf("calls[%d]のメッセージ数 = %d, want 1", i, len(call.messages))
		}
	}
}

func TestEngine_RunCycle_ScanFailure(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	repo := &mockUserRepo{scanErr: errors.New("接続失敗")}
	e := NewEngine(repo, nil, &mockPusher{}, logger, nopCollector{}, 12, 4)

	err := e.RunCycle(context.Background())
	if err == nil {
		t.Fatal("スナップショット取得失敗でエラーを返さなかった")
	}
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeStoreFailed {
		t.Errorf("err = %v, want %s", err, model.ErrCodeStoreFailed)
	}
}
