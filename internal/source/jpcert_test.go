package source

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const jpcertFixture = `<!DOCTYPE html>
<html>
<body>
<div class="container">
  <h3>注意喚起</h3>
  <ul class="list">
    <li><a href="/at/2026/at260015.html">
      <span class="left_area">2026-08-28</span>
      <span class="right_area">Apache Tomcatの脆弱性に関する注意喚起</span>
    </a></li>
    <li><a href="/at/2026/at260014.html">
      <span class="left_area">2026-08-27</span>
      <span class="right_area">OpenSSLの脆弱性に関する注意喚起</span>
    </a></li>
    <li><a href="/at/2026/at260010.html">
      <span class="left_area">2026-08-20</span>
      <span class="right_area">古い注意喚起</span>
    </a></li>
  </ul>
</div>
<div class="container">
  <h3>脆弱性関連情報</h3>
  <ul class="list">
    <li><a href="https://jvn.jp/vu/JVNVU90000001/">
      <span class="left_area">2026-08-28 09:00</span>
      <span class="right_area">複数の製品における脆弱性</span>
    </a></li>
    <li><a href="https://jvn.jp/vu/JVNVU90000002/">
      <span class="left_area">2026-08-26 09:00</span>
      <span class="right_area">期間外の脆弱性</span>
    </a></li>
    <li><a href="https://jvn.jp/vu/JVNVU90000003/">
      <span class="left_area">不正な日時</span>
      <span class="right_area">日時がパースできない項目</span>
    </a></li>
  </ul>
</div>
<a class="fl" href="/wr/2026/wr263401.html">%s号</a>
<div class="contents">
  <ul>
    <li>Apache Tomcatに複数の脆弱性</li>
    <li>OpenSSLに脆弱性</li>
  </ul>
</div>
</body>
</html>`

func newJPCERTTestServer(t *testing.T, weeklyDate string) (*httptest.Server, *Client) {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, jpcertFixture, weeklyDate)
	}))
	t.Cleanup(server.Close)
	return server, newTestClient(t)
}

func TestJPCERTAlertSource_Fetch(t *testing.T) {
	server, client := newJPCERTTestServer(t, "2026-08-28")
	s := NewJPCERTAlertSource(client)
	s.url = server.URL

	items, err := s.Fetch(context.Background(), nil)
	if err != nil {
		t.Fatalf("Fetch() がエラーを返した: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("記事数 = %d, want 1: %+v", len(items), items)
	}
	if items[0].Title != "複数の製品における脆弱性" {
		t.Errorf("Title = %q", items[0].Title)
	}
	// JVN等へのリンクは絶対URLのためそのまま使う
	if items[0].Link != "https://jvn.jp/vu/JVNVU90000001/" {
		t.Errorf("Link = %q", items[0].Link)
	}
}

func TestJPCERTNoticeSource_Fetch(t *testing.T) {
	server, client := newJPCERTTestServer(t, "2026-08-28")
	s := NewJPCERTNoticeSource(client)
	s.url = server.URL

	items, err := s.Fetch(context.Background(), nil)
	if err != nil {
		t.Fatalf("Fetch() がエラーを返した: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("記事数 = %d, want 2: %+v", len(items), items)
	}
	if items[0].Title != "2026-08-28 Apache Tomcatの脆弱性に関する注意喚起" {
		t.Errorf("items[0].Title = %q", items[0].Title)
	}
	if !strings.HasPrefix(items[0].Link, server.URL) || !strings.HasSuffix(items[0].Link, "/at/2026/at260015.html") {
		t.Errorf("items[0].Link = %q", items[0].Link)
	}
	if items[1].Title != "2026-08-27 OpenSSLの脆弱性に関する注意喚起" {
		t.Errorf("items[1].Title = %q", items[1].Title)
	}
}

func TestJPCERTWeeklySource_Fetch_IssueDay(t *testing.T) {
	server, client := newJPCERTTestServer(t, "2026-08-28")
	s := NewJPCERTWeeklySource(client)
	s.url = server.URL

	items, err := s.Fetch(context.Background(), nil)
	if err != nil {
		t.Fatalf("Fetch() がエラーを返した: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("記事数 = %d, want 2: %+v", len(items), items)
	}
	if items[0].Title != "1. Apache Tomcatに複数の脆弱性" {
		t.Errorf("items[0].Title = %q", items[0].Title)
	}
	want := server.URL + "/wr/2026/wr263401.html#1"
	if items[0].Link != want {
		t.Errorf("items[0].Link = %q, want %q", items[0].Link, want)
	}
}

func TestJPCERTWeeklySource_Fetch_NotIssueDay(t *testing.T) {
	server, client := newJPCERTTestServer(t, "2026-08-25")
	s := NewJPCERTWeeklySource(client)
	s.url = server.URL

	items, err := s.Fetch(context.Background(), nil)
	if err != nil {
		t.Fatalf("Fetch() がエラーを返した: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("発行日以外に項目が返った: %+v", items)
	}
}
