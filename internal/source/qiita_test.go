package source

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestQiitaSource_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[
  {"title": "Goでボットを作る", "url": "https://qiita.com/items/1"},
  {"title": "PostgreSQL入門", "url": "https://qiita.com/items/2"},
  {"title": "LINE Messaging APIの使い方", "url": "https://qiita.com/items/3"}
]`)
	}))
	defer server.Close()

	s := NewQiitaSource(newTestClient(t))
	s.url = server.URL

	items, err := s.Fetch(context.Background(), nil)
	if err != nil {
		t.Fatalf("Fetch() がエラーを返した: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("記事数 = %d, want 3", len(items))
	}
	if items[0].Title != "Goでボットを作る" || items[0].Link != "https://qiita.com/items/1" {
		t.Errorf("items[0] = %+v", items[0])
	}
}

func TestQiitaSource_Fetch_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "not json")
	}))
	defer server.Close()

	s := NewQiitaSource(newTestClient(t))
	s.url = server.URL

	if _, err := s.Fetch(context.Background(), nil); err == nil {
		t.Error("不正なJSONでエラーを返さなかった")
	}
}
