package security

import (
	"testing"
	"time"
)

func TestValidateURL_AllowsPublicHTTPS(t *testing.T) {
	g := NewSSRFGuard()

	urls := []string{
		"https://rss.itmedia.co.jp/rss/2.0/news_bursts.xml",
		"https://www.jpcert.or.jp",
		"http://feeds.japan.zdnet.com/rss/zdnet/all.rdf",
		"http://webservice.recruit.co.jp/hotpepper/gourmet/v1/",
	}
	for _, u := range urls {
		if err := g.ValidateURL(u); err != nil {
			t.Errorf("ValidateURL(%q) = %v, want nil", u, err)
		}
	}
}

func TestValidateURL_BlocksPrivateAndLoopback(t *testing.T) {
	g := NewSSRFGuard()

	urls := []string{
		"http://127.0.0.1/feed",
		"http://localhost:8080/feed",
		"http://10.0.0.5/feed",
		"http://192.168.1.1/feed",
		"http://169.254.169.254/latest/meta-data/",
	}
	for _, u := range urls {
		if err := g.ValidateURL(u); err == nil {
			t.Errorf("ValidateURL(%q) = nil, want error", u)
		}
	}
}

func TestValidateURL_BlocksNonHTTPSchemes(t *testing.T) {
	g := NewSSRFGuard()

	urls := []string{
		"ftp://example.com/file",
		"file:///etc/passwd",
		"gopher://example.com",
		"",
	}
	for _, u := range urls {
		if err := g.ValidateURL(u); err == nil {
			t.Errorf("ValidateURL(%q) = nil, want error", u)
		}
	}
}

func TestNewSafeClient_ReturnsClient(t *testing.T) {
	g := NewSSRFGuard()

	client := g.NewSafeClient(5 * time.Second)
	if client == nil {
		t.Fatal("expected non-nil client")
	}
}
