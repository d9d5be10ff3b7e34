package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestFetcherRun(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<html><body><h1>Pancakes</h1></body></html>"))
	}))
	defer server.Close()

	fetcher := NewFetcher("recipe-comb/test", 5*time.Second)
	source, err := fetcher.Run(context.Background(), server.URL)

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if source.URL != server.URL {
		t.Errorf("Expected source URL '%s', got '%s'", server.URL, source.URL)
	}
	if !strings.Contains(source.Body, "Pancakes") {
		t.Errorf("Expected body to contain page content")
	}
	if source.Doc.Find("h1").Text() != "Pancakes" {
		t.Errorf("Expected parsed document to expose selectors")
	}
}

func TestFetcherRetriesAlternateProfiles(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		// Reject the first (browser-like) identity, accept the next one.
		if attempts == 1 {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Write([]byte("<html><body>ok</body></html>"))
	}))
	defer server.Close()

	fetcher := NewFetcher("recipe-comb/test", 5*time.Second)
	source, err := fetcher.Run(context.Background(), server.URL)

	if err != nil {
		t.Fatalf("Expected retry to succeed, got: %v", err)
	}
	if attempts != 2 {
		t.Errorf("Expected 2 attempts, got %d", attempts)
	}
	if source == nil {
		t.Fatalf("Expected a source from the second attempt")
	}
}

func TestFetcherAllProfilesExhausted(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	fetcher := NewFetcher("recipe-comb/test", 5*time.Second)
	_, err := fetcher.Run(context.Background(), server.URL)

	if err == nil {
		t.Fatalf("Expected error when every identity profile is rejected")
	}
	if attempts != len(identityProfiles) {
		t.Errorf("Expected %d attempts, got %d", len(identityProfiles), attempts)
	}
}

func TestFetcherSendsProfileHeaders(t *testing.T) {
	var userAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent = r.Header.Get("User-Agent")
		w.Write([]byte("<html></html>"))
	}))
	defer server.Close()

	fetcher := NewFetcher("recipe-comb/test", 5*time.Second)
	_, err := fetcher.Run(context.Background(), server.URL)

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !strings.Contains(userAgent, "Mozilla") {
		t.Errorf("Expected first attempt to use the browser profile, got '%s'", userAgent)
	}
}

func TestParse(t *testing.T) {
	source, err := Parse("https://example.com/soup", "<html><body><ul><li>1 cup water</li></ul></body></html>")

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if source.Doc.Find("li").Length() != 1 {
		t.Errorf("Expected one list item in the parsed document")
	}
}
