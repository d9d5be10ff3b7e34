package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
)

// identityProfile is one request identity tried against a source. Some
// sites serve structured data only to browser-like clients, others block
// anything that is not a plain bot.
type identityProfile struct {
	name      string
	userAgent string
	headers   map[string]string
}

var identityProfiles = []identityProfile{
	{
		name:      "browser",
		userAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
		headers: map[string]string{
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
			"Accept-Language": "en-US,en;q=0.9",
		},
	},
	{
		name:      "reader",
		userAgent: "",
		headers: map[string]string{
			"Accept": "text/html,*/*;q=0.8",
		},
	},
	{
		name:      "minimal",
		userAgent: "curl/8.5.0",
		headers:   map[string]string{},
	},
}

// Source is a fetched page: the parsed document tree plus the raw body.
// Strategies probe both; some structured blobs are easier to find in the
// raw text than through the tree.
type Source struct {
	URL  string
	Doc  *goquery.Document
	Body string
}

type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	timeout    time.Duration
}

func NewFetcher(userAgent string, timeout time.Duration) *Fetcher {
	return &Fetcher{
		httpClient: &http.Client{},
		userAgent:  userAgent,
		timeout:    timeout,
	}
}

// Run fetches the URL, trying each request-identity profile in turn, and
// decodes the body to UTF-8 honoring the declared charset. Attempts are
// sequential so a struggling host is never hammered in parallel.
func (f *Fetcher) Run(ctx context.Context, url string) (*Source, error) {
	var lastErr error

	for _, profile := range identityProfiles {
		body, err := f.fetchOnce(ctx, url, profile)
		if err != nil {
			slog.Debug("Fetch attempt failed",
				"url", url, "profile", profile.name, "error", err)
			lastErr = err
			continue
		}

		doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
		if err != nil {
			lastErr = fmt.Errorf("failed to parse document: %w", err)
			continue
		}

		return &Source{URL: url, Doc: doc, Body: body}, nil
	}

	return nil, fmt.Errorf("all fetch attempts failed for %s: %w", url, lastErr)
}

// Parse builds a Source from an already-fetched body, for callers that
// bring their own bytes (tests, cached pages).
func Parse(url, body string) (*Source, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	return &Source{URL: url, Doc: doc, Body: body}, nil
}

func (f *Fetcher) fetchOnce(ctx context.Context, url string, profile identityProfile) (string, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	userAgent := profile.userAgent
	if userAgent == "" {
		userAgent = f.userAgent
	}
	req.Header.Set("User-Agent", userAgent)
	for key, value := range profile.headers {
		req.Header.Set(key, value)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	reader, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return "", fmt.Errorf("failed to detect charset: %w", err)
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	return string(data), nil
}
