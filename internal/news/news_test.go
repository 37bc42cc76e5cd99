package news

import (
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const rssFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>EdSurge</title>
  <item>
    <title>Adaptive assessments reach K-12 classrooms</title>
    <link>https://example.com/adaptive</link>
    <description>&lt;p&gt;How &lt;b&gt;tutoring&lt;/b&gt; platforms adapt to students&lt;/p&gt;</description>
    <pubDate>Wed, 14 Oct 2026 09:00:00 GMT</pubDate>
  </item>
  <item>
    <title>Teachers and generative tools</title>
    <link>https://example.com/teachers</link>
    <pubDate>Fri, 16 Oct 2026 09:00:00 GMT</pubDate>
  </item>
  <item>
    <title>Ancient history</title>
    <pubDate>Mon, 05 Jan 2026 09:00:00 GMT</pubDate>
  </item>
  <item>
    <title>Undated explainer</title>
  </item>
</channel>
</rss>`

func newTestClient(now time.Time) *Client {
	c := New(zap.NewNop())
	c.now = func() time.Time { return now }
	return c
}

func TestFetchFiltersAndSorts(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != userAgent {
			t.Errorf("unexpected user agent %q", r.Header.Get("User-Agent"))
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(rssFeed))
	}))
	defer server.Close()

	c := newTestClient(time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC))

	articles, err := c.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}

	if len(articles) != 3 {
		t.Fatalf("expected 3 recent articles, got %d: %+v", len(articles), articles)
	}
	if articles[0].Title != "Teachers and generative tools" {
		t.Fatalf("expected newest first, got %q", articles[0].Title)
	}
	if articles[1].Description != "How tutoring platforms adapt to students" {
		t.Fatalf("expected stripped description, got %q", articles[1].Description)
	}
	if articles[2].Title != "Undated explainer" || !articles[2].PublishedAt.IsZero() {
		t.Fatalf("expected undated item last, got %+v", articles[2])
	}
}

func TestFetchHonoursMaxItems(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(rssFeed))
	}))
	defer server.Close()

	c := newTestClient(time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC))
	c.MaxItems = 1

	articles, err := c.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("expected 1 article, got %d", len(articles))
	}
}

func TestFetchDecodesGzip(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, _ = gz.Write([]byte(rssFeed))
	_ = gz.Close()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		_, _ = w.Write(buf.Bytes())
	}))
	defer server.Close()

	c := newTestClient(time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC))

	articles, err := c.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(articles) != 3 {
		t.Fatalf("expected 3 articles, got %d", len(articles))
	}
}

func TestRefreshContinuesAfterFailures(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/broken" {
			http.Error(w, "nope", http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(rssFeed))
	}))
	defer server.Close()

	core, observed := observer.New(zapcore.WarnLevel)
	c := New(zap.New(core))
	c.now = func() time.Time { return time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC) }

	articles, errs := c.Refresh(context.Background(), []Target{
		{OutletID: "broken", FeedURL: server.URL + "/broken"},
		{OutletID: "edsurge", FeedURL: server.URL + "/feed"},
	})

	if len(articles["edsurge"]) != 3 {
		t.Fatalf("expected edsurge articles, got %+v", articles)
	}
	if errs["broken"] == nil || len(errs) != 1 {
		t.Fatalf("expected a single error for the broken feed, got %v", errs)
	}
	if observed.FilterMessage("feed refresh failed").Len() != 1 {
		t.Fatalf("expected one warning log")
	}
}

func TestRefreshStopsOnCancel(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(rssFeed))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	c := newTestClient(time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC))
	c.Delay = time.Hour
	c.HTTPClient = &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		cancel()
		return http.DefaultTransport.RoundTrip(r)
	})}

	articles, errs := c.Refresh(ctx, []Target{
		{OutletID: "first", FeedURL: server.URL},
		{OutletID: "second", FeedURL: server.URL},
	})

	if _, ok := articles["second"]; ok {
		t.Fatalf("expected refresh to stop before the second feed")
	}
	if errs["second"] == nil {
		t.Fatalf("expected cancellation error for the second feed, got %v", errs)
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }
