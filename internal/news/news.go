// Package news pulls recent coverage of outlets from their RSS or Atom feeds.
package news

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"

	"github.com/spigell/outlet-matcher/internal/outlet"
	"github.com/spigell/outlet-matcher/internal/textutil"
	"github.com/spigell/outlet-matcher/internal/utils"
)

const (
	userAgent       = "spigell/outlet-matcher"
	acceptEncoding  = "gzip"
	defaultMaxItems = 20
	defaultMaxAge   = 30 * 24 * time.Hour
	// Descriptions longer than this add noise to similarity scores.
	maxDescriptionRunes = 600
)

// Target is an outlet feed to refresh.
type Target struct {
	OutletID string
	FeedURL  string
}

type Client struct {
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	MaxItems   int
	MaxAge     time.Duration
	// Delay is waited between feeds of a batch refresh.
	Delay time.Duration

	now func() time.Time
}

func New(logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		logger: logger,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		UserAgent: userAgent,
		MaxItems:  defaultMaxItems,
		MaxAge:    defaultMaxAge,
		now:       time.Now,
	}
}

// Fetch downloads one feed and returns its recent items, newest first.
// Items without a publication date are kept and sorted last.
func (c *Client) Fetch(ctx context.Context, feedURL string) ([]outlet.Article, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create feed request: %w", err)
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept-Encoding", acceptEncoding)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bad status: %s", resp.Status)
	}

	var body io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("open gzip feed: %w", err)
		}
		defer gz.Close()
		body = gz
	}

	feed, err := gofeed.NewParser().Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	articles := c.articles(feed)
	c.logger.Debug("feed fetched",
		zap.String("feed", feedURL),
		zap.Int("items", len(feed.Items)),
		zap.Int("kept", len(articles)),
	)
	if len(articles) > 0 {
		c.logger.Debug("latest feed item",
			zap.String("feed", feedURL),
			zap.String("title", utils.TruncateForLog(articles[0].Title, 80)),
		)
	}

	return articles, nil
}

func (c *Client) articles(feed *gofeed.Feed) []outlet.Article {
	now := time.Now
	if c.now != nil {
		now = c.now
	}
	cutoff := time.Time{}
	if c.MaxAge > 0 {
		cutoff = now().Add(-c.MaxAge)
	}

	out := make([]outlet.Article, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil || strings.TrimSpace(item.Title) == "" {
			continue
		}

		var published time.Time
		switch {
		case item.PublishedParsed != nil:
			published = *item.PublishedParsed
		case item.UpdatedParsed != nil:
			published = *item.UpdatedParsed
		}
		if !published.IsZero() && !cutoff.IsZero() && published.Before(cutoff) {
			continue
		}

		description := item.Description
		if description == "" {
			description = item.Content
		}

		out = append(out, outlet.Article{
			Title:       textutil.StripHTML(item.Title),
			Description: truncate(textutil.StripHTML(description), maxDescriptionRunes),
			URL:         item.Link,
			PublishedAt: published.UTC(),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PublishedAt.After(out[j].PublishedAt)
	})

	if c.MaxItems > 0 && len(out) > c.MaxItems {
		out = out[:c.MaxItems]
	}
	return out
}

// Refresh fetches every target in order, waiting Delay between requests.
// Failed feeds are logged and reported in errs; they do not stop the batch.
func (c *Client) Refresh(ctx context.Context, targets []Target) (map[string][]outlet.Article, map[string]error) {
	articles := make(map[string][]outlet.Article, len(targets))
	errs := make(map[string]error)

	for i, target := range targets {
		if i > 0 {
			if err := utils.WaitFor(ctx, c.Delay); err != nil {
				errs[target.OutletID] = err
				return articles, errs
			}
		}

		items, err := c.Fetch(ctx, target.FeedURL)
		if err != nil {
			c.logger.Warn("feed refresh failed",
				zap.String("outlet", target.OutletID),
				zap.String("feed", target.FeedURL),
				zap.Error(err),
			)
			errs[target.OutletID] = err
			continue
		}
		articles[target.OutletID] = items
	}

	return articles, errs
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
