package directory

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"
)

const (
	contentType     = "application/json"
	contentEncoding = "gzip"
)

// page is one response of a paged directory export.
type page struct {
	Items   []map[string]any `json:"items"`
	Found   int              `json:"found"`
	Pages   int              `json:"pages"`
	Page    int              `json:"page"`
	PerPage int              `json:"per_page"`
}

// getRecords requests the first page and then follows the page counter.
func (c *Client) getRecords(ctx context.Context, endpoint string, q url.Values) ([]map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	req = c.setHeaders(req)
	req.URL.RawQuery = q.Encode()

	resp, err := c.parsePage(c.request(req))
	if err != nil {
		return nil, err
	}

	c.logger.Debug("got directory page", zap.Int("pages", resp.Pages), zap.Int("per_page", resp.PerPage), zap.Int("found", resp.Found))

	records := append([]map[string]any(nil), resp.Items...)

	for resp.Page < (resp.Pages - 1) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		c.logger.Debug("additional request needed", zap.String("reason", fmt.Sprintf(
			"current page (%d) < all page count (%d)", resp.Page+1, resp.Pages),
		))

		next := resp.Page + 1
		resp, err = c.parsePage(c.request(withPage(req, next)))
		if err != nil {
			return nil, err
		}
		if resp.Page != next {
			return nil, fmt.Errorf("directory returned page %d, expected %d", resp.Page, next)
		}

		records = append(records, resp.Items...)
	}

	return records, nil
}

func (c *Client) parsePage(resp *http.Response, err error) (*page, error) {
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bad status: %s", resp.Status)
	}

	var body io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		body = gz
	}

	var p page
	if err := json.NewDecoder(body).Decode(&p); err != nil {
		return nil, fmt.Errorf("decoding directory page: %w", err)
	}

	return &p, nil
}

func (c *Client) request(req *http.Request) (*http.Response, error) {
	c.logger.Debug("make request", zap.String("url", req.URL.String()))
	return c.HTTPClient.Do(req)
}

func (c *Client) setHeaders(req *http.Request) *http.Request {
	if c.token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", contentType)
	req.Header.Set("Accept-Encoding", contentEncoding)

	return req
}

// withPage returns a copy of req asking for the given page.
func withPage(req *http.Request, n int) *http.Request {
	next := req.Clone(req.Context())
	q := next.URL.Query()
	q.Set("page", strconv.Itoa(n))
	next.URL.RawQuery = q.Encode()

	return next
}
