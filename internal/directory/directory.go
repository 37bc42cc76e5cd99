// Package directory loads outlet catalogs from files or a remote media
// directory that pages its records as JSON.
package directory

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/spigell/outlet-matcher/internal/outlet"
)

const (
	userAgent = "spigell/outlet-matcher"
	// Max value for records per page.
	perPage = "100"
)

type Client struct {
	token      string
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
}

// New returns a client for remote directories. token may be empty for
// public exports.
func New(logger *zap.Logger, token string) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		token: token,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger:    logger,
		UserAgent: userAgent,
	}
}

// Load reads a catalog from an http(s) URL or a local file.
func (c *Client) Load(ctx context.Context, source string) (*outlet.Outlets, error) {
	if IsRemote(source) {
		return c.Fetch(ctx, source)
	}
	return ReadFile(source)
}

// Fetch downloads every page of a remote directory and decodes the records.
func (c *Client) Fetch(ctx context.Context, endpoint string) (*outlet.Outlets, error) {
	q := url.Values{}
	q.Set("per_page", perPage)

	records, err := c.getRecords(ctx, endpoint, q)
	if err != nil {
		return nil, fmt.Errorf("fetching directory %s: %w", endpoint, err)
	}

	return outlet.Decode(records)
}

func IsRemote(source string) bool {
	u, err := url.Parse(source)
	if err != nil {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

// ReadFile decodes a JSON or YAML catalog file. The file holds either a list
// of records or an object with an "outlets" list.
func ReadFile(path string) (*outlet.Outlets, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}

	records, err := parseRecords(data)
	if err != nil {
		return nil, fmt.Errorf("parsing catalog %s: %w", filepath.Base(path), err)
	}

	return outlet.Decode(records)
}

// parseRecords relies on YAML being a superset of JSON.
func parseRecords(data []byte) ([]map[string]any, error) {
	if strings.TrimSpace(string(data)) == "" {
		return nil, fmt.Errorf("catalog is empty")
	}

	var list []map[string]any
	if err := yaml.Unmarshal(data, &list); err == nil {
		return list, nil
	}

	var wrapped struct {
		Outlets []map[string]any `yaml:"outlets"`
	}
	if err := yaml.Unmarshal(data, &wrapped); err != nil {
		return nil, err
	}
	if wrapped.Outlets == nil {
		return nil, fmt.Errorf("no outlets list found")
	}

	return wrapped.Outlets, nil
}
