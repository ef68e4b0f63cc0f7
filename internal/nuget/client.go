// Package nuget looks up published package versions on a NuGet v3
// flat-container feed.
package nuget

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultFeedURL = "https://api.nuget.org/v3-flatcontainer"
	DefaultTimeout = 15 * time.Second

	headerAccept    = "application/json"
	headerUserAgent = "bump-nuget"
	errorBodyLimit  = 4096
)

var (
	ErrNotFound   = errors.New("package not found")
	ErrNoVersions = errors.New("no published versions")
)

type indexResponse struct {
	Versions []string `json:"versions"`
}

// Client fetches the version index of a package id.
type Client struct {
	httpClient *http.Client
	feedURL    string
	timeout    time.Duration
}

// NewClient returns a Client for feedURL; an empty feedURL or non-positive
// timeout selects the nuget.org defaults. A nil httpClient uses
// http.DefaultClient.
func NewClient(httpClient *http.Client, feedURL string, timeout time.Duration) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if strings.TrimSpace(feedURL) == "" {
		feedURL = DefaultFeedURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		httpClient: httpClient,
		feedURL:    strings.TrimRight(strings.TrimSpace(feedURL), "/"),
		timeout:    timeout,
	}
}

// IndexURL is the flat-container index for id; ids are lower-cased as the
// feed requires.
func (c *Client) IndexURL(id string) string {
	return c.feedURL + "/" + url.PathEscape(strings.ToLower(id)) + "/index.json"
}

// Versions returns the published versions of id in feed order.
func (c *Client) Versions(ctx context.Context, id string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.IndexURL(id), nil)
	if err != nil {
		return nil, fmt.Errorf("create version index request: %w", err)
	}
	req.Header.Set("Accept", headerAccept)
	req.Header.Set("User-Agent", headerUserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request version index: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("version index for %s: %w", id, ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		return nil, fmt.Errorf("version index request failed: status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var decoded indexResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode version index response: %w", err)
	}
	return decoded.Versions, nil
}
