// Package api is the HTTP client for the crawl backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"crawlwatch/internal/model"
)

// maxErrorBody caps how much of a failed response body is kept for diagnostics.
const maxErrorBody = 512

// StatusError is returned for non-2xx responses other than a status-fetch 404.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("HTTP %d", e.Code)
	}
	return fmt.Sprintf("HTTP %d: %s", e.Code, e.Body)
}

// Client talks to the crawl backend rooted at a base URL such as http://localhost:8080/api.
type Client struct {
	base  *url.URL
	http  *http.Client
	newID func() string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient injects the underlying HTTP client (timeouts, transports, tests).
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.http = h
	}
}

// WithRequestIDs overrides the generator used for X-Request-ID headers.
func WithRequestIDs(f func() string) Option {
	return func(c *Client) {
		c.newID = f
	}
}

// New constructs a Client. The base URL must be absolute.
func New(base string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(base), "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid API base %q", base)
	}
	c := &Client{base: u}
	for _, o := range opts {
		o(c)
	}
	if c.http == nil {
		c.http = http.DefaultClient
	}
	if c.newID == nil {
		c.newID = uuid.NewString
	}
	return c, nil
}

// FetchStatus issues GET /crawl/{id}. A 404 is reported as model.ErrJobNotFound.
func (c *Client) FetchStatus(ctx context.Context, id string) (model.StatusRecord, error) {
	var rec model.StatusRecord
	resp, err := c.do(ctx, http.MethodGet, c.endpoint(nil, "crawl", id), nil)
	if err != nil {
		return rec, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return rec, fmt.Errorf("crawl %s: %w", id, model.ErrJobNotFound)
	}
	if err := checkStatus(resp); err != nil {
		return rec, err
	}
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		return rec, fmt.Errorf("decode status: %w", err)
	}
	return rec, nil
}

// StartCrawl issues POST /crawl and returns the id of the new job.
func (c *Client) StartCrawl(ctx context.Context, req model.CrawlRequest) (string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	resp, err := c.do(ctx, http.MethodPost, c.endpoint(nil, "crawl"), payload)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return "", err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read crawl id: %w", err)
	}
	id := parseCrawlID(body)
	if id == "" {
		return "", fmt.Errorf("server returned an empty crawl id")
	}
	return id, nil
}

// StopCrawl issues POST /crawl/{id}/stop.
func (c *Client) StopCrawl(ctx context.Context, id string) error {
	resp, err := c.do(ctx, http.MethodPost, c.endpoint(nil, "crawl", id, "stop"), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("crawl %s: %w", id, model.ErrJobNotFound)
	}
	return checkStatus(resp)
}

// Search issues GET /search?query=.
func (c *Client) Search(ctx context.Context, query string) ([]model.SearchResult, error) {
	q := url.Values{"query": []string{query}}
	resp, err := c.do(ctx, http.MethodGet, c.endpoint(q, "search"), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var raw []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode search results: %w", err)
	}
	results := make([]model.SearchResult, 0, len(raw))
	for _, item := range raw {
		// Older backends return bare URL strings.
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			results = append(results, model.SearchResult{URL: s})
			continue
		}
		var r model.SearchResult
		if err := json.Unmarshal(item, &r); err != nil {
			return nil, fmt.Errorf("decode search result: %w", err)
		}
		results = append(results, r)
	}
	return results, nil
}

// Ping reports whether the backend answers HTTP at all; any response status counts.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, c.endpoint(nil, "crawl"), nil)
	if err != nil {
		return err
	}
	_ = resp.Body.Close()
	return nil
}

func (c *Client) endpoint(q url.Values, segments ...string) string {
	u := *c.base
	escaped := make([]string, 0, len(segments))
	for _, s := range segments {
		escaped = append(escaped, url.PathEscape(s))
	}
	u.Path = strings.TrimRight(c.base.Path, "/") + "/" + strings.Join(segments, "/")
	u.RawPath = strings.TrimRight(c.base.EscapedPath(), "/") + "/" + strings.Join(escaped, "/")
	if q != nil {
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func (c *Client) do(ctx context.Context, method, target string, body []byte) (*http.Response, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, rd)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", c.newID())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, target, err)
	}
	return resp, nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(b))}
}

// parseCrawlID accepts a JSON string, a JSON object with an id field, or plain text.
func parseCrawlID(body []byte) string {
	var s string
	if err := json.Unmarshal(body, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var obj struct {
		ID      string `json:"id"`
		CrawlID string `json:"crawlId"`
	}
	if err := json.Unmarshal(body, &obj); err == nil {
		if obj.ID != "" {
			return obj.ID
		}
		if obj.CrawlID != "" {
			return obj.CrawlID
		}
	}
	return strings.TrimSpace(string(body))
}
