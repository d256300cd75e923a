// Package client is a typed FoodShare API client with a query cache.
//
// Reads go through Query, which caches the decoded-ready JSON body under a
// key built from the request path and its sorted query string. Writes go
// through the typed mutation helpers, which invalidate every cached key the
// write can affect so the next read refetches. Entries are never evicted
// otherwise.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// APIError is a non-2xx response from the API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("foodshare api: %d %s", e.Status, e.Message)
}

// IsStatus reports whether err is an *APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// Config holds client configuration.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client talks to one FoodShare API. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu     sync.RWMutex
	token  string
	userID uint
	cache  map[string][]byte
	gen    uint64

	group singleflight.Group
}

// New creates a client for cfg.BaseURL.
func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpClient,
		cache:      make(map[string][]byte),
	}
}

// SetSession switches the client to another session. The cache belongs to
// the previous caller, so it is dropped.
func (c *Client) SetSession(token string, userID uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
	c.userID = userID
	c.resetLocked()
}

// Token returns the current session token, or "".
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// UserID returns the signed-in user, or 0.
func (c *Client) UserID() uint {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID
}

// QueryKey builds the cache key for path and params. url.Values.Encode sorts
// by key, so equal parameter sets share an entry.
func QueryKey(path string, params url.Values) string {
	if len(params) == 0 {
		return path
	}
	return path + "?" + params.Encode()
}

// Query decodes the GET response for path and params into out, serving it
// from the cache when present. Concurrent misses on one key share a single
// request; a caller whose ctx ends stops waiting without failing the others.
func (c *Client) Query(ctx context.Context, path string, params url.Values, out any) error {
	key := QueryKey(path, params)

	c.mu.RLock()
	data, ok := c.cache[key]
	gen := c.gen
	c.mu.RUnlock()

	if !ok {
		// the fetch is shared, so it must not die with whichever caller started it
		fetchCtx := context.WithoutCancel(ctx)
		ch := c.group.DoChan(key, func() (any, error) {
			body, err := c.do(fetchCtx, http.MethodGet, key, "", nil)
			if err != nil {
				return nil, err
			}
			c.mu.Lock()
			// a write since the lookup may have made body stale
			if c.gen == gen {
				c.cache[key] = body
			}
			c.mu.Unlock()
			return body, nil
		})
		select {
		case res := <-ch:
			if res.Err != nil {
				return res.Err
			}
			data = res.Val.([]byte)
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// Cached reports whether the response for path and params is cached.
func (c *Client) Cached(path string, params url.Values) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.cache[QueryKey(path, params)]
	return ok
}

// Invalidate drops every cached key equal to a prefix or nested below it,
// either as a sub-path or with a query string.
func (c *Client) Invalidate(prefixes ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	for key := range c.cache {
		for _, p := range prefixes {
			if key == p || strings.HasPrefix(key, p+"/") || strings.HasPrefix(key, p+"?") {
				delete(c.cache, key)
				break
			}
		}
	}
}

// Reset drops the whole cache.
func (c *Client) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
}

func (c *Client) resetLocked() {
	c.gen++
	c.cache = make(map[string][]byte)
}

// mutate sends a JSON write, decodes the response into out and invalidates
// the given prefixes. Prefixes are dropped even when the write fails, since
// the server may have applied part of it.
func (c *Client) mutate(ctx context.Context, method, path string, in, out any, invalidate ...string) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
		contentType = "application/json"
	}

	data, err := c.do(ctx, method, path, contentType, body)
	if len(invalidate) > 0 {
		c.Invalidate(invalidate...)
	}
	if err != nil {
		return err
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newAPIError(resp.StatusCode, data)
	}
	return data, nil
}

func newAPIError(status int, body []byte) *APIError {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return &APIError{Status: status, Message: payload.Error}
	}
	return &APIError{Status: status, Message: http.StatusText(status)}
}
