// Package client is the Go consumer of the folio API: a fetch wrapper
// with timeout and retry, an in-memory cache of the post list, and
// session state that survives transient network failures.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	defaultTimeout       = 10 * time.Second
	defaultRetryAttempts = 3
	defaultRetryBackoff  = time.Second
	defaultListCacheTTL  = 5 * time.Minute
)

// ErrUnauthorized is returned when the server rejects the session with
// 401 or 403.
var ErrUnauthorized = errors.New("unauthorized")

// APIError is a non-2xx response with a decoded error message.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s", e.StatusCode, e.Message)
}

// Post mirrors the wire shape of a blog post.
type Post struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Slug      string    `json:"slug"`
	Date      string    `json:"date"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Pagination mirrors the list endpoint's pagination block.
type Pagination struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	TotalPosts  int64 `json:"totalPosts"`
	HasNextPage bool  `json:"hasNextPage"`
	HasPrevPage bool  `json:"hasPrevPage"`
}

// PostList is the paginated list response.
type PostList struct {
	Posts      []Post     `json:"posts"`
	Pagination Pagination `json:"pagination"`
}

// Stats mirrors /api/posts/stats/summary.
type Stats struct {
	TotalPosts  int64 `json:"totalPosts"`
	RecentPosts int64 `json:"recentPosts"`
}

// User mirrors the authenticated admin identity.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// PostInput is the body for create and update.
type PostInput struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Date    string `json:"date,omitempty"`
}

// Option customizes a Client.
type Option func(*Client)

// WithTimeout sets the per-attempt request timeout.
func WithTimeout(d time.Duration) Option { return func(c *Client) { c.timeout = d } }

// WithRetries sets the attempt count and the base backoff, which grows
// linearly (base, 2*base, ...) between attempts.
func WithRetries(attempts int, backoff time.Duration) Option {
	return func(c *Client) {
		c.retryAttempts = attempts
		c.retryBackoff = backoff
	}
}

// WithListCacheTTL sets how long the cached post list stays fresh.
func WithListCacheTTL(d time.Duration) Option { return func(c *Client) { c.listCacheTTL = d } }

// WithHTTPClient swaps the underlying http.Client. A cookie jar is added
// when the given client has none, since the session rides a cookie.
func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.hc = hc } }

// Client talks to the folio API.
type Client struct {
	baseURL       string
	hc            *http.Client
	timeout       time.Duration
	retryAttempts int
	retryBackoff  time.Duration
	listCacheTTL  time.Duration

	mu            sync.Mutex
	authenticated bool
	cachedList    *PostList
	cachedListKey string
	cachedAt      time.Time
}

// New builds a Client for baseURL (e.g. "http://localhost:3001").
func New(baseURL string, opts ...Option) (*Client, error) {
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	c := &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		timeout:       defaultTimeout,
		retryAttempts: defaultRetryAttempts,
		retryBackoff:  defaultRetryBackoff,
		listCacheTTL:  defaultListCacheTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.hc == nil {
		c.hc = &http.Client{}
	}
	if c.hc.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("cookie jar: %w", err)
		}
		c.hc.Jar = jar
	}
	return c, nil
}

// Authenticated reports the last known session state. It flips to false
// only on logout or an explicit 401/403; transient network failures
// leave it untouched.
func (c *Client) Authenticated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.authenticated
}

// do runs one request with retries. Retries happen on network errors,
// timeouts and 5xx; 4xx responses return immediately. Context
// cancellation aborts between attempts.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode body: %w", err)
		}
	}

	var lastErr error
	for attempt := 1; attempt <= c.retryAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.retryBackoff * time.Duration(attempt-1)):
			}
		}

		err := c.attempt(ctx, method, path, payload, out)
		if err == nil {
			return nil
		}
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode < 500 {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		lastErr = err
	}
	return lastErr
}

func (c *Client) attempt(ctx context.Context, method, path string, payload []byte, out any) error {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(attemptCtx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var eb struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&eb)
		if eb.Error == "" {
			eb.Error = resp.Status
		}
		return &APIError{StatusCode: resp.StatusCode, Message: eb.Error}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
