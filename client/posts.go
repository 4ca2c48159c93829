package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Posts returns a page of posts, serving from the in-memory cache while
// it is fresh. Only the most recently fetched page is cached; any
// mutation through this client invalidates it.
func (c *Client) Posts(ctx context.Context, page, limit int) (*PostList, error) {
	key := fmt.Sprintf("%d:%d", page, limit)

	c.mu.Lock()
	if c.cachedList != nil && c.cachedListKey == key && time.Since(c.cachedAt) < c.listCacheTTL {
		cached := *c.cachedList
		c.mu.Unlock()
		return &cached, nil
	}
	c.mu.Unlock()

	q := url.Values{}
	if page > 0 {
		q.Set("page", fmt.Sprint(page))
	}
	if limit > 0 {
		q.Set("limit", fmt.Sprint(limit))
	}
	path := "/api/posts"
	if enc := q.Encode(); enc != "" {
		path += "?" + enc
	}

	var list PostList
	if err := c.do(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.cachedList = &list
	c.cachedListKey = key
	c.cachedAt = time.Now()
	c.mu.Unlock()
	return &list, nil
}

// PostByID fetches a single post.
func (c *Client) PostByID(ctx context.Context, id string) (*Post, error) {
	var post Post
	if err := c.do(ctx, http.MethodGet, "/api/posts/"+url.PathEscape(id), nil, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// PostBySlug fetches a single post by slug.
func (c *Client) PostBySlug(ctx context.Context, slug string) (*Post, error) {
	var post Post
	if err := c.do(ctx, http.MethodGet, "/api/posts/slug/"+url.PathEscape(slug), nil, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// CreatePost creates a post; requires an authenticated session.
func (c *Client) CreatePost(ctx context.Context, in PostInput) (*Post, error) {
	var post Post
	if err := c.do(ctx, http.MethodPost, "/api/posts", in, &post); err != nil {
		return nil, c.translateAuthErr(err)
	}
	c.invalidateListCache()
	return &post, nil
}

// UpdatePost updates a post; requires an authenticated session.
func (c *Client) UpdatePost(ctx context.Context, id string, in PostInput) (*Post, error) {
	var post Post
	if err := c.do(ctx, http.MethodPut, "/api/posts/"+url.PathEscape(id), in, &post); err != nil {
		return nil, c.translateAuthErr(err)
	}
	c.invalidateListCache()
	return &post, nil
}

// DeletePost deletes a post; requires an authenticated session.
func (c *Client) DeletePost(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/api/posts/"+url.PathEscape(id), nil, nil); err != nil {
		return c.translateAuthErr(err)
	}
	c.invalidateListCache()
	return nil
}

// PostStats fetches the dashboard summary.
func (c *Client) PostStats(ctx context.Context) (*Stats, error) {
	var stats Stats
	if err := c.do(ctx, http.MethodGet, "/api/posts/stats/summary", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *Client) invalidateListCache() {
	c.mu.Lock()
	c.cachedList = nil
	c.cachedListKey = ""
	c.mu.Unlock()
}
