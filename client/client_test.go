package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler, opts ...Option) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	base := append([]Option{WithRetries(3, time.Millisecond)}, opts...)
	c, err := New(srv.URL, base...)
	require.NoError(t, err)
	return c, srv
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestRetriesOn5xxThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "boom"})
			return
		}
		writeJSON(w, http.StatusOK, Stats{TotalPosts: 7, RecentPosts: 2})
	}))

	stats, err := c.PostStats(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 7, stats.TotalPosts)
	assert.EqualValues(t, 3, calls.Load())
}

func TestNoRetryOn4xx(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Post not found"})
	}))

	_, err := c.PostBySlug(context.Background(), "missing")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "Post not found", apiErr.Message)
	assert.EqualValues(t, 1, calls.Load(), "4xx must not be retried")
}

func TestRetriesExhausted(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "still down"})
	}))

	_, err := c.PostStats(context.Background())
	require.Error(t, err)
	assert.EqualValues(t, 3, calls.Load())
}

func TestContextCancellationAborts(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "boom"})
	}), WithRetries(5, time.Hour)) // backoff long enough that only cancel ends it

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := c.PostStats(ctx)
		done <- err
	}()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("request did not abort on cancellation")
	}
}

func TestPostListCache(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/posts":
			calls.Add(1)
			writeJSON(w, http.StatusOK, PostList{
				Posts:      []Post{{ID: "1", Title: "One", Slug: "one"}},
				Pagination: Pagination{CurrentPage: 1, TotalPages: 1, TotalPosts: 1},
			})
		case r.Method == http.MethodPost && r.URL.Path == "/api/posts":
			writeJSON(w, http.StatusCreated, Post{ID: "2", Title: "Two", Slug: "two"})
		default:
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		}
	}))
	ctx := context.Background()

	_, err := c.Posts(ctx, 1, 10)
	require.NoError(t, err)
	_, err = c.Posts(ctx, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, calls.Load(), "second read must come from cache")

	// A different page bypasses the cached entry.
	_, err = c.Posts(ctx, 2, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, calls.Load())

	// Mutation invalidates.
	_, err = c.CreatePost(ctx, PostInput{Title: "Two", Content: "body"})
	require.NoError(t, err)
	_, err = c.Posts(ctx, 2, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 3, calls.Load())
}

func TestPostListCacheExpires(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusOK, PostList{})
	}), WithListCacheTTL(10*time.Millisecond))
	ctx := context.Background()

	_, err := c.Posts(ctx, 1, 10)
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)
	_, err = c.Posts(ctx, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, calls.Load())
}

func TestVerifyDistinguishesNetworkFromRejection(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusOK)
	c, srv := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/login":
			writeJSON(w, http.StatusOK, authResult{Success: true, User: &User{Username: "admin"}})
		case "/api/auth/verify":
			s := int(status.Load())
			if s == http.StatusOK {
				writeJSON(w, s, verifyResult{Valid: true, User: &User{Username: "admin"}})
			} else {
				writeJSON(w, s, map[string]bool{"valid": false})
			}
		}
	}))
	ctx := context.Background()

	_, err := c.Login(ctx, "admin", "pass")
	require.NoError(t, err)
	require.True(t, c.Authenticated())

	user, valid, err := c.Verify(ctx)
	require.NoError(t, err)
	assert.True(t, valid)
	assert.Equal(t, "admin", user.Username)

	// Transport failure: session state must survive.
	srv.Close()
	_, _, err = c.Verify(ctx)
	require.Error(t, err)
	assert.True(t, c.Authenticated(), "network failure must not log the client out")
}

func TestVerify401ClearsSession(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/login":
			writeJSON(w, http.StatusOK, authResult{Success: true, User: &User{Username: "admin"}})
		case "/api/auth/verify":
			writeJSON(w, http.StatusUnauthorized, map[string]bool{"valid": false})
		}
	}))
	ctx := context.Background()

	_, err := c.Login(ctx, "admin", "pass")
	require.NoError(t, err)
	require.True(t, c.Authenticated())

	_, valid, err := c.Verify(ctx)
	require.NoError(t, err)
	assert.False(t, valid)
	assert.False(t, c.Authenticated(), "explicit 401 must clear the session")
}

func TestMutationOn401ReturnsErrUnauthorized(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
	}))

	_, err := c.CreatePost(context.Background(), PostInput{Title: "T", Content: "c"})
	assert.True(t, errors.Is(err, ErrUnauthorized))
	assert.False(t, c.Authenticated())
}

func TestLogoutClearsStateEvenOnFailure(t *testing.T) {
	c, srv := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, authResult{Success: true, User: &User{Username: "admin"}})
	}))
	ctx := context.Background()

	_, err := c.Login(ctx, "admin", "pass")
	require.NoError(t, err)
	srv.Close()

	_ = c.Logout(ctx)
	assert.False(t, c.Authenticated())
}
