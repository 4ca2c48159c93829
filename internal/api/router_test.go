package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folio-labs/folio/config"
	"github.com/folio-labs/folio/internal/api/handler"
	"github.com/folio-labs/folio/internal/repository"
	"github.com/folio-labs/folio/internal/service"
	"github.com/folio-labs/folio/pkg/database"
)

func testConfig() *config.Config {
	return &config.Config{
		Env:  "test",
		Port: "0",
		Auth: config.AuthConfig{
			JWTSecret:  "router-test-secret",
			TokenTTL:   time.Hour,
			CookieName: "auth_token",
		},
		CORS: config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		RateLimit: config.RateLimitConfig{
			Window:       15 * time.Minute,
			AuthLimit:    1000,
			GeneralLimit: 10000,
		},
	}
}

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.OpenTest()
	require.NoError(t, err)

	cfg := testConfig()
	postSvc := service.NewPostService(repository.NewPostRepository(db))
	authSvc := service.NewAuthService(repository.NewUserRepository(db), cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	require.NoError(t, authSvc.EnsureAdmin(context.Background(), "admin", "admin@example.com", "s3cure-pass"))

	h := handler.NewHandler(postSvc, authSvc, cfg)
	return NewRouter(cfg, h, authSvc, nil)
}

func doJSON(r *gin.Engine, method, path string, body any, cookies []*http.Cookie) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func login(t *testing.T, r *gin.Engine) []*http.Cookie {
	t.Helper()
	w := doJSON(r, http.MethodPost, "/api/auth/login",
		map[string]string{"username": "admin", "password": "s3cure-pass"}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies
}

func TestHealthAndRoot(t *testing.T) {
	r := setupRouter(t)

	w := doJSON(r, http.MethodGet, "/api/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "OK")

	w = doJSON(r, http.MethodGet, "/", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCreateRequiresAuth(t *testing.T) {
	r := setupRouter(t)

	w := doJSON(r, http.MethodPost, "/api/posts",
		map[string]string{"title": "Hi", "content": "body"}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(r, http.MethodDelete, "/api/posts/some-id", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	r := setupRouter(t)

	w := doJSON(r, http.MethodPost, "/api/auth/login",
		map[string]string{"username": "admin", "password": "nope"}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid username or password")

	w = doJSON(r, http.MethodPost, "/api/auth/login", map[string]string{}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateAndFetchPost(t *testing.T) {
	r := setupRouter(t)
	cookies := login(t, r)

	w := doJSON(r, http.MethodPost, "/api/posts",
		map[string]string{"title": "Hello, World!", "content": "first"}, cookies)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		ID   string `json:"id"`
		Slug string `json:"slug"`
		Date string `json:"date"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "hello-world", created.Slug)
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2}$`, created.Date)

	// Same title again gets the suffixed slug.
	w = doJSON(r, http.MethodPost, "/api/posts",
		map[string]string{"title": "Hello, World!", "content": "second"}, cookies)
	require.Equal(t, http.StatusCreated, w.Code)
	var second struct {
		Slug string `json:"slug"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &second))
	assert.Equal(t, "hello-world-1", second.Slug)

	w = doJSON(r, http.MethodGet, "/api/posts/slug/hello-world", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodGet, "/api/posts/"+created.ID, nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodGet, "/api/posts/slug/nope", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateValidatesBody(t *testing.T) {
	r := setupRouter(t)
	cookies := login(t, r)

	w := doJSON(r, http.MethodPost, "/api/posts",
		map[string]string{"title": "", "content": ""}, cookies)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPost, "/api/posts",
		map[string]string{"title": "T", "content": "c", "date": "not-a-date"}, cookies)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListPagination(t *testing.T) {
	r := setupRouter(t)
	cookies := login(t, r)

	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 25; i++ {
		w := doJSON(r, http.MethodPost, "/api/posts", map[string]string{
			"title":   "Entry " + string(rune('a'+i)),
			"content": "body",
			"date":    base.Add(time.Duration(i) * 24 * time.Hour).Format("2006-01-02"),
		}, cookies)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w := doJSON(r, http.MethodGet, "/api/posts?page=2&limit=10", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("ETag"))
	assert.Contains(t, w.Header().Get("Cache-Control"), "max-age=300")

	var list struct {
		Posts      []json.RawMessage `json:"posts"`
		Pagination struct {
			CurrentPage int   `json:"currentPage"`
			TotalPages  int   `json:"totalPages"`
			TotalPosts  int64 `json:"totalPosts"`
			HasNextPage bool  `json:"hasNextPage"`
			HasPrevPage bool  `json:"hasPrevPage"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list.Posts, 10)
	assert.Equal(t, 2, list.Pagination.CurrentPage)
	assert.Equal(t, 3, list.Pagination.TotalPages)
	assert.EqualValues(t, 25, list.Pagination.TotalPosts)
	assert.True(t, list.Pagination.HasNextPage)
	assert.True(t, list.Pagination.HasPrevPage)
}

func TestUpdateAndDelete(t *testing.T) {
	r := setupRouter(t)
	cookies := login(t, r)

	w := doJSON(r, http.MethodPost, "/api/posts",
		map[string]string{"title": "To Edit", "content": "body"}, cookies)
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = doJSON(r, http.MethodPut, "/api/posts/"+created.ID,
		map[string]string{"title": "Edited Title", "content": "new"}, cookies)
	require.Equal(t, http.StatusOK, w.Code)
	var updated struct {
		Slug string `json:"slug"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, "edited-title", updated.Slug)

	w = doJSON(r, http.MethodDelete, "/api/posts/"+created.ID, nil, cookies)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "deleted")

	w = doJSON(r, http.MethodDelete, "/api/posts/"+created.ID, nil, cookies)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStatsSummary(t *testing.T) {
	r := setupRouter(t)
	cookies := login(t, r)

	for _, title := range []string{"One", "Two", "Three"} {
		w := doJSON(r, http.MethodPost, "/api/posts",
			map[string]string{"title": title, "content": "body"}, cookies)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := doJSON(r, http.MethodGet, "/api/posts/stats/summary", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats struct {
		TotalPosts  int64 `json:"totalPosts"`
		RecentPosts int64 `json:"recentPosts"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.EqualValues(t, 3, stats.TotalPosts)
	assert.EqualValues(t, 3, stats.RecentPosts)
}

func TestVerifyAndLogout(t *testing.T) {
	r := setupRouter(t)

	// No cookie.
	w := doJSON(r, http.MethodPost, "/api/auth/verify", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `"valid":false`)

	cookies := login(t, r)
	w = doJSON(r, http.MethodPost, "/api/auth/verify", nil, cookies)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"valid":true`)

	// Garbage cookie.
	bad := []*http.Cookie{{Name: "auth_token", Value: "garbage"}}
	w = doJSON(r, http.MethodPost, "/api/auth/verify", nil, bad)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(r, http.MethodPost, "/api/auth/logout", nil, cookies)
	assert.Equal(t, http.StatusOK, w.Code)
	// Logout response clears the cookie.
	found := false
	for _, c := range w.Result().Cookies() {
		if c.Name == "auth_token" {
			found = true
			assert.Empty(t, c.Value)
			assert.Negative(t, c.MaxAge)
		}
	}
	assert.True(t, found)
}

func TestSignupClosedAfterBootstrap(t *testing.T) {
	r := setupRouter(t)

	w := doJSON(r, http.MethodPost, "/api/auth/signup",
		map[string]string{"username": "eve", "email": "eve@example.com", "password": "longenough"}, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
