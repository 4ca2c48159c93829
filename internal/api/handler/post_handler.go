package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/folio-labs/folio/internal/api/middleware"
	"github.com/folio-labs/folio/internal/apperrors"
	"github.com/folio-labs/folio/internal/model"
	"github.com/folio-labs/folio/pkg/logger"
	"github.com/folio-labs/folio/pkg/response"
)

const listCacheMaxAge = 300 // seconds

type postRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Date    string `json:"date"`
}

type postResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Slug      string    `json:"slug"`
	Date      string    `json:"date"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type paginationResponse struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	TotalPosts  int64 `json:"totalPosts"`
	HasNextPage bool  `json:"hasNextPage"`
	HasPrevPage bool  `json:"hasPrevPage"`
}

type postListResponse struct {
	Posts      []postResponse     `json:"posts"`
	Pagination paginationResponse `json:"pagination"`
}

func toPostResponse(p *model.Post) postResponse {
	return postResponse{
		ID:        p.ID,
		Title:     p.Title,
		Content:   p.Content,
		Slug:      p.Slug,
		Date:      p.Date.Format("2006-01-02"),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// actor names the admin behind a mutating request, for the audit log.
func actor(c *gin.Context) string {
	if claims, ok := middleware.ClaimsFrom(c); ok {
		return claims.Username
	}
	return "unknown"
}

// parseDate accepts the formats the admin form sends: a bare date or a
// full RFC 3339 timestamp.
func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, apperrors.NewValidation("Invalid date format, expected YYYY-MM-DD")
}

// ListPosts godoc
// @Summary List posts, newest first
// @Tags posts
// @Produce json
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size (max 100)" default(50)
// @Success 200 {object} postListResponse
// @Router /api/posts [get]
func (h *Handler) ListPosts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	pg, err := h.posts.List(c.Request.Context(), page, limit)
	if err != nil {
		response.FromError(c, err)
		return
	}
	totalPages := int((pg.Total + int64(pg.Limit) - 1) / int64(pg.Limit))

	out := postListResponse{
		Posts: make([]postResponse, 0, len(pg.Posts)),
		Pagination: paginationResponse{
			CurrentPage: pg.Page,
			TotalPages:  totalPages,
			TotalPosts:  pg.Total,
			HasNextPage: pg.Page < totalPages,
			HasPrevPage: pg.Page > 1,
		},
	}
	for _, p := range pg.Posts {
		out.Posts = append(out.Posts, toPostResponse(p))
	}

	c.Header("Cache-Control", fmt.Sprintf("public, max-age=%d", listCacheMaxAge))
	c.Header("ETag", fmt.Sprintf("%q", fmt.Sprintf("posts-%d-%d", pg.Total, len(pg.Posts))))
	c.JSON(http.StatusOK, out)
}

// GetPost godoc
// @Summary Get a post by ID
// @Tags posts
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {object} postResponse
// @Failure 404 {object} response.ErrorBody
// @Router /api/posts/{id} [get]
func (h *Handler) GetPost(c *gin.Context) {
	post, err := h.posts.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPostResponse(post))
}

// GetPostBySlug godoc
// @Summary Get a post by slug
// @Tags posts
// @Produce json
// @Param slug path string true "Post slug"
// @Success 200 {object} postResponse
// @Failure 404 {object} response.ErrorBody
// @Router /api/posts/slug/{slug} [get]
func (h *Handler) GetPostBySlug(c *gin.Context) {
	post, err := h.posts.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPostResponse(post))
}

// CreatePost godoc
// @Summary Create a post
// @Tags posts
// @Accept json
// @Produce json
// @Param request body postRequest true "Post fields"
// @Success 201 {object} postResponse
// @Failure 400 {object} response.ErrorBody
// @Failure 401 {object} response.ErrorBody
// @Router /api/posts [post]
func (h *Handler) CreatePost(c *gin.Context) {
	var req postRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Title and content are required")
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		response.FromError(c, err)
		return
	}
	post, err := h.posts.Create(c.Request.Context(), req.Title, req.Content, date)
	if err != nil {
		response.FromError(c, err)
		return
	}
	logger.Info("post created",
		zap.String("id", post.ID),
		zap.String("slug", post.Slug),
		zap.String("user", actor(c)))
	c.JSON(http.StatusCreated, toPostResponse(post))
}

// UpdatePost godoc
// @Summary Update a post
// @Tags posts
// @Accept json
// @Produce json
// @Param id path string true "Post ID"
// @Param request body postRequest true "Post fields"
// @Success 200 {object} postResponse
// @Failure 400 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /api/posts/{id} [put]
func (h *Handler) UpdatePost(c *gin.Context) {
	var req postRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Title and content are required")
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		response.FromError(c, err)
		return
	}
	post, err := h.posts.Update(c.Request.Context(), c.Param("id"), req.Title, req.Content, date)
	if err != nil {
		response.FromError(c, err)
		return
	}
	logger.Info("post updated",
		zap.String("id", post.ID),
		zap.String("slug", post.Slug),
		zap.String("user", actor(c)))
	c.JSON(http.StatusOK, toPostResponse(post))
}

// DeletePost godoc
// @Summary Delete a post
// @Tags posts
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} response.ErrorBody
// @Router /api/posts/{id} [delete]
func (h *Handler) DeletePost(c *gin.Context) {
	if err := h.posts.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.FromError(c, err)
		return
	}
	logger.Info("post deleted",
		zap.String("id", c.Param("id")),
		zap.String("user", actor(c)))
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Post deleted successfully"})
}

// PostStats godoc
// @Summary Post counts for the dashboard
// @Tags posts
// @Produce json
// @Success 200 {object} service.Stats
// @Router /api/posts/stats/summary [get]
func (h *Handler) PostStats(c *gin.Context) {
	stats, err := h.posts.Stats(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
