package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/folio-labs/folio/internal/apperrors"
	"github.com/folio-labs/folio/internal/model"
	"github.com/folio-labs/folio/pkg/response"
)

var validate = validator.New()

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type signupRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

type userResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

func toUserResponse(u *model.User) userResponse {
	return userResponse{ID: u.ID, Username: u.Username, Email: u.Email, Role: u.Role}
}

// setSessionCookie writes the HttpOnly session cookie. SameSite Lax keeps
// the cookie off cross-site POSTs while still riding top-level navigation.
func (h *Handler) setSessionCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookieName, token, h.cookieMaxAge, "/", "", h.cookieSecure, true)
}

func (h *Handler) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookieName, "", -1, "/", "", h.cookieSecure, true)
}

// Login godoc
// @Summary Log in as the admin
// @Tags auth
// @Accept json
// @Produce json
// @Param request body loginRequest true "Credentials"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} response.ErrorBody
// @Failure 401 {object} response.ErrorBody
// @Router /api/auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Username and password are required")
		return
	}
	token, user, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		response.FromError(c, err)
		return
	}
	h.setSessionCookie(c, token)
	c.JSON(http.StatusOK, gin.H{"success": true, "user": toUserResponse(user)})
}

// Signup godoc
// @Summary Create the admin account (only while none exists)
// @Tags auth
// @Accept json
// @Produce json
// @Param request body signupRequest true "New admin"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} response.ErrorBody
// @Failure 403 {object} response.ErrorBody
// @Router /api/auth/signup [post]
func (h *Handler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Username, email and password are required")
		return
	}
	if err := validate.Var(req.Email, "required,email"); err != nil {
		response.FromError(c, apperrors.NewValidation("Invalid email address"))
		return
	}
	token, user, err := h.auth.Signup(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		response.FromError(c, err)
		return
	}
	h.setSessionCookie(c, token)
	c.JSON(http.StatusCreated, gin.H{"success": true, "user": toUserResponse(user)})
}

// VerifySession godoc
// @Summary Verify the current session cookie
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /api/auth/verify [post]
func (h *Handler) VerifySession(c *gin.Context) {
	token, err := c.Cookie(h.cookieName)
	if err != nil || token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"valid": false})
		return
	}
	claims, ok := h.auth.Verify(c.Request.Context(), token)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"valid": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"valid": true,
		"user":  gin.H{"username": claims.Username, "role": claims.Role},
	})
}

// Logout godoc
// @Summary Log out
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/auth/logout [post]
func (h *Handler) Logout(c *gin.Context) {
	h.clearSessionCookie(c)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Logged out successfully"})
}
