package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/folio-labs/folio/internal/apperrors"
	"github.com/folio-labs/folio/internal/service"
	"github.com/folio-labs/folio/pkg/response"
)

// ClaimsKey is the gin context key under which RequireAuth stores the
// verified session claims.
const ClaimsKey = "session_claims"

// RequireAuth reads the session cookie and verifies it. The browser holds
// the token in an HttpOnly cookie, so there is no Authorization header.
func RequireAuth(auth service.AuthService, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(cookieName)
		if err != nil || token == "" {
			response.FromError(c, apperrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims, ok := auth.Verify(c.Request.Context(), token)
		if !ok {
			response.FromError(c, apperrors.ErrUnauthorized)
			c.Abort()
			return
		}
		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

// ClaimsFrom returns the claims RequireAuth stored, if any.
func ClaimsFrom(c *gin.Context) (*service.Claims, bool) {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*service.Claims)
	return claims, ok
}
