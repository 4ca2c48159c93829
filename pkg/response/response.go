// Package response holds the JSON helpers shared by every handler so the
// wire shapes stay consistent across the API.
package response

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/folio-labs/folio/internal/apperrors"
	"github.com/folio-labs/folio/pkg/logger"
)

// ErrorBody is the envelope for every non-2xx response.
type ErrorBody struct {
	Error string `json:"error"`
}

// Error writes {"error": msg} with the given status.
func Error(c *gin.Context, status int, msg string) {
	c.JSON(status, ErrorBody{Error: msg})
}

// FromError maps err through the taxonomy and writes the client-safe
// message. Unexpected errors are logged with full detail server-side.
func FromError(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	if status >= 500 {
		logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.String("method", c.Request.Method),
			zap.Error(err))
	}
	c.JSON(status, ErrorBody{Error: apperrors.PublicMessage(err)})
}
