package utils

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"healthcare-risk-platform/internal/store"
)

// StoreError writes the response for an error returned by the store.
// Unexpected errors are logged and hidden from the client.
func StoreError(c *gin.Context, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		NotFound(c, err.Error())
	case errors.Is(err, store.ErrConstraintViolation):
		BadRequest(c, err.Error())
	default:
		logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		InternalServerError(c, "internal server error")
	}
}
