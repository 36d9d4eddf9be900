package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "github.com/payflow/server/internal/shared/errors"
)

// Recovery converts a handler panic into a 500 with the standard error
// envelope, logging the stack with the request id.
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered",
					zap.Any("panic", r),
					zap.String("request_id", GetRequestID(c)),
					zap.ByteString("stack", debug.Stack()))
				c.AbortWithStatusJSON(http.StatusInternalServerError, apperrors.ErrorResponse{
					Error: apperrors.ErrorDetail{
						Code:    "INTERNAL_ERROR",
						Message: "internal server error",
					},
				})
			}
		}()
		c.Next()
	}
}
