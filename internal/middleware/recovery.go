package middleware

import (
	"net/http"

	"stkrelay/internal/domain"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Recovery is the final catch-all: it logs the panic and answers with a generic 500.
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Error("unhandled error",
			zap.String("request_id", GetRequestID(c)),
			zap.String("path", c.Request.URL.Path),
			zap.Any("panic", recovered))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "error": domain.MsgInternalError})
	})
}
