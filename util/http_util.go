// util/http_util.go
package util

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	logger "github.com/kaizen-platform/gatekeeper/logging"
)

func RespondWithError(c *gin.Context, code int, message string, err error) {
	logger.Error(message,
		zap.Error(err),
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method))
	c.JSON(code, gin.H{"error": message})
}

// GetRequestIDFromContext returns the request ID injected by middleware.
func GetRequestIDFromContext(c *gin.Context) string {
	requestID, exists := c.Get("requestID")
	if !exists {
		return ""
	}
	return requestID.(string)
}
