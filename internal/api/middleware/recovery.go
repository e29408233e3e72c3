package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
)

// Recovery logs a handler panic through slog and answers 500 in the API error shape.
// Broken client connections are aborted by gin without a response.
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		correlationID := GetCorrelationID(c)
		logger.Error("Panic recovered",
			"error", recovered,
			"method", c.Request.Method,
			"path", c.FullPath(),
			"correlation_id", correlationID,
			"stack", string(debug.Stack()),
		)

		body := gin.H{"error": gin.H{
			"code":    "INTERNAL_SERVER_ERROR",
			"message": "An internal server error occurred",
		}}
		if correlationID != "" {
			body["correlation_id"] = correlationID
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, body)
	})
}
