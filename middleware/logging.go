package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
)

// Logging returns a logging middleware for HTTP requests
func Logging() gin.HandlerFunc {
	return gin.LoggerWithFormatter(gin.LogFormatter(func(params gin.LogFormatterParams) string {
		line := fmt.Sprintf("%s [%s] %s %s %d %s %s",
			params.TimeStamp.Format(time.RFC3339),
			params.ClientIP,
			params.Method,
			params.Path,
			params.StatusCode,
			params.Latency.Round(time.Microsecond),
			params.Request.UserAgent(),
		)
		if params.ErrorMessage != "" {
			line += " " + params.ErrorMessage
		}
		return line + "\n"
	}))
}
