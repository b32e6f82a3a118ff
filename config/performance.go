package config

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// PerformanceLogger logs every request with its latency and warns about
// requests slower than slow.
func PerformanceLogger(log zerolog.Logger, slow time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		// Process request
		c.Next()

		latency := time.Since(start)
		event := log.Info()
		if latency > slow {
			event = log.Warn().Bool("slow", true)
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", latency).
			Msg("Request handled")
	}
}
