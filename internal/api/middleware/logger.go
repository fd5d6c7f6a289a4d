package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// RequestLogger creates a structured logger middleware for requests
func RequestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		c.Next()

		latency := time.Since(startTime)
		entry := logger.WithFields(logrus.Fields{
			"service":   "golf-prize-api",
			"method":    c.Request.Method,
			"path":      c.Request.URL.Path,
			"route":     c.FullPath(),
			"status":    c.Writer.Status(),
			"latency":   latency,
			"client_ip": c.ClientIP(),
		})

		if id := c.Param("id"); id != "" {
			entry = entry.WithField("tournament_id", id)
		}
		if c.Request.URL.RawQuery != "" {
			entry = entry.WithField("query", c.Request.URL.RawQuery)
		}

		status := c.Writer.Status()
		switch {
		case status >= 500:
			entry.Error("Internal Server Error")
		case status >= 400:
			entry.Warn("Client Error")
		case c.Request.URL.Path == "/metrics" || c.Request.URL.Path == "/health":
			entry.Debug("Request completed")
		default:
			entry.Info("Request completed")
		}
	}
}

// ErrorLogger logs errors handlers attached with c.Error.
func ErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		for _, err := range c.Errors {
			logger.WithFields(logrus.Fields{
				"service":   "golf-prize-api",
				"method":    c.Request.Method,
				"path":      c.Request.URL.Path,
				"error":     err.Error(),
				"client_ip": c.ClientIP(),
			}).Error("Request error")
		}
	}
}
