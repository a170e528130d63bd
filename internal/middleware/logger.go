package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// RequestLogger logs every request with its outcome and recovers from
// handler panics so a single bad request cannot take the process down.
func RequestLogger(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		defer func() {
			if recovered := recover(); recovered != nil {
				log.WithFields(logrus.Fields{
					"method":  c.Request.Method,
					"path":    c.Request.URL.Path,
					"user_id": c.GetInt64("user_id"),
					"panic":   recovered,
				}).Error("handler panic")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"success": false,
					"error":   gin.H{"code": "INTERNAL_ERROR", "message": "internal error"},
				})
			}
		}()

		c.Next()

		entry := log.WithFields(logrus.Fields{
			"method":    c.Request.Method,
			"path":      c.Request.URL.Path,
			"status":    c.Writer.Status(),
			"client_ip": c.ClientIP(),
			"user_id":   c.GetInt64("user_id"),
			"latency":   time.Since(start).String(),
		})
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			entry.Error("request failed")
		case c.Writer.Status() >= http.StatusBadRequest:
			entry.Warn("request rejected")
		default:
			entry.Info("request")
		}
	}
}
