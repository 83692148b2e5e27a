package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"chemviz/internal"
	"chemviz/models"
)

const userContextKey = "user"

// requestLogger logs one structured line per request
func requestLogger(logger *internal.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := logger.WithFields(internal.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
			"client_ip":  c.ClientIP(),
		})
		if len(c.Errors) > 0 {
			entry = entry.WithField("errors", c.Errors.String())
		}

		if c.Writer.Status() >= 500 {
			entry.Error("request failed")
			return
		}
		entry.Debug("request handled")
	}
}

// tokenAuth resolves the Authorization header and stores the caller on the context
func (s *Server) tokenAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := s.auth.Authenticate(c.Request.Context(), c.GetHeader("Authorization"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.Set(userContextKey, user)
		c.Next()
	}
}

// currentUser returns the caller set by tokenAuth
func currentUser(c *gin.Context) *models.User {
	user, _ := c.MustGet(userContextKey).(*models.User)
	return user
}
