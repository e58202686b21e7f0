package rest

import (
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/useraccounts/internal/common"
	"github.com/dmitrijs2005/useraccounts/internal/server/models"
	"github.com/gin-gonic/gin"
)

const currentUserKey = "currentUser"

// accessTokenFrom prefers the cookie over the Authorization header.
func accessTokenFrom(c *gin.Context) string {
	if v, err := c.Cookie(common.AccessTokenCookieName); err == nil && v != "" {
		return v
	}
	h := c.GetHeader(common.AuthorizationHeaderName)
	if token, ok := strings.CutPrefix(h, common.BearerScheme+" "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// authRequired resolves the caller from the access token and stores the
// sanitized user on the context.
func (s *HTTPServer) authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := accessTokenFrom(c)
		if token == "" {
			s.fail(c, common.Unauthorized("Unauthorized request"))
			return
		}

		user, err := s.users.Authenticate(c.Request.Context(), token)
		if err != nil {
			s.fail(c, err)
			return
		}

		c.Set(currentUserKey, user)
		c.Next()
	}
}

// CurrentUser returns the user attached by the auth middleware.
func CurrentUser(c *gin.Context) (*models.PublicUser, bool) {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return nil, false
	}
	u, ok := v.(*models.PublicUser)
	return u, ok && u != nil
}

// bodyLimit caps request bodies. Multipart uploads get their own, larger cap.
// A non-positive limit disables the check.
func (s *HTTPServer) bodyLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := s.opts.MaxBodyBytes
		if strings.HasPrefix(c.ContentType(), "multipart/") {
			limit = s.opts.MaxUploadBytes
		}
		if limit <= 0 || c.Request.Body == nil || c.Request.Body == http.NoBody {
			c.Next()
			return
		}

		if c.Request.ContentLength > limit {
			s.fail(c, &http.MaxBytesError{Limit: limit})
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}

func (s *HTTPServer) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration", time.Since(start),
			"client_ip", c.ClientIP(),
		}

		ctx := c.Request.Context()
		switch {
		case status >= 500:
			s.logger.Error(ctx, "HTTP server error", fields...)
		case status >= 400:
			s.logger.Warn(ctx, "HTTP client error", fields...)
		default:
			s.logger.Info(ctx, "HTTP request", fields...)
		}
	}
}
