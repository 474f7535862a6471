package server

import (
	"crypto/subtle"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/billfold/internal/usercontext"
)

const contextUserIDKey = "user_id"

// AuthRequired resolves the session cookie and stamps the acting user onto
// the request context. Every tenant-scoped query downstream reads it from
// there.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := s.sessions.ReadToken(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		session, err := s.authsvc.Authenticate(c.Request.Context(), token)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		ctx := usercontext.WithUserID(c.Request.Context(), int64(session.UserID))
		c.Request = c.Request.WithContext(ctx)
		c.Set(contextUserIDKey, session.UserID.String())
		c.Next()
	}
}

func currentUserID(c *gin.Context) (snowflake.ID, bool) {
	id, ok := usercontext.UserID(c.Request.Context())
	if !ok {
		return 0, false
	}
	return snowflake.ID(id), true
}

// AdminTokenRequired gates operational endpoints behind a shared secret.
// When no token is configured the endpoint is disabled.
func (s *Server) AdminTokenRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		configured := strings.TrimSpace(s.cfg.AdminToken)
		if configured == "" {
			AbortWithError(c, ErrNotFound)
			return
		}

		provided := strings.TrimSpace(c.GetHeader("X-Admin-Token"))
		if subtle.ConstantTimeCompare([]byte(configured), []byte(provided)) != 1 {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		c.Next()
	}
}
