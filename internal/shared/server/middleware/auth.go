package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"procurement-backend/internal/shared/auth"
	"procurement-backend/internal/shared/server/respond"
)

const (
	requesterIDKey    = "requesterId"
	requesterAdminKey = "requesterAdmin"
)

// Requester is the authenticated identity every pipeline endpoint requires.
type Requester struct {
	ID    string
	Admin bool
}

// Auth resolves the requester from a Bearer JWT. Outside production a plain
// X-User-Id header (plus X-Admin: true) is accepted so local tooling and
// tests do not need to mint tokens.
func Auth(env string) gin.HandlerFunc {
	devLike := env != "production"

	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader != "" {
			token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
			if !strings.HasPrefix(authHeader, "Bearer ") || token == "" {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
				return
			}

			claims, err := auth.VerifyJWT(token)
			if err != nil {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
				return
			}

			c.Set(requesterIDKey, claims.Sub)
			c.Set(requesterAdminKey, claims.Admin)
			c.Next()
			return
		}

		if devLike {
			if userID := strings.TrimSpace(c.GetHeader("X-User-Id")); userID != "" {
				c.Set(requesterIDKey, userID)
				c.Set(requesterAdminKey, strings.EqualFold(c.GetHeader("X-Admin"), "true"))
				c.Next()
				return
			}
		}

		respond.Error(c, http.StatusUnauthorized, "unauthorized", "Missing identity", nil)
	}
}

// RequesterFromContext fetches the identity set by the auth middleware.
func RequesterFromContext(c *gin.Context) Requester {
	if c == nil {
		return Requester{}
	}
	r := Requester{}
	if val, ok := c.Get(requesterIDKey); ok {
		if id, ok2 := val.(string); ok2 {
			r.ID = id
		}
	}
	if val, ok := c.Get(requesterAdminKey); ok {
		if admin, ok2 := val.(bool); ok2 {
			r.Admin = admin
		}
	}
	return r
}

// RequesterIDFromContext returns just the requester id, or "".
func RequesterIDFromContext(c *gin.Context) string {
	return RequesterFromContext(c).ID
}
