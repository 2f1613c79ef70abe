package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/rahul-charaki/chat-app-be/internal/auth"
	"github.com/rahul-charaki/chat-app-be/pkg/response"
)

const (
	userIDKey     = "user_id"
	usernameKey   = "username"
	bearerPrefix  = "Bearer "
	authHeaderKey = "Authorization"
)

// RequireAuth validates the bearer token and stores the caller's identity
// in the gin context.
func RequireAuth(verifier auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(authHeaderKey)
		if !strings.HasPrefix(header, bearerPrefix) {
			response.Unauthorized(c, "missing or malformed authorization header")
			c.Abort()
			return
		}

		identity, err := verifier.Verify(strings.TrimPrefix(header, bearerPrefix))
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}

		c.Set(userIDKey, identity.UserID)
		c.Set(usernameKey, identity.Username)
		c.Next()
	}
}

// callerID extracts the authenticated user id from the gin context.
func callerID(c *gin.Context) string {
	if id, ok := c.Get(userIDKey); ok {
		return id.(string)
	}
	return ""
}
