package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"bookreview/internal/auth"
	"bookreview/internal/models"
	"bookreview/internal/services"
)

const userContextKey = "currentUser"

// Authenticate resolves the Bearer token, when present, into the acting user
// and stores it on the request context. Requests without a token proceed as
// anonymous; a token that fails verification is rejected outright.
func Authenticate(issuer *auth.Issuer, users services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			writeError(c, models.ErrAuthenticationFailed)
			c.Abort()
			return
		}

		userID, _, err := issuer.Verify(tokenString)
		if err != nil {
			writeError(c, err)
			c.Abort()
			return
		}

		user, err := users.GetByID(userID)
		if err != nil {
			// A valid token for a deleted account is an authentication
			// failure, not a not-found.
			writeError(c, models.ErrAuthenticationFailed)
			c.Abort()
			return
		}

		c.Set(userContextKey, user)
		c.Next()
	}
}

// RequireAuth rejects anonymous requests.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if currentUser(c) == nil {
			writeError(c, models.ErrAuthenticationFailed)
			c.Abort()
			return
		}
		c.Next()
	}
}

// currentUser returns the authenticated user, or nil for anonymous requests.
func currentUser(c *gin.Context) *models.User {
	v, ok := c.Get(userContextKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}
