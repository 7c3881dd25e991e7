package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/qanda/backend/internal/auth"
)

const (
	userIDKey    = "user_id"
	tokenIDKey   = "token_id"
	tokenExpKey  = "token_expires_at"
	bearerPrefix = "Bearer "
)

// RevocationChecker reports whether a token id was logged out.
type RevocationChecker interface {
	TokenRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Auth rejects requests without a valid, unrevoked bearer token and stores
// the caller's user id in the gin context.
func Auth(issuer *auth.Issuer, revoked RevocationChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, bearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		claims, err := issuer.Parse(strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix)))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		isRevoked, err := revoked.TokenRevoked(c.Request.Context(), claims.ID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify token"})
			return
		}
		if isRevoked {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token has been revoked"})
			return
		}

		c.Set(userIDKey, claims.UserID)
		c.Set(tokenIDKey, claims.ID)
		c.Set(tokenExpKey, claims.ExpiresAt.Time)
		c.Next()
	}
}

// UserID returns the authenticated user id set by Auth.
func UserID(c *gin.Context) (int, bool) {
	id, ok := c.Get(userIDKey)
	if !ok {
		return 0, false
	}
	userID, ok := id.(int)
	return userID, ok
}

// Token returns the id and expiry of the token that authenticated the request.
func Token(c *gin.Context) (string, time.Time, bool) {
	id := c.GetString(tokenIDKey)
	exp := c.GetTime(tokenExpKey)
	return id, exp, id != ""
}
