package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"platebook/internal/auth"
)

const userIDKey = "userID"

// RequireUser resolves the caller's identity from the Authorization header
// once per request and stores it in the gin context. Handlers read the
// resolved value and never consult ambient session state themselves.
func RequireUser(secretKey []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		tokenString := strings.TrimPrefix(header, "Bearer ")
		if tokenString == "" || tokenString == header {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		userID, err := auth.UserIDFromToken(tokenString, secretKey)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// currentUserID returns the identity resolved by RequireUser.
func currentUserID(c *gin.Context) (string, bool) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}
