package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// currentUserID reads the user id injected by the auth middleware. It aborts
// with 401 when the id is missing or malformed.
func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	raw, exists := c.Get("user_id")
	if !exists {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return uuid.Nil, false
	}
	str, ok := raw.(string)
	if !ok {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "invalid user_id format"})
		return uuid.Nil, false
	}
	userID, err := uuid.Parse(str)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid user_id"})
		return uuid.Nil, false
	}
	return userID, true
}

// optionalUserID returns the injected user id as a string, or "" for
// anonymous requests.
func optionalUserID(c *gin.Context) string {
	raw, exists := c.Get("user_id")
	if !exists {
		return ""
	}
	str, _ := raw.(string)
	return str
}
