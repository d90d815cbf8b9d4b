package farm

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stivenPRO500/siembrasApp/internal/access"
	"github.com/stivenPRO500/siembrasApp/internal/middleware"
)

// requireOwner returns the effective tenant set by the access middleware,
// answering 401 itself when the chain was bypassed.
func requireOwner(c *gin.Context) (uuid.UUID, bool) {
	ownerID, ok := middleware.OwnerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return uuid.Nil, false
	}
	return ownerID, true
}

// authorizeResource checks that the caller may touch a resource stamped
// with resourceOwner. Cross-tenant resources answer 404, not 403, so their
// existence never leaks.
func authorizeResource(c *gin.Context, resourceOwner *uuid.UUID) bool {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return false
	}
	if !access.CanMutate(user, resourceOwner) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return false
	}
	return true
}

func parseID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}
