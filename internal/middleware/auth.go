package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stivenPRO500/siembrasApp/internal/access"
	"github.com/stivenPRO500/siembrasApp/internal/models"
	"github.com/stivenPRO500/siembrasApp/internal/utils"
)

// UserLoader loads fresh user records for request authentication.
type UserLoader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Keys injected into the gin context by the middleware chain.
const (
	ContextUser    = "user"
	ContextOwnerID = "owner_id"
)

// AuthMiddleware validates the bearer token and loads the current user
// record. The token only identifies the user; role, approval and
// subscription state are always read fresh so a suspension or rejection
// takes effect on the next request, not at token expiry.
func AuthMiddleware(users UserLoader, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			c.Abort()
			return
		}

		claims, err := utils.ValidateJWT(parts[1], jwtSecret)
		if err != nil {
			if errors.Is(err, models.ErrExpiredToken) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "token expired", "code": "token_expired"})
			} else {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			}
			c.Abort()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		user, err := users.GetByID(ctx, claims.UserID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		c.Set(ContextUser, user)
		c.Next()
	}
}

// AccessMiddleware gates the tenant-scoped surface behind the subscription
// verdict. Each blocking verdict gets its own code so clients can route the
// user to the right screen (approval wait, plan picker, suspension notice).
func AccessMiddleware(users UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
			c.Abort()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var owner *models.User
		if user.Role == models.RoleCollaborator && user.OwnerID != nil {
			if o, err := users.GetByID(ctx, *user.OwnerID); err == nil {
				owner = o
			}
		}

		decision := access.Evaluate(user, owner, time.Now())
		if !decision.Allows() {
			status, body := blockedResponse(decision.Verdict)
			c.JSON(status, body)
			c.Abort()
			return
		}

		c.Set(ContextOwnerID, access.EffectiveTenant(user))
		c.Next()
	}
}

func blockedResponse(v access.Verdict) (int, gin.H) {
	switch v {
	case access.VerdictPendingApproval:
		return http.StatusForbidden, gin.H{"error": "account pending approval", "code": "pending_approval"}
	case access.VerdictRequiresSubscription:
		return http.StatusPaymentRequired, gin.H{"error": "subscription required", "code": "requires_subscription"}
	case access.VerdictSuspended:
		return http.StatusForbidden, gin.H{"error": "account suspended", "code": "suspended"}
	case access.VerdictRejected:
		return http.StatusForbidden, gin.H{"error": "account rejected", "code": "rejected"}
	}
	return http.StatusForbidden, gin.H{"error": "access denied"}
}

// RequireRole restricts a route to the given roles.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
			c.Abort()
			return
		}
		for _, role := range roles {
			if user.Role == role {
				c.Next()
				return
			}
		}
		c.JSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
		c.Abort()
	}
}

// CurrentUser returns the authenticated user set by AuthMiddleware, or nil.
func CurrentUser(c *gin.Context) *models.User {
	value, exists := c.Get(ContextUser)
	if !exists {
		return nil
	}
	user, ok := value.(*models.User)
	if !ok {
		return nil
	}
	return user
}

// OwnerID returns the effective tenant set by AccessMiddleware.
func OwnerID(c *gin.Context) (uuid.UUID, bool) {
	value, exists := c.Get(ContextOwnerID)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := value.(uuid.UUID)
	return id, ok
}
