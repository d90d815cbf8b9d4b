package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stivenPRO500/siembrasApp/internal/models"
	"github.com/stivenPRO500/siembrasApp/internal/utils"
)

const testSecret = "test-secret"

type fakeLoader struct {
	byID map[uuid.UUID]*models.User
}

func (f *fakeLoader) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return u, nil
}

func newRouter(loader *fakeLoader) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	scoped := router.Group("/scoped")
	scoped.Use(AuthMiddleware(loader, testSecret))
	scoped.Use(AccessMiddleware(loader))
	scoped.GET("/ping", func(c *gin.Context) {
		ownerID, _ := OwnerID(c)
		c.JSON(http.StatusOK, gin.H{"owner_id": ownerID})
	})

	admin := router.Group("/admin")
	admin.Use(AuthMiddleware(loader, testSecret))
	admin.Use(RequireRole(models.RoleAdmin))
	admin.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return router
}

func activeFarmer() *models.User {
	expiry := time.Now().Add(30 * 24 * time.Hour)
	return &models.User{
		ID:                    uuid.New(),
		Username:              "farmer",
		Role:                  models.RoleFarmer,
		ApprovalState:         models.ApprovalApproved,
		Approved:              true,
		SubscriptionExpiresAt: &expiry,
	}
}

func doRequest(router *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func tokenFor(t *testing.T, u *models.User) string {
	t.Helper()
	token, err := utils.GenerateJWT(u.ID, u.Role, testSecret, 60)
	require.NoError(t, err)
	return token
}

func TestAuthMiddlewareMissingHeader(t *testing.T) {
	router := newRouter(&fakeLoader{byID: map[uuid.UUID]*models.User{}})
	w := doRequest(router, "/scoped/ping", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddlewareBadToken(t *testing.T) {
	router := newRouter(&fakeLoader{byID: map[uuid.UUID]*models.User{}})
	w := doRequest(router, "/scoped/ping", "garbage")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddlewareDeletedUser(t *testing.T) {
	u := activeFarmer()
	// Token is valid but the account no longer exists.
	router := newRouter(&fakeLoader{byID: map[uuid.UUID]*models.User{}})
	w := doRequest(router, "/scoped/ping", tokenFor(t, u))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAccessMiddlewareAllowed(t *testing.T) {
	u := activeFarmer()
	router := newRouter(&fakeLoader{byID: map[uuid.UUID]*models.User{u.ID: u}})

	w := doRequest(router, "/scoped/ping", tokenFor(t, u))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), u.ID.String())
}

func TestAccessMiddlewareCollaboratorScopedToOwner(t *testing.T) {
	owner := activeFarmer()
	collab := &models.User{
		ID:            uuid.New(),
		Role:          models.RoleCollaborator,
		ApprovalState: models.ApprovalApproved,
		OwnerID:       &owner.ID,
	}
	router := newRouter(&fakeLoader{byID: map[uuid.UUID]*models.User{owner.ID: owner, collab.ID: collab}})

	w := doRequest(router, "/scoped/ping", tokenFor(t, collab))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), owner.ID.String())
}

func TestAccessMiddlewareRequiresSubscription(t *testing.T) {
	u := activeFarmer()
	u.SubscriptionExpiresAt = nil
	router := newRouter(&fakeLoader{byID: map[uuid.UUID]*models.User{u.ID: u}})

	w := doRequest(router, "/scoped/ping", tokenFor(t, u))
	assert.Equal(t, http.StatusPaymentRequired, w.Code)
	assert.Contains(t, w.Body.String(), "requires_subscription")
}

func TestAccessMiddlewareSuspended(t *testing.T) {
	u := activeFarmer()
	u.SubscriptionSuspended = true
	router := newRouter(&fakeLoader{byID: map[uuid.UUID]*models.User{u.ID: u}})

	w := doRequest(router, "/scoped/ping", tokenFor(t, u))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "suspended")
}

func TestAccessMiddlewareStateReadFresh(t *testing.T) {
	u := activeFarmer()
	router := newRouter(&fakeLoader{byID: map[uuid.UUID]*models.User{u.ID: u}})
	token := tokenFor(t, u)

	w := doRequest(router, "/scoped/ping", token)
	assert.Equal(t, http.StatusOK, w.Code)

	// Suspension bites on the very next request with the same token.
	u.SubscriptionSuspended = true
	w = doRequest(router, "/scoped/ping", token)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireRole(t *testing.T) {
	u := activeFarmer()
	admin := &models.User{ID: uuid.New(), Role: models.RoleAdmin, ApprovalState: models.ApprovalApproved}
	router := newRouter(&fakeLoader{byID: map[uuid.UUID]*models.User{u.ID: u, admin.ID: admin}})

	w := doRequest(router, "/admin/ping", tokenFor(t, u))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doRequest(router, "/admin/ping", tokenFor(t, admin))
	assert.Equal(t, http.StatusOK, w.Code)
}
