package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stivenPRO500/siembrasApp/internal/config"
	"github.com/stivenPRO500/siembrasApp/internal/middleware"
	"github.com/stivenPRO500/siembrasApp/internal/models"
)

type fakeDirectory struct {
	byID map[uuid.UUID]*models.User
}

func newFakeDirectory(users ...*models.User) *fakeDirectory {
	f := &fakeDirectory{byID: map[uuid.UUID]*models.User{}}
	for _, u := range users {
		f.byID[u.ID] = u
	}
	return f
}

func (f *fakeDirectory) Create(_ context.Context, username, email, passwordHash string, role models.Role, state models.ApprovalState, ownerID *uuid.UUID) (*models.User, error) {
	u := &models.User{
		ID:            uuid.New(),
		Username:      username,
		Email:         email,
		PasswordHash:  passwordHash,
		Role:          role,
		ApprovalState: state,
		Approved:      state == models.ApprovalApproved,
		OwnerID:       ownerID,
	}
	f.byID[u.ID] = u
	return u, nil
}

func (f *fakeDirectory) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return u, nil
}

func (f *fakeDirectory) GetByUsername(_ context.Context, username string) (*models.User, error) {
	for _, u := range f.byID {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, models.ErrNotFound
}

func (f *fakeDirectory) List(_ context.Context) ([]*models.User, error) {
	users := []*models.User{}
	for _, u := range f.byID {
		users = append(users, u)
	}
	return users, nil
}

func (f *fakeDirectory) ListCollaborators(_ context.Context, ownerID uuid.UUID) ([]*models.User, error) {
	users := []*models.User{}
	for _, u := range f.byID {
		if u.Role == models.RoleCollaborator && u.OwnerID != nil && *u.OwnerID == ownerID {
			users = append(users, u)
		}
	}
	return users, nil
}

func (f *fakeDirectory) CountCollaborators(ctx context.Context, ownerID uuid.UUID) (int, error) {
	users, err := f.ListCollaborators(ctx, ownerID)
	return len(users), err
}

func (f *fakeDirectory) UsernameExists(_ context.Context, username string) (bool, error) {
	for _, u := range f.byID {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeDirectory) EmailExists(_ context.Context, email string) (bool, error) {
	for _, u := range f.byID {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeDirectory) SetApproval(_ context.Context, id uuid.UUID, state models.ApprovalState) error {
	u, ok := f.byID[id]
	if !ok {
		return models.ErrNotFound
	}
	u.ApprovalState = state
	u.Approved = state == models.ApprovalApproved
	return nil
}

func (f *fakeDirectory) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.byID[id]; !ok {
		return models.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		JWT:    config.JWTConfig{Secret: "test-secret", ExpirationMinutes: 60},
		Limits: config.LimitsConfig{FarmerCollaborators: 2, AdminCollaborators: 5},
	}
}

// withUser stands in for the auth middleware.
func withUser(u *models.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUser, u)
		c.Next()
	}
}

func newAccountRouter(dir *fakeDirectory, caller *models.User) *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := testConfig()
	auth := NewAuthHandler(dir, cfg)
	users := NewUserHandler(dir, cfg)

	router := gin.New()
	router.POST("/auth/register", auth.Register)
	if caller != nil {
		router.POST("/collaborators", withUser(caller), users.CreateCollaborator)
	}
	return router
}

func postJSON(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRegisterDuplicateUsername(t *testing.T) {
	router := newAccountRouter(newFakeDirectory(), nil)

	w := postJSON(router, "/auth/register",
		`{"username":"juan","email":"juan@finca.com","password":"secret1"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = postJSON(router, "/auth/register",
		`{"username":"juan","email":"other@finca.com","password":"secret1"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "username already taken")
}

func TestRegisterDuplicateEmail(t *testing.T) {
	router := newAccountRouter(newFakeDirectory(), nil)

	w := postJSON(router, "/auth/register",
		`{"username":"juan","email":"juan@finca.com","password":"secret1"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	// A different username cannot reuse the address.
	w = postJSON(router, "/auth/register",
		`{"username":"pedro","email":"juan@finca.com","password":"secret1"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "email already registered")
}

func TestCreateCollaboratorDuplicateEmail(t *testing.T) {
	farmer := &models.User{
		ID:            uuid.New(),
		Username:      "juan",
		Email:         "juan@finca.com",
		Role:          models.RoleFarmer,
		ApprovalState: models.ApprovalApproved,
		Approved:      true,
	}
	router := newAccountRouter(newFakeDirectory(farmer), farmer)

	w := postJSON(router, "/collaborators",
		`{"username":"pedro","email":"juan@finca.com","password":"secret1"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "email already registered")
}
