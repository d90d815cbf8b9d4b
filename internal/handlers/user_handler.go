package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stivenPRO500/siembrasApp/internal/config"
	"github.com/stivenPRO500/siembrasApp/internal/middleware"
	"github.com/stivenPRO500/siembrasApp/internal/models"
	"github.com/stivenPRO500/siembrasApp/internal/utils"
)

// UserDirectory is the slice of the user repository the account handlers
// need.
type UserDirectory interface {
	Create(ctx context.Context, username, email, passwordHash string, role models.Role, state models.ApprovalState, ownerID *uuid.UUID) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	ListCollaborators(ctx context.Context, ownerID uuid.UUID) ([]*models.User, error)
	CountCollaborators(ctx context.Context, ownerID uuid.UUID) (int, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	SetApproval(ctx context.Context, id uuid.UUID, state models.ApprovalState) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type UserHandler struct {
	users UserDirectory
	cfg   *config.Config
}

func NewUserHandler(users UserDirectory, cfg *config.Config) *UserHandler {
	return &UserHandler{users: users, cfg: cfg}
}

// checkIdentityFree answers false after writing a 409 when the username or
// email is already taken. Both columns are unique; the race with a
// concurrent insert is settled by the DB constraint.
func checkIdentityFree(c *gin.Context, users UserDirectory, username, email string) bool {
	exists, err := users.UsernameExists(c.Request.Context(), username)
	if err != nil {
		RespondError(c, err)
		return false
	}
	if exists {
		c.JSON(http.StatusConflict, gin.H{"error": "username already taken"})
		return false
	}

	exists, err = users.EmailExists(c.Request.Context(), email)
	if err != nil {
		RespondError(c, err)
		return false
	}
	if exists {
		c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
		return false
	}
	return true
}

// List returns every account. Admin only.
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// Create registers a farmer directly as approved. Admin only.
func (h *UserHandler) Create(c *gin.Context) {
	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Role != models.RoleFarmer {
		c.JSON(http.StatusBadRequest, gin.H{"error": "only farmer accounts can be created here"})
		return
	}

	req.Username = utils.NormalizeUsername(req.Username)
	req.Email = utils.NormalizeEmail(req.Email)

	if !checkIdentityFree(c, h.users, req.Username, req.Email) {
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to hash password"})
		return
	}

	user, err := h.users.Create(c.Request.Context(), req.Username, req.Email, hash,
		req.Role, models.ApprovalApproved, nil)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// Approve marks a pending account approved. Admin only.
func (h *UserHandler) Approve(c *gin.Context) {
	h.decide(c, models.ApprovalApproved)
}

// Reject marks an account rejected. Admin only.
func (h *UserHandler) Reject(c *gin.Context) {
	h.decide(c, models.ApprovalRejected)
}

func (h *UserHandler) decide(c *gin.Context, state models.ApprovalState) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	user, err := h.users.GetByID(c.Request.Context(), id)
	if err != nil {
		RespondError(c, err)
		return
	}
	if user.IsAdmin() {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	if err := h.users.SetApproval(c.Request.Context(), id, state); err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "approval_state": state})
}

// Delete removes an account. Admin only; the admin account itself is
// untouchable. Collaborators of a deleted farmer are left with a dangling
// owner reference, which reads as "no effective tenant".
func (h *UserHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	user, err := h.users.GetByID(c.Request.Context(), id)
	if err != nil {
		RespondError(c, err)
		return
	}
	if user.IsAdmin() {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	if err := h.users.Delete(c.Request.Context(), id); err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

// CreateCollaborator registers a collaborator under the caller. Farmers and
// the admin each have a soft cap enforced here with a count check.
func (h *UserHandler) CreateCollaborator(c *gin.Context) {
	caller := middleware.CurrentUser(c)
	if caller == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req models.CreateCollaboratorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	limit := h.cfg.Limits.FarmerCollaborators
	if caller.IsAdmin() {
		limit = h.cfg.Limits.AdminCollaborators
	}
	count, err := h.users.CountCollaborators(c.Request.Context(), caller.ID)
	if err != nil {
		RespondError(c, err)
		return
	}
	if count >= limit {
		RespondError(c, models.ErrCollaboratorLimit)
		return
	}

	req.Username = utils.NormalizeUsername(req.Username)
	req.Email = utils.NormalizeEmail(req.Email)

	if !checkIdentityFree(c, h.users, req.Username, req.Email) {
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to hash password"})
		return
	}

	ownerID := caller.ID
	user, err := h.users.Create(c.Request.Context(), req.Username, req.Email, hash,
		models.RoleCollaborator, models.ApprovalApproved, &ownerID)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// ListCollaborators returns the collaborators delegated under the caller.
func (h *UserHandler) ListCollaborators(c *gin.Context) {
	caller := middleware.CurrentUser(c)
	if caller == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	collaborators, err := h.users.ListCollaborators(c.Request.Context(), caller.ID)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, collaborators)
}
