package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stivenPRO500/siembrasApp/internal/access"
	"github.com/stivenPRO500/siembrasApp/internal/config"
	"github.com/stivenPRO500/siembrasApp/internal/middleware"
	"github.com/stivenPRO500/siembrasApp/internal/models"
	"github.com/stivenPRO500/siembrasApp/internal/utils"
)

type AuthHandler struct {
	users UserDirectory
	cfg   *config.Config
}

func NewAuthHandler(users UserDirectory, cfg *config.Config) *AuthHandler {
	return &AuthHandler{users: users, cfg: cfg}
}

// Register handles farmer self-registration. New accounts start pending;
// collaborator accounts are created by their owner, never here.
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Role == "" {
		req.Role = models.RoleFarmer
	}
	if req.Role != models.RoleFarmer {
		c.JSON(http.StatusBadRequest, gin.H{"error": "only farmer accounts can self-register"})
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
		models.RoleFarmer, models.ApprovalPending, nil)
	if err != nil {
		RespondError(c, err)
		return
	}

	// A fresh farmer may hold a session right away; everything past login
	// demands a plan first.
	token, err := utils.GenerateJWT(user.ID, user.Role, h.cfg.JWT.Secret, h.cfg.JWT.ExpirationMinutes)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}

	response := models.LoginResponse{Token: token}
	response.User.ID = user.ID
	response.User.Username = user.Username
	response.User.Role = user.Role
	c.JSON(http.StatusCreated, response)
}

// Login authenticates by username and password. Unknown user and wrong
// password answer identically; blocked accounts answer with their reason.
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req.Username = utils.NormalizeUsername(req.Username)

	user, err := h.users.GetByUsername(c.Request.Context(), req.Username)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if !utils.CheckPasswordHash(req.Password, user.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	if !access.CanAuthenticate(user) {
		if user.ApprovalState == models.ApprovalRejected {
			c.JSON(http.StatusForbidden, gin.H{"error": "account rejected", "code": "rejected"})
		} else {
			c.JSON(http.StatusForbidden, gin.H{"error": "account pending approval", "code": "pending_approval"})
		}
		return
	}

	token, err := utils.GenerateJWT(user.ID, user.Role, h.cfg.JWT.Secret, h.cfg.JWT.ExpirationMinutes)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}

	response := models.LoginResponse{Token: token}
	response.User.ID = user.ID
	response.User.Username = user.Username
	response.User.Role = user.Role
	c.JSON(http.StatusOK, response)
}

// Me returns the authenticated user together with their current access
// verdict, so clients can route to the right screen after login.
func (h *AuthHandler) Me(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var owner *models.User
	if user.Role == models.RoleCollaborator && user.OwnerID != nil {
		if o, err := h.users.GetByID(c.Request.Context(), *user.OwnerID); err == nil {
			owner = o
		}
	}

	decision := access.Evaluate(user, owner, time.Now())
	body := gin.H{
		"user":   user,
		"access": string(decision.Verdict),
	}
	if decision.Verdict == access.VerdictAllowedInGrace {
		body["grace_days_left"] = decision.GraceDaysLeft
	}
	c.JSON(http.StatusOK, body)
}
