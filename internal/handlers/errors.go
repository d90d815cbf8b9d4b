package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stivenPRO500/siembrasApp/internal/models"
)

// RespondError translates business-rule errors into HTTP responses.
// Anything unrecognized is logged and reported as a 500 without leaking
// internals.
func RespondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
	case errors.Is(err, models.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, models.ErrDuplicatePending):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "duplicate_pending"})
	case errors.Is(err, models.ErrDuplicateActive):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "duplicate_active"})
	case errors.Is(err, models.ErrAlreadyDecided):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "already_decided"})
	case errors.Is(err, models.ErrCollaboratorLimit):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "collaborator_limit"})
	default:
		log.Printf("internal error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
