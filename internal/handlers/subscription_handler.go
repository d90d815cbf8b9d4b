package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stivenPRO500/siembrasApp/internal/middleware"
	"github.com/stivenPRO500/siembrasApp/internal/models"
	"github.com/stivenPRO500/siembrasApp/internal/services"
)

type SubscriptionHandler struct {
	svc     *services.SubscriptionService
	uploads *services.UploadService
}

func NewSubscriptionHandler(svc *services.SubscriptionService, uploads *services.UploadService) *SubscriptionHandler {
	return &SubscriptionHandler{svc: svc, uploads: uploads}
}

// Submit files a subscription request. Multipart: a "plan" field plus an
// optional "proof" image of the payment.
func (h *SubscriptionHandler) Submit(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req models.SubmitSubscriptionRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "plan is required"})
		return
	}

	var proofURL *string
	if file, err := c.FormFile("proof"); err == nil && file != nil {
		url, err := h.uploads.SaveImage(c.Request.Context(), file, "proofs")
		if err != nil {
			RespondError(c, err)
			return
		}
		proofURL = &url
	}

	sub, err := h.svc.Submit(c.Request.Context(), user, req.Plan, proofURL)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sub)
}

// MyStatus returns the caller's latest approved and pending requests.
func (h *SubscriptionHandler) MyStatus(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	status, err := h.svc.MyStatus(c.Request.Context(), user)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// ListPending returns the admin review queue, oldest first.
func (h *SubscriptionHandler) ListPending(c *gin.Context) {
	subs, err := h.svc.ListPending(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, subs)
}

// Approve decides a pending request in the requester's favor. Admin only.
func (h *SubscriptionHandler) Approve(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid subscription id"})
		return
	}

	sub, err := h.svc.Approve(c.Request.Context(), id)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

// Reject decides a pending request against the requester. Admin only.
func (h *SubscriptionHandler) Reject(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid subscription id"})
		return
	}

	sub, err := h.svc.Reject(c.Request.Context(), id)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

// UserStatuses returns the per-user subscription state listing. Admin only.
// This read also materializes grace starts and overdue suspensions.
func (h *SubscriptionHandler) UserStatuses(c *gin.Context) {
	statuses, err := h.svc.UserStatuses(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, statuses)
}

// Suspend blocks a user and everyone delegated under them. Admin only.
func (h *SubscriptionHandler) Suspend(c *gin.Context) {
	h.setSuspension(c, true)
}

// Rehabilitate lifts a suspension. Admin only.
func (h *SubscriptionHandler) Rehabilitate(c *gin.Context) {
	h.setSuspension(c, false)
}

func (h *SubscriptionHandler) setSuspension(c *gin.Context, suspend bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	if suspend {
		err = h.svc.Suspend(c.Request.Context(), id)
	} else {
		err = h.svc.Rehabilitate(c.Request.Context(), id)
	}
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "suspended": suspend})
}
