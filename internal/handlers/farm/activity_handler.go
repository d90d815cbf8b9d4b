package farm

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stivenPRO500/siembrasApp/internal/handlers"
	"github.com/stivenPRO500/siembrasApp/internal/models"
	farmrepo "github.com/stivenPRO500/siembrasApp/internal/repository/farm"
	"github.com/stivenPRO500/siembrasApp/internal/services"
)

type ActivityHandler struct {
	activities *farmrepo.ActivityRepository
	parcels    *farmrepo.ParcelRepository
	products   *farmrepo.ProductRepository
	status     *services.StatusService
}

func NewActivityHandler(activities *farmrepo.ActivityRepository, parcels *farmrepo.ParcelRepository, products *farmrepo.ProductRepository, status *services.StatusService) *ActivityHandler {
	return &ActivityHandler{activities: activities, parcels: parcels, products: products, status: status}
}

// catalogFor loads the tenant's catalog keyed by product id, for pricing
// usage lines.
func (h *ActivityHandler) catalogFor(c *gin.Context, ownerID uuid.UUID) (map[string]*models.Product, error) {
	products, err := h.products.ListByOwner(c.Request.Context(), ownerID)
	if err != nil {
		return nil, err
	}
	catalog := make(map[string]*models.Product, len(products))
	for _, p := range products {
		catalog[p.ID.String()] = p
	}
	return catalog, nil
}

// Create logs an activity on one of the tenant's parcels. Usage line costs
// are priced against the catalog here; the client never sends costs.
func (h *ActivityHandler) Create(c *gin.Context) {
	ownerID, ok := requireOwner(c)
	if !ok {
		return
	}

	var req models.CreateActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	parcel, err := h.parcels.GetByID(c.Request.Context(), req.ParcelID)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	if !authorizeResource(c, parcel.OwnerID) {
		return
	}

	// Activities belong to the parcel's tenant, which for the admin acting
	// cross-tenant is not their own.
	if parcel.OwnerID != nil {
		ownerID = *parcel.OwnerID
	}

	catalog, err := h.catalogFor(c, ownerID)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	priced, usageTotal, err := services.PriceUsages(catalog, req.ProductsUsed)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}

	activity, err := h.activities.Create(c.Request.Context(), &models.Activity{
		ParcelID:     req.ParcelID,
		Type:         req.Type,
		PerformedAt:  req.PerformedAt,
		AlertAt:      req.AlertAt,
		Status:       models.ActivityPending,
		ProductsUsed: priced,
		LaborCost:    req.LaborCost,
		TotalCost:    usageTotal + req.LaborCost,
		OwnerID:      &ownerID,
	})
	if err != nil {
		handlers.RespondError(c, err)
		return
	}

	h.refreshParcel(c, req.ParcelID)
	c.JSON(http.StatusCreated, activity)
}

// List returns the tenant's activities, optionally narrowed to one parcel
// via ?parcel_id=.
func (h *ActivityHandler) List(c *gin.Context) {
	ownerID, ok := requireOwner(c)
	if !ok {
		return
	}

	if raw := c.Query("parcel_id"); raw != "" {
		parcelID, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid parcel_id"})
			return
		}
		parcel, err := h.parcels.GetByID(c.Request.Context(), parcelID)
		if err != nil {
			handlers.RespondError(c, err)
			return
		}
		if !authorizeResource(c, parcel.OwnerID) {
			return
		}
		activities, err := h.activities.ListByParcel(c.Request.Context(), parcelID)
		if err != nil {
			handlers.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, activities)
		return
	}

	activities, err := h.activities.ListByOwner(c.Request.Context(), ownerID)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, activities)
}

func (h *ActivityHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	activity, err := h.activities.GetByID(c.Request.Context(), id)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	if !authorizeResource(c, activity.OwnerID) {
		return
	}
	c.JSON(http.StatusOK, activity)
}

// Update rewrites an activity, re-pricing its usage lines, and recomputes
// the parcel status afterwards.
func (h *ActivityHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req models.UpdateActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	activity, err := h.activities.GetByID(c.Request.Context(), id)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	if !authorizeResource(c, activity.OwnerID) {
		return
	}

	activityType := activity.Type
	if req.Type != nil {
		activityType = *req.Type
	}
	performedAt := activity.PerformedAt
	if req.PerformedAt != nil {
		performedAt = *req.PerformedAt
	}
	alertAt := activity.AlertAt
	if req.AlertAt != nil {
		alertAt = req.AlertAt
	}
	usages := activity.ProductsUsed
	if req.ProductsUsed != nil {
		usages = *req.ProductsUsed
	}
	laborCost := activity.LaborCost
	if req.LaborCost != nil {
		laborCost = *req.LaborCost
	}

	ownerID, ok := requireOwner(c)
	if !ok {
		return
	}
	if activity.OwnerID != nil {
		ownerID = *activity.OwnerID
	}
	catalog, err := h.catalogFor(c, ownerID)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	priced, usageTotal, err := services.PriceUsages(catalog, usages)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}

	updated, err := h.activities.Update(c.Request.Context(), id,
		activityType, performedAt, alertAt, priced, laborCost, usageTotal+laborCost)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}

	h.refreshParcel(c, updated.ParcelID)
	c.JSON(http.StatusOK, updated)
}

// Complete marks an activity's follow-up done, which can turn its parcel
// back to green.
func (h *ActivityHandler) Complete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	activity, err := h.activities.GetByID(c.Request.Context(), id)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	if !authorizeResource(c, activity.OwnerID) {
		return
	}

	if err := h.activities.UpdateStatus(c.Request.Context(), id, models.ActivityCompleted); err != nil {
		handlers.RespondError(c, err)
		return
	}

	parcel, err := h.status.RefreshParcel(c.Request.Context(), activity.ParcelID)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "status": models.ActivityCompleted, "parcel": parcel})
}

func (h *ActivityHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	activity, err := h.activities.GetByID(c.Request.Context(), id)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	if !authorizeResource(c, activity.OwnerID) {
		return
	}

	if err := h.activities.Delete(c.Request.Context(), id); err != nil {
		handlers.RespondError(c, err)
		return
	}

	h.refreshParcel(c, activity.ParcelID)
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

// refreshParcel recomputes a parcel's derived status after a write. The
// write already succeeded, so a failed refresh only logs; the next poll
// catches up.
func (h *ActivityHandler) refreshParcel(c *gin.Context, parcelID uuid.UUID) {
	if _, err := h.status.RefreshParcel(c.Request.Context(), parcelID); err != nil {
		log.Printf("parcel %s status refresh failed: %v", parcelID, err)
	}
}
