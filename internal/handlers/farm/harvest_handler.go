package farm

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stivenPRO500/siembrasApp/internal/handlers"
	"github.com/stivenPRO500/siembrasApp/internal/models"
	farmrepo "github.com/stivenPRO500/siembrasApp/internal/repository/farm"
	"github.com/stivenPRO500/siembrasApp/internal/services"
)

type HarvestHandler struct {
	harvests *farmrepo.HarvestRepository
	parcels  *farmrepo.ParcelRepository
	svc      *services.HarvestService
}

func NewHarvestHandler(harvests *farmrepo.HarvestRepository, parcels *farmrepo.ParcelRepository, svc *services.HarvestService) *HarvestHandler {
	return &HarvestHandler{harvests: harvests, parcels: parcels, svc: svc}
}

// HarvestParcel snapshots a parcel's cycle: the activity log is frozen onto
// a new harvest, the log cleared, the parcel reset to green.
func (h *HarvestHandler) HarvestParcel(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	parcel, err := h.parcels.GetByID(c.Request.Context(), id)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	if !authorizeResource(c, parcel.OwnerID) {
		return
	}

	ownerID, ok := requireOwner(c)
	if !ok {
		return
	}
	// The snapshot belongs to the parcel's tenant; an ownerless legacy
	// parcel harvests onto the caller's own tenant.
	if parcel.OwnerID != nil {
		ownerID = *parcel.OwnerID
	}

	harvest, err := h.svc.Harvest(c.Request.Context(), parcel, ownerID)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, harvest)
}

func (h *HarvestHandler) List(c *gin.Context) {
	ownerID, ok := requireOwner(c)
	if !ok {
		return
	}

	harvests, err := h.harvests.ListByOwner(c.Request.Context(), ownerID)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, harvests)
}

func (h *HarvestHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	harvest, err := h.harvests.GetByID(c.Request.Context(), id)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	if !authorizeResource(c, harvest.OwnerID) {
		return
	}
	c.JSON(http.StatusOK, harvest)
}

// Update fills in the post-harvest tracking: productions sold, extra
// expenses, whether the cycle was paid out. The frozen snapshot itself
// never changes.
func (h *HarvestHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req models.UpdateHarvestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	harvest, err := h.harvests.GetByID(c.Request.Context(), id)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	if !authorizeResource(c, harvest.OwnerID) {
		return
	}

	updated, err := h.harvests.UpdateTracking(c.Request.Context(), id, &req)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *HarvestHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	harvest, err := h.harvests.GetByID(c.Request.Context(), id)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	if !authorizeResource(c, harvest.OwnerID) {
		return
	}

	if err := h.harvests.Delete(c.Request.Context(), id); err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}
