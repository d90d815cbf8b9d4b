package farm

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stivenPRO500/siembrasApp/internal/cache"
	"github.com/stivenPRO500/siembrasApp/internal/handlers"
	"github.com/stivenPRO500/siembrasApp/internal/models"
	farmrepo "github.com/stivenPRO500/siembrasApp/internal/repository/farm"
	"github.com/stivenPRO500/siembrasApp/internal/services"
)

// refreshWindow is how often a tenant's parcel statuses are recomputed on
// the list endpoint. Clients poll it; the throttle keeps one recompute per
// window.
const refreshWindow = 30 * time.Second

type ParcelHandler struct {
	parcels *farmrepo.ParcelRepository
	status  *services.StatusService
	cache   *cache.Client
}

func NewParcelHandler(parcels *farmrepo.ParcelRepository, status *services.StatusService, cacheClient *cache.Client) *ParcelHandler {
	return &ParcelHandler{parcels: parcels, status: status, cache: cacheClient}
}

func (h *ParcelHandler) Create(c *gin.Context) {
	ownerID, ok := requireOwner(c)
	if !ok {
		return
	}

	var req models.CreateParcelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	parcel, err := h.parcels.Create(c.Request.Context(), req.Name, ownerID)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, parcel)
}

// List returns the tenant's parcels. At most once per refresh window the
// derived statuses are recomputed first, so alert transitions show up
// without a write ever happening.
func (h *ParcelHandler) List(c *gin.Context) {
	ownerID, ok := requireOwner(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	won, err := h.cache.AcquireThrottle(ctx, "parcel-refresh:"+ownerID.String(), refreshWindow)
	if err != nil {
		log.Printf("parcel refresh throttle: %v", err)
	}
	if won {
		parcels, err := h.status.RefreshOwner(ctx, ownerID)
		if err == nil {
			c.JSON(http.StatusOK, parcels)
			return
		}
		log.Printf("parcel refresh for %s failed: %v", ownerID, err)
	}

	parcels, err := h.parcels.ListByOwner(ctx, ownerID)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, parcels)
}

func (h *ParcelHandler) Get(c *gin.Context) {
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
	c.JSON(http.StatusOK, parcel)
}

func (h *ParcelHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req models.UpdateParcelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
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

	if req.Name == nil {
		c.JSON(http.StatusOK, parcel)
		return
	}

	updated, err := h.parcels.UpdateName(c.Request.Context(), id, *req.Name)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// Delete removes a parcel and its activity log. Harvests taken from it
// survive; they carry their own snapshot.
func (h *ParcelHandler) Delete(c *gin.Context) {
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

	if err := h.parcels.Delete(c.Request.Context(), id); err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}
