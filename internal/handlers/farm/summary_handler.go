package farm

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stivenPRO500/siembrasApp/internal/cache"
	"github.com/stivenPRO500/siembrasApp/internal/handlers"
	"github.com/stivenPRO500/siembrasApp/internal/models"
	"github.com/stivenPRO500/siembrasApp/internal/repository"
	farmrepo "github.com/stivenPRO500/siembrasApp/internal/repository/farm"
)

// summaryTTL bounds how stale the cached owners summary may be.
const summaryTTL = 60 * time.Second

// SummaryHandler serves the admin cross-tenant view: how much data each
// owner holds in every collection.
type SummaryHandler struct {
	parcels    *farmrepo.ParcelRepository
	activities *farmrepo.ActivityRepository
	products   *farmrepo.ProductRepository
	harvests   *farmrepo.HarvestRepository
	users      *repository.UserRepository
	cache      *cache.Client
}

func NewSummaryHandler(parcels *farmrepo.ParcelRepository, activities *farmrepo.ActivityRepository, products *farmrepo.ProductRepository, harvests *farmrepo.HarvestRepository, users *repository.UserRepository, cacheClient *cache.Client) *SummaryHandler {
	return &SummaryHandler{
		parcels:    parcels,
		activities: activities,
		products:   products,
		harvests:   harvests,
		users:      users,
		cache:      cacheClient,
	}
}

// OwnersSummary returns per-owner counts across all four collections.
// Admin only. The result is cached; four cross-tenant aggregations per
// dashboard poll is the most expensive read in the system.
func (h *SummaryHandler) OwnersSummary(c *gin.Context) {
	ctx := c.Request.Context()

	if cached, err := h.cache.GetOwnersSummary(ctx); err == nil && cached != "" {
		var summary models.OwnersSummary
		if err := json.Unmarshal([]byte(cached), &summary); err == nil {
			c.JSON(http.StatusOK, summary)
			return
		}
	}

	var adminID *uuid.UUID
	if admin, err := h.users.GetAdmin(ctx); err == nil {
		adminID = &admin.ID
	}

	summary := models.OwnersSummary{AdminID: adminID}

	collections := []struct {
		name    string
		grouper func() ([]models.OwnerGroup, error)
		target  *models.CollectionSummary
	}{
		{"parcels", func() ([]models.OwnerGroup, error) { return h.parcels.GroupByOwner(ctx) }, &summary.Parcels},
		{"activities", func() ([]models.OwnerGroup, error) { return h.activities.GroupByOwner(ctx) }, &summary.Activities},
		{"products", func() ([]models.OwnerGroup, error) { return h.products.GroupByOwner(ctx) }, &summary.Products},
		{"harvests", func() ([]models.OwnerGroup, error) { return h.harvests.GroupByOwner(ctx) }, &summary.Harvests},
	}

	for _, col := range collections {
		groups, err := col.grouper()
		if err != nil {
			handlers.RespondError(c, err)
			return
		}
		total := 0
		for i := range groups {
			total += groups[i].Count
			if adminID != nil && groups[i].OwnerID != nil && *groups[i].OwnerID == *adminID {
				groups[i].IsAdmin = true
			}
		}
		*col.target = models.CollectionSummary{Name: col.name, Total: total, Groups: groups}
	}

	if payload, err := json.Marshal(summary); err == nil {
		if err := h.cache.SetOwnersSummary(ctx, string(payload), summaryTTL); err != nil {
			log.Printf("failed to cache owners summary: %v", err)
		}
	}

	c.JSON(http.StatusOK, summary)
}
