package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stivenPRO500/siembrasApp/internal/models"
)

// HarvestStore is the slice of the harvest repository the service needs.
type HarvestStore interface {
	CreateSnapshot(ctx context.Context, h *models.Harvest) (*models.Harvest, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Harvest, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Harvest, error)
	UpdateTracking(ctx context.Context, id uuid.UUID, req *models.UpdateHarvestRequest) (*models.Harvest, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// BuildSnapshot freezes a parcel's activity log into a harvest record owned
// by ownerID. The total is the sum of activity totals; the activities
// themselves are copied without their identities since the originals are
// about to be deleted.
func BuildSnapshot(parcel *models.Parcel, ownerID uuid.UUID, activities []*models.Activity, harvestedAt time.Time) *models.Harvest {
	snapshots := make([]models.ActivitySnapshot, 0, len(activities))
	total := 0.0
	for _, a := range activities {
		snapshots = append(snapshots, models.ActivitySnapshot{
			Type:         a.Type,
			PerformedAt:  a.PerformedAt,
			ProductsUsed: a.ProductsUsed,
			LaborCost:    a.LaborCost,
			TotalCost:    a.TotalCost,
		})
		total += a.TotalCost
	}

	return &models.Harvest{
		ParcelID:      parcel.ID,
		Activities:    snapshots,
		TotalCost:     total,
		HarvestedAt:   harvestedAt,
		Productions:   []models.Production{},
		ExtraExpenses: []models.ExtraExpense{},
		OwnerID:       &ownerID,
	}
}

// HarvestService runs the harvest cycle: snapshot a parcel's activities,
// wipe its log, and track production afterwards.
type HarvestService struct {
	activities ActivityStore
	harvests   HarvestStore
	now        func() time.Time
}

func NewHarvestService(activities ActivityStore, harvests HarvestStore) *HarvestService {
	return &HarvestService{activities: activities, harvests: harvests, now: time.Now}
}

// Harvest snapshots the parcel and clears its cycle, stamping the harvest
// onto ownerID. A parcel with no activities still harvests, with a
// zero-cost snapshot.
func (s *HarvestService) Harvest(ctx context.Context, parcel *models.Parcel, ownerID uuid.UUID) (*models.Harvest, error) {
	activities, err := s.activities.ListByParcel(ctx, parcel.ID)
	if err != nil {
		return nil, err
	}
	return s.harvests.CreateSnapshot(ctx, BuildSnapshot(parcel, ownerID, activities, s.now()))
}
