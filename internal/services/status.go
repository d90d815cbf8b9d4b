package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stivenPRO500/siembrasApp/internal/models"
)

// ParcelStore is the slice of the parcel repository the status service
// needs.
type ParcelStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Parcel, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Parcel, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.ParcelStatus) error
}

// ActivityStore is the slice of the activity repository the status service
// needs.
type ActivityStore interface {
	ListByParcel(ctx context.Context, parcelID uuid.UUID) ([]*models.Activity, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.ActivityStatus) error
}

// ComputeParcelStatus derives a parcel's status from its activities. Only
// the newest activity of each type counts: an older spraying superseded by
// a newer one no longer demands attention. The parcel goes red when any
// counted activity has an elapsed alert and has not been completed; those
// activities are returned as overdue.
func ComputeParcelStatus(activities []*models.Activity, now time.Time) (models.ParcelStatus, []*models.Activity) {
	newest := map[string]*models.Activity{}
	for _, a := range activities {
		current, ok := newest[a.Type]
		if !ok || a.PerformedAt.After(current.PerformedAt) {
			newest[a.Type] = a
		}
	}

	overdue := []*models.Activity{}
	for _, a := range newest {
		if a.Status == models.ActivityCompleted {
			continue
		}
		if a.AlertAt != nil && !a.AlertAt.After(now) {
			overdue = append(overdue, a)
		}
	}

	if len(overdue) > 0 {
		return models.ParcelRed, overdue
	}
	return models.ParcelGreen, overdue
}

// StatusService recomputes and persists derived parcel and activity
// statuses. It runs after every activity write and on the polled refresh
// endpoint.
type StatusService struct {
	parcels    ParcelStore
	activities ActivityStore
	now        func() time.Time
}

func NewStatusService(parcels ParcelStore, activities ActivityStore) *StatusService {
	return &StatusService{parcels: parcels, activities: activities, now: time.Now}
}

// RefreshParcel recomputes one parcel's status and persists it together
// with the pending flag on its overdue activities. Returns the parcel with
// the fresh status.
func (s *StatusService) RefreshParcel(ctx context.Context, parcelID uuid.UUID) (*models.Parcel, error) {
	parcel, err := s.parcels.GetByID(ctx, parcelID)
	if err != nil {
		return nil, err
	}

	activities, err := s.activities.ListByParcel(ctx, parcelID)
	if err != nil {
		return nil, err
	}

	status, overdue := ComputeParcelStatus(activities, s.now())

	for _, a := range overdue {
		if a.Status == models.ActivityPending {
			continue
		}
		if err := s.activities.UpdateStatus(ctx, a.ID, models.ActivityPending); err != nil {
			return nil, err
		}
	}

	if parcel.Status != status {
		if err := s.parcels.UpdateStatus(ctx, parcelID, status); err != nil {
			return nil, err
		}
		parcel.Status = status
	}
	return parcel, nil
}

// RefreshOwner recomputes every parcel of an owner and returns them with
// fresh statuses. Callers throttle this; it is driven by client polling.
func (s *StatusService) RefreshOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Parcel, error) {
	parcels, err := s.parcels.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	refreshed := make([]*models.Parcel, 0, len(parcels))
	for _, p := range parcels {
		fresh, err := s.RefreshParcel(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		refreshed = append(refreshed, fresh)
	}
	return refreshed, nil
}
