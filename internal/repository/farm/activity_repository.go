package farm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stivenPRO500/siembrasApp/internal/models"
)

const activityColumns = `id, parcel_id, type, performed_at, alert_at, status,
		products_used, labor_cost, total_cost, owner_id, created_at, updated_at`

// ActivityRepository handles activity persistence. Product usage lines are
// stored as a JSONB document on the row.
type ActivityRepository struct {
	pool *pgxpool.Pool
}

func NewActivityRepository(pool *pgxpool.Pool) *ActivityRepository {
	return &ActivityRepository{pool: pool}
}

func scanActivity(row pgx.Row) (*models.Activity, error) {
	a := &models.Activity{}
	var productsUsed []byte
	err := row.Scan(
		&a.ID,
		&a.ParcelID,
		&a.Type,
		&a.PerformedAt,
		&a.AlertAt,
		&a.Status,
		&productsUsed,
		&a.LaborCost,
		&a.TotalCost,
		&a.OwnerID,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan activity: %w", err)
	}

	a.ProductsUsed = []models.ProductUsage{}
	if len(productsUsed) > 0 {
		if err := json.Unmarshal(productsUsed, &a.ProductsUsed); err != nil {
			return nil, fmt.Errorf("failed to decode products_used: %w", err)
		}
	}
	return a, nil
}

// Create inserts a new activity. TotalCost is computed by the caller as
// product line costs plus labor.
func (r *ActivityRepository) Create(ctx context.Context, a *models.Activity) (*models.Activity, error) {
	productsUsed, err := json.Marshal(a.ProductsUsed)
	if err != nil {
		return nil, fmt.Errorf("failed to encode products_used: %w", err)
	}

	query := `
		INSERT INTO activities (parcel_id, type, performed_at, alert_at, status, products_used, labor_cost, total_cost, owner_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + activityColumns

	return scanActivity(r.pool.QueryRow(ctx, query,
		a.ParcelID, a.Type, a.PerformedAt, a.AlertAt, a.Status,
		productsUsed, a.LaborCost, a.TotalCost, a.OwnerID))
}

func (r *ActivityRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM activities WHERE id = $1`
	return scanActivity(r.pool.QueryRow(ctx, query, id))
}

func (r *ActivityRepository) listQuery(ctx context.Context, query string, args ...interface{}) ([]*models.Activity, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	defer rows.Close()

	activities := []*models.Activity{}
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		activities = append(activities, a)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating activities: %w", rows.Err())
	}
	return activities, nil
}

// ListByOwner returns an owner's activities across all parcels.
func (r *ActivityRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Activity, error) {
	return r.listQuery(ctx,
		`SELECT `+activityColumns+` FROM activities WHERE owner_id = $1 ORDER BY performed_at DESC`,
		ownerID)
}

// ListByParcel returns a parcel's activities, oldest first.
func (r *ActivityRepository) ListByParcel(ctx context.Context, parcelID uuid.UUID) ([]*models.Activity, error) {
	return r.listQuery(ctx,
		`SELECT `+activityColumns+` FROM activities WHERE parcel_id = $1 ORDER BY performed_at ASC`,
		parcelID)
}

// Update rewrites the mutable fields of an activity.
func (r *ActivityRepository) Update(ctx context.Context, id uuid.UUID, activityType string, performedAt time.Time, alertAt *time.Time, productsUsed []models.ProductUsage, laborCost, totalCost float64) (*models.Activity, error) {
	encoded, err := json.Marshal(productsUsed)
	if err != nil {
		return nil, fmt.Errorf("failed to encode products_used: %w", err)
	}

	query := `
		UPDATE activities
		SET type = $2, performed_at = $3, alert_at = $4, products_used = $5,
		    labor_cost = $6, total_cost = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + activityColumns

	return scanActivity(r.pool.QueryRow(ctx, query,
		id, activityType, performedAt, alertAt, encoded, laborCost, totalCost))
}

// UpdateStatus persists a recomputed pending/completed status.
func (r *ActivityRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.ActivityStatus) error {
	result, err := r.pool.Exec(ctx,
		`UPDATE activities SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("failed to update activity status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *ActivityRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM activities WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete activity: %w", err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// GroupByOwner aggregates activity counts per owner for the admin summary.
func (r *ActivityRepository) GroupByOwner(ctx context.Context) ([]models.OwnerGroup, error) {
	return groupByOwner(ctx, r.pool, "activities")
}
