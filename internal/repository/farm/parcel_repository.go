package farm

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stivenPRO500/siembrasApp/internal/models"
)

const parcelColumns = `id, name, status, owner_id, created_at, updated_at`

// ParcelRepository handles parcel ("manzana") persistence.
type ParcelRepository struct {
	pool *pgxpool.Pool
}

func NewParcelRepository(pool *pgxpool.Pool) *ParcelRepository {
	return &ParcelRepository{pool: pool}
}

func scanParcel(row pgx.Row) (*models.Parcel, error) {
	p := &models.Parcel{}
	err := row.Scan(&p.ID, &p.Name, &p.Status, &p.OwnerID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan parcel: %w", err)
	}
	return p, nil
}

// Create inserts a parcel stamped with its owner. New parcels start green.
func (r *ParcelRepository) Create(ctx context.Context, name string, ownerID uuid.UUID) (*models.Parcel, error) {
	query := `
		INSERT INTO parcels (name, status, owner_id)
		VALUES ($1, 'green', $2)
		RETURNING ` + parcelColumns
	return scanParcel(r.pool.QueryRow(ctx, query, name, ownerID))
}

func (r *ParcelRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Parcel, error) {
	query := `SELECT ` + parcelColumns + ` FROM parcels WHERE id = $1`
	return scanParcel(r.pool.QueryRow(ctx, query, id))
}

// ListByOwner returns the owner's parcels, newest first.
func (r *ParcelRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Parcel, error) {
	query := `SELECT ` + parcelColumns + ` FROM parcels WHERE owner_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list parcels: %w", err)
	}
	defer rows.Close()

	parcels := []*models.Parcel{}
	for rows.Next() {
		p, err := scanParcel(rows)
		if err != nil {
			return nil, err
		}
		parcels = append(parcels, p)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating parcels: %w", rows.Err())
	}
	return parcels, nil
}

// UpdateName renames a parcel.
func (r *ParcelRepository) UpdateName(ctx context.Context, id uuid.UUID, name string) (*models.Parcel, error) {
	query := `
		UPDATE parcels SET name = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + parcelColumns
	return scanParcel(r.pool.QueryRow(ctx, query, id, name))
}

// UpdateStatus persists a recomputed status.
func (r *ParcelRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.ParcelStatus) error {
	result, err := r.pool.Exec(ctx,
		`UPDATE parcels SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("failed to update parcel status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Delete removes a parcel and its activities.
func (r *ParcelRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM activities WHERE parcel_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete parcel activities: %w", err)
	}

	result, err := tx.Exec(ctx, `DELETE FROM parcels WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete parcel: %w", err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GroupByOwner aggregates parcel counts per owner for the admin summary.
func (r *ParcelRepository) GroupByOwner(ctx context.Context) ([]models.OwnerGroup, error) {
	return groupByOwner(ctx, r.pool, "parcels")
}
