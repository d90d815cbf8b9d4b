package farm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stivenPRO500/siembrasApp/internal/models"
)

const harvestColumns = `id, parcel_id, activities, total_cost, harvested_at,
		productions, extra_expenses, paid, owner_id, created_at, updated_at`

// HarvestRepository handles harvest ("cosecha") snapshots.
type HarvestRepository struct {
	pool *pgxpool.Pool
}

func NewHarvestRepository(pool *pgxpool.Pool) *HarvestRepository {
	return &HarvestRepository{pool: pool}
}

func scanHarvest(row pgx.Row) (*models.Harvest, error) {
	h := &models.Harvest{}
	var activities, productions, extraExpenses []byte
	err := row.Scan(
		&h.ID,
		&h.ParcelID,
		&activities,
		&h.TotalCost,
		&h.HarvestedAt,
		&productions,
		&extraExpenses,
		&h.Paid,
		&h.OwnerID,
		&h.CreatedAt,
		&h.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan harvest: %w", err)
	}

	h.Activities = []models.ActivitySnapshot{}
	h.Productions = []models.Production{}
	h.ExtraExpenses = []models.ExtraExpense{}
	if len(activities) > 0 {
		if err := json.Unmarshal(activities, &h.Activities); err != nil {
			return nil, fmt.Errorf("failed to decode harvest activities: %w", err)
		}
	}
	if len(productions) > 0 {
		if err := json.Unmarshal(productions, &h.Productions); err != nil {
			return nil, fmt.Errorf("failed to decode productions: %w", err)
		}
	}
	if len(extraExpenses) > 0 {
		if err := json.Unmarshal(extraExpenses, &h.ExtraExpenses); err != nil {
			return nil, fmt.Errorf("failed to decode extra expenses: %w", err)
		}
	}
	return h, nil
}

// CreateSnapshot runs the harvest state transition in one transaction:
// insert the harvest, delete the parcel's activities, reset the parcel to
// green. The insert goes first so a failed cleanup can only ever leave the
// recoverable duplicate, never lose the snapshot.
func (r *HarvestRepository) CreateSnapshot(ctx context.Context, h *models.Harvest) (*models.Harvest, error) {
	activities, err := json.Marshal(h.Activities)
	if err != nil {
		return nil, fmt.Errorf("failed to encode harvest activities: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	insertQuery := `
		INSERT INTO harvests (parcel_id, activities, total_cost, harvested_at, productions, extra_expenses, paid, owner_id)
		VALUES ($1, $2, $3, $4, '[]', '[]', FALSE, $5)
		RETURNING ` + harvestColumns

	created, err := scanHarvest(tx.QueryRow(ctx, insertQuery,
		h.ParcelID, activities, h.TotalCost, h.HarvestedAt, h.OwnerID))
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM activities WHERE parcel_id = $1`, h.ParcelID); err != nil {
		return nil, fmt.Errorf("failed to clear parcel activities: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE parcels SET status = 'green', updated_at = NOW() WHERE id = $1`, h.ParcelID); err != nil {
		return nil, fmt.Errorf("failed to reset parcel: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit harvest: %w", err)
	}
	return created, nil
}

func (r *HarvestRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Harvest, error) {
	query := `SELECT ` + harvestColumns + ` FROM harvests WHERE id = $1`
	return scanHarvest(r.pool.QueryRow(ctx, query, id))
}

// ListByOwner returns the owner's harvests, newest first.
func (r *HarvestRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Harvest, error) {
	query := `SELECT ` + harvestColumns + ` FROM harvests WHERE owner_id = $1 ORDER BY harvested_at DESC`

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list harvests: %w", err)
	}
	defer rows.Close()

	harvests := []*models.Harvest{}
	for rows.Next() {
		h, err := scanHarvest(rows)
		if err != nil {
			return nil, err
		}
		harvests = append(harvests, h)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating harvests: %w", rows.Err())
	}
	return harvests, nil
}

// UpdateTracking updates the post-harvest bookkeeping fields. The activity
// snapshot itself is immutable.
func (r *HarvestRepository) UpdateTracking(ctx context.Context, id uuid.UUID, req *models.UpdateHarvestRequest) (*models.Harvest, error) {
	current, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	productions := current.Productions
	if req.Productions != nil {
		productions = *req.Productions
	}
	extraExpenses := current.ExtraExpenses
	if req.ExtraExpenses != nil {
		extraExpenses = *req.ExtraExpenses
	}
	paid := current.Paid
	if req.Paid != nil {
		paid = *req.Paid
	}

	encodedProductions, err := json.Marshal(productions)
	if err != nil {
		return nil, fmt.Errorf("failed to encode productions: %w", err)
	}
	encodedExpenses, err := json.Marshal(extraExpenses)
	if err != nil {
		return nil, fmt.Errorf("failed to encode extra expenses: %w", err)
	}

	query := `
		UPDATE harvests
		SET productions = $2, extra_expenses = $3, paid = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + harvestColumns

	return scanHarvest(r.pool.QueryRow(ctx, query, id, encodedProductions, encodedExpenses, paid))
}

func (r *HarvestRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM harvests WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete harvest: %w", err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// GroupByOwner aggregates harvest counts per owner for the admin summary.
func (r *HarvestRepository) GroupByOwner(ctx context.Context) ([]models.OwnerGroup, error) {
	return groupByOwner(ctx, r.pool, "harvests")
}
