package farm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stivenPRO500/siembrasApp/internal/models"
)

const productColumns = `id, name, type, price, presentation, cups_per_unit,
		pounds_per_bag, note, image_url, owner_id, created_at, updated_at`

// ProductRepository handles the per-owner catalog of pesticides,
// fertilizers, materials and seeds.
type ProductRepository struct {
	pool *pgxpool.Pool
}

func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

func scanProduct(row pgx.Row) (*models.Product, error) {
	p := &models.Product{}
	var note, imageURL *string
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Type,
		&p.Price,
		&p.Presentation,
		&p.CupsPerUnit,
		&p.PoundsPerBag,
		&note,
		&imageURL,
		&p.OwnerID,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan product: %w", err)
	}
	if note != nil {
		p.Note = *note
	}
	if imageURL != nil {
		p.ImageURL = *imageURL
	}
	return p, nil
}

// Create inserts a catalog product stamped with its owner.
func (r *ProductRepository) Create(ctx context.Context, p *models.Product) (*models.Product, error) {
	query := `
		INSERT INTO products (name, type, price, presentation, cups_per_unit, pounds_per_bag, note, image_url, owner_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + productColumns

	var note, imageURL *string
	if p.Note != "" {
		note = &p.Note
	}
	if p.ImageURL != "" {
		imageURL = &p.ImageURL
	}

	return scanProduct(r.pool.QueryRow(ctx, query,
		p.Name, p.Type, p.Price, p.Presentation, p.CupsPerUnit, p.PoundsPerBag,
		note, imageURL, p.OwnerID))
}

func (r *ProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	return scanProduct(r.pool.QueryRow(ctx, query, id))
}

// ListByOwner returns the owner's catalog, newest first.
func (r *ProductRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE owner_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []*models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating products: %w", rows.Err())
	}
	return products, nil
}

// Update applies the non-nil fields of req to a product.
func (r *ProductRepository) Update(ctx context.Context, id uuid.UUID, req *models.UpdateProductRequest) (*models.Product, error) {
	updates := []string{}
	args := []interface{}{id}
	argIndex := 2

	addUpdate := func(column string, value interface{}) {
		updates = append(updates, fmt.Sprintf("%s = $%d", column, argIndex))
		args = append(args, value)
		argIndex++
	}

	if req.Name != nil {
		addUpdate("name", *req.Name)
	}
	if req.Type != nil {
		addUpdate("type", *req.Type)
	}
	if req.Price != nil {
		addUpdate("price", *req.Price)
	}
	if req.Presentation != nil {
		addUpdate("presentation", *req.Presentation)
	}
	if req.CupsPerUnit != nil {
		addUpdate("cups_per_unit", *req.CupsPerUnit)
	}
	if req.PoundsPerBag != nil {
		addUpdate("pounds_per_bag", *req.PoundsPerBag)
	}
	if req.Note != nil {
		addUpdate("note", *req.Note)
	}

	if len(updates) == 0 {
		return r.GetByID(ctx, id)
	}

	query := fmt.Sprintf(
		"UPDATE products SET %s, updated_at = NOW() WHERE id = $1 RETURNING %s",
		strings.Join(updates, ", "), productColumns)

	return scanProduct(r.pool.QueryRow(ctx, query, args...))
}

// SetImageURL replaces the product photo URL.
func (r *ProductRepository) SetImageURL(ctx context.Context, id uuid.UUID, imageURL string) error {
	result, err := r.pool.Exec(ctx,
		`UPDATE products SET image_url = $2, updated_at = NOW() WHERE id = $1`, id, imageURL)
	if err != nil {
		return fmt.Errorf("failed to update product image: %w", err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *ProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// GroupByOwner aggregates catalog counts per owner for the admin summary.
func (r *ProductRepository) GroupByOwner(ctx context.Context) ([]models.OwnerGroup, error) {
	return groupByOwner(ctx, r.pool, "products")
}
