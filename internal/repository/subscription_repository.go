package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stivenPRO500/siembrasApp/internal/models"
)

const subscriptionColumns = `id, user_id, plan, amount, proof_url, status, decided_at,
		starts_at, ends_at, created_at, updated_at`

type SubscriptionRepository struct {
	pool *pgxpool.Pool
}

func NewSubscriptionRepository(pool *pgxpool.Pool) *SubscriptionRepository {
	return &SubscriptionRepository{pool: pool}
}

func scanSubscription(row pgx.Row) (*models.Subscription, error) {
	sub := &models.Subscription{}
	err := row.Scan(
		&sub.ID,
		&sub.UserID,
		&sub.Plan,
		&sub.Amount,
		&sub.ProofURL,
		&sub.Status,
		&sub.DecidedAt,
		&sub.StartsAt,
		&sub.EndsAt,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan subscription: %w", err)
	}
	return sub, nil
}

// Create inserts a pending subscription request.
func (r *SubscriptionRepository) Create(ctx context.Context, userID uuid.UUID, plan models.SubscriptionPlan, amount float64, proofURL *string) (*models.Subscription, error) {
	query := `
		INSERT INTO subscriptions (user_id, plan, amount, proof_url, status)
		VALUES ($1, $2, $3, $4, 'pending')
		RETURNING ` + subscriptionColumns

	return scanSubscription(r.pool.QueryRow(ctx, query, userID, plan, amount, proofURL))
}

// GetByID retrieves a subscription request by ID
func (r *SubscriptionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE id = $1`
	return scanSubscription(r.pool.QueryRow(ctx, query, id))
}

// FindPending returns the user's pending request, or ErrNotFound.
func (r *SubscriptionRepository) FindPending(ctx context.Context, userID uuid.UUID) (*models.Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE user_id = $1 AND status = 'pending'
		ORDER BY created_at DESC
		LIMIT 1`
	return scanSubscription(r.pool.QueryRow(ctx, query, userID))
}

// FindActive returns an approved request still valid at now, or
// ErrNotFound.
func (r *SubscriptionRepository) FindActive(ctx context.Context, userID uuid.UUID, now time.Time) (*models.Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE user_id = $1 AND status = 'approved' AND ends_at > $2
		ORDER BY ends_at DESC
		LIMIT 1`
	return scanSubscription(r.pool.QueryRow(ctx, query, userID, now))
}

// FindLatestApproved returns the user's most recent approved request by
// validity end, or ErrNotFound.
func (r *SubscriptionRepository) FindLatestApproved(ctx context.Context, userID uuid.UUID) (*models.Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE user_id = $1 AND status = 'approved'
		ORDER BY ends_at DESC
		LIMIT 1`
	return scanSubscription(r.pool.QueryRow(ctx, query, userID))
}

// ListPending returns all undecided requests, oldest first.
func (r *SubscriptionRepository) ListPending(ctx context.Context) ([]*models.Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE status = 'pending'
		ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending subscriptions: %w", err)
	}
	defer rows.Close()

	subs := []*models.Subscription{}
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating subscriptions: %w", rows.Err())
	}
	return subs, nil
}

// Decide finalizes a pending request. The WHERE guard keeps decided
// requests immutable even under concurrent admin actions.
func (r *SubscriptionRepository) Decide(ctx context.Context, id uuid.UUID, status models.SubscriptionStatus, decidedAt time.Time, startsAt, endsAt *time.Time) (*models.Subscription, error) {
	query := `
		UPDATE subscriptions
		SET status = $2, decided_at = $3, starts_at = $4, ends_at = $5, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING ` + subscriptionColumns

	sub, err := scanSubscription(r.pool.QueryRow(ctx, query, id, status, decidedAt, startsAt, endsAt))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			// Either missing or already decided; let the service sort it out.
			if _, getErr := r.GetByID(ctx, id); getErr == nil {
				return nil, models.ErrAlreadyDecided
			}
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return sub, nil
}
