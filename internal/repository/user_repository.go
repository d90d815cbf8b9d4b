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

const userColumns = `id, username, email, password_hash, role, approval_state, approved,
		owner_id, subscription_expires_at, subscription_suspended, grace_started_at,
		created_at, updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func scanUser(row pgx.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.ApprovalState,
		&user.Approved,
		&user.OwnerID,
		&user.SubscriptionExpiresAt,
		&user.SubscriptionSuspended,
		&user.GraceStartedAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return user, nil
}

// Create inserts a new user. The admin role is always created approved;
// self-registered users start pending.
func (r *UserRepository) Create(ctx context.Context, username, email, passwordHash string, role models.Role, state models.ApprovalState, ownerID *uuid.UUID) (*models.User, error) {
	query := `
		INSERT INTO users (username, email, password_hash, role, approval_state, approved, owner_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + userColumns

	approved := state == models.ApprovalApproved || role == models.RoleAdmin

	return scanUser(r.pool.QueryRow(ctx, query,
		username, email, passwordHash, role, state, approved, ownerID))
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

// GetByUsername retrieves a user by username
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return scanUser(r.pool.QueryRow(ctx, query, username))
}

// GetAdmin returns the admin account, or ErrNotFound when none exists.
func (r *UserRepository) GetAdmin(ctx context.Context) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE role = 'admin' LIMIT 1`
	return scanUser(r.pool.QueryRow(ctx, query))
}

// UsernameExists reports whether the username is already taken.
func (r *UserRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`, username).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check username: %w", err)
	}
	return exists, nil
}

// EmailExists reports whether the email is already registered.
func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return exists, nil
}

func (r *UserRepository) listQuery(ctx context.Context, query string, args ...interface{}) ([]*models.User, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []*models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating users: %w", rows.Err())
	}
	return users, nil
}

// List returns every user, newest first.
func (r *UserRepository) List(ctx context.Context) ([]*models.User, error) {
	return r.listQuery(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
}

// ListNonAdmin returns all farmer and collaborator accounts.
func (r *UserRepository) ListNonAdmin(ctx context.Context) ([]*models.User, error) {
	return r.listQuery(ctx, `SELECT `+userColumns+` FROM users WHERE role <> 'admin' ORDER BY created_at DESC`)
}

// ListCollaborators returns the collaborators delegated under an owner.
func (r *UserRepository) ListCollaborators(ctx context.Context, ownerID uuid.UUID) ([]*models.User, error) {
	return r.listQuery(ctx,
		`SELECT `+userColumns+` FROM users WHERE role = 'collaborator' AND owner_id = $1 ORDER BY created_at DESC`,
		ownerID)
}

// CountCollaborators counts collaborators delegated under an owner.
func (r *UserRepository) CountCollaborators(ctx context.Context, ownerID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM users WHERE role = 'collaborator' AND owner_id = $1`, ownerID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count collaborators: %w", err)
	}
	return count, nil
}

// SetApproval updates the approval state and its boolean fast path.
func (r *UserRepository) SetApproval(ctx context.Context, id uuid.UUID, state models.ApprovalState) error {
	result, err := r.pool.Exec(ctx,
		`UPDATE users SET approval_state = $2, approved = $3, updated_at = NOW() WHERE id = $1`,
		id, state, state == models.ApprovalApproved)
	if err != nil {
		return fmt.Errorf("failed to update approval: %w", err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ApplySubscriptionApproval writes the denormalized fields an approved
// subscription leaves on the user: approved, fresh expiry, suspension and
// grace cleared.
func (r *UserRepository) ApplySubscriptionApproval(ctx context.Context, id uuid.UUID, expiresAt time.Time) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE users
		SET approval_state = 'approved',
		    approved = TRUE,
		    subscription_expires_at = $2,
		    subscription_suspended = FALSE,
		    grace_started_at = NULL,
		    updated_at = NOW()
		WHERE id = $1`,
		id, expiresAt)
	if err != nil {
		return fmt.Errorf("failed to apply subscription approval: %w", err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// SetSuspended toggles the subscription suspension flag.
func (r *UserRepository) SetSuspended(ctx context.Context, id uuid.UUID, suspended bool) error {
	result, err := r.pool.Exec(ctx,
		`UPDATE users SET subscription_suspended = $2, updated_at = NOW() WHERE id = $1`,
		id, suspended)
	if err != nil {
		return fmt.Errorf("failed to update suspension: %w", err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// SetGraceStarted sets or clears the grace period start marker.
func (r *UserRepository) SetGraceStarted(ctx context.Context, id uuid.UUID, startedAt *time.Time) error {
	result, err := r.pool.Exec(ctx,
		`UPDATE users SET grace_started_at = $2, updated_at = NOW() WHERE id = $1`,
		id, startedAt)
	if err != nil {
		return fmt.Errorf("failed to update grace start: %w", err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Delete removes a user. Collaborator owner references are left dangling
// on purpose; they read as "no effective tenant".
func (r *UserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
