package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/stivenPRO500/siembrasApp/internal/access"
	"github.com/stivenPRO500/siembrasApp/internal/models"
)

// UserStore is the slice of the user repository the subscription service
// needs.
type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	ListNonAdmin(ctx context.Context) ([]*models.User, error)
	SetApproval(ctx context.Context, id uuid.UUID, state models.ApprovalState) error
	ApplySubscriptionApproval(ctx context.Context, id uuid.UUID, expiresAt time.Time) error
	SetSuspended(ctx context.Context, id uuid.UUID, suspended bool) error
	SetGraceStarted(ctx context.Context, id uuid.UUID, startedAt *time.Time) error
}

// SubscriptionStore is the slice of the subscription repository the service
// needs.
type SubscriptionStore interface {
	Create(ctx context.Context, userID uuid.UUID, plan models.SubscriptionPlan, amount float64, proofURL *string) (*models.Subscription, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Subscription, error)
	FindPending(ctx context.Context, userID uuid.UUID) (*models.Subscription, error)
	FindActive(ctx context.Context, userID uuid.UUID, now time.Time) (*models.Subscription, error)
	FindLatestApproved(ctx context.Context, userID uuid.UUID) (*models.Subscription, error)
	ListPending(ctx context.Context) ([]*models.Subscription, error)
	Decide(ctx context.Context, id uuid.UUID, status models.SubscriptionStatus, decidedAt time.Time, startsAt, endsAt *time.Time) (*models.Subscription, error)
}

// SubscriptionService owns the request/decide lifecycle and the derived
// subscription state on users.
type SubscriptionService struct {
	users UserStore
	subs  SubscriptionStore
	now   func() time.Time
}

func NewSubscriptionService(users UserStore, subs SubscriptionStore) *SubscriptionService {
	return &SubscriptionService{users: users, subs: subs, now: time.Now}
}

// Submit files a subscription request for a farmer. At most one pending
// request per user, and no new request while a previous one is still valid.
func (s *SubscriptionService) Submit(ctx context.Context, user *models.User, plan models.SubscriptionPlan, proofURL *string) (*models.Subscription, error) {
	if user.Role != models.RoleFarmer {
		return nil, models.ErrForbidden
	}

	info, ok := models.LookupPlan(plan)
	if !ok {
		return nil, fmt.Errorf("%w: unknown plan %q", models.ErrValidation, plan)
	}

	if _, err := s.subs.FindPending(ctx, user.ID); err == nil {
		return nil, models.ErrDuplicatePending
	} else if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	if _, err := s.subs.FindActive(ctx, user.ID, s.now()); err == nil {
		return nil, models.ErrDuplicateActive
	} else if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	return s.subs.Create(ctx, user.ID, info.Plan, info.Amount, proofURL)
}

// Approve decides a pending request in the requester's favor. The validity
// window starts at the decision, not at submission, and the user's
// denormalized state is refreshed: approved, new expiry, suspension and
// grace cleared.
func (s *SubscriptionService) Approve(ctx context.Context, id uuid.UUID) (*models.Subscription, error) {
	sub, err := s.subs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	info, ok := models.LookupPlan(sub.Plan)
	if !ok {
		return nil, fmt.Errorf("%w: unknown plan %q", models.ErrValidation, sub.Plan)
	}

	now := s.now()
	startsAt := now
	endsAt := now.AddDate(0, 0, info.Days)

	decided, err := s.subs.Decide(ctx, id, models.SubscriptionApproved, now, &startsAt, &endsAt)
	if err != nil {
		return nil, err
	}

	if err := s.users.ApplySubscriptionApproval(ctx, decided.UserID, endsAt); err != nil {
		return nil, fmt.Errorf("subscription %s approved but user update failed: %w", decided.ID, err)
	}
	return decided, nil
}

// Reject decides a pending request against the requester and drops their
// account back to rejected. Expiry fields are left alone, so a later approval
// restores whatever validity remains.
func (s *SubscriptionService) Reject(ctx context.Context, id uuid.UUID) (*models.Subscription, error) {
	decided, err := s.subs.Decide(ctx, id, models.SubscriptionRejected, s.now(), nil, nil)
	if err != nil {
		return nil, err
	}
	if err := s.users.SetApproval(ctx, decided.UserID, models.ApprovalRejected); err != nil {
		return nil, fmt.Errorf("subscription %s rejected but user update failed: %w", decided.ID, err)
	}
	return decided, nil
}

// ListPending returns all undecided requests for the admin review queue.
func (s *SubscriptionService) ListPending(ctx context.Context) ([]*models.Subscription, error) {
	return s.subs.ListPending(ctx)
}

// Suspend cuts off a user and everyone delegated under them, regardless of
// any remaining subscription validity.
func (s *SubscriptionService) Suspend(ctx context.Context, userID uuid.UUID) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.IsAdmin() {
		return models.ErrForbidden
	}
	return s.users.SetSuspended(ctx, userID, true)
}

// Rehabilitate lifts a suspension and clears the grace marker, so the next
// status listing starts a fresh window instead of re-suspending immediately.
func (s *SubscriptionService) Rehabilitate(ctx context.Context, userID uuid.UUID) error {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return err
	}
	if err := s.users.SetSuspended(ctx, userID, false); err != nil {
		return err
	}
	return s.users.SetGraceStarted(ctx, userID, nil)
}

// MyStatus returns a user's own view of their subscription: the latest
// approved request and any pending one.
func (s *SubscriptionService) MyStatus(ctx context.Context, user *models.User) (*models.UserSubscriptionStatus, error) {
	row := &models.UserSubscriptionStatus{User: user}

	if sub, err := s.subs.FindLatestApproved(ctx, user.ID); err == nil {
		row.LastApproved = sub
	} else if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}
	if sub, err := s.subs.FindPending(ctx, user.ID); err == nil {
		row.Pending = sub
	} else if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	s.fillDerived(row, s.now())
	return row, nil
}

// UserStatuses builds the admin status listing for all non-admin accounts.
// This read path is also where time-driven state becomes durable: an expired
// farmer gets their grace start stamped the first time they are seen, and
// gets suspended once the window from that stored start has elapsed. Both
// writes are idempotent, so re-listing never changes anything twice.
func (s *SubscriptionService) UserStatuses(ctx context.Context) ([]*models.UserSubscriptionStatus, error) {
	users, err := s.users.ListNonAdmin(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	statuses := make([]*models.UserSubscriptionStatus, 0, len(users))
	for _, u := range users {
		if u.Role == models.RoleFarmer {
			if err := s.materializeGrace(ctx, u, now); err != nil {
				// The listing still renders; the write retries on the next one.
				log.Printf("grace update for user %s failed: %v", u.ID, err)
			}
		}

		row := &models.UserSubscriptionStatus{User: u}
		if sub, err := s.subs.FindLatestApproved(ctx, u.ID); err == nil {
			row.LastApproved = sub
		} else if !errors.Is(err, models.ErrNotFound) {
			return nil, err
		}
		if sub, err := s.subs.FindPending(ctx, u.ID); err == nil {
			row.Pending = sub
		} else if !errors.Is(err, models.ErrNotFound) {
			return nil, err
		}

		if u.Role == models.RoleCollaborator {
			row.Status = statusLabel(s.collaboratorVerdict(ctx, u, now))
		} else {
			s.fillDerived(row, now)
		}
		statuses = append(statuses, row)
	}
	return statuses, nil
}

// materializeGrace persists the time-driven transitions for a farmer: an
// expired account gets its grace start stamped at the observation instant,
// and once GraceDays have passed since that stored start it gets suspended.
// A renewal clears any stale marker. u is updated in place.
func (s *SubscriptionService) materializeGrace(ctx context.Context, u *models.User, now time.Time) error {
	if u.SubscriptionSuspended {
		return nil
	}

	expiry := u.SubscriptionExpiresAt
	if expiry == nil {
		return nil
	}

	if expiry.After(now) {
		// Renewed while a stale marker was still set.
		if u.GraceStartedAt != nil {
			if err := s.users.SetGraceStarted(ctx, u.ID, nil); err != nil {
				return err
			}
			u.GraceStartedAt = nil
		}
		return nil
	}

	if u.GraceStartedAt == nil {
		startedAt := now
		if err := s.users.SetGraceStarted(ctx, u.ID, &startedAt); err != nil {
			return err
		}
		u.GraceStartedAt = &startedAt
		return nil
	}

	if now.Sub(*u.GraceStartedAt) > access.GraceDays*24*time.Hour {
		if err := s.users.SetSuspended(ctx, u.ID, true); err != nil {
			return err
		}
		u.SubscriptionSuspended = true
	}
	return nil
}

// collaboratorVerdict resolves a collaborator's owner and evaluates through
// it. A dangling owner reference reads as requiring a subscription.
func (s *SubscriptionService) collaboratorVerdict(ctx context.Context, u *models.User, now time.Time) access.Verdict {
	var owner *models.User
	if u.OwnerID != nil {
		if o, err := s.users.GetByID(ctx, *u.OwnerID); err == nil {
			owner = o
		}
	}
	return access.Evaluate(u, owner, now).Verdict
}

// fillDerived computes the status label and the day counters for a row
// whose subscription state lives on the user itself. A pending request
// outranks the blocked labels: the admin resolves those from this listing.
func (s *SubscriptionService) fillDerived(row *models.UserSubscriptionStatus, now time.Time) {
	d := access.Evaluate(row.User, nil, now)
	row.Status = statusLabel(d.Verdict)

	switch d.Verdict {
	case access.VerdictAllowed:
		if expiry := row.User.SubscriptionExpiresAt; expiry != nil {
			days := daysUntil(*expiry, now)
			row.DaysLeft = &days
		}
	case access.VerdictAllowedInGrace:
		left := d.GraceDaysLeft
		row.GraceDaysLeft = &left
	}

	if row.Pending != nil && row.Status != models.StatusActive {
		row.Status = models.StatusPendingReview
	}
}

// statusLabel maps an access verdict onto the listing vocabulary.
func statusLabel(v access.Verdict) string {
	switch v {
	case access.VerdictAllowed:
		return models.StatusActive
	case access.VerdictAllowedInGrace:
		return models.StatusInGrace
	case access.VerdictSuspended:
		return models.StatusSuspended
	default:
		return models.StatusNone
	}
}

// daysUntil returns ceil((t-now)/24h), never negative.
func daysUntil(t, now time.Time) int {
	remaining := t.Sub(now)
	if remaining <= 0 {
		return 0
	}
	days := int(remaining / (24 * time.Hour))
	if remaining%(24*time.Hour) != 0 {
		days++
	}
	return days
}
