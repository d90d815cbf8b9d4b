package access

import (
	"time"

	"github.com/google/uuid"
	"github.com/stivenPRO500/siembrasApp/internal/models"
)

// Verdict is the access state a principal is in right now. Everything
// other than Allowed/AllowedInGrace blocks the tenant-scoped surface.
type Verdict string

const (
	VerdictAllowed              Verdict = "allowed"
	VerdictAllowedInGrace       Verdict = "allowed_in_grace"
	VerdictPendingApproval      Verdict = "pending_approval"
	VerdictRequiresSubscription Verdict = "requires_subscription"
	VerdictSuspended            Verdict = "suspended"
	VerdictRejected             Verdict = "rejected"
)

// GraceDays is the post-expiry window during which access stays open.
const GraceDays = 5

// Decision is the result of evaluating a principal at a point in time.
type Decision struct {
	Verdict Verdict
	// GraceDaysLeft is meaningful only for VerdictAllowedInGrace.
	GraceDaysLeft int
}

func (d Decision) Allows() bool {
	return d.Verdict == VerdictAllowed || d.Verdict == VerdictAllowedInGrace
}

// EffectiveTenant returns the principal whose data u's actions are scoped
// to: collaborators act on behalf of their owner, everyone else on their
// own. A collaborator with a cleared owner falls back to itself.
func EffectiveTenant(u *models.User) uuid.UUID {
	if u.Role == models.RoleCollaborator && u.OwnerID != nil {
		return *u.OwnerID
	}
	return u.ID
}

// Evaluate computes the access verdict for u at time now. It is pure: the
// caller resolves and passes the owner record for collaborators (nil when
// u has no owner reference or the owner no longer exists) and persists any
// derived state itself.
//
// Precedence, first match wins:
//  1. admin is always allowed
//  2. rejected accounts are blocked outright
//  3. pending accounts are blocked, except a farmer that has never
//     subscribed (the bootstrap path: they must be able to pick a plan)
//  4. collaborators inherit their owner's subscription; collaborators of
//     the admin never need one
//  5. a never-subscribed farmer requires a subscription no matter what
//  6. suspended wins over grace
//  7. expired within GraceDays of expiry is still allowed
func Evaluate(u *models.User, owner *models.User, now time.Time) Decision {
	if u.Role == models.RoleAdmin {
		return Decision{Verdict: VerdictAllowed}
	}
	if u.ApprovalState == models.ApprovalRejected {
		return Decision{Verdict: VerdictRejected}
	}
	bootstrapFarmer := u.Role == models.RoleFarmer && u.SubscriptionExpiresAt == nil
	if u.ApprovalState == models.ApprovalPending && !bootstrapFarmer {
		return Decision{Verdict: VerdictPendingApproval}
	}

	// Resolve whose subscription applies.
	ref := u
	if u.Role == models.RoleCollaborator && u.OwnerID != nil {
		if owner == nil {
			// Owner reference dangles; nobody's subscription covers them.
			return Decision{Verdict: VerdictRequiresSubscription}
		}
		if owner.Role == models.RoleAdmin {
			return Decision{Verdict: VerdictAllowed}
		}
		ref = owner
	}

	if bootstrapFarmer {
		// Closes the carve-out from the pending check: they may hold a
		// session but every tenant-scoped operation demands a plan first.
		return Decision{Verdict: VerdictRequiresSubscription}
	}

	if ref.SubscriptionSuspended {
		return Decision{Verdict: VerdictSuspended}
	}

	expiry := ref.SubscriptionExpiresAt
	if expiry == nil {
		return Decision{Verdict: VerdictRequiresSubscription}
	}
	if expiry.After(now) {
		return Decision{Verdict: VerdictAllowed}
	}

	// Expired (expiry == now counts). Check the grace window.
	days := daysSince(*expiry, now)
	if days >= 1 && days <= GraceDays {
		return Decision{Verdict: VerdictAllowedInGrace, GraceDaysLeft: GraceDays - days}
	}
	return Decision{Verdict: VerdictRequiresSubscription}
}

// daysSince returns ceil((now-t)/24h). At the exact instant of expiry it
// is 0, which falls outside the grace window.
func daysSince(t, now time.Time) int {
	elapsed := now.Sub(t)
	if elapsed <= 0 {
		return 0
	}
	days := int(elapsed / (24 * time.Hour))
	if elapsed%(24*time.Hour) != 0 {
		days++
	}
	return days
}
