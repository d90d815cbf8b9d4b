package access

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stivenPRO500/siembrasApp/internal/models"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func farmer(mod ...func(*models.User)) *models.User {
	expiry := testNow.Add(30 * 24 * time.Hour)
	u := &models.User{
		ID:                    uuid.New(),
		Role:                  models.RoleFarmer,
		ApprovalState:         models.ApprovalApproved,
		Approved:              true,
		SubscriptionExpiresAt: &expiry,
	}
	for _, m := range mod {
		m(u)
	}
	return u
}

func expired(daysAgo int) func(*models.User) {
	return func(u *models.User) {
		expiry := testNow.Add(-time.Duration(daysAgo) * 24 * time.Hour)
		u.SubscriptionExpiresAt = &expiry
	}
}

func TestEvaluateAdminAlwaysAllowed(t *testing.T) {
	admin := &models.User{
		ID:                    uuid.New(),
		Role:                  models.RoleAdmin,
		ApprovalState:         models.ApprovalApproved,
		SubscriptionSuspended: true,
	}

	d := Evaluate(admin, nil, testNow)
	assert.Equal(t, VerdictAllowed, d.Verdict)
}

func TestEvaluateRejectedBlocked(t *testing.T) {
	u := farmer(func(u *models.User) { u.ApprovalState = models.ApprovalRejected })
	assert.Equal(t, VerdictRejected, Evaluate(u, nil, testNow).Verdict)
}

func TestEvaluatePendingBlocked(t *testing.T) {
	u := farmer(func(u *models.User) { u.ApprovalState = models.ApprovalPending })
	// Pending with an expiry on record is a real pending account, not the
	// bootstrap path.
	assert.Equal(t, VerdictPendingApproval, Evaluate(u, nil, testNow).Verdict)
}

func TestEvaluateBootstrapFarmer(t *testing.T) {
	// A farmer that has never subscribed may authenticate but every
	// tenant-scoped operation demands a plan.
	u := farmer(func(u *models.User) {
		u.ApprovalState = models.ApprovalPending
		u.Approved = false
		u.SubscriptionExpiresAt = nil
	})

	assert.True(t, CanAuthenticate(u))
	assert.Equal(t, VerdictRequiresSubscription, Evaluate(u, nil, testNow).Verdict)
}

func TestEvaluateApprovedFarmerNoExpiry(t *testing.T) {
	u := farmer(func(u *models.User) { u.SubscriptionExpiresAt = nil })
	assert.Equal(t, VerdictRequiresSubscription, Evaluate(u, nil, testNow).Verdict)
}

func TestEvaluateActiveSubscription(t *testing.T) {
	d := Evaluate(farmer(), nil, testNow)
	assert.Equal(t, VerdictAllowed, d.Verdict)
}

func TestEvaluateExpiryBoundary(t *testing.T) {
	// Expiry exactly at now means expired with zero elapsed days, which
	// falls outside the grace window.
	u := farmer(expired(0))
	assert.Equal(t, VerdictRequiresSubscription, Evaluate(u, nil, testNow).Verdict)
}

func TestEvaluateGraceWindow(t *testing.T) {
	tests := []struct {
		name          string
		sinceExpiry   time.Duration
		wantVerdict   Verdict
		wantGraceLeft int
	}{
		{"one hour past expiry", time.Hour, VerdictAllowedInGrace, 4},
		{"day one", 24 * time.Hour, VerdictAllowedInGrace, 4},
		{"day three", 2*24*time.Hour + time.Hour, VerdictAllowedInGrace, 2},
		{"last grace day", 4*24*time.Hour + time.Hour, VerdictAllowedInGrace, 0},
		{"exactly five days", 5 * 24 * time.Hour, VerdictAllowedInGrace, 0},
		{"past the window", 5*24*time.Hour + time.Minute, VerdictRequiresSubscription, 0},
		{"long expired", 40 * 24 * time.Hour, VerdictRequiresSubscription, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := farmer(func(u *models.User) {
				expiry := testNow.Add(-tt.sinceExpiry)
				u.SubscriptionExpiresAt = &expiry
			})
			d := Evaluate(u, nil, testNow)
			assert.Equal(t, tt.wantVerdict, d.Verdict)
			if tt.wantVerdict == VerdictAllowedInGrace {
				assert.Equal(t, tt.wantGraceLeft, d.GraceDaysLeft)
			}
		})
	}
}

func TestEvaluateSuspendedWinsOverGrace(t *testing.T) {
	u := farmer(expired(2), func(u *models.User) { u.SubscriptionSuspended = true })
	assert.Equal(t, VerdictSuspended, Evaluate(u, nil, testNow).Verdict)
}

func TestEvaluateSuspendedWinsOverActive(t *testing.T) {
	u := farmer(func(u *models.User) { u.SubscriptionSuspended = true })
	assert.Equal(t, VerdictSuspended, Evaluate(u, nil, testNow).Verdict)
}

func collaboratorOf(owner *models.User) *models.User {
	return &models.User{
		ID:            uuid.New(),
		Role:          models.RoleCollaborator,
		ApprovalState: models.ApprovalApproved,
		Approved:      true,
		OwnerID:       &owner.ID,
	}
}

func TestEvaluateCollaboratorInheritsOwner(t *testing.T) {
	owner := farmer()
	c := collaboratorOf(owner)
	assert.Equal(t, VerdictAllowed, Evaluate(c, owner, testNow).Verdict)

	owner = farmer(expired(2))
	c = collaboratorOf(owner)
	d := Evaluate(c, owner, testNow)
	assert.Equal(t, VerdictAllowedInGrace, d.Verdict)
	assert.Equal(t, 3, d.GraceDaysLeft)

	owner = farmer(func(u *models.User) { u.SubscriptionSuspended = true })
	c = collaboratorOf(owner)
	assert.Equal(t, VerdictSuspended, Evaluate(c, owner, testNow).Verdict)
}

func TestEvaluateCollaboratorOfAdmin(t *testing.T) {
	admin := &models.User{ID: uuid.New(), Role: models.RoleAdmin, ApprovalState: models.ApprovalApproved}
	c := collaboratorOf(admin)
	assert.Equal(t, VerdictAllowed, Evaluate(c, admin, testNow).Verdict)
}

func TestEvaluateCollaboratorDanglingOwner(t *testing.T) {
	ownerID := uuid.New()
	c := &models.User{
		ID:            uuid.New(),
		Role:          models.RoleCollaborator,
		ApprovalState: models.ApprovalApproved,
		OwnerID:       &ownerID,
	}
	// The owner record no longer exists; nobody's subscription covers them.
	assert.Equal(t, VerdictRequiresSubscription, Evaluate(c, nil, testNow).Verdict)
}

func TestEvaluateCollaboratorOwnStateStillChecked(t *testing.T) {
	owner := farmer()
	c := collaboratorOf(owner)
	c.ApprovalState = models.ApprovalRejected
	assert.Equal(t, VerdictRejected, Evaluate(c, owner, testNow).Verdict)

	c.ApprovalState = models.ApprovalPending
	assert.Equal(t, VerdictPendingApproval, Evaluate(c, owner, testNow).Verdict)
}

func TestDecisionAllows(t *testing.T) {
	assert.True(t, Decision{Verdict: VerdictAllowed}.Allows())
	assert.True(t, Decision{Verdict: VerdictAllowedInGrace}.Allows())
	assert.False(t, Decision{Verdict: VerdictPendingApproval}.Allows())
	assert.False(t, Decision{Verdict: VerdictRequiresSubscription}.Allows())
	assert.False(t, Decision{Verdict: VerdictSuspended}.Allows())
	assert.False(t, Decision{Verdict: VerdictRejected}.Allows())
}
