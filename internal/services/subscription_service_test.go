package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stivenPRO500/siembrasApp/internal/access"
	"github.com/stivenPRO500/siembrasApp/internal/models"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

type fakeUsers struct {
	byID map[uuid.UUID]*models.User
}

func newFakeUsers(users ...*models.User) *fakeUsers {
	f := &fakeUsers{byID: map[uuid.UUID]*models.User{}}
	for _, u := range users {
		f.byID[u.ID] = u
	}
	return f
}

func (f *fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) ListNonAdmin(_ context.Context) ([]*models.User, error) {
	users := []*models.User{}
	for _, u := range f.byID {
		if !u.IsAdmin() {
			users = append(users, u)
		}
	}
	return users, nil
}

func (f *fakeUsers) SetApproval(_ context.Context, id uuid.UUID, state models.ApprovalState) error {
	u, ok := f.byID[id]
	if !ok {
		return models.ErrNotFound
	}
	u.ApprovalState = state
	u.Approved = state == models.ApprovalApproved
	return nil
}

func (f *fakeUsers) ApplySubscriptionApproval(_ context.Context, id uuid.UUID, expiresAt time.Time) error {
	u, ok := f.byID[id]
	if !ok {
		return models.ErrNotFound
	}
	u.ApprovalState = models.ApprovalApproved
	u.Approved = true
	u.SubscriptionExpiresAt = &expiresAt
	u.SubscriptionSuspended = false
	u.GraceStartedAt = nil
	return nil
}

func (f *fakeUsers) SetSuspended(_ context.Context, id uuid.UUID, suspended bool) error {
	u, ok := f.byID[id]
	if !ok {
		return models.ErrNotFound
	}
	u.SubscriptionSuspended = suspended
	return nil
}

func (f *fakeUsers) SetGraceStarted(_ context.Context, id uuid.UUID, startedAt *time.Time) error {
	u, ok := f.byID[id]
	if !ok {
		return models.ErrNotFound
	}
	u.GraceStartedAt = startedAt
	return nil
}

type fakeSubs struct {
	subs []*models.Subscription
}

func (f *fakeSubs) Create(_ context.Context, userID uuid.UUID, plan models.SubscriptionPlan, amount float64, proofURL *string) (*models.Subscription, error) {
	sub := &models.Subscription{
		ID:        uuid.New(),
		UserID:    userID,
		Plan:      plan,
		Amount:    amount,
		ProofURL:  proofURL,
		Status:    models.SubscriptionPending,
		CreatedAt: testNow,
	}
	f.subs = append(f.subs, sub)
	return sub, nil
}

func (f *fakeSubs) GetByID(_ context.Context, id uuid.UUID) (*models.Subscription, error) {
	for _, s := range f.subs {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, models.ErrNotFound
}

func (f *fakeSubs) FindPending(_ context.Context, userID uuid.UUID) (*models.Subscription, error) {
	for _, s := range f.subs {
		if s.UserID == userID && s.Status == models.SubscriptionPending {
			return s, nil
		}
	}
	return nil, models.ErrNotFound
}

func (f *fakeSubs) FindActive(_ context.Context, userID uuid.UUID, now time.Time) (*models.Subscription, error) {
	for _, s := range f.subs {
		if s.UserID == userID && s.Status == models.SubscriptionApproved && s.EndsAt != nil && s.EndsAt.After(now) {
			return s, nil
		}
	}
	return nil, models.ErrNotFound
}

func (f *fakeSubs) FindLatestApproved(_ context.Context, userID uuid.UUID) (*models.Subscription, error) {
	var latest *models.Subscription
	for _, s := range f.subs {
		if s.UserID != userID || s.Status != models.SubscriptionApproved {
			continue
		}
		if latest == nil || (s.EndsAt != nil && latest.EndsAt != nil && s.EndsAt.After(*latest.EndsAt)) {
			latest = s
		}
	}
	if latest == nil {
		return nil, models.ErrNotFound
	}
	return latest, nil
}

func (f *fakeSubs) ListPending(_ context.Context) ([]*models.Subscription, error) {
	pending := []*models.Subscription{}
	for _, s := range f.subs {
		if s.Status == models.SubscriptionPending {
			pending = append(pending, s)
		}
	}
	return pending, nil
}

func (f *fakeSubs) Decide(_ context.Context, id uuid.UUID, status models.SubscriptionStatus, decidedAt time.Time, startsAt, endsAt *time.Time) (*models.Subscription, error) {
	for _, s := range f.subs {
		if s.ID != id {
			continue
		}
		if s.Status != models.SubscriptionPending {
			return nil, models.ErrAlreadyDecided
		}
		s.Status = status
		s.DecidedAt = &decidedAt
		s.StartsAt = startsAt
		s.EndsAt = endsAt
		return s, nil
	}
	return nil, models.ErrNotFound
}

func newTestService(users *fakeUsers, subs *fakeSubs) *SubscriptionService {
	svc := NewSubscriptionService(users, subs)
	svc.now = func() time.Time { return testNow }
	return svc
}

func testFarmer(mod ...func(*models.User)) *models.User {
	u := &models.User{
		ID:            uuid.New(),
		Username:      "farmer",
		Role:          models.RoleFarmer,
		ApprovalState: models.ApprovalPending,
	}
	for _, m := range mod {
		m(u)
	}
	return u
}

func TestSubmitAndApproveRoundTrip(t *testing.T) {
	ctx := context.Background()
	u := testFarmer()
	users := newFakeUsers(u)
	subs := &fakeSubs{}
	svc := newTestService(users, subs)

	sub, err := svc.Submit(ctx, u, models.PlanOneMonth, nil)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionPending, sub.Status)
	assert.Equal(t, 50.0, sub.Amount)

	decided, err := svc.Approve(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionApproved, decided.Status)
	require.NotNil(t, decided.EndsAt)
	assert.Equal(t, testNow.AddDate(0, 0, 30), *decided.EndsAt)

	// Approval lands on the user: approved, fresh expiry, clean slate.
	assert.Equal(t, models.ApprovalApproved, u.ApprovalState)
	require.NotNil(t, u.SubscriptionExpiresAt)
	assert.Equal(t, testNow.AddDate(0, 0, 30), *u.SubscriptionExpiresAt)
	assert.False(t, u.SubscriptionSuspended)
	assert.Nil(t, u.GraceStartedAt)

	assert.Equal(t, access.VerdictAllowed, access.Evaluate(u, nil, testNow).Verdict)
}

func TestApproveYearPlan(t *testing.T) {
	ctx := context.Background()
	u := testFarmer()
	svc := newTestService(newFakeUsers(u), &fakeSubs{})

	sub, err := svc.Submit(ctx, u, models.PlanOneYear, nil)
	require.NoError(t, err)
	assert.Equal(t, 500.0, sub.Amount)

	decided, err := svc.Approve(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, testNow.AddDate(0, 0, 365), *decided.EndsAt)
}

func TestSubmitUnknownPlan(t *testing.T) {
	u := testFarmer()
	svc := newTestService(newFakeUsers(u), &fakeSubs{})

	_, err := svc.Submit(context.Background(), u, "6m", nil)
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestSubmitOnlyFarmers(t *testing.T) {
	svc := newTestService(newFakeUsers(), &fakeSubs{})

	_, err := svc.Submit(context.Background(), &models.User{ID: uuid.New(), Role: models.RoleCollaborator}, models.PlanOneMonth, nil)
	assert.ErrorIs(t, err, models.ErrForbidden)
}

func TestSubmitDuplicatePending(t *testing.T) {
	ctx := context.Background()
	u := testFarmer()
	svc := newTestService(newFakeUsers(u), &fakeSubs{})

	_, err := svc.Submit(ctx, u, models.PlanOneMonth, nil)
	require.NoError(t, err)

	_, err = svc.Submit(ctx, u, models.PlanThreeMonths, nil)
	assert.ErrorIs(t, err, models.ErrDuplicatePending)
}

func TestSubmitDuplicateActive(t *testing.T) {
	ctx := context.Background()
	u := testFarmer()
	svc := newTestService(newFakeUsers(u), &fakeSubs{})

	sub, err := svc.Submit(ctx, u, models.PlanOneMonth, nil)
	require.NoError(t, err)
	_, err = svc.Approve(ctx, sub.ID)
	require.NoError(t, err)

	_, err = svc.Submit(ctx, u, models.PlanOneMonth, nil)
	assert.ErrorIs(t, err, models.ErrDuplicateActive)
}

func TestResubmitAfterExpiry(t *testing.T) {
	ctx := context.Background()
	u := testFarmer()
	svc := newTestService(newFakeUsers(u), &fakeSubs{})

	sub, err := svc.Submit(ctx, u, models.PlanOneMonth, nil)
	require.NoError(t, err)
	_, err = svc.Approve(ctx, sub.ID)
	require.NoError(t, err)

	// Jump past the expiry; the old approval no longer blocks.
	svc.now = func() time.Time { return testNow.AddDate(0, 0, 31) }
	_, err = svc.Submit(ctx, u, models.PlanOneMonth, nil)
	assert.NoError(t, err)
}

func TestRejectMarksUserRejected(t *testing.T) {
	ctx := context.Background()
	u := testFarmer()
	svc := newTestService(newFakeUsers(u), &fakeSubs{})

	sub, err := svc.Submit(ctx, u, models.PlanOneMonth, nil)
	require.NoError(t, err)

	decided, err := svc.Reject(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionRejected, decided.Status)
	assert.Nil(t, decided.EndsAt)

	// The rejection lands on the account, not on its expiry fields.
	assert.Equal(t, models.ApprovalRejected, u.ApprovalState)
	assert.Nil(t, u.SubscriptionExpiresAt)
	assert.Equal(t, access.VerdictRejected, access.Evaluate(u, nil, testNow).Verdict)

	// A later approval lifts the rejection again.
	second, err := svc.Submit(ctx, u, models.PlanThreeMonths, nil)
	require.NoError(t, err)
	_, err = svc.Approve(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalApproved, u.ApprovalState)
}

func TestDecideIsFinal(t *testing.T) {
	ctx := context.Background()
	u := testFarmer()
	svc := newTestService(newFakeUsers(u), &fakeSubs{})

	sub, err := svc.Submit(ctx, u, models.PlanOneMonth, nil)
	require.NoError(t, err)
	_, err = svc.Approve(ctx, sub.ID)
	require.NoError(t, err)

	_, err = svc.Approve(ctx, sub.ID)
	assert.ErrorIs(t, err, models.ErrAlreadyDecided)
	_, err = svc.Reject(ctx, sub.ID)
	assert.ErrorIs(t, err, models.ErrAlreadyDecided)
}

func TestSuspendAndRehabilitate(t *testing.T) {
	ctx := context.Background()
	u := testFarmer(func(u *models.User) {
		u.ApprovalState = models.ApprovalApproved
		expiry := testNow.AddDate(0, 0, 10)
		u.SubscriptionExpiresAt = &expiry
	})
	svc := newTestService(newFakeUsers(u), &fakeSubs{})

	require.NoError(t, svc.Suspend(ctx, u.ID))
	assert.True(t, u.SubscriptionSuspended)
	assert.Equal(t, access.VerdictSuspended, access.Evaluate(u, nil, testNow).Verdict)

	graceStart := testNow.Add(-10 * 24 * time.Hour)
	u.GraceStartedAt = &graceStart

	require.NoError(t, svc.Rehabilitate(ctx, u.ID))
	assert.False(t, u.SubscriptionSuspended)
	// Rehabilitation wipes the old grace marker along with the suspension.
	assert.Nil(t, u.GraceStartedAt)
	assert.Equal(t, access.VerdictAllowed, access.Evaluate(u, nil, testNow).Verdict)
}

func TestSuspendAdminRefused(t *testing.T) {
	admin := &models.User{ID: uuid.New(), Role: models.RoleAdmin}
	svc := newTestService(newFakeUsers(admin), &fakeSubs{})

	err := svc.Suspend(context.Background(), admin.ID)
	assert.ErrorIs(t, err, models.ErrForbidden)
}

func TestUserStatusesMaterializesGrace(t *testing.T) {
	ctx := context.Background()
	expiry := testNow.Add(-2 * 24 * time.Hour)
	u := testFarmer(func(u *models.User) {
		u.ApprovalState = models.ApprovalApproved
		u.SubscriptionExpiresAt = &expiry
	})
	svc := newTestService(newFakeUsers(u), &fakeSubs{})

	statuses, err := svc.UserStatuses(ctx)
	require.NoError(t, err)
	require.Len(t, statuses, 1)

	row := statuses[0]
	assert.Equal(t, models.StatusInGrace, row.Status)
	require.NotNil(t, row.GraceDaysLeft)
	assert.Equal(t, 3, *row.GraceDaysLeft)

	// The grace start is stamped at the instant the listing observed it.
	require.NotNil(t, u.GraceStartedAt)
	assert.Equal(t, testNow, *u.GraceStartedAt)

	// Listing again changes nothing.
	_, err = svc.UserStatuses(ctx)
	require.NoError(t, err)
	assert.Equal(t, testNow, *u.GraceStartedAt)
	assert.False(t, u.SubscriptionSuspended)
}

func TestUserStatusesAutoSuspendsAfterGrace(t *testing.T) {
	ctx := context.Background()
	expiry := testNow.Add(-2 * 24 * time.Hour)
	u := testFarmer(func(u *models.User) {
		u.ApprovalState = models.ApprovalApproved
		u.SubscriptionExpiresAt = &expiry
	})
	svc := newTestService(newFakeUsers(u), &fakeSubs{})

	_, err := svc.UserStatuses(ctx)
	require.NoError(t, err)
	require.NotNil(t, u.GraceStartedAt)
	assert.Equal(t, testNow, *u.GraceStartedAt)

	// Past the window measured from the stored grace start.
	svc.now = func() time.Time { return testNow.Add(6 * 24 * time.Hour) }

	statuses, err := svc.UserStatuses(ctx)
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.True(t, u.SubscriptionSuspended)
	assert.Equal(t, models.StatusSuspended, statuses[0].Status)
}

func TestUserStatusesRenewalClearsStaleGrace(t *testing.T) {
	ctx := context.Background()
	expiry := testNow.AddDate(0, 0, 20)
	graceStart := testNow.Add(-10 * 24 * time.Hour)
	u := testFarmer(func(u *models.User) {
		u.ApprovalState = models.ApprovalApproved
		u.SubscriptionExpiresAt = &expiry
		u.GraceStartedAt = &graceStart
	})
	svc := newTestService(newFakeUsers(u), &fakeSubs{})

	statuses, err := svc.UserStatuses(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, statuses[0].Status)
	assert.Nil(t, u.GraceStartedAt)
	require.NotNil(t, statuses[0].DaysLeft)
	assert.Equal(t, 20, *statuses[0].DaysLeft)
}

func TestUserStatusesNeverSubscribed(t *testing.T) {
	ctx := context.Background()
	u := testFarmer()
	svc := newTestService(newFakeUsers(u), &fakeSubs{})

	statuses, err := svc.UserStatuses(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.StatusNone, statuses[0].Status)

	// A submitted request moves the row into the review bucket.
	_, err = svc.Submit(ctx, u, models.PlanOneMonth, nil)
	require.NoError(t, err)

	statuses, err = svc.UserStatuses(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingReview, statuses[0].Status)
}

func TestUserStatusesPendingOverridesSuspended(t *testing.T) {
	ctx := context.Background()
	u := testFarmer(func(u *models.User) {
		u.ApprovalState = models.ApprovalApproved
	})
	svc := newTestService(newFakeUsers(u), &fakeSubs{})

	require.NoError(t, svc.Suspend(ctx, u.ID))
	_, err := svc.Submit(ctx, u, models.PlanOneMonth, nil)
	require.NoError(t, err)

	// The admin reviews the new payment from this listing, so the row reads
	// pending-review rather than suspended.
	statuses, err := svc.UserStatuses(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingReview, statuses[0].Status)
}

func TestUserStatusesCollaboratorThroughOwner(t *testing.T) {
	ctx := context.Background()
	expiry := testNow.AddDate(0, 0, 5)
	owner := testFarmer(func(u *models.User) {
		u.ApprovalState = models.ApprovalApproved
		u.SubscriptionExpiresAt = &expiry
	})
	collab := &models.User{
		ID:            uuid.New(),
		Role:          models.RoleCollaborator,
		ApprovalState: models.ApprovalApproved,
		OwnerID:       &owner.ID,
	}
	svc := newTestService(newFakeUsers(owner, collab), &fakeSubs{})

	statuses, err := svc.UserStatuses(ctx)
	require.NoError(t, err)
	require.Len(t, statuses, 2)

	byID := map[uuid.UUID]*models.UserSubscriptionStatus{}
	for _, row := range statuses {
		byID[row.User.ID] = row
	}
	assert.Equal(t, models.StatusActive, byID[collab.ID].Status)

	owner.SubscriptionSuspended = true
	statuses, err = svc.UserStatuses(ctx)
	require.NoError(t, err)
	for _, row := range statuses {
		assert.Equal(t, models.StatusSuspended, row.Status)
	}
}

func TestMyStatusIncludesLedgerEntries(t *testing.T) {
	ctx := context.Background()
	u := testFarmer()
	svc := newTestService(newFakeUsers(u), &fakeSubs{})

	first, err := svc.Submit(ctx, u, models.PlanOneMonth, nil)
	require.NoError(t, err)
	_, err = svc.Approve(ctx, first.ID)
	require.NoError(t, err)

	svc.now = func() time.Time { return testNow.AddDate(0, 0, 31) }
	second, err := svc.Submit(ctx, u, models.PlanOneYear, nil)
	require.NoError(t, err)

	status, err := svc.MyStatus(ctx, u)
	require.NoError(t, err)
	require.NotNil(t, status.LastApproved)
	assert.Equal(t, first.ID, status.LastApproved.ID)
	require.NotNil(t, status.Pending)
	assert.Equal(t, second.ID, status.Pending.ID)
}
