package access

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stivenPRO500/siembrasApp/internal/models"
)

func TestCanAuthenticate(t *testing.T) {
	assert.True(t, CanAuthenticate(&models.User{Role: models.RoleAdmin}))

	assert.True(t, CanAuthenticate(farmer()))

	rejected := farmer(func(u *models.User) { u.ApprovalState = models.ApprovalRejected })
	assert.False(t, CanAuthenticate(rejected))

	pending := farmer(func(u *models.User) { u.ApprovalState = models.ApprovalPending })
	assert.False(t, CanAuthenticate(pending), "pending farmer with a past subscription stays out")

	bootstrap := farmer(func(u *models.User) {
		u.ApprovalState = models.ApprovalPending
		u.SubscriptionExpiresAt = nil
	})
	assert.True(t, CanAuthenticate(bootstrap), "never-subscribed farmer must reach the plan picker")

	pendingCollab := &models.User{Role: models.RoleCollaborator, ApprovalState: models.ApprovalPending}
	assert.False(t, CanAuthenticate(pendingCollab))

	// Suspension blocks operations, not the session itself.
	suspended := farmer(func(u *models.User) { u.SubscriptionSuspended = true })
	assert.True(t, CanAuthenticate(suspended))
}

func TestEffectiveTenant(t *testing.T) {
	f := farmer()
	assert.Equal(t, f.ID, EffectiveTenant(f))

	c := collaboratorOf(f)
	assert.Equal(t, f.ID, EffectiveTenant(c))

	orphan := &models.User{ID: uuid.New(), Role: models.RoleCollaborator}
	assert.Equal(t, orphan.ID, EffectiveTenant(orphan))
}

func TestCanMutate(t *testing.T) {
	admin := &models.User{ID: uuid.New(), Role: models.RoleAdmin}
	f := farmer()
	other := farmer()
	c := collaboratorOf(f)

	assert.True(t, CanMutate(admin, nil), "legacy ownerless rows are admin-only")
	assert.True(t, CanMutate(admin, &f.ID))

	assert.True(t, CanMutate(f, &f.ID))
	assert.False(t, CanMutate(f, &other.ID))
	assert.False(t, CanMutate(f, nil))

	assert.True(t, CanMutate(c, &f.ID), "collaborators act on their owner's data")
	assert.False(t, CanMutate(c, &c.ID))
	assert.False(t, CanMutate(c, &other.ID))
}

func TestOwnerForCreate(t *testing.T) {
	f := farmer()
	c := collaboratorOf(f)

	assert.Equal(t, f.ID, OwnerForCreate(f))
	assert.Equal(t, f.ID, OwnerForCreate(c), "collaborator creations are stamped with the owner")
}
