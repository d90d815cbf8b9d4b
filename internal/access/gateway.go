package access

import (
	"github.com/google/uuid"
	"github.com/stivenPRO500/siembrasApp/internal/models"
)

// CanAuthenticate reports whether login may proceed at all. It applies the
// same rules as Evaluate steps 2-3 so the two can never drift: rejected
// accounts never log in, pending accounts only via the farmer bootstrap
// path.
func CanAuthenticate(u *models.User) bool {
	if u.Role == models.RoleAdmin {
		return true
	}
	switch u.ApprovalState {
	case models.ApprovalRejected:
		return false
	case models.ApprovalPending:
		return u.Role == models.RoleFarmer && u.SubscriptionExpiresAt == nil
	}
	return true
}

// CanMutate reports whether u may update or delete a resource stamped with
// resourceOwner. Legacy rows without an owner are admin-only.
func CanMutate(u *models.User, resourceOwner *uuid.UUID) bool {
	if u.Role == models.RoleAdmin {
		return true
	}
	if resourceOwner == nil {
		return false
	}
	return *resourceOwner == EffectiveTenant(u)
}

// OwnerForCreate returns the owner to stamp on a resource created by u.
// Every create path goes through here rather than re-deriving ownership.
func OwnerForCreate(u *models.User) uuid.UUID {
	return EffectiveTenant(u)
}
