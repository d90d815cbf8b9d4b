package models

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin        Role = "admin"
	RoleFarmer       Role = "farmer"
	RoleCollaborator Role = "collaborator"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleFarmer, RoleCollaborator:
		return true
	}
	return false
}

type ApprovalState string

const (
	ApprovalPending  ApprovalState = "pending"
	ApprovalApproved ApprovalState = "approved"
	ApprovalRejected ApprovalState = "rejected"
)

// User is a principal: the admin, a farmer, or a collaborator delegated
// under a farmer (or the admin) via OwnerID.
type User struct {
	ID            uuid.UUID     `json:"id"`
	Username      string        `json:"username"`
	Email         string        `json:"email"`
	PasswordHash  string        `json:"-"`
	Role          Role          `json:"role"`
	ApprovalState ApprovalState `json:"approval_state"`
	Approved      bool          `json:"approved"`
	// OwnerID is set only for collaborators and points to the farmer or
	// admin whose data they work on. May dangle if the owner was deleted.
	OwnerID *uuid.UUID `json:"owner_id,omitempty"`

	// Denormalized subscription state. Written only by the subscription
	// service; everything else reads it.
	SubscriptionExpiresAt *time.Time `json:"subscription_expires_at,omitempty"`
	SubscriptionSuspended bool       `json:"subscription_suspended"`
	GraceStartedAt        *time.Time `json:"grace_started_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

type SubscriptionPlan string

const (
	PlanOneMonth    SubscriptionPlan = "1m"
	PlanThreeMonths SubscriptionPlan = "3m"
	PlanOneYear     SubscriptionPlan = "1y"
)

// PlanInfo carries the fixed price and validity of a plan. Plans are a
// closed set, priced in code rather than in a table.
type PlanInfo struct {
	Plan   SubscriptionPlan
	Amount float64
	Days   int
}

var plans = map[SubscriptionPlan]PlanInfo{
	PlanOneMonth:    {Plan: PlanOneMonth, Amount: 50, Days: 30},
	PlanThreeMonths: {Plan: PlanThreeMonths, Amount: 140, Days: 90},
	PlanOneYear:     {Plan: PlanOneYear, Amount: 500, Days: 365},
}

// LookupPlan returns the plan definition, or ok=false for an unknown plan.
func LookupPlan(p SubscriptionPlan) (PlanInfo, bool) {
	info, ok := plans[p]
	return info, ok
}

type SubscriptionStatus string

const (
	SubscriptionPending  SubscriptionStatus = "pending"
	SubscriptionApproved SubscriptionStatus = "approved"
	SubscriptionRejected SubscriptionStatus = "rejected"
)

// Subscription is one request in the ledger. Immutable once decided; the
// approval side effects land on the user's denormalized fields.
type Subscription struct {
	ID        uuid.UUID          `json:"id"`
	UserID    uuid.UUID          `json:"user_id"`
	Plan      SubscriptionPlan   `json:"plan"`
	Amount    float64            `json:"amount"`
	ProofURL  *string            `json:"proof_url,omitempty"`
	Status    SubscriptionStatus `json:"status"`
	DecidedAt *time.Time         `json:"decided_at,omitempty"`
	StartsAt  *time.Time         `json:"starts_at,omitempty"`
	EndsAt    *time.Time         `json:"ends_at,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}
