package models

import (
	"time"

	"github.com/google/uuid"
)

// DTOs for API requests/responses

type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Role     Role   `json:"role"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token string `json:"token"`
	User  struct {
		ID       uuid.UUID `json:"id"`
		Username string    `json:"username"`
		Role     Role      `json:"role"`
	} `json:"user"`
}

type CreateUserRequest struct {
	Username string `json:"username" binding:"required,min=3"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Role     Role   `json:"role" binding:"required"`
}

type CreateCollaboratorRequest struct {
	Username string `json:"username" binding:"required,min=3"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// SubmitSubscriptionRequest carries the non-file fields of the multipart
// subscription submission; the payment proof travels as a separate file part.
type SubmitSubscriptionRequest struct {
	Plan SubscriptionPlan `form:"plan" binding:"required"`
}

// Labels reported as UserSubscriptionStatus.Status.
const (
	StatusActive        = "active"
	StatusPendingReview = "pending-review"
	StatusInGrace       = "in-grace"
	StatusSuspended     = "suspended"
	StatusNone          = "none"
)

// UserSubscriptionStatus is the admin listing row: the user plus its
// derived subscription state. GraceDaysLeft is set only for in-grace rows.
type UserSubscriptionStatus struct {
	User          *User         `json:"user"`
	LastApproved  *Subscription `json:"last_approved,omitempty"`
	Pending       *Subscription `json:"pending,omitempty"`
	Status        string        `json:"status"`
	DaysLeft      *int          `json:"days_left,omitempty"`
	GraceDaysLeft *int          `json:"grace_days_left,omitempty"`
}

type CreateParcelRequest struct {
	Name string `json:"name" binding:"required"`
}

type UpdateParcelRequest struct {
	Name *string `json:"name,omitempty"`
}

type CreateActivityRequest struct {
	ParcelID     uuid.UUID      `json:"parcel_id" binding:"required"`
	Type         string         `json:"type" binding:"required"`
	PerformedAt  time.Time      `json:"performed_at" binding:"required"`
	AlertAt      *time.Time     `json:"alert_at,omitempty"`
	ProductsUsed []ProductUsage `json:"products_used,omitempty"`
	LaborCost    float64        `json:"labor_cost"`
}

type UpdateActivityRequest struct {
	Type         *string         `json:"type,omitempty"`
	PerformedAt  *time.Time      `json:"performed_at,omitempty"`
	AlertAt      *time.Time      `json:"alert_at,omitempty"`
	ProductsUsed *[]ProductUsage `json:"products_used,omitempty"`
	LaborCost    *float64        `json:"labor_cost,omitempty"`
}

type CreateProductRequest struct {
	Name         string        `json:"name" binding:"required"`
	Type         ProductType   `json:"type" binding:"required"`
	Price        float64       `json:"price"`
	Presentation *Presentation `json:"presentation,omitempty"`
	CupsPerUnit  *float64      `json:"cups_per_unit,omitempty"`
	PoundsPerBag *float64      `json:"pounds_per_bag,omitempty"`
	Note         string        `json:"note,omitempty"`
}

type UpdateProductRequest struct {
	Name         *string       `json:"name,omitempty"`
	Type         *ProductType  `json:"type,omitempty"`
	Price        *float64      `json:"price,omitempty"`
	Presentation *Presentation `json:"presentation,omitempty"`
	CupsPerUnit  *float64      `json:"cups_per_unit,omitempty"`
	PoundsPerBag *float64      `json:"pounds_per_bag,omitempty"`
	Note         *string       `json:"note,omitempty"`
}

type UpdateHarvestRequest struct {
	Productions   *[]Production   `json:"productions,omitempty"`
	ExtraExpenses *[]ExtraExpense `json:"extra_expenses,omitempty"`
	Paid          *bool           `json:"paid,omitempty"`
}

// OwnerGroup is one bucket of the admin cross-tenant summary.
type OwnerGroup struct {
	OwnerID *uuid.UUID `json:"owner_id"`
	Count   int        `json:"count"`
	IsAdmin bool       `json:"is_admin"`
}

type CollectionSummary struct {
	Name   string       `json:"name"`
	Total  int          `json:"total"`
	Groups []OwnerGroup `json:"groups"`
}

type OwnersSummary struct {
	AdminID    *uuid.UUID        `json:"admin_id,omitempty"`
	Parcels    CollectionSummary `json:"parcels"`
	Activities CollectionSummary `json:"activities"`
	Products   CollectionSummary `json:"products"`
	Harvests   CollectionSummary `json:"harvests"`
}
