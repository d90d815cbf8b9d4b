package models

import "errors"

// Business-rule errors. Handlers branch on these with errors.Is; anything
// not in this list is treated as an internal storage failure.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token expired")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not found")

	ErrPendingApproval      = errors.New("account pending approval")
	ErrRequiresSubscription = errors.New("subscription required")
	ErrSuspended            = errors.New("account suspended")

	ErrDuplicatePending = errors.New("a pending subscription request already exists")
	ErrDuplicateActive  = errors.New("an active subscription already exists")
	ErrAlreadyDecided   = errors.New("subscription request already decided")

	ErrCollaboratorLimit = errors.New("collaborator limit reached")
	ErrValidation        = errors.New("validation failed")
)
