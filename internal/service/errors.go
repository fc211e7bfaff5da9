package service

import "errors"

// Common service errors
var (
	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrPermissionDenied is returned when a user doesn't have permission for an action
	ErrPermissionDenied = errors.New("permission denied")

	// ErrUnauthorized is returned when user is not authenticated
	ErrUnauthorized = errors.New("unauthorized")

	// ErrConflict is returned when there's a conflict (e.g., duplicate)
	ErrConflict = errors.New("resource conflict")

	// ErrInvalidCredentials is returned on a failed login attempt
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrUserInactive is returned when a disabled account tries to authenticate
	ErrUserInactive = errors.New("user account is disabled")

	// ErrInvalidRole is returned when an unknown role is supplied
	ErrInvalidRole = errors.New("invalid role")

	// ErrCodeConflict is returned when assignment code generation keeps
	// colliding after the bounded retries
	ErrCodeConflict = errors.New("assignment code conflict, please retry")

	// ErrMalformedCode is returned when the highest existing assignment code
	// for the year cannot be parsed. Numbering is never silently restarted.
	ErrMalformedCode = errors.New("malformed assignment code in sequence")

	// ErrBankBranchMismatch is returned when a branch id belongs to a
	// different bank than the supplied bank id
	ErrBankBranchMismatch = errors.New("branch does not belong to the given bank")
)
