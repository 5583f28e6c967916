// internal/domain/errors.go
package domain

import "errors"

var (
	// General errors
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")

	// Session errors
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// User-related errors
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrPasswordTooWeak    = errors.New("password too weak")

	// Organization-related errors
	ErrOrganizationNotFound = errors.New("organization not found")
	ErrSeatLimitReached     = errors.New("max number of users achieved")
	ErrUnknownPlan          = errors.New("unknown subscription plan")

	// Membership-related errors
	ErrCrossOrgForbidden = errors.New("user belongs to a different organization")
	ErrCannotDeleteAdmin = errors.New("organization admin cannot be deleted")

	// Permission-related errors
	ErrInvalidPermission = errors.New("invalid permission value")

	// External collaborator errors
	ErrProviderFailure = errors.New("identity provider request failed")
)
