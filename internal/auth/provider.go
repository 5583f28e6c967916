// internal/auth/provider.go
package auth

import (
	"context"

	"github.com/google/uuid"
)

// Provider is the identity-provider contract the membership layer depends
// on. Implementations own the account store; the application only holds the
// opaque user id an implementation hands back. Constructed implementations
// are injected, never reached through package globals, so tests substitute
// a mock.
//
// Expected failure modes: ValidateSession and Authenticate return
// domain.ErrUnauthenticated / domain.ErrInvalidCredentials; FindByEmail
// returns domain.ErrNotFound when no account exists.
type Provider interface {
	// ValidateSession resolves a session credential to the account id.
	ValidateSession(ctx context.Context, credential string) (uuid.UUID, error)

	// Authenticate checks an email/password pair and issues a session
	// credential for it.
	Authenticate(ctx context.Context, email, password string) (string, error)

	// CreateIdentity provisions a new account and returns its id.
	CreateIdentity(ctx context.Context, email, password string) (uuid.UUID, error)

	// DeleteIdentity destroys an account.
	DeleteIdentity(ctx context.Context, id uuid.UUID) error

	// FindByEmail returns the account id registered for email.
	FindByEmail(ctx context.Context, email string) (uuid.UUID, error)
}
