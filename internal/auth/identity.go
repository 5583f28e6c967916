// internal/auth/identity.go
package auth

import "github.com/google/uuid"

// Identity is the resolved caller identity. EffectiveOrgID keys every
// organization-scoped read and write; UserID is only for provider-level
// operations. Until a user is assigned to a real organization the two are
// equal.
type Identity struct {
	UserID         uuid.UUID
	EffectiveOrgID uuid.UUID
}
