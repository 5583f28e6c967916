// internal/model/user.go
package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/parleyhq/parley/internal/perm"
)

// User is the per-identity detail record. UserID is issued by the identity
// provider; OrgID initially equals UserID, so a fresh signup is its own
// one-person organization until it joins a real one.
type User struct {
	UserID      uuid.UUID `gorm:"type:uuid;primary_key" json:"user_id"`
	OrgID       uuid.UUID `gorm:"type:uuid;not null;index" json:"org_id"`
	Email       string    `gorm:"type:citext;uniqueIndex;not null" json:"email"`
	FirstName   string    `gorm:"type:text;not null;default:''" json:"first_name"`
	LastName    string    `gorm:"type:text;not null;default:''" json:"last_name"`
	Permissions perm.Mask `gorm:"type:bigint;not null;default:0" json:"permissions"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IsOrgAdmin reports whether the user is the founding admin of its
// organization. The admin is identified structurally, not by a permission
// bit: the founder's UserID is the organization's primary key.
func (u *User) IsOrgAdmin() bool {
	return u.UserID == u.OrgID
}
