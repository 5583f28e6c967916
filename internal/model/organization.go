// internal/model/organization.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// Organization is the billing and seat-management unit. For a freshly
// signed-up single user, OrgID equals that user's UserID.
type Organization struct {
	OrgID         uuid.UUID `gorm:"type:uuid;primary_key" json:"org_id"`
	BusinessName  string    `gorm:"type:text;not null" json:"business_name"`
	Subscription  string    `gorm:"type:text;not null" json:"subscription"`
	NumberOfUsers int       `gorm:"not null;default:0" json:"number_of_users"`
	MaxUsers      int       `gorm:"not null" json:"max_users"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
