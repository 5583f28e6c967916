// internal/model/identity.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// Identity is a login credential row owned by the built-in identity
// provider. It is deliberately separate from User: the provider's account
// store and the application's detail records have independent lifecycles,
// and a partially failed signup can leave one without the other until
// compensation runs.
type Identity struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Email        string    `gorm:"type:citext;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"type:text;not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
