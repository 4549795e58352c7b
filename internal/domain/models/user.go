// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User status values.
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// User is a portal account as stored by the self-hosted (mongo) backend.
// The hosted backend keeps its own user table; there we only ever see an Identity.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email        string             `bson:"email" json:"email"`
	EmailCI      string             `bson:"email_ci" json:"-"` // lowercase, diacritics-stripped
	PasswordHash string             `bson:"password_hash" json:"-"`
	Status       string             `bson:"status,omitempty" json:"status,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// IsActive reports whether the account may sign in.
func (u User) IsActive() bool {
	return u.Status == "" || u.Status == UserStatusActive
}

// Identity is the authenticated user as reported by a backend.
// ID is opaque; Email may be empty for accounts created without one.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}
