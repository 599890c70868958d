package models

import (
	"time"
)

// User represents a registered account. Credentials are stored as a salted
// bcrypt hash, never verbatim.
type User struct {
	ID           string    `gorm:"primaryKey;size:64" json:"id"`
	Email        string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName overrides the table name for User
func (User) TableName() string {
	return "users"
}

// AuthUser is the identity resolved from a bearer token and attached to
// the request context by the auth middleware.
type AuthUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}
