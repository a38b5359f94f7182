package models

import "time"

// User is a registered account. Identity fields are immutable after
// registration; only the password hash may change.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}
