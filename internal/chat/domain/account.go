package domain

import "time"

// Account is a registered user's credential record. Accounts are created by
// the signup flow and never mutated afterwards.
type Account struct {
	ID           string
	Email        string // unique, compared case-sensitively
	Username     string // unique, compared case-insensitively
	PasswordHash string // argon2id PHC encoded
	CreatedAt    time.Time
}
