package domain

import "time"

// PendingSignup is the transient record between signup submission and code
// verification. Only one may exist at a time; a new submission overwrites it.
// The raw password never reaches the store, only its hash. The verification
// code is never stored either: CodeSecret and CodeCounter reproduce it for
// comparison.
type PendingSignup struct {
	Email        string
	Username     string
	PasswordHash string
	CodeSecret   string // base32 HOTP secret
	CodeCounter  uint64
	IssuedAt     time.Time
}

// ExpiredAfter reports whether the pending signup is older than window at
// the given instant.
func (p PendingSignup) ExpiredAfter(window time.Duration, now time.Time) bool {
	return now.Sub(p.IssuedAt) > window
}
