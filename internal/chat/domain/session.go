package domain

// Session identifies the currently authenticated account for this profile.
// At most one session exists at a time; it persists until explicit logout.
type Session struct {
	AccountID string
	Email     string
	Username  string
}
