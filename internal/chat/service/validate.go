package service

import (
	"regexp"
	"strings"
)

const requiredReason = "required"

var usernameRe = regexp.MustCompile(`^[A-Za-z0-9_]{3,20}$`)

// SignupInput carries the raw signup form fields.
type SignupInput struct {
	Email    string
	Username string
	Password string
	Confirm  string
}

// Validate checks the signup fields and returns a map of field names to
// error messages, or nil if everything is valid. The rules mirror the web
// client: email needs an "@" and a ".", username is 3-20 word characters,
// password is at least 6 characters and must match its confirmation.
func (in SignupInput) Validate() map[string]string {
	errs := make(map[string]string)

	email := strings.TrimSpace(in.Email)
	switch {
	case email == "":
		errs["email"] = requiredReason
	case !strings.Contains(email, "@") || !strings.Contains(email, "."):
		errs["email"] = "must be a valid email address"
	}

	username := strings.TrimSpace(in.Username)
	switch {
	case username == "":
		errs["username"] = requiredReason
	case !usernameRe.MatchString(username):
		errs["username"] = "must be 3-20 characters of a-z, A-Z, 0-9 or _"
	}

	switch {
	case in.Password == "":
		errs["password"] = requiredReason
	case len(in.Password) < 6:
		errs["password"] = "too short (min 6)"
	case len(in.Password) > 128:
		errs["password"] = "too long (max 128)"
	}

	if in.Confirm != in.Password {
		errs["confirm"] = "passwords do not match"
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// ValidationError wraps per-field messages so callers can render them next
// to the offending input.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, reason := range e.Fields {
		parts = append(parts, field+": "+reason)
	}
	return "invalid input: " + strings.Join(parts, "; ")
}
