package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/golang-jwt/jwt/v5"

	"github.com/elxora/elxora/internal/chat/domain"
	"github.com/elxora/elxora/internal/chat/store"
	"github.com/elxora/elxora/pkg/slogx"
)

// ErrNoSession is returned when no valid session record exists.
var ErrNoSession = errors.New("no active session")

// sessionClaims is the payload of the persisted session record.
type sessionClaims struct {
	jwt.RegisteredClaims

	Email    string `json:"email"`
	Username string `json:"username"`
}

// SessionService persists the currently authenticated account. The record is
// an HS256-signed token so a hand-edited database row reads as absent rather
// than as someone else's session. Sessions carry no expiry; only logout (or
// a failed signature check) ends them.
type SessionService struct {
	Store store.Store

	// SigningKey comes from a generated-on-first-run key file.
	SigningKey []byte
}

// SetActive records account as the authenticated user for this profile.
func (s *SessionService) SetActive(ctx context.Context, account domain.Account) error {
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: account.ID,
		},
		Email:    account.Email,
		Username: account.Username,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.SigningKey)
	if err != nil {
		return err
	}

	return s.Store.Sessions().PutSessionToken(ctx, token)
}

// Active returns the current session, or ErrNoSession when none exists or
// the stored record fails verification.
func (s *SessionService) Active(ctx context.Context) (domain.Session, error) {
	raw, err := s.Store.Sessions().GetSessionToken(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Session{}, ErrNoSession
		}
		return domain.Session{}, err
	}

	var claims sessionClaims
	_, err = jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return s.SigningKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		// Tampered or stale record. Treat as logged out.
		slogx.FromContext(ctx).Warn("discarding invalid session record", slog.Any("error", err))
		_ = s.Store.Sessions().DeleteSessionToken(ctx)
		return domain.Session{}, ErrNoSession
	}

	return domain.Session{
		AccountID: claims.Subject,
		Email:     claims.Email,
		Username:  claims.Username,
	}, nil
}

// Clear logs the current account out.
func (s *SessionService) Clear(ctx context.Context) error {
	return s.Store.Sessions().DeleteSessionToken(ctx)
}
