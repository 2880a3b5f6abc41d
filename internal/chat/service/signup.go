package service

import (
	"context"
	"crypto/rand"
	"encoding/base32"
	"errors"
	"log/slog"
	"time"

	"github.com/pquerna/otp/hotp"

	"github.com/elxora/elxora/internal/chat/domain"
	"github.com/elxora/elxora/internal/chat/store"
	"github.com/elxora/elxora/pkg/cryptox"
	"github.com/elxora/elxora/pkg/slogx"
)

const (
	// DefaultSignupWindow is how long a pending signup stays verifiable.
	DefaultSignupWindow = 10 * time.Minute

	codeSecretBytes = 20
)

var (
	// ErrSignupExpired covers both "nothing pending" and "pending too old":
	// either way the user has to restart the signup.
	ErrSignupExpired = errors.New("signup session expired, please sign up again")

	ErrWrongCode = errors.New("wrong verification code")
)

// Mailer delivers a one-time code to a prospective account's email address.
type Mailer interface {
	SendCode(ctx context.Context, email, username, code string) error
}

// SignupService drives the Anonymous -> PendingVerification -> Authenticated
// state machine. There is a single pending slot; a second signup while one is
// in flight overwrites the first.
type SignupService struct {
	Store    store.Store
	Mailer   Mailer
	Sessions *SessionService

	// Window is the verification deadline. Zero means DefaultSignupWindow.
	Window time.Duration

	// Now is a test seam; nil means time.Now.
	Now func() time.Time
}

func (s *SignupService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *SignupService) window() time.Duration {
	if s.Window > 0 {
		return s.Window
	}
	return DefaultSignupWindow
}

// Begin validates the signup form, records a pending signup and delivers a
// six-digit code. The password is hashed immediately; neither it nor the code
// itself is persisted. If delivery fails the slot is rolled back so the user
// is not stuck waiting for a code that never left.
func (s *SignupService) Begin(ctx context.Context, in SignupInput) error {
	log := slogx.FromContext(ctx)

	if fields := in.Validate(); fields != nil {
		return &ValidationError{Fields: fields}
	}

	// Reject already-registered identities up front: there is no point
	// emailing a code for a signup that can never commit.
	if _, err := s.Store.Accounts().GetAccountByEmail(ctx, in.Email); err == nil {
		return ErrEmailTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}
	if _, err := s.Store.Accounts().GetAccountByUsername(ctx, in.Username); err == nil {
		return ErrUsernameTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	hash, err := cryptox.HashPassword(in.Password)
	if err != nil {
		return err
	}

	secret, err := newCodeSecret()
	if err != nil {
		return err
	}

	pending := domain.PendingSignup{
		Email:        in.Email,
		Username:     in.Username,
		PasswordHash: hash,
		CodeSecret:   secret,
		CodeCounter:  0,
		IssuedAt:     s.now().UTC(),
	}

	code, err := hotp.GenerateCode(pending.CodeSecret, pending.CodeCounter)
	if err != nil {
		return err
	}

	if err := s.Store.PendingSignups().PutPendingSignup(ctx, pending); err != nil {
		return err
	}

	if err := s.Mailer.SendCode(ctx, pending.Email, pending.Username, code); err != nil {
		log.Warn("verification code delivery failed", slog.Any("error", err))
		_ = s.Store.PendingSignups().DeletePendingSignup(ctx)
		return err
	}

	log.Info("signup pending verification", slog.String("username", pending.Username))
	return nil
}

// Verify checks the submitted code against the pending signup. On success it
// commits the account, establishes the session and discards the slot. A wrong
// code leaves the slot intact for another attempt within the window.
func (s *SignupService) Verify(ctx context.Context, code string) (domain.Session, error) {
	log := slogx.FromContext(ctx)

	pending, err := s.Store.PendingSignups().GetPendingSignup(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Session{}, ErrSignupExpired
		}
		return domain.Session{}, err
	}

	if pending.ExpiredAfter(s.window(), s.now()) {
		_ = s.Store.PendingSignups().DeletePendingSignup(ctx)
		return domain.Session{}, ErrSignupExpired
	}

	if !hotp.Validate(code, pending.CodeCounter, pending.CodeSecret) {
		return domain.Session{}, ErrWrongCode
	}

	var account domain.Account
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		var txErr error
		account, txErr = createAccount(ctx, tx, pending.Email, pending.Username, pending.PasswordHash)
		if txErr != nil {
			return txErr
		}
		return tx.PendingSignups().DeletePendingSignup(ctx)
	})
	if err != nil {
		return domain.Session{}, err
	}

	if err := s.Sessions.SetActive(ctx, account); err != nil {
		return domain.Session{}, err
	}

	log.Info("signup verified", slog.String("account_id", account.ID))

	return domain.Session{
		AccountID: account.ID,
		Email:     account.Email,
		Username:  account.Username,
	}, nil
}

// Cancel discards the pending signup, returning to the anonymous state.
func (s *SignupService) Cancel(ctx context.Context) error {
	return s.Store.PendingSignups().DeletePendingSignup(ctx)
}

// newCodeSecret mints a random base32 HOTP secret. The six-digit code is
// derived from it on demand instead of being stored.
func newCodeSecret() (string, error) {
	raw := make([]byte, codeSecretBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(raw), nil
}
