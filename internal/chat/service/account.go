package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/elxora/elxora/internal/chat/domain"
	"github.com/elxora/elxora/internal/chat/store"
	"github.com/elxora/elxora/pkg/cryptox"
	"github.com/elxora/elxora/pkg/idx"
	"github.com/elxora/elxora/pkg/slogx"
)

var (
	ErrEmailTaken    = errors.New("email is already registered")
	ErrUsernameTaken = errors.New("username already taken")

	// ErrInvalidCredentials deliberately covers both unknown email and wrong
	// password so login failures stay generic.
	ErrInvalidCredentials = errors.New("wrong email or password")
)

type AccountService struct {
	Store store.Store
}

// Register creates a new account after checking both uniqueness rules:
// email matches case-sensitively, username case-insensitively. The password
// is hashed before it ever reaches the store.
func (s *AccountService) Register(ctx context.Context, email, username, password string) (domain.Account, error) {
	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return domain.Account{}, err
	}
	return createAccount(ctx, s.Store, email, username, hash)
}

// Count returns how many accounts are registered on this profile.
func (s *AccountService) Count(ctx context.Context) (int, error) {
	return s.Store.Accounts().CountAccounts(ctx)
}

// Authenticate verifies a login attempt against the stored credentials.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (domain.Account, error) {
	log := slogx.FromContext(ctx)

	account, err := s.Store.Accounts().GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Account{}, ErrInvalidCredentials
		}
		log.Error("failed to fetch account", slog.Any("error", err))
		return domain.Account{}, err
	}

	if err := cryptox.VerifyPassword(password, account.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrPasswordMismatch) {
			return domain.Account{}, ErrInvalidCredentials
		}
		// A hash that fails to parse is data corruption, not a bad login.
		log.Error("failed to verify password hash",
			slog.String("account_id", account.ID),
			slog.Any("error", err),
		)
		return domain.Account{}, err
	}

	return account, nil
}

// createAccount inserts an account from an already-hashed password. Shared
// by direct registration and the signup verification commit.
func createAccount(ctx context.Context, st store.Store, email, username, passwordHash string) (domain.Account, error) {
	email = strings.TrimSpace(email)
	username = strings.TrimSpace(username)

	// Pre-check both uniqueness rules for precise errors; the unique
	// constraints below remain the real guarantee.
	if _, err := st.Accounts().GetAccountByEmail(ctx, email); err == nil {
		return domain.Account{}, ErrEmailTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return domain.Account{}, err
	}
	if _, err := st.Accounts().GetAccountByUsername(ctx, username); err == nil {
		return domain.Account{}, ErrUsernameTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return domain.Account{}, err
	}

	account := domain.Account{
		ID:           idx.New().String(),
		Email:        email,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}

	if err := st.Accounts().CreateAccount(ctx, account); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.Account{}, ErrEmailTaken
		}
		return domain.Account{}, err
	}

	slogx.FromContext(ctx).Debug("account created",
		slog.String("account_id", account.ID),
		slog.String("username", account.Username),
	)

	return account, nil
}
