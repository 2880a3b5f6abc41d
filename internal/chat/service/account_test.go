package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegisterAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc := &AccountService{Store: newTestStore(t)}

	account, err := svc.Register(ctx, "a@b.com", "alice", "secret1")
	require.NoError(t, err)
	require.NotEmpty(t, account.ID)
	require.Equal(t, "a@b.com", account.Email)
	require.Equal(t, "alice", account.Username)
	require.NotEqual(t, "secret1", account.PasswordHash, "password must not be stored verbatim")

	t.Run("same credentials authenticate", func(t *testing.T) {
		got, err := svc.Authenticate(ctx, "a@b.com", "secret1")
		require.NoError(t, err)
		require.Equal(t, account.ID, got.ID)
		require.Equal(t, account.Username, got.Username)
	})

	t.Run("wrong password rejected", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "a@b.com", "wrong")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email rejected with same error", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "nobody@b.com", "secret1")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("email match is case-sensitive", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "A@B.com", "secret1")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestRegisterDuplicates(t *testing.T) {
	ctx := context.Background()
	svc := &AccountService{Store: newTestStore(t)}

	_, err := svc.Register(ctx, "a@b.com", "alice", "secret1")
	require.NoError(t, err)

	t.Run("duplicate email regardless of username", func(t *testing.T) {
		_, err := svc.Register(ctx, "a@b.com", "completely_different", "secret1")
		require.ErrorIs(t, err, ErrEmailTaken)
	})

	t.Run("duplicate username is case-insensitive", func(t *testing.T) {
		_, err := svc.Register(ctx, "other@b.com", "ALICE", "secret1")
		require.ErrorIs(t, err, ErrUsernameTaken)
	})

	t.Run("different-case email is a different account", func(t *testing.T) {
		_, err := svc.Register(ctx, "A@b.com", "alice2", "secret1")
		require.NoError(t, err)
	})
}

func TestSignupInputValidate(t *testing.T) {
	valid := SignupInput{Email: "a@b.com", Username: "alice", Password: "secret1", Confirm: "secret1"}
	require.Nil(t, valid.Validate())

	tests := []struct {
		name  string
		mod   func(*SignupInput)
		field string
	}{
		{"missing email", func(in *SignupInput) { in.Email = "" }, "email"},
		{"email without at", func(in *SignupInput) { in.Email = "ab.com" }, "email"},
		{"email without dot", func(in *SignupInput) { in.Email = "a@bcom" }, "email"},
		{"short username", func(in *SignupInput) { in.Username = "ab" }, "username"},
		{"long username", func(in *SignupInput) { in.Username = "abcdefghijklmnopqrstu" }, "username"},
		{"username with dash", func(in *SignupInput) { in.Username = "ali-ce" }, "username"},
		{"short password", func(in *SignupInput) { in.Password = "12345"; in.Confirm = "12345" }, "password"},
		{"oversized password", func(in *SignupInput) {
			in.Password = strings.Repeat("x", 129)
			in.Confirm = in.Password
		}, "password"},
		{"mismatched confirm", func(in *SignupInput) { in.Confirm = "different" }, "confirm"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mod(&in)
			errs := in.Validate()
			require.Contains(t, errs, tt.field)
		})
	}
}
