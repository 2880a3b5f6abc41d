package service

import (
	"context"
	"testing"

	"github.com/elxora/elxora/internal/chat/domain"
	"github.com/stretchr/testify/require"
)

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := &SessionService{Store: st, SigningKey: []byte("test-signing-key")}

	t.Run("absent by default", func(t *testing.T) {
		_, err := svc.Active(ctx)
		require.ErrorIs(t, err, ErrNoSession)
	})

	account := domain.Account{ID: "01ACCOUNT", Email: "a@b.com", Username: "alice"}
	require.NoError(t, svc.SetActive(ctx, account))

	t.Run("round-trips the account", func(t *testing.T) {
		sess, err := svc.Active(ctx)
		require.NoError(t, err)
		require.Equal(t, domain.Session{AccountID: "01ACCOUNT", Email: "a@b.com", Username: "alice"}, sess)
	})

	t.Run("replaced by a new login", func(t *testing.T) {
		require.NoError(t, svc.SetActive(ctx, domain.Account{ID: "01OTHER", Email: "b@c.com", Username: "bob"}))
		sess, err := svc.Active(ctx)
		require.NoError(t, err)
		require.Equal(t, "bob", sess.Username)
	})

	t.Run("cleared by logout", func(t *testing.T) {
		require.NoError(t, svc.Clear(ctx))
		_, err := svc.Active(ctx)
		require.ErrorIs(t, err, ErrNoSession)
	})
}

func TestSessionTamperedRecordReadsAsAbsent(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := &SessionService{Store: st, SigningKey: []byte("test-signing-key")}

	require.NoError(t, svc.SetActive(ctx, domain.Account{ID: "01ACCOUNT", Email: "a@b.com", Username: "alice"}))

	t.Run("hand-edited token", func(t *testing.T) {
		require.NoError(t, st.Sessions().PutSessionToken(ctx, "not.a.jwt"))
		_, err := svc.Active(ctx)
		require.ErrorIs(t, err, ErrNoSession)
	})

	t.Run("token signed with a different key", func(t *testing.T) {
		other := &SessionService{Store: st, SigningKey: []byte("some-other-key")}
		require.NoError(t, other.SetActive(ctx, domain.Account{ID: "01EVIL", Email: "x@y.com", Username: "mallory"}))

		_, err := svc.Active(ctx)
		require.ErrorIs(t, err, ErrNoSession)
	})
}
