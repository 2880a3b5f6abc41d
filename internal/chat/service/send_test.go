package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/elxora/elxora/internal/chat/domain"
	"github.com/elxora/elxora/internal/chat/store"
	"github.com/elxora/elxora/pkg/genai"
	"github.com/stretchr/testify/require"
)

const testAPIKey = "AIzaSyTestKeyTestKeyTestKey0123456789"

// fakeCompleter scripts the remote completion call.
type fakeCompleter struct {
	reply      string
	err        error
	transcript []genai.Turn
	system     string
	calls      int
}

func (f *fakeCompleter) Complete(_ context.Context, _ string, transcript []genai.Turn, system string) (string, error) {
	f.calls++
	f.transcript = transcript
	f.system = system
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func newSendFixture(t *testing.T) (*SendService, *fakeCompleter, string) {
	t.Helper()

	st := newTestStore(t)
	ctx := context.Background()

	account, err := (&AccountService{Store: st}).Register(ctx, "a@b.com", "alice", "secret1")
	require.NoError(t, err)

	chats := &ChatService{Store: st}
	chat, err := chats.Create(ctx, account.ID)
	require.NoError(t, err)

	remote := &fakeCompleter{reply: "hello back"}
	svc := &SendService{
		Chats:             chats,
		Settings:          &SettingsService{Store: st},
		Remote:            remote,
		SystemInstruction: "be helpful",
	}
	return svc, remote, chat.ID
}

func TestSend(t *testing.T) {
	ctx := context.Background()
	svc, remote, chatID := newSendFixture(t)
	require.NoError(t, svc.Settings.SetAPIKey(ctx, testAPIKey))

	reply, err := svc.Send(ctx, chatID, "hello")
	require.NoError(t, err)
	require.Equal(t, "hello back", reply)
	require.Equal(t, "be helpful", remote.system)

	chat, err := svc.Chats.Get(ctx, chatID)
	require.NoError(t, err)
	require.Len(t, chat.Messages, 2)
	require.Equal(t, domain.RoleUser, chat.Messages[0].Role)
	require.Equal(t, "hello", chat.Messages[0].Content)
	require.Equal(t, domain.RoleAssistant, chat.Messages[1].Role)
	require.Equal(t, "hello back", chat.Messages[1].Content)
}

func TestSendFullHistoryPolicy(t *testing.T) {
	ctx := context.Background()
	svc, remote, chatID := newSendFixture(t)
	require.NoError(t, svc.Settings.SetAPIKey(ctx, testAPIKey))

	_, err := svc.Send(ctx, chatID, "first question")
	require.NoError(t, err)

	remote.reply = "second answer"
	_, err = svc.Send(ctx, chatID, "second question")
	require.NoError(t, err)

	// The second call carries the whole prior conversation plus the new turn.
	require.Equal(t, []genai.Turn{
		{Role: genai.RoleUser, Text: "first question"},
		{Role: genai.RoleModel, Text: "hello back"},
		{Role: genai.RoleUser, Text: "second question"},
	}, remote.transcript)
}

func TestSendNoCredential(t *testing.T) {
	ctx := context.Background()
	svc, remote, chatID := newSendFixture(t)

	_, err := svc.Send(ctx, chatID, "hello")
	require.ErrorIs(t, err, ErrNoCredential)
	require.Zero(t, remote.calls, "remote must not be called without a credential")

	// The chat is untouched: no user message was appended.
	chat, err := svc.Chats.Get(ctx, chatID)
	require.NoError(t, err)
	require.Empty(t, chat.Messages)
}

func TestSendEmptyMessageIsNoOp(t *testing.T) {
	ctx := context.Background()
	svc, remote, chatID := newSendFixture(t)
	require.NoError(t, svc.Settings.SetAPIKey(ctx, testAPIKey))

	_, err := svc.Send(ctx, chatID, "   \n\t ")
	require.ErrorIs(t, err, ErrEmptyMessage)
	require.Zero(t, remote.calls)

	chat, err := svc.Chats.Get(ctx, chatID)
	require.NoError(t, err)
	require.Empty(t, chat.Messages)
}

func TestSendRemoteFailureAppendsFallback(t *testing.T) {
	ctx := context.Background()
	svc, remote, chatID := newSendFixture(t)
	require.NoError(t, svc.Settings.SetAPIKey(ctx, testAPIKey))

	remote.err = &genai.HTTPError{StatusCode: 500}

	_, err := svc.Send(ctx, chatID, "hello")
	var httpErr *genai.HTTPError
	require.ErrorAs(t, err, &httpErr)

	// The turn is still answered, by the apology fallback.
	chat, err := svc.Chats.Get(ctx, chatID)
	require.NoError(t, err)
	require.Len(t, chat.Messages, 2)
	require.Equal(t, domain.RoleUser, chat.Messages[0].Role)
	require.Equal(t, domain.RoleAssistant, chat.Messages[1].Role)
	require.Equal(t, fallbackReply, chat.Messages[1].Content)
}

func TestSendTimeoutMapsToSendTimeout(t *testing.T) {
	ctx := context.Background()
	svc, remote, chatID := newSendFixture(t)
	require.NoError(t, svc.Settings.SetAPIKey(ctx, testAPIKey))

	remote.err = context.DeadlineExceeded

	_, err := svc.Send(ctx, chatID, "hello")
	require.ErrorIs(t, err, ErrSendTimeout)
}

// slowCompleter holds each call open for a while and records whether any two
// calls ever ran at the same time.
type slowCompleter struct {
	delay       time.Duration
	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func (f *slowCompleter) Complete(_ context.Context, _ string, transcript []genai.Turn, _ string) (string, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		max := f.maxInFlight.Load()
		if n <= max || f.maxInFlight.CompareAndSwap(max, n) {
			break
		}
	}

	time.Sleep(f.delay)
	return "reply to: " + transcript[len(transcript)-1].Text, nil
}

func TestSendSerializesPerChat(t *testing.T) {
	ctx := context.Background()
	svc, _, chatID := newSendFixture(t)
	require.NoError(t, svc.Settings.SetAPIKey(ctx, testAPIKey))

	remote := &slowCompleter{delay: 10 * time.Millisecond}
	svc.Remote = remote

	const workers = 8
	errs := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Send(ctx, chatID, fmt.Sprintf("message %d", i))
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	require.Equal(t, int32(1), remote.maxInFlight.Load(),
		"remote calls for one chat must never overlap")

	// Each turn committed whole: strictly sequential positions, user and
	// assistant strictly alternating.
	chat, err := svc.Chats.Get(ctx, chatID)
	require.NoError(t, err)
	require.Len(t, chat.Messages, 2*workers)
	for i, m := range chat.Messages {
		require.Equal(t, i, m.Position)
		want := domain.RoleUser
		if i%2 == 1 {
			want = domain.RoleAssistant
		}
		require.Equal(t, want, m.Role)
	}
	for i := 0; i < len(chat.Messages); i += 2 {
		require.Equal(t, "reply to: "+chat.Messages[i].Content, chat.Messages[i+1].Content,
			"each reply must answer its own user turn")
	}
}

func TestSendForgetDropsChatLock(t *testing.T) {
	ctx := context.Background()
	svc, _, chatID := newSendFixture(t)
	require.NoError(t, svc.Settings.SetAPIKey(ctx, testAPIKey))

	_, err := svc.Send(ctx, chatID, "hello")
	require.NoError(t, err)
	require.Contains(t, svc.locks, chatID)

	svc.Forget(chatID)
	require.NotContains(t, svc.locks, chatID)
}

func TestSendUnknownChat(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newSendFixture(t)
	require.NoError(t, svc.Settings.SetAPIKey(ctx, testAPIKey))

	_, err := svc.Send(ctx, "01DOESNOTEXIST", "hello")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestSetAPIKeyShapeCheck(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newSendFixture(t)

	require.ErrorIs(t, svc.Settings.SetAPIKey(ctx, "not-a-key"), ErrInvalidAPIKeyShape)
	require.NoError(t, svc.Settings.SetAPIKey(ctx, testAPIKey))

	key, err := svc.Settings.APIKey(ctx)
	require.NoError(t, err)
	require.Equal(t, testAPIKey, key)

	require.NoError(t, svc.Settings.ClearAPIKey(ctx))
	_, err = svc.Settings.APIKey(ctx)
	require.ErrorIs(t, err, store.ErrNotFound)
}
