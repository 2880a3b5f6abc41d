package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/elxora/elxora/internal/chat/service"
	"github.com/elxora/elxora/internal/chat/store"
	"github.com/elxora/elxora/internal/chat/store/drivers/sqlite"
	"github.com/elxora/elxora/pkg/cryptox"
	"github.com/elxora/elxora/pkg/genai"
	"github.com/stretchr/testify/require"
)

const testAPIKey = "AIzaSyTestKeyTestKeyTestKey0123456789"

func TestMain(m *testing.M) {
	pepperPath := filepath.Join(os.TempDir(), "elxora-cli-test-pepper")
	cryptox.SetPepperPath(pepperPath)

	os.Remove(pepperPath)
	defer os.Remove(pepperPath)

	os.Exit(m.Run())
}

type echoCompleter struct{}

func (echoCompleter) Complete(_ context.Context, _ string, transcript []genai.Turn, _ string) (string, error) {
	return "echo: " + transcript[len(transcript)-1].Text, nil
}

type noopMailer struct{}

func (noopMailer) SendCode(context.Context, string, string, string) error { return nil }

// newTestCLI builds a CLI over a throwaway store with input scripted and
// secret prompts answered from a queue.
func newTestCLI(t *testing.T, script string, secrets ...string) (*CLI, *bytes.Buffer) {
	t.Helper()

	st, err := sqlite.NewStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	queue := secrets
	orig := readPassword
	readPassword = func() ([]byte, error) {
		require.NotEmpty(t, queue, "prompted for a secret with none scripted")
		next := queue[0]
		queue = queue[1:]
		return []byte(next), nil
	}
	t.Cleanup(func() { readPassword = orig })

	sessions := &service.SessionService{Store: st, SigningKey: []byte("test-key")}
	chats := &service.ChatService{Store: st}
	settings := &service.SettingsService{Store: st}

	var out bytes.Buffer
	return &CLI{
		In:       strings.NewReader(script),
		Out:      &out,
		Accounts: &service.AccountService{Store: st},
		Signup:   &service.SignupService{Store: st, Mailer: noopMailer{}, Sessions: sessions},
		Sessions: sessions,
		Chats:    chats,
		Send: &service.SendService{
			Chats:    chats,
			Settings: settings,
			Remote:   echoCompleter{},
		},
		Settings: settings,
	}, &out
}

func register(t *testing.T, c *CLI, email, username, password string) {
	t.Helper()
	_, err := c.Accounts.Register(context.Background(), email, username, password)
	require.NoError(t, err)
}

func TestLoginAndChatSession(t *testing.T) {
	script := strings.Join([]string{
		"l",       // login
		"a@b.com", // email; password comes from the secret queue
		"/apikey", // key comes from the secret queue
		"hello there",
		"/list",
		"/logout",
		"q",
	}, "\n") + "\n"

	c, out := newTestCLI(t, script, "secret1", testAPIKey)
	register(t, c, "a@b.com", "alice", "secret1")

	require.NoError(t, c.Run(context.Background()))

	text := out.String()
	require.Contains(t, text, "Logged in as alice.")
	require.Contains(t, text, "API key saved.")
	require.Contains(t, text, "[elxora] echo: hello there")
	require.Contains(t, text, "hello there (2 messages")
	require.Contains(t, text, "Logged out.")
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	script := "l\na@b.com\nq\n"
	c, out := newTestCLI(t, script, "wrong-password")
	register(t, c, "a@b.com", "alice", "secret1")

	require.NoError(t, c.Run(context.Background()))
	require.Contains(t, out.String(), "Wrong email or password.")
}

func TestSendWithoutKeyPrintsHint(t *testing.T) {
	script := "l\na@b.com\nhello\n/quit\n"
	c, out := newTestCLI(t, script, "secret1")
	register(t, c, "a@b.com", "alice", "secret1")

	require.NoError(t, c.Run(context.Background()))
	require.Contains(t, out.String(), "No API key configured. Use /apikey first.")
}

func TestSignupCancel(t *testing.T) {
	script := strings.Join([]string{
		"s",
		"new@user.com",
		"newuser",
		"", // empty code cancels
		"q",
	}, "\n") + "\n"

	c, out := newTestCLI(t, script, "secret1", "secret1")
	require.NoError(t, c.Run(context.Background()))

	text := out.String()
	require.Contains(t, text, "No accounts on this profile yet.")
	require.Contains(t, text, "A verification code is on its way to new@user.com.")
	require.Contains(t, text, "Signup cancelled.")

	// Cancelling really clears the pending slot.
	_, err := c.Signup.Store.PendingSignups().GetPendingSignup(context.Background())
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestResumeSession(t *testing.T) {
	c, out := newTestCLI(t, "q\n")
	register(t, c, "a@b.com", "alice", "secret1")

	account, err := c.Accounts.Authenticate(context.Background(), "a@b.com", "secret1")
	require.NoError(t, err)
	require.NoError(t, c.Sessions.SetActive(context.Background(), account))

	// "q" is not a command in the chat loop, so quit properly.
	c.In = strings.NewReader("/quit\n")
	require.NoError(t, c.Run(context.Background()))
	require.Contains(t, out.String(), "Welcome back, alice.")
}
