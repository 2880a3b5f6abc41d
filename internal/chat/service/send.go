package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/elxora/elxora/internal/chat/domain"
	"github.com/elxora/elxora/internal/chat/store"
	"github.com/elxora/elxora/pkg/genai"
	"github.com/elxora/elxora/pkg/slogx"
)

const (
	// DefaultSendTimeout bounds the remote completion call. The old client
	// had no timeout at all, which left a dead request hanging forever.
	DefaultSendTimeout = 30 * time.Second

	// fallbackReply is appended as the assistant turn when the remote call
	// fails, so the transcript never shows an unanswered question.
	fallbackReply = "Sorry, something went wrong reaching the assistant. Please try again in a moment. 🙏"
)

var (
	// ErrNoCredential means no completion API key has been stored yet.
	ErrNoCredential = errors.New("no API key configured, set one in settings")

	// ErrEmptyMessage marks a whitespace-only send, which is a no-op.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrSendTimeout reports that the remote call exceeded the send timeout.
	ErrSendTimeout = errors.New("the assistant took too long to answer")
)

// Completer is the remote completion collaborator. *genai.Client satisfies it.
type Completer interface {
	Complete(ctx context.Context, apiKey string, transcript []genai.Turn, systemInstruction string) (string, error)
}

// SendService orchestrates one conversation turn: append the user message,
// call the completion endpoint with the full history, append the reply.
type SendService struct {
	Chats    *ChatService
	Settings *SettingsService
	Remote   Completer

	// SystemInstruction is sent with every request.
	SystemInstruction string

	// Timeout bounds the remote call. Zero means DefaultSendTimeout.
	Timeout time.Duration

	// mu guards locks; each chat gets its own mutex so concurrent sends to
	// the same chat serialize instead of interleaving their writes.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (s *SendService) chatLock(chatID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.locks == nil {
		s.locks = make(map[string]*sync.Mutex)
	}
	if s.locks[chatID] == nil {
		s.locks[chatID] = &sync.Mutex{}
	}
	return s.locks[chatID]
}

// Forget drops the serialization lock for a chat that no longer exists, so
// the lock map stays bounded by the number of live chats.
func (s *SendService) Forget(chatID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.locks, chatID)
}

func (s *SendService) timeout() time.Duration {
	if s.Timeout > 0 {
		return s.Timeout
	}
	return DefaultSendTimeout
}

// Send runs one turn of the conversation and returns the assistant's reply.
// Nothing is appended until the credential check passes, so a send with no
// stored key leaves the chat untouched. On remote failure the fallback reply
// is appended and the error is still returned for the UI to surface.
func (s *SendService) Send(ctx context.Context, chatID, userText string) (string, error) {
	log := slogx.FromContext(ctx)

	userText = strings.TrimSpace(userText)
	if userText == "" {
		return "", ErrEmptyMessage
	}

	lock := s.chatLock(chatID)
	lock.Lock()
	defer lock.Unlock()

	apiKey, err := s.Settings.APIKey(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrNoCredential
		}
		return "", err
	}
	if !genai.ValidAPIKey(apiKey) {
		return "", ErrNoCredential
	}

	chat, err := s.Chats.Get(ctx, chatID)
	if err != nil {
		return "", err
	}

	if _, err := s.Chats.Append(ctx, chatID, domain.RoleUser, userText); err != nil {
		return "", err
	}

	// Full-history policy: the endpoint sees every prior turn plus the new
	// one, so multi-turn conversations stay coherent.
	transcript := make([]genai.Turn, 0, len(chat.Messages)+1)
	for _, m := range chat.Messages {
		transcript = append(transcript, genai.Turn{Role: wireRole(m.Role), Text: m.Content})
	}
	transcript = append(transcript, genai.Turn{Role: genai.RoleUser, Text: userText})

	callCtx, cancel := context.WithTimeout(ctx, s.timeout())
	defer cancel()

	reply, err := s.Remote.Complete(callCtx, apiKey, transcript, s.SystemInstruction)
	if err != nil {
		log.Warn("completion call failed",
			slog.String("chat_id", chatID),
			slog.Any("error", err),
		)

		// Answer the turn anyway so the transcript is never left hanging.
		if _, appendErr := s.Chats.Append(ctx, chatID, domain.RoleAssistant, fallbackReply); appendErr != nil {
			log.Error("failed to append fallback reply",
				slog.String("chat_id", chatID),
				slog.Any("error", appendErr),
			)
		}

		if errors.Is(err, context.DeadlineExceeded) {
			return "", ErrSendTimeout
		}
		return "", err
	}

	if _, err := s.Chats.Append(ctx, chatID, domain.RoleAssistant, reply); err != nil {
		return "", err
	}

	return reply, nil
}

// wireRole maps transcript roles to what the endpoint expects; the assistant
// side is called "model" on the wire.
func wireRole(r domain.Role) string {
	if r == domain.RoleAssistant {
		return genai.RoleModel
	}
	return genai.RoleUser
}
