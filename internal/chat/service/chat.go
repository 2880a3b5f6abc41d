package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/elxora/elxora/internal/chat/domain"
	"github.com/elxora/elxora/internal/chat/store"
	"github.com/elxora/elxora/pkg/idx"
)

const (
	// placeholderTitle is what a chat is called until its first user message.
	placeholderTitle = "New chat"

	// titleMaxRunes caps auto-generated titles.
	titleMaxRunes = 40
)

// ChatService owns chat transcripts: creation, listing, deletion and the
// append-only message sequence.
type ChatService struct {
	Store store.Store

	// Now is a test seam; nil means time.Now.
	Now func() time.Time
}

func (s *ChatService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Create allocates an empty chat for the account.
func (s *ChatService) Create(ctx context.Context, accountID string) (domain.Chat, error) {
	now := s.now().UTC()
	chat := domain.Chat{
		ID:        idx.New().String(),
		AccountID: accountID,
		Title:     placeholderTitle,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.Store.Chats().CreateChat(ctx, chat); err != nil {
		return domain.Chat{}, err
	}
	return chat, nil
}

// Get returns a chat with its full ordered transcript.
func (s *ChatService) Get(ctx context.Context, chatID string) (domain.Chat, error) {
	return s.Store.Chats().GetChat(ctx, chatID)
}

// List returns the account's chats, most recently updated first.
func (s *ChatService) List(ctx context.Context, accountID string) ([]domain.ChatSummary, error) {
	return s.Store.Chats().ListChats(ctx, accountID)
}

// Delete removes a chat and its messages.
func (s *ChatService) Delete(ctx context.Context, chatID string) error {
	return s.Store.Chats().DeleteChat(ctx, chatID)
}

// Append adds one message to the chat's sequence and bumps its timestamp.
// The first user message also titles the chat. The message insert and the
// chat update commit together so no partial write is ever observable.
func (s *ChatService) Append(ctx context.Context, chatID string, role domain.Role, content string) (domain.Message, error) {
	msg := domain.Message{
		ID:        idx.New().String(),
		ChatID:    chatID,
		Role:      role,
		Content:   content,
		CreatedAt: s.now().UTC(),
	}

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		chat, err := tx.Chats().GetChat(ctx, chatID)
		if err != nil {
			return err
		}

		if err := tx.Chats().AppendMessage(ctx, msg); err != nil {
			return err
		}

		if role == domain.RoleUser && chat.Title == placeholderTitle {
			return tx.Chats().UpdateChatTitle(ctx, chatID, deriveTitle(content))
		}
		return nil
	})
	if err != nil {
		return domain.Message{}, err
	}

	return msg, nil
}

// deriveTitle turns the first user message into a short chat title.
func deriveTitle(content string) string {
	title := strings.Join(strings.Fields(content), " ")
	if title == "" {
		return placeholderTitle
	}
	if utf8.RuneCountInString(title) > titleMaxRunes {
		runes := []rune(title)
		title = strings.TrimSpace(string(runes[:titleMaxRunes])) + "…"
	}
	return title
}
