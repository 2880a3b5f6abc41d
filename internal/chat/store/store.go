package store

import (
	"context"
	"errors"
	"time"

	"github.com/elxora/elxora/internal/chat/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite today)
// implement this. Sub-repositories keep the surface tidy and let services
// depend on exactly the entities they touch.
type Store interface {
	Accounts() Accounts
	Chats() Chats
	PendingSignups() PendingSignups
	Sessions() Sessions
	Settings() Settings

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Accounts interface {
	// GetAccountByID returns an account by id.
	GetAccountByID(ctx context.Context, id string) (domain.Account, error)

	// GetAccountByEmail matches the stored email exactly (case-sensitive).
	GetAccountByEmail(ctx context.Context, email string) (domain.Account, error)

	// GetAccountByUsername matches case-insensitively.
	GetAccountByUsername(ctx context.Context, username string) (domain.Account, error)

	// CreateAccount inserts a new account (id is provided by the app via ULID).
	// Returns ErrAlreadyExists when the email or username is taken.
	CreateAccount(ctx context.Context, a domain.Account) error

	// CountAccounts returns the number of registered accounts.
	CountAccounts(ctx context.Context) (int, error)
}

type Chats interface {
	// CreateChat inserts a chat with an empty message sequence.
	CreateChat(ctx context.Context, c domain.Chat) error

	// GetChat returns the chat plus its full message sequence in order.
	GetChat(ctx context.Context, id string) (domain.Chat, error)

	// ListChats returns summaries for an account, most recently updated first.
	ListChats(ctx context.Context, accountID string) ([]domain.ChatSummary, error)

	// AppendMessage inserts a message at the next position and bumps the
	// chat's updated_at. Fails with ErrNotFound for an unknown chat.
	AppendMessage(ctx context.Context, m domain.Message) error

	// UpdateChatTitle renames a chat.
	UpdateChatTitle(ctx context.Context, chatID, title string) error

	// DeleteChat removes the chat and its messages.
	DeleteChat(ctx context.Context, chatID string) error
}

type PendingSignups interface {
	// PutPendingSignup writes the single pending slot, replacing any
	// previous occupant (last write wins).
	PutPendingSignup(ctx context.Context, p domain.PendingSignup) error

	// GetPendingSignup returns the current slot or ErrNotFound.
	GetPendingSignup(ctx context.Context) (domain.PendingSignup, error)

	// DeletePendingSignup clears the slot. Clearing an empty slot is not an error.
	DeletePendingSignup(ctx context.Context) error

	// DeleteExpiredPendingSignup clears the slot only if it was issued
	// before cutoff (housekeeping).
	DeleteExpiredPendingSignup(ctx context.Context, cutoff time.Time) error
}

type Sessions interface {
	// PutSessionToken stores the signed session record, replacing any previous one.
	PutSessionToken(ctx context.Context, token string) error

	// GetSessionToken returns the stored record or ErrNotFound.
	GetSessionToken(ctx context.Context) (string, error)

	// DeleteSessionToken clears the record. Clearing an absent record is not an error.
	DeleteSessionToken(ctx context.Context) error
}

type Settings interface {
	// PutSetting upserts a key/value pair.
	PutSetting(ctx context.Context, key, value string) error

	// GetSetting returns the value for key or ErrNotFound.
	GetSetting(ctx context.Context, key string) (string, error)

	// DeleteSetting removes a key. Removing an absent key is not an error.
	DeleteSetting(ctx context.Context, key string) error
}
