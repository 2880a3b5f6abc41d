package domain

import "time"

// Role is the sender of a message within a chat.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn in a chat transcript. Messages are immutable once
// appended; Position is their place in the chat's ordered sequence.
type Message struct {
	ID        string
	ChatID    string
	Position  int
	Role      Role
	Content   string
	CreatedAt time.Time
}

// Chat is a persisted conversation owned by a single account.
type Chat struct {
	ID        string
	AccountID string
	Title     string
	Messages  []Message
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ChatSummary is a lightweight view of a chat for listings.
type ChatSummary struct {
	ID           string
	Title        string
	MessageCount int
	UpdatedAt    time.Time
}
