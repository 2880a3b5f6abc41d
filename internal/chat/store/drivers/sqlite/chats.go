package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/elxora/elxora/internal/chat/domain"
	"github.com/elxora/elxora/internal/chat/store"
)

type chatsRepo struct {
	db dbtx
}

func (r *chatsRepo) CreateChat(ctx context.Context, c domain.Chat) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO chats (id, account_id, title, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.AccountID, c.Title, c.CreatedAt.UTC(), c.UpdatedAt.UTC())
	return mapConstraint(err)
}

func (r *chatsRepo) GetChat(ctx context.Context, id string) (domain.Chat, error) {
	var c domain.Chat
	err := r.db.QueryRowContext(ctx,
		`SELECT id, account_id, title, created_at, updated_at FROM chats WHERE id = ?`, id).
		Scan(&c.ID, &c.AccountID, &c.Title, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return domain.Chat{}, mapNotFound(err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, chat_id, position, role, content, created_at
		 FROM chat_messages WHERE chat_id = ? ORDER BY position ASC`, id)
	if err != nil {
		return domain.Chat{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var m domain.Message
		var role string
		if err := rows.Scan(&m.ID, &m.ChatID, &m.Position, &role, &m.Content, &m.CreatedAt); err != nil {
			return domain.Chat{}, err
		}
		m.Role = domain.Role(role)
		c.Messages = append(c.Messages, m)
	}
	if err := rows.Err(); err != nil {
		return domain.Chat{}, err
	}

	return c, nil
}

func (r *chatsRepo) ListChats(ctx context.Context, accountID string) ([]domain.ChatSummary, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT c.id, c.title, c.updated_at,
		        (SELECT COUNT(*) FROM chat_messages m WHERE m.chat_id = c.id)
		 FROM chats c
		 WHERE c.account_id = ?
		 ORDER BY c.updated_at DESC`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []domain.ChatSummary
	for rows.Next() {
		var s domain.ChatSummary
		if err := rows.Scan(&s.ID, &s.Title, &s.UpdatedAt, &s.MessageCount); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

func (r *chatsRepo) AppendMessage(ctx context.Context, m domain.Message) error {
	// The chat must exist before we compute a position, otherwise MAX()
	// would silently invent position 0 for a deleted chat.
	var exists int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM chats WHERE id = ?`, m.ChatID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	if err != nil {
		return err
	}

	var next int
	err = r.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(position) + 1, 0) FROM chat_messages WHERE chat_id = ?`, m.ChatID).
		Scan(&next)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO chat_messages (id, chat_id, position, role, content, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.ChatID, next, string(m.Role), m.Content, m.CreatedAt.UTC())
	if err != nil {
		return mapConstraint(err)
	}

	_, err = r.db.ExecContext(ctx,
		`UPDATE chats SET updated_at = ? WHERE id = ?`, m.CreatedAt.UTC(), m.ChatID)
	return err
}

func (r *chatsRepo) UpdateChatTitle(ctx context.Context, chatID, title string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE chats SET title = ? WHERE id = ?`, title, chatID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *chatsRepo) DeleteChat(ctx context.Context, chatID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM chats WHERE id = ?`, chatID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
