package sqlite

import (
	"context"
	"time"

	"github.com/elxora/elxora/internal/chat/domain"
)

type pendingSignupsRepo struct {
	db dbtx
}

func (r *pendingSignupsRepo) PutPendingSignup(ctx context.Context, p domain.PendingSignup) error {
	// Single slot: a second in-flight signup replaces the first.
	_, err := r.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO pending_signup
		 (slot, email, username, password_hash, code_secret, code_counter, issued_at)
		 VALUES (1, ?, ?, ?, ?, ?, ?)`,
		p.Email, p.Username, p.PasswordHash, p.CodeSecret, p.CodeCounter, p.IssuedAt.UTC())
	return err
}

func (r *pendingSignupsRepo) GetPendingSignup(ctx context.Context) (domain.PendingSignup, error) {
	var p domain.PendingSignup
	err := r.db.QueryRowContext(ctx,
		`SELECT email, username, password_hash, code_secret, code_counter, issued_at
		 FROM pending_signup WHERE slot = 1`).
		Scan(&p.Email, &p.Username, &p.PasswordHash, &p.CodeSecret, &p.CodeCounter, &p.IssuedAt)
	if err != nil {
		return domain.PendingSignup{}, mapNotFound(err)
	}
	return p, nil
}

func (r *pendingSignupsRepo) DeletePendingSignup(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM pending_signup WHERE slot = 1`)
	return err
}

func (r *pendingSignupsRepo) DeleteExpiredPendingSignup(ctx context.Context, cutoff time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM pending_signup WHERE slot = 1 AND issued_at < ?`, cutoff.UTC())
	return err
}
