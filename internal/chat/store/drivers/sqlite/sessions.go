package sqlite

import "context"

type sessionsRepo struct {
	db dbtx
}

func (r *sessionsRepo) PutSessionToken(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO session (slot, token) VALUES (1, ?)`, token)
	return err
}

func (r *sessionsRepo) GetSessionToken(ctx context.Context) (string, error) {
	var token string
	err := r.db.QueryRowContext(ctx, `SELECT token FROM session WHERE slot = 1`).Scan(&token)
	if err != nil {
		return "", mapNotFound(err)
	}
	return token, nil
}

func (r *sessionsRepo) DeleteSessionToken(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM session WHERE slot = 1`)
	return err
}
