package repositories

import (
	"context"
	"database/sql"
)

type PushTokenRepository struct {
	DB *sql.DB
}

func (r *PushTokenRepository) InsertToken(ctx context.Context, userID int, token string) error {
	const q = `INSERT INTO notify_tokens (user_id, token) VALUES (?, ?)
	           ON DUPLICATE KEY UPDATE user_id = VALUES(user_id)`
	_, err := r.DB.ExecContext(ctx, q, userID, token)
	return err
}

func (r *PushTokenRepository) DeleteToken(ctx context.Context, token string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM notify_tokens WHERE token = ?`, token)
	return err
}

func (r *PushTokenRepository) GetTokensByUser(ctx context.Context, userID int) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT token FROM notify_tokens WHERE user_id = ?`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}
	return tokens, rows.Err()
}

func (r *PushTokenRepository) GetAllTokens(ctx context.Context) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT token FROM notify_tokens`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}
	return tokens, rows.Err()
}
