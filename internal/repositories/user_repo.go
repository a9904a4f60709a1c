package repositories

import (
	"context"
	"database/sql"
	"errors"

	"waxhands/internal/models"
)

type UserRepository struct {
	DB *sql.DB
}

func (r *UserRepository) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	const q = `INSERT INTO users (name, phone, email, password, role, created_at) VALUES (?, ?, ?, ?, ?, NOW())`
	res, err := r.DB.ExecContext(ctx, q, user.Name, user.Phone, user.Email, user.Password, user.Role)
	if err != nil {
		return models.User{}, err
	}
	id, _ := res.LastInsertId()
	user.ID = int(id)
	return user, nil
}

func (r *UserRepository) GetUserByID(ctx context.Context, id int) (models.User, error) {
	var user models.User
	const q = `SELECT id, name, phone, email, password, role, created_at FROM users WHERE id = ?`
	err := r.DB.QueryRowContext(ctx, q, id).Scan(
		&user.ID, &user.Name, &user.Phone, &user.Email, &user.Password, &user.Role, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, models.ErrUserNotFound
	}
	return user, err
}

func (r *UserRepository) GetUserByPhone(ctx context.Context, phone string) (models.User, error) {
	var user models.User
	const q = `SELECT id, name, phone, email, password, role, created_at FROM users WHERE phone = ?`
	err := r.DB.QueryRowContext(ctx, q, phone).Scan(
		&user.ID, &user.Name, &user.Phone, &user.Email, &user.Password, &user.Role, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, nil
	}
	return user, err
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	const q = `SELECT id, name, phone, email, password, role, created_at FROM users WHERE email = ?`
	err := r.DB.QueryRowContext(ctx, q, email).Scan(
		&user.ID, &user.Name, &user.Phone, &user.Email, &user.Password, &user.Role, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, nil
	}
	return user, err
}

func (r *UserRepository) GetUsers(ctx context.Context) ([]models.User, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id, name, phone, email, role, created_at FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var user models.User
		if err := rows.Scan(&user.ID, &user.Name, &user.Phone, &user.Email, &user.Role, &user.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *UserRepository) UpdateUser(ctx context.Context, user models.User) (models.User, error) {
	const q = `UPDATE users SET name = ?, phone = ?, email = ?, updated_at = NOW() WHERE id = ?`
	_, err := r.DB.ExecContext(ctx, q, user.Name, user.Phone, user.Email, user.ID)
	return user, err
}

func (r *UserRepository) UpdatePassword(ctx context.Context, userID int, hashed string) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE users SET password = ?, updated_at = NOW() WHERE id = ?`, hashed, userID)
	return err
}

func (r *UserRepository) DeleteUser(ctx context.Context, id int) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	return err
}

// Sessions hold refresh tokens for the JWT middleware's renew path.

func (r *UserRepository) CreateSession(ctx context.Context, session models.Session) error {
	const q = `INSERT INTO sessions (user_id, role, refresh_token, expires_at)
	           VALUES (?, ?, ?, ?)
	           ON DUPLICATE KEY UPDATE refresh_token = VALUES(refresh_token), expires_at = VALUES(expires_at)`
	_, err := r.DB.ExecContext(ctx, q, session.UserID, session.Role, session.RefreshToken, session.ExpiresAt)
	return err
}

func (r *UserRepository) GetSessionByToken(ctx context.Context, refreshToken string) (models.Session, error) {
	var session models.Session
	const q = `SELECT user_id, role, refresh_token, expires_at FROM sessions WHERE refresh_token = ?`
	err := r.DB.QueryRowContext(ctx, q, refreshToken).Scan(
		&session.UserID, &session.Role, &session.RefreshToken, &session.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Session{}, nil
	}
	return session, err
}
