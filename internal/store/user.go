package store

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/pavelanni/florafauna/internal/model"
)

// CreateUser inserts a local account and returns its id.
func (s *Store) CreateUser(ctx context.Context, u model.User) (string, error) {
	id := uuid.NewString()
	if u.Role == "" {
		u.Role = model.UserRoleMember
	}
	_, err := s.exec(ctx,
		`INSERT INTO users (id, email, password_hash, role, email_verified, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, model.NormalizeEmail(u.Email), u.PasswordHash, u.Role, u.EmailVerified, s.stamp(),
	)
	if err != nil {
		slog.Error("failed to create user", "email", u.Email, "error", err)
		return "", classify("insert user", err)
	}
	slog.Info("created user", "id", id, "email", u.Email, "role", u.Role)
	return id, nil
}

// GetUserByEmail returns the account with email, or nil when there is none.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	var created int64
	err := s.queryRow(ctx,
		`SELECT id, email, password_hash, role, email_verified, created_at
		 FROM users WHERE email = ?`, model.NormalizeEmail(email),
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.EmailVerified, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify("get user", err)
	}
	u.CreatedAt = fromMillis(created)
	return &u, nil
}

// UserCount returns the total number of local accounts.
func (s *Store) UserCount(ctx context.Context) (int, error) {
	var count int
	err := s.queryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	return count, classify("count users", err)
}
