package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"tripseat/internal/models"
)

// CreateOrUpdateUser upserts by username and fills user.ID.
func (db *DB) CreateOrUpdateUser(ctx context.Context, user *models.User) error {
	query := `INSERT INTO users (username, full_name, phone, is_manager, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?)
              ON CONFLICT(username) DO UPDATE SET
                full_name = excluded.full_name,
                phone = excluded.phone,
                is_manager = excluded.is_manager,
                updated_at = excluded.updated_at
              RETURNING id`
	now := time.Now().UTC()
	err := db.QueryRowContext(ctx, query,
		user.Username,
		user.FullName,
		user.Phone,
		user.IsManager,
		now,
		now,
	).Scan(&user.ID)
	if err != nil {
		return fmt.Errorf("failed to create or update user: %w", err)
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	return nil
}

func (db *DB) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT id, username, full_name, phone, is_manager, created_at, updated_at
              FROM users WHERE id = ?`
	return db.queryUser(ctx, query, id)
}

func (db *DB) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT id, username, full_name, phone, is_manager, created_at, updated_at
              FROM users WHERE username = ?`
	return db.queryUser(ctx, query, username)
}

func (db *DB) queryUser(ctx context.Context, query string, arg any) (*models.User, error) {
	var u models.User
	err := db.QueryRowContext(ctx, query, arg).Scan(
		&u.ID,
		&u.Username,
		&u.FullName,
		&u.Phone,
		&u.IsManager,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}
