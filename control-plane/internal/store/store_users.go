package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/vigil-net/uptime-mon/pkg/types"
)

// =============================================================================
// USERS
// =============================================================================
//
// Account management (passwords, verification, 2FA) belongs to the REST
// collaborator; this is only the minimal data-model hook monitors hang off.

// CreateUser inserts a user row.
func (s *Store) CreateUser(ctx context.Context, u *types.User) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	u.CreatedAt = time.Now().UTC()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (id, email, name, created_at)
		VALUES ($1, $2, $3, $4)
	`, u.ID, u.Email, u.Name, u.CreatedAt)
	return err
}

// GetUser retrieves a user by ID. Returns (nil, nil) when not found.
func (s *Store) GetUser(ctx context.Context, id string) (*types.User, error) {
	var u types.User
	err := s.pool.QueryRow(ctx, `
		SELECT id, email, name, created_at FROM users WHERE id = $1
	`, id).Scan(&u.ID, &u.Email, &u.Name, &u.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
