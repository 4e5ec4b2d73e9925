package store

import (
	"context"
	"errors"
	"fmt"

	"monopoly-service/internal/gamesvc/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SessionStore struct {
	db *pgxpool.Pool
}

func NewSessionStore(db *pgxpool.Pool) *SessionStore {
	return &SessionStore{db: db}
}

func (r *SessionStore) Create(ctx context.Context, token string, userId uint32) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO sessions (token, user_id, expires_at)
        VALUES ($1, $2, now() + interval '7 days')
    `, token, userId)
	if err != nil {
		return fmt.Errorf("could not create session: %w", err)
	}
	return nil
}

// Validate returns the session for a token, or nil when unknown or expired.
func (r *SessionStore) Validate(ctx context.Context, token string) (*models.SessionToken, error) {
	row := r.db.QueryRow(ctx, `
        SELECT token, user_id, created_at, expires_at
        FROM sessions
        WHERE token = $1 AND expires_at > now()
    `, token)

	s := &models.SessionToken{}
	err := row.Scan(&s.Token, &s.UserId, &s.CreatedAt, &s.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *SessionStore) Invalidate(ctx context.Context, token string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE token = $1`, token)
	if err != nil {
		return fmt.Errorf("could not invalidate session: %w", err)
	}
	return nil
}

func (r *SessionStore) InvalidateForUser(ctx context.Context, userId uint32) error {
	_, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE user_id = $1`, userId)
	if err != nil {
		return fmt.Errorf("could not invalidate sessions for user %d: %w", userId, err)
	}
	return nil
}
