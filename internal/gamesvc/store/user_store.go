package store

import (
	"context"
	"errors"
	"fmt"

	"monopoly-service/internal/gamesvc/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserStore struct {
	db *pgxpool.Pool
}

func NewUserStore(db *pgxpool.Pool) *UserStore {
	return &UserStore{db: db}
}

func (r *UserStore) CreateUser(ctx context.Context, username, passwordHash string, rating int) (uint32, error) {
	var userId uint32

	query := `
        INSERT INTO users (username, password_hash, rating)
        VALUES ($1, $2, $3)
        RETURNING user_id;
    `

	err := r.db.QueryRow(ctx, query, username, passwordHash, rating).Scan(&userId)
	if err != nil {
		return 0, fmt.Errorf("could not create user: %w", err)
	}

	return userId, nil
}

func (r *UserStore) GetByID(ctx context.Context, id uint32) (*models.User, error) {
	row := r.db.QueryRow(ctx, `
        SELECT user_id, username, password_hash, rating, wins, losses, draws, games_played, created_at, updated_at
        FROM users
        WHERE user_id = $1
    `, id)

	return scanUser(row)
}

func (r *UserStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	row := r.db.QueryRow(ctx, `
        SELECT user_id, username, password_hash, rating, wins, losses, draws, games_played, created_at, updated_at
        FROM users
        WHERE username = $1
    `, username)

	return scanUser(row)
}

func scanUser(row pgx.Row) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(
		&u.UserId,
		&u.Username,
		&u.PasswordHash,
		&u.Rating,
		&u.Wins,
		&u.Losses,
		&u.Draws,
		&u.GamesPlayed,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return u, nil
}

// ApplyResult updates rating and win/loss/draw counters after a match.
func (r *UserStore) ApplyResult(ctx context.Context, userId uint32, newRating, winDelta, lossDelta, drawDelta int) error {
	_, err := r.db.Exec(ctx, `
        UPDATE users
        SET rating = $2,
            wins = wins + $3,
            losses = losses + $4,
            draws = draws + $5,
            games_played = games_played + 1,
            updated_at = now()
        WHERE user_id = $1
    `, userId, newRating, winDelta, lossDelta, drawDelta)
	if err != nil {
		return fmt.Errorf("could not apply match result for user %d: %w", userId, err)
	}
	return nil
}
