package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type ChallengeStore struct {
	db *pgxpool.Pool
}

func NewChallengeStore(db *pgxpool.Pool) *ChallengeStore {
	return &ChallengeStore{db: db}
}

func (r *ChallengeStore) Create(ctx context.Context, challengeId, challengerId, challengedId uint32) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO challenges (challenge_id, challenger_id, challenged_id, status)
        VALUES ($1, $2, $3, 'pending')
    `, challengeId, challengerId, challengedId)
	if err != nil {
		return fmt.Errorf("could not create challenge: %w", err)
	}
	return nil
}

func (r *ChallengeStore) SetStatus(ctx context.Context, challengeId uint32, status string) error {
	_, err := r.db.Exec(ctx, `
        UPDATE challenges SET status = $2, resolved_at = now() WHERE challenge_id = $1
    `, challengeId, status)
	if err != nil {
		return fmt.Errorf("could not update challenge %d: %w", challengeId, err)
	}
	return nil
}
