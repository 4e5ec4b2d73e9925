package store

import (
	"context"
	"fmt"

	"monopoly-service/internal/gamesvc/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type MatchStore struct {
	db *pgxpool.Pool
}

func NewMatchStore(db *pgxpool.Pool) *MatchStore {
	return &MatchStore{db: db}
}

func (r *MatchStore) CreateMatch(ctx context.Context, player1Id, player2Id uint32) (uint32, error) {
	var matchId uint32

	query := `
        INSERT INTO matches (player1_id, player2_id)
        VALUES ($1, $2)
        RETURNING match_id;
    `

	err := r.db.QueryRow(ctx, query, player1Id, player2Id).Scan(&matchId)
	if err != nil {
		return 0, fmt.Errorf("could not create match: %w", err)
	}

	return matchId, nil
}

func (r *MatchStore) RecordResult(ctx context.Context, rec models.MatchRecord) error {
	_, err := r.db.Exec(ctx, `
        UPDATE matches
        SET winner_id = $2,
            draw = $3,
            reason = $4,
            elo_change1 = $5,
            elo_change2 = $6,
            ended_at = now()
        WHERE match_id = $1
    `, rec.MatchId, rec.WinnerId, rec.Draw, rec.Reason, rec.EloChange1, rec.EloChange2)
	if err != nil {
		return fmt.Errorf("could not record match result: %w", err)
	}
	return nil
}

// History lists a player's finished matches, most recent first.
func (r *MatchStore) History(ctx context.Context, userId uint32, limit int) ([]models.HistoryRow, error) {
	rows, err := r.db.Query(ctx, `
        SELECT m.match_id,
               u.username,
               m.winner_id = $1,
               m.draw,
               CASE WHEN m.player1_id = $1 THEN m.elo_change1 ELSE m.elo_change2 END,
               m.ended_at
        FROM matches m
        JOIN users u ON u.user_id = CASE WHEN m.player1_id = $1 THEN m.player2_id ELSE m.player1_id END
        WHERE (m.player1_id = $1 OR m.player2_id = $1) AND m.ended_at IS NOT NULL
        ORDER BY m.ended_at DESC
        LIMIT $2
    `, userId, limit)
	if err != nil {
		return nil, fmt.Errorf("could not read match history: %w", err)
	}
	defer rows.Close()

	var out []models.HistoryRow
	for rows.Next() {
		var h models.HistoryRow
		if err := rows.Scan(&h.MatchId, &h.OpponentName, &h.Won, &h.Draw, &h.EloChange, &h.PlayedAt); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
