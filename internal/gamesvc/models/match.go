package models

import "time"

type MatchRecord struct {
	MatchId    uint32     `json:"match_id"`
	Player1Id  uint32     `json:"player1_id"`
	Player2Id  uint32     `json:"player2_id"`
	WinnerId   uint32     `json:"winner_id"`
	Draw       bool       `json:"draw"`
	Reason     string     `json:"reason"`
	EloChange1 int        `json:"elo_change1"`
	EloChange2 int        `json:"elo_change2"`
	StartedAt  time.Time  `json:"started_at"`
	EndedAt    *time.Time `json:"ended_at,omitempty"`
}

type HistoryRow struct {
	MatchId      uint32    `json:"match_id"`
	OpponentName string    `json:"opponent_name"`
	Won          bool      `json:"won"`
	Draw         bool      `json:"draw"`
	EloChange    int       `json:"elo_change"`
	PlayedAt     time.Time `json:"played_at"`
}
