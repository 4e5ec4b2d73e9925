package models

import "time"

type SessionToken struct {
	Token     string    `json:"token"`
	UserId    uint32    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type ChallengeRecord struct {
	ChallengeId  uint32    `json:"challenge_id"`
	ChallengerId uint32    `json:"challenger_id"`
	ChallengedId uint32    `json:"challenged_id"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}
