package models

import "time"

type User struct {
	UserId       uint32    `json:"user_id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Rating       int       `json:"rating"`
	Wins         int       `json:"wins"`
	Losses       int       `json:"losses"`
	Draws        int       `json:"draws"`
	GamesPlayed  int       `json:"games_played"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
