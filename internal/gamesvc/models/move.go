package models

import "time"

// MoveRecord is one applied game action, appended to the move log.
type MoveRecord struct {
	MatchId   uint32    `bson:"match_id" json:"match_id"`
	MoveNum   int       `bson:"move_num" json:"move_num"`
	UserId    uint32    `bson:"user_id" json:"user_id"`
	Action    string    `bson:"action" json:"action"`
	Dice      [2]int    `bson:"dice" json:"dice"`
	Position  int       `bson:"position" json:"position"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
