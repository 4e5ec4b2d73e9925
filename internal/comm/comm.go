// Package comm holds the JSON payload contracts exchanged with clients.
// Field names are part of the wire contract.
package comm

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RegisterResponse struct {
	Ok      bool   `json:"ok"`
	UserId  uint32 `json:"user_id,omitempty"`
	Message string `json:"message,omitempty"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Ok       bool   `json:"ok"`
	UserId   uint32 `json:"user_id,omitempty"`
	Username string `json:"username,omitempty"`
	Rating   int    `json:"rating,omitempty"`
	Token    string `json:"token,omitempty"`
	Message  string `json:"message,omitempty"`
}

type OnlinePlayer struct {
	UserId   uint32 `json:"user_id"`
	Username string `json:"username"`
	Rating   int    `json:"rating"`
	Status   string `json:"status"`
}

type OnlinePlayersList struct {
	Players []OnlinePlayer `json:"players"`
}

type MatchFound struct {
	MatchId      uint32 `json:"match_id"`
	OpponentId   uint32 `json:"opponent_id"`
	OpponentName string `json:"opponent_name"`
	OpponentElo  int    `json:"opponent_elo"`
	YouMoveFirst bool   `json:"you_move_first"`
}

type ChallengeRequest struct {
	ChallengeId    uint32 `json:"challenge_id"`
	ChallengerId   uint32 `json:"challenger_id"`
	ChallengerName string `json:"challenger_name"`
	ChallengerElo  int    `json:"challenger_elo"`
}

type ChallengeTarget struct {
	TargetId uint32 `json:"target_id"`
}

type ChallengeAnswer struct {
	ChallengeId uint32 `json:"challenge_id"`
}

// PropertyAction carries the board index for build, sell and mortgage moves.
type PropertyAction struct {
	PropertyId int `json:"property_id"`
}

type PlayerSnapshot struct {
	UserId      uint32 `json:"user_id"`
	Username    string `json:"username"`
	Money       int    `json:"money"`
	Position    int    `json:"position"`
	Jailed      bool   `json:"jailed"`
	TurnsInJail int    `json:"turns_in_jail"`
}

type PropertySnapshot struct {
	Owner     int  `json:"owner"`
	Upgrades  int  `json:"upgrades"`
	Mortgaged bool `json:"mortgaged"`
}

// GameSnapshot is the full-board state pushed to both players after every
// applied action. Clients render from scratch; this is never a diff.
type GameSnapshot struct {
	MatchId       uint32             `json:"match_id"`
	CurrentPlayer int                `json:"current_player"`
	State         string             `json:"state"`
	MoveCount     int                `json:"move_count"`
	Paused        bool               `json:"paused"`
	PausedBy      int                `json:"paused_by"`
	Dice          [2]int             `json:"dice"`
	Message       string             `json:"message"`
	Message2      string             `json:"message2"`
	Players       []PlayerSnapshot   `json:"players"`
	Properties    []PropertySnapshot `json:"properties"`
}

type GameResult struct {
	MatchId         uint32 `json:"match_id"`
	WinnerId        uint32 `json:"winner_id"`
	LoserId         uint32 `json:"loser_id"`
	Draw            bool   `json:"draw"`
	Reason          string `json:"reason"`
	WinnerEloBefore int    `json:"winner_elo_before"`
	WinnerEloAfter  int    `json:"winner_elo_after"`
	WinnerEloChange int    `json:"winner_elo_change"`
	LoserEloBefore  int    `json:"loser_elo_before"`
	LoserEloAfter   int    `json:"loser_elo_after"`
	LoserEloChange  int    `json:"loser_elo_change"`
}

type RematchResponse struct {
	Accept bool `json:"accept"`
}

type HistoryEntry struct {
	MatchId      uint32 `json:"match_id"`
	OpponentName string `json:"opponent_name"`
	Won          bool   `json:"won"`
	Draw         bool   `json:"draw"`
	EloChange    int    `json:"elo_change"`
	PlayedAt     string `json:"played_at"`
}

type HistoryList struct {
	Entries []HistoryEntry `json:"entries"`
}

type ErrorMessage struct {
	Message string `json:"message"`
}

type SuccessMessage struct {
	Message string `json:"message"`
}
