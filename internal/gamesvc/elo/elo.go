// Package elo computes skill-rating updates after a finished match.
// Pure functions; persistence of the results belongs to the caller.
package elo

import "math"

const (
	KFactorNew    = 40 // under NewPlayerGames games played
	KFactorNormal = 32
	KFactorMaster = 16 // above MasterRating

	NewPlayerGames = 30
	MasterRating   = 2000

	MinRating     = 100
	DefaultRating = 1200
)

// Result holds both sides of one rating update.
type Result struct {
	WinnerOld    int
	WinnerNew    int
	WinnerChange int
	LoserOld     int
	LoserNew     int
	LoserChange  int
}

// KFactor picks the adjustment speed for a player: fast for new players,
// slow for masters, standard otherwise.
func KFactor(rating, gamesPlayed int) int {
	if gamesPlayed < NewPlayerGames {
		return KFactorNew
	}
	if rating > MasterRating {
		return KFactorMaster
	}
	return KFactorNormal
}

// ExpectedScore is the win probability of a against b:
// E = 1 / (1 + 10^((b-a)/400)).
func ExpectedScore(a, b int) float64 {
	return 1.0 / (1.0 + math.Pow(10, float64(b-a)/400.0))
}

// CalculateMatch computes rating deltas for a decisive result. Games-played
// counts are the values read before this match was recorded. The winner
// always gains at least 1 and the loser always drops at least 1; the loser
// never falls below MinRating, with the recorded change adjusted to land
// exactly on the floor.
func CalculateMatch(winnerRating, loserRating, winnerGames, loserGames int) Result {
	r := Result{WinnerOld: winnerRating, LoserOld: loserRating}

	winnerK := KFactor(winnerRating, winnerGames)
	loserK := KFactor(loserRating, loserGames)

	winnerExpected := ExpectedScore(winnerRating, loserRating)
	loserExpected := ExpectedScore(loserRating, winnerRating)

	r.WinnerChange = int(math.Round(float64(winnerK) * (1.0 - winnerExpected)))
	r.LoserChange = int(math.Round(float64(loserK) * (0.0 - loserExpected)))

	if r.WinnerChange < 1 {
		r.WinnerChange = 1
	}
	if r.LoserChange > -1 {
		r.LoserChange = -1
	}

	r.WinnerNew = winnerRating + r.WinnerChange
	r.LoserNew = loserRating + r.LoserChange

	if r.LoserNew < MinRating {
		r.LoserNew = MinRating
		r.LoserChange = MinRating - loserRating
	}
	return r
}

// CalculateDraw returns the symmetric delta for a draw from player 1's
// perspective; player 2 receives the negated value.
func CalculateDraw(rating1, rating2 int) int {
	expected := ExpectedScore(rating1, rating2)
	return int(math.Round(float64(KFactorNormal) * (0.5 - expected)))
}
