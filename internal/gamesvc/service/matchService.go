package service

import (
	"context"
	"fmt"
	"time"

	"monopoly-service/internal/comm"
	"monopoly-service/internal/gamesvc/elo"
	"monopoly-service/internal/gamesvc/models"
	"monopoly-service/internal/gamesvc/store"

	log "github.com/sirupsen/logrus"
)

// MatchService persists match lifecycle: creation, the move log, and the
// final result with its rating update.
type MatchService struct {
	userStore  *store.UserStore
	matchStore *store.MatchStore
	moveStore  *store.MoveStore
}

func NewMatchService(userStore *store.UserStore, matchStore *store.MatchStore, moveStore *store.MoveStore) *MatchService {
	return &MatchService{
		userStore:  userStore,
		matchStore: matchStore,
		moveStore:  moveStore,
	}
}

func (s *MatchService) CreateMatch(ctx context.Context, player1Id, player2Id uint32) (uint32, error) {
	return s.matchStore.CreateMatch(ctx, player1Id, player2Id)
}

// LogMove appends to the move log. Failures are logged, not propagated:
// the log is an audit trail, never a reason to stall a game.
func (s *MatchService) LogMove(matchId uint32, moveNum int, userId uint32, action string, dice [2]int, position int) {
	if s.moveStore == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := s.moveStore.Append(ctx, models.MoveRecord{
		MatchId:   matchId,
		MoveNum:   moveNum,
		UserId:    userId,
		Action:    action,
		Dice:      dice,
		Position:  position,
		CreatedAt: time.Now(),
	})
	if err != nil {
		log.Errorf("move log append failed for match %d: %s", matchId, err)
	}
}

// Finalize computes the rating update from pre-match stats, persists both
// players and the match record, and returns the result payload to push.
func (s *MatchService) Finalize(ctx context.Context, matchId, winnerId, loserId uint32, reason string) (*comm.GameResult, error) {
	winner, err := s.userStore.GetByID(ctx, winnerId)
	if err != nil || winner == nil {
		return nil, fmt.Errorf("finalize: winner %d not found: %w", winnerId, err)
	}
	loser, err := s.userStore.GetByID(ctx, loserId)
	if err != nil || loser == nil {
		return nil, fmt.Errorf("finalize: loser %d not found: %w", loserId, err)
	}

	r := elo.CalculateMatch(winner.Rating, loser.Rating, winner.GamesPlayed, loser.GamesPlayed)

	if err := s.userStore.ApplyResult(ctx, winnerId, r.WinnerNew, 1, 0, 0); err != nil {
		return nil, err
	}
	if err := s.userStore.ApplyResult(ctx, loserId, r.LoserNew, 0, 1, 0); err != nil {
		return nil, err
	}

	rec := models.MatchRecord{
		MatchId:  matchId,
		WinnerId: winnerId,
		Reason:   reason,
	}
	rec.EloChange1, rec.EloChange2 = r.WinnerChange, r.LoserChange
	if err := s.matchStore.RecordResult(ctx, rec); err != nil {
		return nil, err
	}

	return &comm.GameResult{
		MatchId:         matchId,
		WinnerId:        winnerId,
		LoserId:         loserId,
		Reason:          reason,
		WinnerEloBefore: r.WinnerOld,
		WinnerEloAfter:  r.WinnerNew,
		WinnerEloChange: r.WinnerChange,
		LoserEloBefore:  r.LoserOld,
		LoserEloAfter:   r.LoserNew,
		LoserEloChange:  r.LoserChange,
	}, nil
}

// FinalizeDraw applies the symmetric draw delta to both players.
func (s *MatchService) FinalizeDraw(ctx context.Context, matchId, player1Id, player2Id uint32) (*comm.GameResult, error) {
	p1, err := s.userStore.GetByID(ctx, player1Id)
	if err != nil || p1 == nil {
		return nil, fmt.Errorf("finalize draw: player %d not found: %w", player1Id, err)
	}
	p2, err := s.userStore.GetByID(ctx, player2Id)
	if err != nil || p2 == nil {
		return nil, fmt.Errorf("finalize draw: player %d not found: %w", player2Id, err)
	}

	delta := elo.CalculateDraw(p1.Rating, p2.Rating)

	if err := s.userStore.ApplyResult(ctx, player1Id, p1.Rating+delta, 0, 0, 1); err != nil {
		return nil, err
	}
	if err := s.userStore.ApplyResult(ctx, player2Id, p2.Rating-delta, 0, 0, 1); err != nil {
		return nil, err
	}

	rec := models.MatchRecord{
		MatchId:    matchId,
		Draw:       true,
		Reason:     "draw",
		EloChange1: delta,
		EloChange2: -delta,
	}
	if err := s.matchStore.RecordResult(ctx, rec); err != nil {
		return nil, err
	}

	return &comm.GameResult{
		MatchId:         matchId,
		Draw:            true,
		Reason:          "draw",
		WinnerEloBefore: p1.Rating,
		WinnerEloAfter:  p1.Rating + delta,
		WinnerEloChange: delta,
		LoserEloBefore:  p2.Rating,
		LoserEloAfter:   p2.Rating - delta,
		LoserEloChange:  -delta,
	}, nil
}

func (s *MatchService) History(ctx context.Context, userId uint32, limit int) ([]models.HistoryRow, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	return s.matchStore.History(ctx, userId, limit)
}
