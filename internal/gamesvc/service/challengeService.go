package service

import (
	"context"
	"time"

	"monopoly-service/internal/gamesvc/store"

	log "github.com/sirupsen/logrus"
)

// ChallengeService mirrors the in-memory challenge lifecycle into storage.
// Persistence is best effort; a storage hiccup never blocks a challenge.
type ChallengeService struct {
	challengeStore *store.ChallengeStore
}

func NewChallengeService(challengeStore *store.ChallengeStore) *ChallengeService {
	return &ChallengeService{challengeStore: challengeStore}
}

func (s *ChallengeService) Record(challengeId, challengerId, challengedId uint32) {
	if s.challengeStore == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.challengeStore.Create(ctx, challengeId, challengerId, challengedId); err != nil {
		log.Errorf("challenge record failed: %s", err)
	}
}

func (s *ChallengeService) Resolve(challengeId uint32, status string) {
	if s.challengeStore == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.challengeStore.SetStatus(ctx, challengeId, status); err != nil {
		log.Errorf("challenge status update failed: %s", err)
	}
}
