// Package matchmaking pairs searching players by rating proximity with a
// wait-time-widening tolerance, and tracks direct challenges between
// named players.
package matchmaking

import (
	"sort"
	"sync"
	"time"

	"monopoly-service/internal/gamesvc/session"
)

// Config holds the sweep and tolerance constants. Zero values are
// replaced by defaults in New.
type Config struct {
	SweepInterval      time.Duration
	BaseTolerance      int
	ToleranceStep      int
	ToleranceStepEvery time.Duration
	MaxTolerance       int
	ChallengeTimeout   time.Duration
}

func DefaultConfig() Config {
	return Config{
		SweepInterval:      2 * time.Second,
		BaseTolerance:      150,
		ToleranceStep:      25,
		ToleranceStepEvery: 10 * time.Second,
		MaxTolerance:       500,
		ChallengeTimeout:   60 * time.Second,
	}
}

// Pair is one matched couple produced by a sweep. First is seated as
// player 0 and moves first.
type Pair struct {
	First  *session.Session
	Second *session.Session
}

type ChallengeStatus int

const (
	ChallengePending ChallengeStatus = iota
	ChallengeAccepted
	ChallengeDeclined
	ChallengeExpired
)

type Challenge struct {
	ID           uint32
	ChallengerID uint32
	ChallengedID uint32
	Status       ChallengeStatus
	CreatedAt    time.Time
}

// Engine is safe for concurrent use, though in practice the dispatch loop
// is its only caller.
type Engine struct {
	cfg Config

	mu         sync.Mutex
	challenges map[uint32]*Challenge
	nextID     uint32
}

func New(cfg Config) *Engine {
	def := DefaultConfig()
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = def.SweepInterval
	}
	if cfg.BaseTolerance <= 0 {
		cfg.BaseTolerance = def.BaseTolerance
	}
	if cfg.ToleranceStep <= 0 {
		cfg.ToleranceStep = def.ToleranceStep
	}
	if cfg.ToleranceStepEvery <= 0 {
		cfg.ToleranceStepEvery = def.ToleranceStepEvery
	}
	if cfg.MaxTolerance <= 0 {
		cfg.MaxTolerance = def.MaxTolerance
	}
	if cfg.ChallengeTimeout <= 0 {
		cfg.ChallengeTimeout = def.ChallengeTimeout
	}
	return &Engine{
		cfg:        cfg,
		challenges: make(map[uint32]*Challenge),
	}
}

func (e *Engine) Config() Config { return e.cfg }

// Tolerance is the maximum allowed rating gap after a given wait. It grows
// by ToleranceStep per ToleranceStepEvery elapsed and never exceeds
// MaxTolerance.
func (e *Engine) Tolerance(waited time.Duration) int {
	steps := int(waited / e.cfg.ToleranceStepEvery)
	tol := e.cfg.BaseTolerance + steps*e.cfg.ToleranceStep
	if tol > e.cfg.MaxTolerance {
		tol = e.cfg.MaxTolerance
	}
	return tol
}

// Sweep pairs searching sessions. Candidates are taken in queue order,
// longest wait first with user id breaking equal waits, so the same
// registry state always yields the same pairs and the same player-0
// seat. For each unmatched candidate the closest-rated eligible
// opponent wins; ties go to the first found. The earlier-queued side of
// each pair moves first.
func (e *Engine) Sweep(searching []*session.Session, now time.Time) []Pair {
	queue := make([]*session.Session, len(searching))
	copy(queue, searching)
	sort.Slice(queue, func(i, j int) bool {
		if !queue[i].SearchStart.Equal(queue[j].SearchStart) {
			return queue[i].SearchStart.Before(queue[j].SearchStart)
		}
		return queue[i].UserID < queue[j].UserID
	})

	var pairs []Pair
	matched := make(map[uint32]bool)

	for i, a := range queue {
		if matched[a.UserID] {
			continue
		}
		tolA := e.Tolerance(now.Sub(a.SearchStart))

		var best *session.Session
		bestDiff := 0
		for _, b := range queue[i+1:] {
			if matched[b.UserID] || b.UserID == a.UserID {
				continue
			}
			diff := a.Rating - b.Rating
			if diff < 0 {
				diff = -diff
			}
			tolB := e.Tolerance(now.Sub(b.SearchStart))
			if diff > tolA || diff > tolB {
				continue
			}
			if best == nil || diff < bestDiff {
				best = b
				bestDiff = diff
			}
		}
		if best != nil {
			matched[a.UserID] = true
			matched[best.UserID] = true
			pairs = append(pairs, Pair{First: a, Second: best})
		}
	}
	return pairs
}

// CreateChallenge opens a pending challenge and returns it.
func (e *Engine) CreateChallenge(challengerID, challengedID uint32) *Challenge {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextID++
	c := &Challenge{
		ID:           e.nextID,
		ChallengerID: challengerID,
		ChallengedID: challengedID,
		Status:       ChallengePending,
		CreatedAt:    time.Now(),
	}
	e.challenges[c.ID] = c
	return c
}

// Resolve marks a pending challenge accepted or declined. Only the
// challenged player may answer. Returns nil if the challenge is unknown,
// already resolved, or answered by the wrong user.
func (e *Engine) Resolve(challengeID, byUserID uint32, accept bool) *Challenge {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, ok := e.challenges[challengeID]
	if !ok || c.Status != ChallengePending || c.ChallengedID != byUserID {
		return nil
	}
	if accept {
		c.Status = ChallengeAccepted
	} else {
		c.Status = ChallengeDeclined
	}
	delete(e.challenges, challengeID)
	return c
}

// CancelBy drops all pending challenges involving a user, returning the
// dropped records so the peers can be notified.
func (e *Engine) CancelBy(userID uint32) []*Challenge {
	e.mu.Lock()
	defer e.mu.Unlock()
	var dropped []*Challenge
	for id, c := range e.challenges {
		if c.ChallengerID == userID || c.ChallengedID == userID {
			c.Status = ChallengeExpired
			dropped = append(dropped, c)
			delete(e.challenges, id)
		}
	}
	return dropped
}

// ExpireChallenges removes challenges pending past the timeout.
func (e *Engine) ExpireChallenges(now time.Time) []*Challenge {
	e.mu.Lock()
	defer e.mu.Unlock()
	cutoff := now.Add(-e.cfg.ChallengeTimeout)
	var expired []*Challenge
	for id, c := range e.challenges {
		if c.CreatedAt.Before(cutoff) {
			c.Status = ChallengeExpired
			expired = append(expired, c)
			delete(e.challenges, id)
		}
	}
	return expired
}

// PendingFor reports whether a user already has an open challenge with
// the given peer, preventing duplicate invitations.
func (e *Engine) PendingFor(challengerID, challengedID uint32) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, c := range e.challenges {
		if c.ChallengerID == challengerID && c.ChallengedID == challengedID {
			return true
		}
	}
	return false
}
