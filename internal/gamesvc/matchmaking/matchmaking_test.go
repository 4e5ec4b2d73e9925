package matchmaking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"monopoly-service/internal/gamesvc/session"
)

func searcher(id uint32, rating int, waited time.Duration) *session.Session {
	return &session.Session{
		UserID:      id,
		Username:    "p",
		Rating:      rating,
		Status:      session.StatusSearching,
		SearchStart: time.Now().Add(-waited),
	}
}

func TestToleranceMonotoneAndCapped(t *testing.T) {
	e := New(DefaultConfig())

	prev := 0
	for _, waited := range []time.Duration{0, 5 * time.Second, 10 * time.Second, 30 * time.Second, 2 * time.Minute, time.Hour} {
		tol := e.Tolerance(waited)
		assert.GreaterOrEqual(t, tol, prev, "tolerance decreased at wait %v", waited)
		assert.LessOrEqual(t, tol, e.Config().MaxTolerance)
		prev = tol
	}
	assert.Equal(t, 150, e.Tolerance(0))
	assert.Equal(t, 175, e.Tolerance(10*time.Second))
	assert.Equal(t, 500, e.Tolerance(time.Hour))
}

func TestSweepPairsCloseRatings(t *testing.T) {
	e := New(DefaultConfig())
	now := time.Now()

	pairs := e.Sweep([]*session.Session{
		searcher(1, 1200, 0),
		searcher(2, 1210, 0),
	}, now)
	require.Len(t, pairs, 1)
	assert.Equal(t, uint32(1), pairs[0].First.UserID)
	assert.Equal(t, uint32(2), pairs[0].Second.UserID)
}

func TestSweepPicksClosestOpponent(t *testing.T) {
	e := New(DefaultConfig())
	now := time.Now()

	pairs := e.Sweep([]*session.Session{
		searcher(1, 1200, 0),
		searcher(2, 1340, 0),
		searcher(3, 1205, 0),
	}, now)
	require.Len(t, pairs, 1)
	assert.Equal(t, uint32(3), pairs[0].Second.UserID)
}

func TestSweepRespectsTolerance(t *testing.T) {
	e := New(DefaultConfig())
	now := time.Now()

	// 400 apart, neither has waited: no match.
	pairs := e.Sweep([]*session.Session{
		searcher(1, 1200, 0),
		searcher(2, 1600, 0),
	}, now)
	assert.Empty(t, pairs)

	// After both waited long enough the cap (500) admits them.
	pairs = e.Sweep([]*session.Session{
		searcher(1, 1200, 3*time.Minute),
		searcher(2, 1600, 3*time.Minute),
	}, now)
	assert.Len(t, pairs, 1)
}

func TestSweepOrderIsDeterministic(t *testing.T) {
	e := New(DefaultConfig())
	now := time.Now()
	start := now.Add(-time.Second)

	a := &session.Session{UserID: 1, Rating: 1200, Status: session.StatusSearching, SearchStart: start}
	b := &session.Session{UserID: 2, Rating: 1210, Status: session.StatusSearching, SearchStart: start}

	// Equal waits: the lower user id takes the player-0 seat no matter
	// how the registry happened to order the slice.
	for i := 0; i < 100; i++ {
		input := []*session.Session{a, b}
		if i%2 == 1 {
			input = []*session.Session{b, a}
		}
		pairs := e.Sweep(input, now)
		require.Len(t, pairs, 1)
		assert.Equal(t, uint32(1), pairs[0].First.UserID)
		assert.Equal(t, uint32(2), pairs[0].Second.UserID)
	}
}

func TestSweepSeatsLongerWaitFirst(t *testing.T) {
	e := New(DefaultConfig())
	now := time.Now()

	pairs := e.Sweep([]*session.Session{
		searcher(1, 1200, 2*time.Second),
		searcher(2, 1210, time.Minute),
	}, now)
	require.Len(t, pairs, 1)
	assert.Equal(t, uint32(2), pairs[0].First.UserID)
	assert.Equal(t, uint32(1), pairs[0].Second.UserID)
}

func TestSweepToleranceIsMutual(t *testing.T) {
	e := New(DefaultConfig())
	now := time.Now()

	// One side has waited long enough for 200 gap, the other has not.
	pairs := e.Sweep([]*session.Session{
		searcher(1, 1200, time.Minute),
		searcher(2, 1400, 0),
	}, now)
	assert.Empty(t, pairs)
}

func TestChallengeLifecycle(t *testing.T) {
	e := New(DefaultConfig())

	c := e.CreateChallenge(1, 2)
	require.NotNil(t, c)
	assert.Equal(t, ChallengePending, c.Status)
	assert.True(t, e.PendingFor(1, 2))

	// Only the challenged player may answer.
	assert.Nil(t, e.Resolve(c.ID, 1, true))

	resolved := e.Resolve(c.ID, 2, true)
	require.NotNil(t, resolved)
	assert.Equal(t, ChallengeAccepted, resolved.Status)
	assert.False(t, e.PendingFor(1, 2))

	// Already resolved.
	assert.Nil(t, e.Resolve(c.ID, 2, false))
}

func TestChallengeExpiry(t *testing.T) {
	e := New(DefaultConfig())
	c := e.CreateChallenge(1, 2)
	c.CreatedAt = time.Now().Add(-2 * time.Minute)
	e.CreateChallenge(3, 4)

	expired := e.ExpireChallenges(time.Now())
	require.Len(t, expired, 1)
	assert.Equal(t, c.ID, expired[0].ID)
	assert.Equal(t, ChallengeExpired, expired[0].Status)
	assert.True(t, e.PendingFor(3, 4))
}

func TestCancelBy(t *testing.T) {
	e := New(DefaultConfig())
	e.CreateChallenge(1, 2)
	e.CreateChallenge(3, 1)
	e.CreateChallenge(3, 4)

	dropped := e.CancelBy(1)
	assert.Len(t, dropped, 2)
	assert.True(t, e.PendingFor(3, 4))
	assert.False(t, e.PendingFor(1, 2))
}
