package game

import (
	"fmt"
	"sync"
)

// DefaultPoolCapacity bounds concurrent matches per process.
const DefaultPoolCapacity = 25

// Pool is the bounded arena of live matches, keyed by match id with a
// secondary index by player. Safe for concurrent use.
type Pool struct {
	mu       sync.Mutex
	capacity int
	matches  map[uint32]*Match
	byUser   map[uint32]uint32
	nextID   uint32
}

func NewPool(capacity int) *Pool {
	if capacity <= 0 {
		capacity = DefaultPoolCapacity
	}
	return &Pool{
		capacity: capacity,
		matches:  make(map[uint32]*Match),
		byUser:   make(map[uint32]uint32),
	}
}

// Create allocates a match for two players. Player 0 moves first. Fails
// with ErrPoolFull at capacity and ErrInvalidMove if either player is
// already seated in a live match.
func (p *Pool) Create(p0ID uint32, p0Name string, p1ID uint32, p1Name string) (*Match, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.matches) >= p.capacity {
		return nil, ErrPoolFull
	}
	if _, ok := p.byUser[p0ID]; ok {
		return nil, fmt.Errorf("%w: player %d already in a match", ErrInvalidMove, p0ID)
	}
	if _, ok := p.byUser[p1ID]; ok {
		return nil, fmt.Errorf("%w: player %d already in a match", ErrInvalidMove, p1ID)
	}
	p.nextID++
	return p.seat(p.nextID, p0ID, p0Name, p1ID, p1Name), nil
}

// CanSeat reports whether a match for the two players could be created
// right now, without reserving anything. Callers that persist a match
// row before seating check this first so a full arena never strands a
// row.
func (p *Pool) CanSeat(p0ID, p1ID uint32) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.matches) >= p.capacity {
		return ErrPoolFull
	}
	if _, ok := p.byUser[p0ID]; ok {
		return fmt.Errorf("%w: player %d already in a match", ErrInvalidMove, p0ID)
	}
	if _, ok := p.byUser[p1ID]; ok {
		return fmt.Errorf("%w: player %d already in a match", ErrInvalidMove, p1ID)
	}
	return nil
}

// CreateWithID seats two players under an externally assigned match id,
// typically the persisted match row id.
func (p *Pool) CreateWithID(matchID uint32, p0ID uint32, p0Name string, p1ID uint32, p1Name string) (*Match, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.matches) >= p.capacity {
		return nil, ErrPoolFull
	}
	if _, ok := p.matches[matchID]; ok {
		return nil, fmt.Errorf("%w: match %d already exists", ErrInvalidMove, matchID)
	}
	if _, ok := p.byUser[p0ID]; ok {
		return nil, fmt.Errorf("%w: player %d already in a match", ErrInvalidMove, p0ID)
	}
	if _, ok := p.byUser[p1ID]; ok {
		return nil, fmt.Errorf("%w: player %d already in a match", ErrInvalidMove, p1ID)
	}
	return p.seat(matchID, p0ID, p0Name, p1ID, p1Name), nil
}

func (p *Pool) seat(matchID uint32, p0ID uint32, p0Name string, p1ID uint32, p1Name string) *Match {
	m := NewMatch(matchID, p0ID, p0Name, p1ID, p1Name)
	p.matches[m.ID] = m
	p.byUser[p0ID] = m.ID
	p.byUser[p1ID] = m.ID
	return m
}

func (p *Pool) Get(matchID uint32) *Match {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.matches[matchID]
}

func (p *Pool) ByUser(userID uint32) *Match {
	p.mu.Lock()
	defer p.mu.Unlock()
	id, ok := p.byUser[userID]
	if !ok {
		return nil
	}
	return p.matches[id]
}

// Remove frees a match slot.
func (p *Pool) Remove(matchID uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	m, ok := p.matches[matchID]
	if !ok {
		return
	}
	delete(p.matches, matchID)
	for _, pl := range m.Players {
		if p.byUser[pl.UserID] == matchID {
			delete(p.byUser, pl.UserID)
		}
	}
}

func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.matches)
}

// All returns the live matches, for shutdown notification.
func (p *Pool) All() []*Match {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*Match, 0, len(p.matches))
	for _, m := range p.matches {
		out = append(out, m)
	}
	return out
}
