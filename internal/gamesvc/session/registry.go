// Package session tracks live connections: who is behind each socket,
// what they are doing, and when they were last heard from.
package session

import (
	"sync"
	"time"
)

type Status int

const (
	StatusDisconnected Status = iota
	StatusIdle
	StatusSearching
	StatusInGame
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusSearching:
		return "searching"
	case StatusInGame:
		return "in-game"
	}
	return "disconnected"
}

// Session is one live connection. UserID 0 means not yet authenticated.
type Session struct {
	ConnID      string
	UserID      uint32
	Username    string
	Rating      int
	GamesPlayed int
	Status      Status
	MatchID     uint32
	SearchStart time.Time
	LastSeen    time.Time
}

// Registry owns all sessions, keyed by connection id with a secondary
// index by authenticated user id. All methods are safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	byConn map[string]*Session
	byUser map[uint32]*Session
}

func NewRegistry() *Registry {
	return &Registry{
		byConn: make(map[string]*Session),
		byUser: make(map[uint32]*Session),
	}
}

// Add registers a freshly accepted connection.
func (r *Registry) Add(connID string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := &Session{
		ConnID:   connID,
		Status:   StatusIdle,
		LastSeen: time.Now(),
	}
	r.byConn[connID] = s
	return s
}

// Authenticate binds a user identity to a connection. If the user already
// has another live connection it is returned so the caller can evict it.
func (r *Registry) Authenticate(connID string, userID uint32, username string, rating, gamesPlayed int) (s, prior *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s = r.byConn[connID]
	if s == nil {
		return nil, nil
	}
	if existing, ok := r.byUser[userID]; ok && existing.ConnID != connID {
		prior = existing
	}
	s.UserID = userID
	s.Username = username
	s.Rating = rating
	s.GamesPlayed = gamesPlayed
	s.Status = StatusIdle
	r.byUser[userID] = s
	return s, prior
}

// Remove deletes a session entirely and returns it, or nil if unknown.
func (r *Registry) Remove(connID string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byConn[connID]
	if !ok {
		return nil
	}
	delete(r.byConn, connID)
	if s.UserID != 0 && r.byUser[s.UserID] == s {
		delete(r.byUser, s.UserID)
	}
	s.Status = StatusDisconnected
	return s
}

func (r *Registry) ByConn(connID string) *Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byConn[connID]
}

func (r *Registry) ByUser(userID uint32) *Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byUser[userID]
}

// UpdateStats refreshes a session's rating and games count, typically
// after a match result lands.
func (r *Registry) UpdateStats(userID uint32, rating, gamesPlayed int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.byUser[userID]; ok {
		s.Rating = rating
		s.GamesPlayed = gamesPlayed
	}
}

// Touch refreshes the liveness timestamp.
func (r *Registry) Touch(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.byConn[connID]; ok {
		s.LastSeen = time.Now()
	}
}

// SetStatus moves a session between idle, searching and in-game. Entering
// searching records the search start so matchmaking can widen tolerance.
func (r *Registry) SetStatus(connID string, st Status, matchID uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byConn[connID]
	if !ok {
		return
	}
	s.Status = st
	s.MatchID = matchID
	if st == StatusSearching {
		s.SearchStart = time.Now()
	}
}

// Searching returns all authenticated sessions currently in the queue.
func (r *Registry) Searching() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Session
	for _, s := range r.byConn {
		if s.Status == StatusSearching && s.UserID != 0 {
			out = append(out, s)
		}
	}
	return out
}

// Online lists authenticated sessions, excluding the given user.
func (r *Registry) Online(excludeUserID uint32) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Session
	for _, s := range r.byUser {
		if s.UserID != excludeUserID {
			out = append(out, s)
		}
	}
	return out
}

// Expired returns connections silent for longer than timeout.
func (r *Registry) Expired(timeout time.Duration) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cutoff := time.Now().Add(-timeout)
	var out []*Session
	for _, s := range r.byConn {
		if s.LastSeen.Before(cutoff) {
			out = append(out, s)
		}
	}
	return out
}

// Count reports live session and authenticated user totals.
func (r *Registry) Count() (conns, users int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byConn), len(r.byUser)
}
