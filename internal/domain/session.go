package domain

import (
	"errors"
	"sync"
	"time"
)

// SessionState is the lifecycle state of one connection.
type SessionState int

const (
	StateUnauthenticated SessionState = iota
	StateAuthenticated
	StateClosed
)

var (
	ErrNotAuthenticated     = errors.New("session is not authenticated")
	ErrAlreadyAuthenticated = errors.New("session is already authenticated")
	ErrSessionClosed        = errors.New("session is closed")
)

// Session is the per-connection state machine:
// Unauthenticated -> Authenticated -> Closed. It tracks the bound identity
// and the rooms this connection is subscribed to, so close can unwind every
// subscription exactly once.
type Session struct {
	ConnID string

	mu          sync.RWMutex
	state       SessionState
	userID      string
	username    string
	joinedRooms map[string]struct{}
	createdAt   time.Time
}

// NewSession creates an unauthenticated session for one connection.
func NewSession(connID string) *Session {
	return &Session{
		ConnID:      connID,
		joinedRooms: make(map[string]struct{}),
		createdAt:   time.Now(),
	}
}

// Authenticate binds the verified identity and moves to Authenticated.
// It fails without mutating state if the session is closed or already bound.
func (s *Session) Authenticate(userID, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateClosed:
		return ErrSessionClosed
	case StateAuthenticated:
		return ErrAlreadyAuthenticated
	}

	s.userID = userID
	s.username = username
	s.state = StateAuthenticated
	return nil
}

// IsAuthenticated reports whether the session is in Authenticated state.
func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state == StateAuthenticated
}

// State returns the current lifecycle state.
func (s *Session) State() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// UserID returns the bound identity, empty until authenticated.
func (s *Session) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

// Username returns the bound display name, empty until authenticated.
func (s *Session) Username() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.username
}

// TrackRoom records a room subscription on the session.
func (s *Session) TrackRoom(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return
	}
	s.joinedRooms[key] = struct{}{}
}

// DropRoom forgets a room subscription.
func (s *Session) DropRoom(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.joinedRooms, key)
}

// PublicRooms returns the currently tracked public rooms. A session holds
// at most one, but the caller unwinds whatever is there.
func (s *Session) PublicRooms() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rooms []string
	for key := range s.joinedRooms {
		if !IsPrivateKey(key) {
			rooms = append(rooms, key)
		}
	}
	return rooms
}

// Rooms returns every tracked room key.
func (s *Session) Rooms() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rooms := make([]string, 0, len(s.joinedRooms))
	for key := range s.joinedRooms {
		rooms = append(rooms, key)
	}
	return rooms
}

// InRoom reports whether the session tracks the given room.
func (s *Session) InRoom(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.joinedRooms[key]
	return ok
}

// Close moves to Closed and returns the rooms that must be unsubscribed,
// along with whether the session was authenticated. Only the first call
// returns rooms; later calls are no-ops.
func (s *Session) Close() (rooms []string, wasAuthenticated bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosed {
		return nil, false
	}

	wasAuthenticated = s.state == StateAuthenticated
	rooms = make([]string, 0, len(s.joinedRooms))
	for key := range s.joinedRooms {
		rooms = append(rooms, key)
	}
	s.joinedRooms = make(map[string]struct{})
	s.state = StateClosed
	return rooms, wasAuthenticated
}
