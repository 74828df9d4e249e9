package history

import (
	"sync"

	"github.com/xhad/reviews/internal/models"
)

// Store is an in-process session history store. Histories live for the
// process lifetime; there is no persistence across restarts.
//
// Appends for one session id are serialized by a per-session mutex so a
// user/assistant pair is never interleaved with another request's pair.
// Two simultaneous requests for the same session still land in arrival
// order; cross-request ordering is not guaranteed.
type Store struct {
	mu       sync.Mutex
	maxTurns int
	sessions map[string]*session
}

type session struct {
	mu    sync.Mutex
	turns []models.Turn
}

// New creates a Store keeping at most maxTurns turns per session.
// maxTurns <= 0 disables the bound.
func New(maxTurns int) *Store {
	return &Store{
		maxTurns: maxTurns,
		sessions: make(map[string]*session),
	}
}

// Get returns a copy of the session's turns in chronological order,
// lazily creating an empty history for an unseen session id.
func (s *Store) Get(sessionID string) []models.Turn {
	sess := s.session(sessionID)

	sess.mu.Lock()
	defer sess.mu.Unlock()

	turns := make([]models.Turn, len(sess.turns))
	copy(turns, sess.turns)
	return turns
}

// Append adds turns to the session's history in the given order, then
// applies the bound by dropping the oldest user/assistant pairs.
func (s *Store) Append(sessionID string, turns ...models.Turn) {
	sess := s.session(sessionID)

	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.turns = append(sess.turns, turns...)

	if s.maxTurns > 0 && len(sess.turns) > s.maxTurns {
		excess := len(sess.turns) - s.maxTurns
		// Drop whole pairs so the history always starts at a user turn.
		if excess%2 == 1 {
			excess++
		}
		sess.turns = append([]models.Turn(nil), sess.turns[excess:]...)
	}
}

func (s *Store) session(id string) *session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		sess = &session{}
		s.sessions[id] = sess
	}
	return sess
}
