package session

import (
	"sync"
	"time"
)

type Options struct {
	IdleTTL time.Duration
}

// Store keeps sessions in memory. Nothing is persisted.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	previews *Previews
	idleTTL  time.Duration
}

func NewStore(opts Options) *Store {
	ttl := opts.IdleTTL
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &Store{
		sessions: make(map[string]*Session),
		previews: NewPreviews(),
		idleTTL:  ttl,
	}
}

func (s *Store) Previews() *Previews { return s.previews }

func (s *Store) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

func (s *Store) GetOrCreate(id string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		return sess
	}
	sess := newSession(id, s.previews)
	s.sessions[id] = sess
	return sess
}

// Drop tears a session down and releases its resources.
func (s *Store) Drop(id string) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if ok {
		sess.Close()
	}
}

// Sweep drops sessions idle for longer than the TTL and returns how many.
func (s *Store) Sweep(now time.Time) int {
	s.mu.Lock()
	var stale []*Session
	for id, sess := range s.sessions {
		if now.Sub(sess.idleSince()) > s.idleTTL && !sess.guard.Busy() {
			stale = append(stale, sess)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, sess := range stale {
		sess.Close()
	}
	return len(stale)
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
