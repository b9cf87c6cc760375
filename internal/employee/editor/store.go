package editor

import (
	"context"
	"sync"
	"time"

	"github.com/mapleerp/employee-portal/pkg/config"
	"github.com/mapleerp/employee-portal/pkg/errors"
	"github.com/mapleerp/employee-portal/pkg/logger"
)

// Store keeps open sessions and disposes the ones left idle past the TTL
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	interval time.Duration
	log      *logger.Logger
	now      func() time.Time
}

func NewStore(cfg config.SessionConfig, log *logger.Logger) *Store {
	if log == nil {
		log = logger.Nop()
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	interval := cfg.CleanupInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Store{
		sessions: map[string]*Session{},
		ttl:      ttl,
		interval: interval,
		log:      log,
		now:      time.Now,
	}
}

// Add registers a session and returns its ID
func (st *Store) Add(s *Session) string {
	s.touch(st.now())
	st.mu.Lock()
	st.sessions[s.ID()] = s
	st.mu.Unlock()
	return s.ID()
}

// Get returns an open session and refreshes its idle timer
func (st *Store) Get(id string) (*Session, error) {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()
	if !ok || s.Disposed() {
		return nil, errors.NotFound("editor.session_not_found")
	}
	s.touch(st.now())
	return s, nil
}

// Delete disposes a session. In-flight requests finish but their results are dropped.
func (st *Store) Delete(id string) bool {
	st.mu.Lock()
	s, ok := st.sessions[id]
	delete(st.sessions, id)
	st.mu.Unlock()
	if ok {
		s.Dispose()
	}
	return ok
}

// Sweep disposes sessions idle for longer than the TTL and returns how many went
func (st *Store) Sweep() int {
	cutoff := st.now().Add(-st.ttl)

	st.mu.Lock()
	var expired []*Session
	for id, s := range st.sessions {
		if s.idleSince().Before(cutoff) || s.Disposed() {
			expired = append(expired, s)
			delete(st.sessions, id)
		}
	}
	st.mu.Unlock()

	for _, s := range expired {
		s.Dispose()
	}
	if len(expired) > 0 {
		st.log.Debug().Int("count", len(expired)).Msg("expired editor sessions")
	}
	return len(expired)
}

// Run sweeps on the cleanup interval until ctx is done
func (st *Store) Run(ctx context.Context) {
	ticker := time.NewTicker(st.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st.Sweep()
		}
	}
}

func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}
