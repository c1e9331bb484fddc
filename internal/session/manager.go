package session

import (
	"log"
	"sync"
	"time"
)

// Config carries the match tunables shared by every session.
type Config struct {
	TurnBudget time.Duration // time a side has to move before a forced skip
	MissLimit  int           // consecutive skips that forfeit the match
	GraceDelay time.Duration // delay between game_over and session teardown
}

// DefaultConfig matches the server defaults.
func DefaultConfig() Config {
	return Config{
		TurnBudget: 30 * time.Second,
		MissLimit:  3,
		GraceDelay: 2 * time.Second,
	}
}

// Manager owns the registry of live sessions: it is the only component
// allowed to create or destroy them. Map access is serialized on its own
// mutex; per-session work happens under the session's lock.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	cfg      Config
}

// NewManager creates an empty registry.
func NewManager(cfg Config) *Manager {
	if cfg.MissLimit <= 0 {
		cfg.MissLimit = 3
	}
	return &Manager{
		sessions: make(map[string]*Session),
		cfg:      cfg,
	}
}

// Create registers a new session under the given code.
func (m *Manager) Create(mode Mode, code string) *Session {
	s := newSession(m, mode, code)
	m.mu.Lock()
	m.sessions[code] = s
	m.mu.Unlock()
	return s
}

// Room returns the invite session for a code, creating it on first use.
func (m *Manager) Room(code string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[code]; ok {
		return s
	}
	s := newSession(m, ModeInvite, code)
	m.sessions[code] = s
	return s
}

// Get returns a session by code.
func (m *Manager) Get(code string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[code]
	return s, ok
}

// Destroy removes a session from the registry and releases its clock and
// send channels. Safe to call more than once; the second call is a no-op.
func (m *Manager) Destroy(code string) {
	m.mu.Lock()
	s, ok := m.sessions[code]
	if ok {
		delete(m.sessions, code)
	}
	m.mu.Unlock()
	if ok {
		s.close()
	}
}

// List returns info for all live sessions.
func (m *Manager) List() []Info {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	infos := make([]Info, 0, len(sessions))
	for _, s := range sessions {
		infos = append(infos, s.Info())
	}
	return infos
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// CleanupLoop periodically destroys sessions idle beyond maxAge, catching
// invite rooms whose host never started and never disconnected cleanly.
func (m *Manager) CleanupLoop(interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		m.cleanup(maxAge)
	}
}

func (m *Manager) cleanup(maxAge time.Duration) {
	for _, info := range m.List() {
		s, ok := m.Get(info.Code)
		if !ok {
			continue
		}
		if s.idle(maxAge) {
			log.Printf("cleaning up idle session %s", s.Code)
			m.Destroy(s.Code)
		}
	}
}
