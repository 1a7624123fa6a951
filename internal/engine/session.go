package engine

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Session tracks one agent's activity against the engine: when it first
// connected, when it last called a primitive, and per-primitive call
// counts.
type Session struct {
	AgentID      string
	CreatedAt    time.Time
	LastActivity time.Time
	Counts       map[PrimitiveKind]int64
}

// sessionStore is the engine's agent-session map. Create/update critical
// sections are kept short; counters are updated under the same lock
// rather than split into atomics, since a session's whole record is
// touched together on every call.
type sessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	idleAfter time.Duration
}

func newSessionStore(idleAfter time.Duration) *sessionStore {
	return &sessionStore{
		sessions:  make(map[string]*Session),
		idleAfter: idleAfter,
	}
}

// touch records a call from agentID, creating the session on first
// contact, and returns the current record (a copy, safe to read without
// the lock).
func (s *sessionStore) touch(agentID string, kind PrimitiveKind, now time.Time) Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[agentID]
	if !ok {
		sess = &Session{
			AgentID:   agentID,
			CreatedAt: now,
			Counts:    make(map[PrimitiveKind]int64),
		}
		s.sessions[agentID] = sess
	}
	sess.LastActivity = now
	sess.Counts[kind]++

	return Session{
		AgentID:      sess.AgentID,
		CreatedAt:    sess.CreatedAt,
		LastActivity: sess.LastActivity,
		Counts:       copyCounts(sess.Counts),
	}
}

func copyCounts(m map[PrimitiveKind]int64) map[PrimitiveKind]int64 {
	out := make(map[PrimitiveKind]int64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// sweepIdle removes sessions whose LastActivity is older than idleAfter
// relative to now. Returns the number removed. Called from the engine's
// maintenance tick.
func (s *sessionStore) sweepIdle(now time.Time) int {
	if s.idleAfter <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if now.Sub(sess.LastActivity) > s.idleAfter {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

func (s *sessionStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// SessionStat is one agent's session record plus derived idle duration,
// used by the engine's stats surface.
type SessionStat struct {
	Session
	IdleFor time.Duration
}

// all returns a stat record for every tracked session, relative to now.
func (s *sessionStore) all(now time.Time) []SessionStat {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]SessionStat, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, SessionStat{
			Session: Session{
				AgentID:      sess.AgentID,
				CreatedAt:    sess.CreatedAt,
				LastActivity: sess.LastActivity,
				Counts:       copyCounts(sess.Counts),
			},
			IdleFor: now.Sub(sess.LastActivity),
		})
	}
	return out
}

func (s *sessionStore) get(agentID string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[agentID]
	if !ok {
		return Session{}, false
	}
	return Session{
		AgentID:      sess.AgentID,
		CreatedAt:    sess.CreatedAt,
		LastActivity: sess.LastActivity,
		Counts:       copyCounts(sess.Counts),
	}, true
}

// DetectAgentID derives a default agent/session id from the enclosing git
// repository's directory name, used when a caller connects without
// supplying an explicit agent_id.
func DetectAgentID() string {
	cwd, err := os.Getwd()
	if err != nil {
		return "agent-unknown"
	}
	root := findGitRoot(cwd)
	if root == "" {
		root = cwd
	}
	return "agent-" + sanitizeDirName(filepath.Base(root))
}

func findGitRoot(start string) string {
	dir := start
	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			_ = info
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func sanitizeDirName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ' || r == '.':
			b.WriteRune('-')
		}
	}
	return strings.ToLower(b.String())
}
